// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package database

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Earth radii used to convert a surface distance into the radians
// expected by $centerSphere.
const (
	EarthRadiusMiles      = 3963.2
	EarthRadiusKilometers = 6378.1
)

// $geoNear reports meters; these convert to the requested unit.
const (
	MetersToMiles      = 0.000621371
	MetersToKilometers = 0.001
)

// Unit is a distance unit accepted by the geo routes.
type Unit string

const (
	UnitMiles      Unit = "mi"
	UnitKilometers Unit = "km"
)

var (
	ErrInvalidLatLng   = errors.New("please provide latitude and longitude in the format lat,lng")
	ErrInvalidUnit     = errors.New("unit must be either mi or km")
	ErrInvalidDistance = errors.New("distance must be a positive number")
)

// ParseUnit validates a unit path segment.
func ParseUnit(s string) (Unit, error) {
	switch Unit(s) {
	case UnitMiles, UnitKilometers:
		return Unit(s), nil
	}
	return "", ErrInvalidUnit
}

// EarthRadius returns the Earth radius in u.
func (u Unit) EarthRadius() float64 {
	if u == UnitMiles {
		return EarthRadiusMiles
	}
	return EarthRadiusKilometers
}

// DistanceMultiplier converts meters into u.
func (u Unit) DistanceMultiplier() float64 {
	if u == UnitMiles {
		return MetersToMiles
	}
	return MetersToKilometers
}

// ParseLatLng parses "lat,lng" and checks both are in range.
func ParseLatLng(s string) (lat, lng float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, ErrInvalidLatLng
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, ErrInvalidLatLng
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || lng < -180 || lng > 180 {
		return 0, 0, ErrInvalidLatLng
	}
	return lat, lng, nil
}

// ParseDistance parses a positive distance.
func ParseDistance(s string) (float64, error) {
	d, err := strconv.ParseFloat(s, 64)
	if err != nil || d <= 0 {
		return 0, ErrInvalidDistance
	}
	return d, nil
}

// RadiusRadians converts a surface distance in u into radians.
func RadiusRadians(distance float64, u Unit) float64 {
	return distance / u.EarthRadius()
}

// GeoQuery is a validated tours-within or distances request.
type GeoQuery struct {
	Lat, Lng float64
	Distance float64
	Unit     Unit
}

// ParseGeoQuery validates the path segments of the geo routes. distance
// may be empty for the distances route.
func ParseGeoQuery(distance, latlng, unit string) (GeoQuery, error) {
	var q GeoQuery
	var err error
	if q.Lat, q.Lng, err = ParseLatLng(latlng); err != nil {
		return q, err
	}
	if q.Unit, err = ParseUnit(unit); err != nil {
		return q, err
	}
	if distance != "" {
		if q.Distance, err = ParseDistance(distance); err != nil {
			return q, err
		}
	}
	return q, nil
}

func (q GeoQuery) String() string {
	return fmt.Sprintf("%g,%g %g%s", q.Lat, q.Lng, q.Distance, q.Unit)
}
