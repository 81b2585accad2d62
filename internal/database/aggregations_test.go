// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package database

import (
	"reflect"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func stage(t *testing.T, p []bson.D, i int) bson.E {
	t.Helper()
	if i >= len(p) || len(p[i]) != 1 {
		t.Fatalf("pipeline stage %d missing or malformed: %v", i, p)
	}
	return p[i][0]
}

func TestStatsPipeline(t *testing.T) {
	t.Parallel()

	p := StatsPipeline()
	wantOps := []string{"$match", "$match", "$group", "$sort"}
	for i, op := range wantOps {
		if got := stage(t, p, i).Key; got != op {
			t.Errorf("stage %d = %s, want %s", i, got, op)
		}
	}
	if !reflect.DeepEqual(stage(t, p, 0).Value, NotSecret()) {
		t.Errorf("first stage does not hide secret tours: %v", stage(t, p, 0).Value)
	}
	group := stage(t, p, 2).Value.(bson.D)
	if group[0].Key != "_id" || !reflect.DeepEqual(group[0].Value, bson.D{{Key: "$toUpper", Value: "$difficulty"}}) {
		t.Errorf("group key = %v", group[0])
	}
}

func TestMonthlyPlanPipeline(t *testing.T) {
	t.Parallel()

	p := MonthlyPlanPipeline(2021)
	if got := stage(t, p, 1); got.Key != "$unwind" || got.Value != "$startDates" {
		t.Errorf("stage 1 = %v, want $unwind startDates", got)
	}

	rng := stage(t, p, 2).Value.(bson.D)[0].Value.(bson.D)
	from := rng[0].Value.(time.Time)
	to := rng[1].Value.(time.Time)
	if !from.Equal(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("range start = %v", from)
	}
	if to.Year() != 2021 || to.Month() != time.December || to.Day() != 31 || to.Hour() != 23 {
		t.Errorf("range end = %v, want last instant of 2021", to)
	}

	last := stage(t, p, len(p)-1)
	if last.Key != "$limit" || last.Value != 12 {
		t.Errorf("last stage = %v, want $limit 12", last)
	}
}

func TestWithinFilter(t *testing.T) {
	t.Parallel()

	q := GeoQuery{Lat: 34, Lng: -118, Distance: 100, Unit: UnitMiles}
	want := bson.D{{Key: "startLocation", Value: bson.D{{Key: "$geoWithin", Value: bson.D{
		{Key: "$centerSphere", Value: bson.A{bson.A{-118.0, 34.0}, 100 / EarthRadiusMiles}},
	}}}}}
	if got := WithinFilter(q); !reflect.DeepEqual(got, want) {
		t.Errorf("WithinFilter() = %v, want %v", got, want)
	}
}

func TestDistancesPipeline(t *testing.T) {
	t.Parallel()

	p := DistancesPipeline(GeoQuery{Lat: 34, Lng: -118, Unit: UnitKilometers})
	geoNear := stage(t, p, 0)
	if geoNear.Key != "$geoNear" {
		t.Fatalf("first stage = %s, want $geoNear", geoNear.Key)
	}
	opts := geoNear.Value.(bson.D).Map()
	if opts["distanceMultiplier"] != MetersToKilometers {
		t.Errorf("distanceMultiplier = %v", opts["distanceMultiplier"])
	}
	if !reflect.DeepEqual(opts["query"], NotSecret()) {
		t.Errorf("query = %v, want NotSecret", opts["query"])
	}
	near := opts["near"].(bson.D).Map()
	if !reflect.DeepEqual(near["coordinates"], bson.A{-118.0, 34.0}) {
		t.Errorf("near coordinates = %v, want [lng, lat]", near["coordinates"])
	}
}

func TestRatingsPipelineAndSummarize(t *testing.T) {
	t.Parallel()

	id := primitive.NewObjectID()
	p := RatingsPipeline(id)
	if !reflect.DeepEqual(stage(t, p, 0).Value, ByTour(id)) {
		t.Errorf("match stage = %v", stage(t, p, 0).Value)
	}

	tests := []struct {
		name string
		rows []RatingSummary
		want RatingSummary
	}{
		{"no reviews resets", nil, RatingSummary{Quantity: 0, Average: 4.5}},
		{"rounds average", []RatingSummary{{Quantity: 3, Average: 4.666666}}, RatingSummary{Quantity: 3, Average: 4.7}},
		{"single review", []RatingSummary{{Quantity: 1, Average: 2}}, RatingSummary{Quantity: 1, Average: 2}},
	}
	for _, tt := range tests {
		if got := Summarize(tt.rows); got != tt.want {
			t.Errorf("%s: Summarize() = %+v, want %+v", tt.name, got, tt.want)
		}
	}
}
