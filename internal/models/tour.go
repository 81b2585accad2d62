// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package models

import (
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Difficulty is a tour's physical difficulty.
type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyDifficult Difficulty = "difficult"
)

// Rating defaults applied to new tours and to tours whose last review is removed.
const (
	DefaultRatingsAverage  = 4.5
	DefaultRatingsQuantity = 0
)

// GeoPoint is a GeoJSON Point with descriptive fields. Coordinates are
// [longitude, latitude], the order MongoDB geospatial indexes require.
type GeoPoint struct {
	Type        string    `json:"type" bson:"type" validate:"omitempty,oneof=Point"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates" validate:"omitempty,geopoint"`
	Address     string    `json:"address,omitempty" bson:"address,omitempty"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Day         int       `json:"day,omitempty" bson:"day,omitempty"`
}

// Tour is a bookable tour.
//
// Slug is derived from Name and CreatedAt is set on insert; neither is
// accepted from clients. RatingsAverage and RatingsQuantity are rewritten
// by the rating recalculation after every review change.
type Tour struct {
	ID              primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name            string             `json:"name" bson:"name" validate:"required,min=10,max=40"`
	Slug            string             `json:"slug" bson:"slug"`
	Duration        int                `json:"duration" bson:"duration" validate:"required,gt=0"`
	MaxGroupSize    int                `json:"maxGroupSize" bson:"maxGroupSize" validate:"required,gt=0"`
	Difficulty      Difficulty         `json:"difficulty" bson:"difficulty" validate:"required,oneof=easy medium difficult"`
	RatingsAverage  float64            `json:"ratingsAverage" bson:"ratingsAverage" validate:"gte=1,lte=5"`
	RatingsQuantity int                `json:"ratingsQuantity" bson:"ratingsQuantity" validate:"gte=0"`
	Price           float64            `json:"price" bson:"price" validate:"required,gt=0"`
	PriceDiscount   float64            `json:"priceDiscount,omitempty" bson:"priceDiscount,omitempty" validate:"omitempty,gte=0,ltfield=Price"`
	Summary         string             `json:"summary" bson:"summary" validate:"required"`
	Description     string             `json:"description,omitempty" bson:"description,omitempty"`
	ImageCover      string             `json:"imageCover" bson:"imageCover" validate:"required"`
	Images          []string           `json:"images" bson:"images"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	StartDates      []time.Time        `json:"startDates" bson:"startDates"`
	SecretTour      bool               `json:"secretTour" bson:"secretTour"`
	StartLocation   *GeoPoint          `json:"startLocation,omitempty" bson:"startLocation,omitempty"`
	Locations       []GeoPoint         `json:"locations" bson:"locations" validate:"dive"`
	Guides          []Ref[User]        `json:"guides" bson:"guides"`
	Version         int                `json:"-" bson:"__v"`

	// Reviews is filled by population only and never stored.
	Reviews []*Review `json:"reviews,omitempty" bson:"-"`
}

// DurationWeeks is the tour length in weeks.
func (t *Tour) DurationWeeks() float64 {
	return float64(t.Duration) / 7
}

// Normalize trims text fields, fills defaults and derives the slug.
// It runs before every insert and update.
func (t *Tour) Normalize() {
	t.Name = strings.TrimSpace(t.Name)
	t.Summary = strings.TrimSpace(t.Summary)
	t.Description = strings.TrimSpace(t.Description)
	t.Slug = Slugify(t.Name)
	if t.RatingsAverage == 0 && t.RatingsQuantity == 0 {
		t.RatingsAverage = DefaultRatingsAverage
	}
	t.RatingsAverage = RoundRating(t.RatingsAverage)
	if t.StartLocation != nil && t.StartLocation.Type == "" {
		t.StartLocation.Type = "Point"
	}
	for i := range t.Locations {
		if t.Locations[i].Type == "" {
			t.Locations[i].Type = "Point"
		}
	}
	if t.Images == nil {
		t.Images = []string{}
	}
	if t.Guides == nil {
		t.Guides = []Ref[User]{}
	}
}

// MarshalJSON adds the durationWeeks virtual.
func (t Tour) MarshalJSON() ([]byte, error) {
	type plain Tour
	return json.Marshal(struct {
		plain
		DurationWeeks float64 `json:"durationWeeks"`
	}{plain(t), t.DurationWeeks()})
}

// RoundRating rounds to one decimal place, so 4.666 becomes 4.7.
func RoundRating(v float64) float64 {
	return math.Round(v*10) / 10
}

// Slugify lower-cases s and joins its alphanumeric runs with dashes:
// "The Forest Hiker" becomes "the-forest-hiker".
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
		default:
			dash = true
		}
	}
	return b.String()
}
