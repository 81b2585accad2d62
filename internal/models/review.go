// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultReviewRating is used when a review is submitted without a rating.
const DefaultReviewRating = 4.5

// Review is one user's rating of one tour. The pair (Tour, User) is unique.
type Review struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Review    string             `json:"review" bson:"review" validate:"required"`
	Rating    float64            `json:"rating" bson:"rating" validate:"gte=1,lte=5"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	Tour      Ref[Tour]          `json:"tour" bson:"tour" validate:"required"`
	User      Ref[User]          `json:"user" bson:"user" validate:"required"`
	Version   int                `json:"-" bson:"__v"`
}

// Normalize trims the text and fills the default rating.
func (r *Review) Normalize() {
	r.Review = strings.TrimSpace(r.Review)
	if r.Rating == 0 {
		r.Rating = DefaultReviewRating
	}
}
