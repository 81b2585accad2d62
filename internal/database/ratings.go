// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tomtom215/natours/internal/models"
)

// RatingSummary is the aggregate rating stored on a tour.
type RatingSummary struct {
	Quantity int     `bson:"nRating"`
	Average  float64 `bson:"avgRating"`
}

// Ratings keeps each tour's ratingsAverage and ratingsQuantity in line
// with its reviews. Callers invoke Recalculate after every review write;
// concurrent recalculations for one tour are last-write-wins.
type Ratings struct {
	reviews *Collection[models.Review]
	tours   *Collection[models.Tour]
}

// RatingsPipeline counts and averages the reviews of a tour.
func RatingsPipeline(tourID primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: ByTour(tourID)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$tour"},
			{Key: "nRating", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "avgRating", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
		}}},
	}
}

// Summarize turns aggregation output into the values to store. No
// reviews resets the tour to the defaults.
func Summarize(rows []RatingSummary) RatingSummary {
	if len(rows) == 0 || rows[0].Quantity == 0 {
		return RatingSummary{Quantity: models.DefaultRatingsQuantity, Average: models.DefaultRatingsAverage}
	}
	return RatingSummary{Quantity: rows[0].Quantity, Average: models.RoundRating(rows[0].Average)}
}

// Recalculate recomputes and stores the rating summary of a tour.
func (r *Ratings) Recalculate(ctx context.Context, tourID primitive.ObjectID) (RatingSummary, error) {
	rows, err := aggregate[RatingSummary](ctx, r.reviews.coll, "rating_stats", RatingsPipeline(tourID))
	if err != nil {
		return RatingSummary{}, err
	}
	sum := Summarize(rows)

	start := time.Now()
	_, err = r.tours.coll.UpdateOne(ctx, ByID(tourID), bson.D{{Key: "$set", Value: bson.D{
		{Key: "ratingsQuantity", Value: sum.Quantity},
		{Key: "ratingsAverage", Value: sum.Average},
	}}})
	recordQuery("update_ratings", r.tours.desc.Name, start, err)
	if err != nil {
		return RatingSummary{}, fmt.Errorf("update tour ratings: %w", err)
	}
	return sum, nil
}
