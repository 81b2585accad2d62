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

	"github.com/tomtom215/natours/internal/database/query"
	"github.com/tomtom215/natours/internal/models"
)

// DifficultyStats is one row of the tour statistics.
type DifficultyStats struct {
	Difficulty string  `json:"_id" bson:"_id"`
	NumTours   int     `json:"numTours" bson:"numTours"`
	NumRatings int     `json:"numRatings" bson:"numRatings"`
	AvgRating  float64 `json:"avgRating" bson:"avgRating"`
	AvgPrice   float64 `json:"avgPrice" bson:"avgPrice"`
	MinPrice   float64 `json:"minPrice" bson:"minPrice"`
	MaxPrice   float64 `json:"maxPrice" bson:"maxPrice"`
}

// MonthPlan is one month of the yearly tour plan.
type MonthPlan struct {
	Month         int      `json:"month" bson:"month"`
	NumTourStarts int      `json:"numTourStarts" bson:"numTourStarts"`
	Tours         []string `json:"tours" bson:"tours"`
}

// TourDistance is a tour name with its distance from a point.
type TourDistance struct {
	ID       primitive.ObjectID `json:"_id" bson:"_id"`
	Name     string             `json:"name" bson:"name"`
	Distance float64            `json:"distance" bson:"distance"`
}

// TourAggregates runs the analytical queries over tours.
type TourAggregates struct {
	tours *Collection[models.Tour]
}

// StatsPipeline groups highly rated visible tours by difficulty.
func StatsPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: NotSecret()}},
		{{Key: "$match", Value: bson.D{{Key: "ratingsAverage", Value: bson.D{{Key: "$gte", Value: models.DefaultRatingsAverage}}}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$toUpper", Value: "$difficulty"}}},
			{Key: "numTours", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "numRatings", Value: bson.D{{Key: "$sum", Value: "$ratingsQuantity"}}},
			{Key: "avgRating", Value: bson.D{{Key: "$avg", Value: "$ratingsAverage"}}},
			{Key: "avgPrice", Value: bson.D{{Key: "$avg", Value: "$price"}}},
			{Key: "minPrice", Value: bson.D{{Key: "$min", Value: "$price"}}},
			{Key: "maxPrice", Value: bson.D{{Key: "$max", Value: "$price"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "avgPrice", Value: 1}}}},
	}
}

// MonthlyPlanPipeline counts tour starts per month of year, busiest first.
func MonthlyPlanPipeline(year int) mongo.Pipeline {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 23, 59, 59, int(time.Second-time.Millisecond), time.UTC)
	return mongo.Pipeline{
		{{Key: "$match", Value: NotSecret()}},
		{{Key: "$unwind", Value: "$startDates"}},
		{{Key: "$match", Value: bson.D{{Key: "startDates", Value: bson.D{
			{Key: "$gte", Value: from},
			{Key: "$lte", Value: to},
		}}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$month", Value: "$startDates"}}},
			{Key: "numTourStarts", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "tours", Value: bson.D{{Key: "$push", Value: "$name"}}},
		}}},
		{{Key: "$addFields", Value: bson.D{{Key: "month", Value: "$_id"}}}},
		{{Key: "$project", Value: bson.D{{Key: "_id", Value: 0}}}},
		{{Key: "$sort", Value: bson.D{{Key: "numTourStarts", Value: -1}, {Key: "month", Value: 1}}}},
		{{Key: "$limit", Value: 12}},
	}
}

// WithinFilter matches tours starting inside a spherical cap.
func WithinFilter(q GeoQuery) bson.D {
	return bson.D{{Key: "startLocation", Value: bson.D{{Key: "$geoWithin", Value: bson.D{
		{Key: "$centerSphere", Value: bson.A{bson.A{q.Lng, q.Lat}, RadiusRadians(q.Distance, q.Unit)}},
	}}}}}
}

// DistancesPipeline lists visible tours with their distance from a point.
// $geoNear has to be the first stage, so the visibility predicate goes in
// its query.
func DistancesPipeline(q GeoQuery) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$geoNear", Value: bson.D{
			{Key: "near", Value: bson.D{
				{Key: "type", Value: "Point"},
				{Key: "coordinates", Value: bson.A{q.Lng, q.Lat}},
			}},
			{Key: "distanceField", Value: "distance"},
			{Key: "distanceMultiplier", Value: q.Unit.DistanceMultiplier()},
			{Key: "query", Value: NotSecret()},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "distance", Value: 1},
			{Key: "name", Value: 1},
		}}},
	}
}

func aggregate[R any](ctx context.Context, coll *mongo.Collection, op string, pipeline mongo.Pipeline) ([]R, error) {
	start := time.Now()
	cur, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		recordQuery(op, coll.Name(), start, err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := []R{}
	err = cur.All(ctx, &out)
	recordQuery(op, coll.Name(), start, err)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// Stats returns rating and price statistics per difficulty.
func (a *TourAggregates) Stats(ctx context.Context) ([]DifficultyStats, error) {
	return aggregate[DifficultyStats](ctx, a.tours.coll, "tour_stats", StatsPipeline())
}

// MonthlyPlan returns the number of tour starts per month of year.
func (a *TourAggregates) MonthlyPlan(ctx context.Context, year int) ([]MonthPlan, error) {
	return aggregate[MonthPlan](ctx, a.tours.coll, "monthly_plan", MonthlyPlanPipeline(year))
}

// Within returns visible tours starting within q.Distance of the point.
func (a *TourAggregates) Within(ctx context.Context, q GeoQuery) ([]*models.Tour, error) {
	return a.tours.Find(ctx, nil, WithinFilter(q))
}

// Distances returns every visible tour with its distance from the point.
func (a *TourAggregates) Distances(ctx context.Context, q GeoQuery) ([]TourDistance, error) {
	return aggregate[TourDistance](ctx, a.tours.coll, "tour_distances", DistancesPipeline(q))
}

// BookedTours returns the visible tours a user has booked.
func (s *Store) BookedTours(ctx context.Context, userID primitive.ObjectID) ([]*models.Tour, error) {
	bookings, err := s.Bookings.Find(ctx, nil, ByUser(userID))
	if err != nil {
		return nil, err
	}
	ids := bson.A{}
	for _, b := range bookings {
		ids = append(ids, b.Tour.ID)
	}
	if len(ids) == 0 {
		return []*models.Tour{}, nil
	}
	return s.Tours.Find(ctx, query.New(nil), bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
}
