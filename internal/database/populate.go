// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package database

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tomtom215/natours/internal/database/query"
	"github.com/tomtom215/natours/internal/models"
)

// populateRefs loads the documents referenced by the slots of each doc from
// target and attaches them. fields restricts the projection; when empty the
// target's hidden projection applies. References to documents outside the
// target's scope stay unresolved.
func populateRefs[T, R any](ctx context.Context, docs []*T, target *Collection[R], slots func(*T) []*models.Ref[R], fields ...string) error {
	seen := map[primitive.ObjectID]bool{}
	ids := bson.A{}
	for _, d := range docs {
		for _, ref := range slots(d) {
			if ref.ID.IsZero() || seen[ref.ID] {
				continue
			}
			seen[ref.ID] = true
			ids = append(ids, ref.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	projection := target.hiddenProjection()
	if len(fields) > 0 {
		projection = bson.D{}
		for _, f := range fields {
			projection = append(projection, bson.E{Key: f, Value: 1})
		}
	}

	filter := query.And(target.desc.Scope, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})

	start := time.Now()
	cur, err := target.coll.Find(ctx, filter, options.Find().SetProjection(projection))
	if err != nil {
		recordQuery("populate", target.desc.Name, start, err)
		return err
	}
	defer func() { _ = cur.Close(ctx) }()

	byID := make(map[primitive.ObjectID]*R, len(ids))
	for cur.Next(ctx) {
		id, ok := cur.Current.Lookup("_id").ObjectIDOK()
		if !ok {
			continue
		}
		var r R
		if err := cur.Decode(&r); err != nil {
			recordQuery("populate", target.desc.Name, start, err)
			return err
		}
		byID[id] = &r
	}
	recordQuery("populate", target.desc.Name, start, cur.Err())
	if err := cur.Err(); err != nil {
		return err
	}

	for _, d := range docs {
		for _, ref := range slots(d) {
			ref.Doc = byID[ref.ID]
		}
	}
	return nil
}

// populateTourReviews attaches each tour's reviews, with their authors.
func populateTourReviews(ctx context.Context, tours []*models.Tour, reviews *Collection[models.Review]) error {
	ids := bson.A{}
	byID := make(map[primitive.ObjectID]*models.Tour, len(tours))
	for _, t := range tours {
		t.Reviews = []*models.Review{}
		if _, dup := byID[t.ID]; !dup {
			ids = append(ids, t.ID)
		}
		byID[t.ID] = t
	}

	f := query.New(nil)
	list, err := reviews.Find(ctx, f, bson.D{{Key: "tour", Value: bson.D{{Key: "$in", Value: ids}}}}, PopulateUser)
	if err != nil {
		return err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })

	for _, r := range list {
		if t, ok := byID[r.Tour.ID]; ok {
			t.Reviews = append(t.Reviews, r)
		}
	}
	return nil
}
