// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package api

import (
	"context"

	"github.com/tomtom215/natours/internal/cache"
	"github.com/tomtom215/natours/internal/database"
	"github.com/tomtom215/natours/internal/models"
)

// AggregateCache holds results of the tour aggregate queries.
type AggregateCache = cache.Cache[any]

// cachedQueries serves TourQueries from an AggregateCache. Tour and review
// writes clear the whole cache.
type cachedQueries struct {
	next  TourQueries
	cache *AggregateCache
}

func newCachedQueries(next TourQueries, c *AggregateCache) *cachedQueries {
	return &cachedQueries{next: next, cache: c}
}

// load is GetOrLoad with the cached value asserted back to T.
func load[T any](c *AggregateCache, key string, fn func() (T, error)) (T, error) {
	v, err := c.GetOrLoad(key, func() (any, error) { return fn() })
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (q *cachedQueries) Stats(ctx context.Context) ([]database.DifficultyStats, error) {
	return load(q.cache, "stats", func() ([]database.DifficultyStats, error) {
		return q.next.Stats(ctx)
	})
}

func (q *cachedQueries) MonthlyPlan(ctx context.Context, year int) ([]database.MonthPlan, error) {
	return load(q.cache, cache.GenerateKey("monthly-plan", year), func() ([]database.MonthPlan, error) {
		return q.next.MonthlyPlan(ctx, year)
	})
}

func (q *cachedQueries) Within(ctx context.Context, g database.GeoQuery) ([]*models.Tour, error) {
	return load(q.cache, cache.GenerateKey("within", g), func() ([]*models.Tour, error) {
		return q.next.Within(ctx, g)
	})
}

func (q *cachedQueries) Distances(ctx context.Context, g database.GeoQuery) ([]database.TourDistance, error) {
	return load(q.cache, cache.GenerateKey("distances", g), func() ([]database.TourDistance, error) {
		return q.next.Distances(ctx, g)
	})
}

// invalidateAggregates drops cached aggregates after a write.
func (h *Handler) invalidateAggregates() {
	if h.aggregates != nil {
		h.aggregates.Clear()
	}
}

// tourWritten is the tour factory's AfterWrite hook.
func (h *Handler) tourWritten(context.Context, *models.Tour) error {
	h.invalidateAggregates()
	return nil
}
