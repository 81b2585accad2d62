// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/tomtom215/natours/internal/database"
	"github.com/tomtom215/natours/internal/logging"
	"github.com/tomtom215/natours/internal/models"
)

// reviewOptions nests reviews under /tours/{tourId}/reviews and keeps the
// tour's rating summary current after every write.
func (h *Handler) reviewOptions() FactoryOptions[models.Review] {
	return FactoryOptions[models.Review]{
		Populate:     []string{database.PopulateUser},
		ListPopulate: []string{database.PopulateUser},
		Implicit:     reviewScope,
		Prepare:      setReviewRefs,
		AfterWrite:   h.recalculateRatings,
		AfterUpdate:  h.reviewUpdated,
	}
}

// reviewScope restricts a nested listing to its tour.
func reviewScope(r *http.Request) (bson.D, error) {
	raw := chi.URLParam(r, "tourId")
	if raw == "" {
		return nil, nil
	}
	id, err := models.ParseID("tour", raw)
	if err != nil {
		return nil, err
	}
	return database.ByTour(id), nil
}

// setReviewRefs defaults the tour to the URL and the author to the
// current user.
func setReviewRefs(r *http.Request, rev *models.Review) error {
	if rev.Tour.IsZero() {
		if raw := chi.URLParam(r, "tourId"); raw != "" {
			id, err := models.ParseID("tour", raw)
			if err != nil {
				return err
			}
			rev.Tour = models.RefTo[models.Tour](id)
		}
	}
	if rev.User.IsZero() {
		if u, err := currentUser(r); err == nil {
			rev.User = models.RefTo[models.User](u.ID)
		}
	}
	return nil
}

// reviewUpdated recalculates the review's tour, and the tour it left when
// the update moved it.
func (h *Handler) reviewUpdated(ctx context.Context, before, after *models.Review) error {
	if !before.Tour.IsZero() && before.Tour.ID != after.Tour.ID {
		if err := h.recalculateRatings(ctx, before); err != nil {
			return err
		}
	}
	return h.recalculateRatings(ctx, after)
}

func (h *Handler) recalculateRatings(ctx context.Context, rev *models.Review) error {
	if rev.Tour.IsZero() {
		return nil
	}
	defer h.invalidateAggregates()
	summary, err := h.ratings.Recalculate(ctx, rev.Tour.ID)
	if err != nil {
		return err
	}
	logging.Ctx(ctx).Debug().
		Str("tour_id", rev.Tour.ID.Hex()).
		Int("ratings_quantity", summary.Quantity).
		Float64("ratings_average", summary.Average).
		Msg("Recalculated tour ratings")
	return nil
}
