// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/natours/internal/database"
)

// AliasTopTours presets the query for the five best rated, cheapest tours.
func AliasTopTours(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		q.Set("limit", "5")
		q.Set("sort", "-ratingsAverage,price")
		q.Set("fields", "name,price,ratingsAverage,summary,difficulty")
		r.URL.RawQuery = q.Encode()
		next.ServeHTTP(w, r)
	})
}

// TourStats returns per-difficulty statistics of well rated tours.
func (h *Handler) TourStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.queries.Stats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondData(w, http.StatusOK, "stats", stats)
}

// MonthlyPlan returns how many tours start in each month of {year}.
func (h *Handler) MonthlyPlan(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "year")
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1 || year > 9999 {
		h.fail(w, r, badRequest(fmt.Sprintf("Invalid year: %s.", raw)))
		return
	}

	plan, err := h.queries.MonthlyPlan(r.Context(), year)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondData(w, http.StatusOK, "plan", plan)
}

// ToursWithin lists tours starting within {distance} {unit} of {latlng}.
func (h *Handler) ToursWithin(w http.ResponseWriter, r *http.Request) {
	q, err := database.ParseGeoQuery(chi.URLParam(r, "distance"), chi.URLParam(r, "latlng"), chi.URLParam(r, "unit"))
	if err == nil && q.Distance == 0 {
		err = database.ErrInvalidDistance
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	tours, err := h.queries.Within(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondList(w, "data", tours)
}

// Distances lists every tour with its distance from {latlng} in {unit}.
func (h *Handler) Distances(w http.ResponseWriter, r *http.Request) {
	q, err := database.ParseGeoQuery("", chi.URLParam(r, "latlng"), chi.URLParam(r, "unit"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	distances, err := h.queries.Distances(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondData(w, http.StatusOK, "data", distances)
}
