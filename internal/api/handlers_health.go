// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/natours/internal/logging"
)

// healthTimeout bounds the database ping of /healthz.
const healthTimeout = 2 * time.Second

type healthStatus struct {
	Database string `json:"database"`
}

// Healthz reports whether the database answers a ping.
func (h *Handler) Healthz(db HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			respondData(w, http.StatusOK, "health", healthStatus{Database: "unknown"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Health check failed")
			respondJSON(w, http.StatusServiceUnavailable, &Response{
				Status: StatusError,
				Data:   map[string]any{"health": healthStatus{Database: "down"}},
			})
			return
		}
		respondData(w, http.StatusOK, "health", healthStatus{Database: "up"})
	}
}
