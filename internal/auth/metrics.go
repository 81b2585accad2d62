// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts counts token checks by the guard and password logins.
	// Labels:
	//   - middleware: "protect", "is_logged_in", "login"
	//   - outcome: "success", "failure", "missing", "invalid", "expired", "revoked", "user_gone", "password_changed"
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "natours_auth_attempts_total",
			Help: "Total number of token checks by outcome",
		},
		[]string{"middleware", "outcome"},
	)

	// DenylistOperations counts denylist operations.
	DenylistOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "natours_token_denylist_operations_total",
			Help: "Total number of token denylist operations",
		},
		[]string{"operation", "outcome"}, // operation: revoke, check, cleanup
	)

	// DenylistSize tracks revoked tokens not yet expired.
	DenylistSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "natours_token_denylist_size",
			Help: "Current number of revoked tokens retained in the denylist",
		},
	)
)

func outcomeOf(err error) string {
	switch err {
	case nil:
		return "success"
	case ErrNotLoggedIn:
		return "missing"
	case ErrTokenRevoked:
		return "revoked"
	case ErrUserGone:
		return "user_gone"
	case ErrPasswordChanged:
		return "password_changed"
	}
	if isExpired(err) {
		return "expired"
	}
	return "invalid"
}
