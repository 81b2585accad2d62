// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

// Package payment creates Stripe Checkout sessions over Stripe's REST API.
//
// Calls go through a sony/gobreaker circuit breaker. Client errors such as
// an invalid parameter are returned as *APIError and do not count towards
// tripping the breaker; transport errors and 5xx responses do.
package payment
