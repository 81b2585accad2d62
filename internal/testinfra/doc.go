// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

// Package testinfra provides test infrastructure for integration testing
// with containers and stand-ins for external services.
//
// # MongoDB Container
//
// Integration tests (build tag integration) run against a real MongoDB
// started with testcontainers-go:
//
//	func TestReviewRatings(t *testing.T) {
//	    mongo := testinfra.StartMongo(t)
//	    db, err := database.Connect(ctx, &config.DatabaseConfig{URI: mongo.URI, Name: "natours_test"})
//	    // ...
//	}
//
// Tests are skipped when Docker is unavailable. The first run pulls the
// image; later runs use the local cache.
//
// # Stripe Stub
//
// MockStripeServer answers the Checkout Sessions endpoint and records each
// request, so payment code can be tested without network access.
package testinfra
