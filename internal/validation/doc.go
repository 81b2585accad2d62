// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

// Package validation wraps go-playground/validator with Natours' custom
// rules and human-readable messages.
//
// Field names in messages use the JSON name of the field, so a failed
// `validate:"min=10"` on Tour.Name reports "name must be at least 10
// characters" rather than the Go identifier.
//
// Custom tags:
//
//	geopoint  a [longitude, latitude] pair within valid bounds
//	objectid  a 24 character hex MongoDB identifier (string fields)
package validation
