// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package database

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tomtom215/natours/internal/metrics"
)

// ErrNotFound is returned when no document matches an id or filter.
var ErrNotFound = errors.New("no data found with this id")

// IsNotFound reports whether err means no document matched.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, mongo.ErrNoDocuments)
}

// IsDuplicateKey reports whether err is a unique index violation (E11000).
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

var quotedValue = regexp.MustCompile(`"(?:[^"\\]|\\.)*"`)

// DuplicateValue extracts the offending value from a duplicate key error,
// e.g. `"The Forest Hiker"` from `dup key: { name: "The Forest Hiker" }`.
func DuplicateValue(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, "dup key:"); i >= 0 {
		msg = msg[i:]
	}
	if m := quotedValue.FindString(msg); m != "" {
		return m
	}
	return "unknown"
}

// recordQuery reports a database call to Prometheus. A missing document is
// an expected outcome, not an error.
func recordQuery(operation, collection string, start time.Time, err error) {
	if IsNotFound(err) {
		err = nil
	}
	metrics.RecordDBQuery(operation, collection, time.Since(start), err)
}
