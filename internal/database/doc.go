// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

// Package database provides the MongoDB data layer for the Natours service.
//
// # Overview
//
// The package sits between the HTTP handlers and MongoDB. It owns the
// client lifecycle, index creation, a generic typed collection used by the
// CRUD handlers, the user account repository and the domain aggregation
// pipelines.
//
// # Architecture
//
//   - database.go: client lifecycle (connect, ping, close) and indexes
//   - collection.go: generic Collection[T] driven by a Descriptor[T]
//   - predicates.go: default read predicates (NotSecret, ActiveOnly)
//   - populate.go: reference population between collections
//   - store.go: descriptors for tours, users, reviews and bookings
//   - users.go: account lookups used by authentication
//   - aggregations.go: tour statistics, monthly plan, geo queries
//   - geo.go: lat/lng parsing and distance units
//   - ratings.go: review rating recomputation
//   - errors.go: sentinel errors and driver error classification
//
// Listing queries are described by the query subpackage, which has no I/O.
//
// # Default Predicates
//
// Collections carry an explicit default read predicate instead of implicit
// query hooks. Tours hide secret tours and users hide deactivated accounts:
//
//	filter := query.And(database.NotSecret(), implicit, features.FilterDoc())
//
// # Thread Safety
//
// The underlying mongo.Client is safe for concurrent use; every type in
// this package is immutable after construction.
package database
