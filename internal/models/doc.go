// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

/*
Package models defines the Natours documents stored in MongoDB.

Every document type carries both bson and json tags with identical field
names, so a key accepted in a JSON request body is the same key written to
the database. Validation rules live in validate tags and are enforced by the
validation package on every create and update.

Documents:

  - Tour: a bookable tour with pricing, schedule and GeoJSON locations
  - User: an account; credentials and soft-delete state never leave the server
  - Review: one rating per user per tour
  - Booking: a paid reservation of a tour by a user

References between documents use Ref, which stores an ObjectID and, once
populated by the database layer, serializes as the embedded document.
*/
package models
