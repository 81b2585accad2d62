// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

// Package auth authenticates requests for the Natours service.
//
// It issues and verifies HS256 JSON Web Tokens, hashes passwords with
// bcrypt, generates password reset tokens and keeps a denylist of token
// ids revoked by logout. The Guard type provides the two HTTP middlewares
// built on top of these:
//
//   - Protect rejects the request unless it carries a valid token for an
//     active user whose password has not changed since the token was issued.
//   - IsLoggedIn never rejects; it only exposes the user to view templates
//     when the jwt cookie is valid.
//
// Tokens are read from "Authorization: Bearer <token>" or the jwt cookie.
// Role checks live in the authz package and run after Protect.
//
// The denylist has a BadgerDB implementation for production, with entries
// expiring together with the token, and an in-memory implementation for
// tests.
package auth
