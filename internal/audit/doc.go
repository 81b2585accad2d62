// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

// Package audit records security-relevant account events.
//
// Events are written asynchronously through a buffered Logger into a Store.
// Two stores exist: MemoryStore for tests and development, and DuckDBStore
// for a durable trail on disk.
//
// # Event Types
//
//   - auth.signup: a new account was created
//   - auth.login_success / auth.login_failure: credential checks
//   - auth.logout: a token was revoked on logout
//   - auth.password_changed: updateMyPassword succeeded
//   - auth.password_reset_requested / auth.password_reset: the forgot flow
//   - user.deactivated: deleteMe soft-deleted an account
//   - authz.denied: a role check rejected a request
//
// Retention is enforced by Logger.Cleanup, which the supervisor runs on a
// fixed interval.
package audit
