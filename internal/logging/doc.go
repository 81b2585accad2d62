// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

// Package logging provides the zerolog-based structured logger used across Natours.
//
// A single process-wide logger is configured once at startup:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("tour", slug).Msg("Tour created")
//
// Request handlers should prefer the context-aware helpers, which attach the
// request id, correlation id and (once the auth guard has run) the acting
// user id to every line:
//
//	logging.Ctx(r.Context()).Warn().Msg("Rejected review for unknown tour")
//
// NewSlogLogger bridges the logger into log/slog for libraries that only
// accept a *slog.Logger, such as the suture supervisor event hook.
package logging
