// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

/*
Package middleware provides the infrastructure layers every request passes
through before reaching the router's handlers.

Key Components:

  - RequestID: X-Request-ID propagation into the logging context
  - RequestLogger: one structured access-log line per request
  - Compression: gzip responses using klauspost/compress
  - PrometheusMetrics: request counters and latency by chi route pattern
  - SecurityHeaders: browser hardening headers and the content policy

All middleware has the chi signature func(http.Handler) http.Handler:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	r.Use(middleware.Compression)
	r.Use(middleware.PrometheusMetrics)

Authentication and role checks live in internal/auth and internal/authz.
*/
package middleware
