// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

/*
Package services adapts server components to suture's Serve(ctx) model.

HTTPServerService runs an *http.Server and drains it on shutdown.
PeriodicService runs a function on a fixed interval, which covers the
maintenance jobs: audit retention, denylist expiry and badger value-log GC.
A failed run is logged and retried on the next tick; only a panic or a
canceled context ends Serve.
*/
package services
