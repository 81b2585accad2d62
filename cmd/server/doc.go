// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

/*
Package main is the entry point for the Natours server.

Natours is a tour booking service: a JSON REST API under /api/v1 plus
server-rendered pages, backed by MongoDB, with Stripe Checkout for payments
and transactional email for signup and password resets.

# Application Architecture

The server runs under a Suture v4 supervisor tree:

	RootSupervisor ("natours")
	├── MaintenanceSupervisor ("maintenance-layer")
	│   ├── audit-cleanup
	│   ├── denylist-cleanup
	│   ├── cache-cleanup
	│   └── uptime
	└── APISupervisor ("api-layer")
	    └── http-server

Component initialization order:

 1. Configuration: Koanf v2 (defaults, config.yaml, environment)
 2. Logging: zerolog with JSON or console output
 3. Database: MongoDB connection and index creation
 4. Token denylist: BadgerDB, or memory when DENYLIST_PATH is empty
 5. Audit trail: DuckDB, or memory when disabled
 6. Email and payments: SMTP or Mailjet, Stripe Checkout
 7. Router: chi with the API, views and static files
 8. Supervisor tree

# Configuration

Common environment variables:

	DATABASE=mongodb+srv://natours:<PASSWORD>@cluster0.example.net
	DATABASE_PASSWORD=secret
	JWT_SECRET=at-least-32-characters-of-randomness
	JWT_EXPIRES_IN=90d
	JWT_COOKIE_EXPIRES_IN=90
	STRIPE_SECRET_KEY=sk_test_...
	NODE_ENV=production

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains for up to
ten seconds, the audit queue is flushed, and the denylist and database are
closed. The process exits 1 if any supervised service failed fatally.
*/
package main
