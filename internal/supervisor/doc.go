// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

/*
Package supervisor runs the long-lived parts of the server under a suture v4
supervisor tree.

The tree has two layers so a crashing maintenance job never takes the API
down with it:

	RootSupervisor ("natours")
	├── MaintenanceSupervisor ("maintenance-layer")
	│   ├── audit-cleanup     (deletes audit events past retention)
	│   ├── denylist-cleanup  (drops expired revoked tokens, runs badger GC)
	│   ├── cache-cleanup     (drops expired aggregate cache entries)
	│   └── uptime            (updates the uptime gauge)
	└── APISupervisor ("api-layer")
	    └── http-server

Crashed services are restarted with suture's backoff. Supervisor events are
logged through the zerolog-backed slog adapter from the logging package.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{})
	if err != nil {
	    return err
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	tree.AddMaintenanceService(services.NewPeriodicService("audit-cleanup", time.Hour, cleanup))
	return tree.Serve(ctx)

See the services subpackage for the service wrappers.
*/
package supervisor
