// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

/*
Package metrics defines the Prometheus collectors shared across the service.

Collectors are registered on the default registry at init and exposed on
/metrics by the router.

# Available Metrics

HTTP:
  - natours_api_requests_total{method, endpoint, status_code}
  - natours_api_request_duration_seconds{method, endpoint}
  - natours_api_active_requests
  - natours_api_rate_limit_hits_total{limiter}

MongoDB:
  - natours_db_query_duration_seconds{operation, collection}
  - natours_db_query_errors_total{operation, collection, error_type}

Outbound integrations:
  - natours_emails_sent_total{template, transport, outcome}
  - natours_circuit_breaker_state{name}
  - natours_circuit_breaker_requests_total{name, result}
  - natours_circuit_breaker_state_transitions_total{name, from_state, to_state}

Process:
  - natours_app_info{version, go_version}
  - natours_app_uptime_seconds

Package-specific collectors for authentication, the token denylist and
authorization decisions live next to the code they measure.
*/
package metrics
