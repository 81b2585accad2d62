// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package audit

import (
	"context"
	"time"

	"github.com/goccy/go-json"
)

// EventType categorizes audit events.
type EventType string

const (
	EventTypeSignup                 EventType = "auth.signup"
	EventTypeLoginSuccess           EventType = "auth.login_success"
	EventTypeLoginFailure           EventType = "auth.login_failure"
	EventTypeLogout                 EventType = "auth.logout"
	EventTypePasswordChanged        EventType = "auth.password_changed"
	EventTypePasswordResetRequested EventType = "auth.password_reset_requested"
	EventTypePasswordReset          EventType = "auth.password_reset"
	EventTypeUserDeactivated        EventType = "user.deactivated"
	EventTypeAuthzDenied            EventType = "authz.denied"
)

// Severity indicates how much attention an event deserves.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Outcome is the result of the audited action.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Event is a single audit record.
type Event struct {
	ID          string          `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	Type        EventType       `json:"type"`
	Severity    Severity        `json:"severity"`
	Outcome     Outcome         `json:"outcome"`
	Actor       Actor           `json:"actor"`
	Source      Source          `json:"source"`
	Action      string          `json:"action"`
	Description string          `json:"description"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	RequestID   string          `json:"request_id,omitempty"`
}

// Actor identifies who performed the action. For failed logins only the
// submitted email is known.
type Actor struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Source describes where the request came from.
type Source struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent,omitempty"`
}

// Store persists audit events.
type Store interface {
	Save(ctx context.Context, event *Event) error
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)
	Count(ctx context.Context, filter QueryFilter) (int64, error)
	// Delete removes events older than the cutoff and reports how many.
	Delete(ctx context.Context, olderThan time.Time) (int64, error)
}

// QueryFilter narrows a Query or Count. Zero values match everything.
type QueryFilter struct {
	Types     []EventType `json:"types,omitempty"`
	Outcomes  []Outcome   `json:"outcomes,omitempty"`
	ActorID   string      `json:"actor_id,omitempty"`
	SourceIP  string      `json:"source_ip,omitempty"`
	StartTime *time.Time  `json:"start_time,omitempty"`
	EndTime   *time.Time  `json:"end_time,omitempty"`

	// Limit caps the result size. Results are ordered newest first.
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// DefaultQueryFilter returns the filter used when none is given.
func DefaultQueryFilter() QueryFilter {
	return QueryFilter{Limit: 100}
}
