// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/natours/internal/audit"
)

// AuditReader is the read side of the audit store.
type AuditReader interface {
	Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Event, error)
	Count(ctx context.Context, filter audit.QueryFilter) (int64, error)
}

// auditPage is the body of GET /api/v1/audit/events.
type auditPage struct {
	Status  string        `json:"status"`
	Results int           `json:"results"`
	Total   int64         `json:"total"`
	Data    auditPageData `json:"data"`
}

type auditPageData struct {
	Events []audit.Event `json:"events"`
}

// ListAuditEvents handles GET /api/v1/audit/events. Supported parameters
// are type and outcome (repeatable), actor_id, source_ip, start_time and
// end_time (RFC 3339), limit and page.
func (h *Handler) ListAuditEvents(w http.ResponseWriter, r *http.Request) {
	if h.auditEvents == nil {
		h.fail(w, r, NewAppError(http.StatusServiceUnavailable, "Audit trail is disabled."))
		return
	}

	filter, err := parseAuditFilter(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	events, err := h.auditEvents.Query(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	total, err := h.auditEvents.Count(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}

	respondJSON(w, http.StatusOK, &auditPage{
		Status:  StatusSuccess,
		Results: len(events),
		Total:   total,
		Data:    auditPageData{Events: events},
	})
}

func parseAuditFilter(r *http.Request) (audit.QueryFilter, error) {
	q := r.URL.Query()
	filter := audit.DefaultQueryFilter()

	for _, t := range q["type"] {
		filter.Types = append(filter.Types, audit.EventType(t))
	}
	for _, o := range q["outcome"] {
		filter.Outcomes = append(filter.Outcomes, audit.Outcome(o))
	}
	filter.ActorID = q.Get("actor_id")
	filter.SourceIP = q.Get("source_ip")

	for _, p := range []struct {
		name string
		dst  **time.Time
	}{
		{"start_time", &filter.StartTime},
		{"end_time", &filter.EndTime},
	} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, NewAppError(http.StatusBadRequest, "Invalid "+p.name+": "+v+".")
		}
		*p.dst = &ts
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return filter, NewAppError(http.StatusBadRequest, "Invalid limit: "+v+".")
		}
		filter.Limit = min(n, 1000)
	}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return filter, NewAppError(http.StatusBadRequest, "Invalid page: "+v+".")
		}
		filter.Offset = (n - 1) * filter.Limit
	}
	return filter, nil
}
