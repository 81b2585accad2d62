// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // registers the "duckdb" driver
	"github.com/goccy/go-json"

	"github.com/tomtom215/natours/internal/logging"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS audit_events (
		id TEXT PRIMARY KEY,
		timestamp TIMESTAMPTZ NOT NULL,
		type TEXT NOT NULL,
		severity TEXT NOT NULL,
		outcome TEXT NOT NULL,
		actor_id TEXT,
		actor_email TEXT,
		actor_role TEXT,
		source_ip TEXT NOT NULL,
		source_user_agent TEXT,
		action TEXT NOT NULL,
		description TEXT NOT NULL,
		metadata JSON,
		request_id TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_events(timestamp)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_type ON audit_events(type)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_actor_id ON audit_events(actor_id)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_source_ip ON audit_events(source_ip)`,
}

const selectColumns = `
	SELECT id, timestamp, type, severity, outcome,
		actor_id, actor_email, actor_role,
		source_ip, source_user_agent,
		action, description,
		CAST(metadata AS VARCHAR) AS metadata,
		request_id
	FROM audit_events`

const insertEvent = `
	INSERT INTO audit_events (
		id, timestamp, type, severity, outcome,
		actor_id, actor_email, actor_role,
		source_ip, source_user_agent,
		action, description, metadata, request_id
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// DuckDBStore implements Store on an embedded DuckDB file.
type DuckDBStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// OpenDuckDB opens the audit database at path and creates the schema.
// An empty path opens an in-memory database.
func OpenDuckDB(ctx context.Context, path string) (*DuckDBStore, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}
	// DuckDB allows a single writer per file.
	db.SetMaxOpenConns(1)

	s := NewDuckDBStore(db)
	if err := s.CreateTable(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewDuckDBStore wraps an open handle. The caller must run CreateTable.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

// CreateTable creates the audit_events table and its indexes.
func (s *DuckDBStore) CreateTable(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute audit schema statement: %w", err)
		}
	}
	logging.Debug().Msg("Audit events table created/verified")
	return nil
}

// Save persists an audit event.
func (s *DuckDBStore) Save(ctx context.Context, event *Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, insertEvent,
		event.ID,
		event.Timestamp.UTC(),
		string(event.Type),
		string(event.Severity),
		string(event.Outcome),
		nullable(event.Actor.ID),
		nullable(event.Actor.Email),
		nullable(event.Actor.Role),
		event.Source.IPAddress,
		nullable(event.Source.UserAgent),
		event.Action,
		event.Description,
		nullable(string(event.Metadata)),
		nullable(event.RequestID),
	)
	if err != nil {
		return fmt.Errorf("failed to save audit event: %w", err)
	}
	return nil
}

// Query returns matching events, newest first.
func (s *DuckDBStore) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where, args := buildConditions(&filter)
	query := selectColumns + where + " ORDER BY timestamp DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	events := make([]Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			logging.Warn().Err(err).Msg("Failed to scan audit event row")
			continue
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit events: %w", err)
	}
	return events, nil
}

// Count returns the number of matching events.
func (s *DuckDBStore) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where, args := buildConditions(&filter)
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_events"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count audit events: %w", err)
	}
	return n, nil
}

// Delete removes events older than the cutoff.
func (s *DuckDBStore) Delete(ctx context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM audit_events WHERE timestamp < ?", olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old audit events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read deleted row count: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *DuckDBStore) Close() error {
	return s.db.Close()
}

func buildConditions(f *QueryFilter) (string, []any) {
	var conds []string
	var args []any

	if c := inCondition("type", f.Types, &args); c != "" {
		conds = append(conds, c)
	}
	if c := inCondition("outcome", f.Outcomes, &args); c != "" {
		conds = append(conds, c)
	}
	if f.ActorID != "" {
		conds = append(conds, "actor_id = ?")
		args = append(args, f.ActorID)
	}
	if f.SourceIP != "" {
		conds = append(conds, "source_ip = ?")
		args = append(args, f.SourceIP)
	}
	if f.StartTime != nil {
		conds = append(conds, "timestamp >= ?")
		args = append(args, f.StartTime.UTC())
	}
	if f.EndTime != nil {
		conds = append(conds, "timestamp <= ?")
		args = append(args, f.EndTime.UTC())
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func inCondition[T ~string](column string, values []T, args *[]any) string {
	if len(values) == 0 {
		return ""
	}
	marks := make([]string, len(values))
	for i, v := range values {
		marks[i] = "?"
		*args = append(*args, string(v))
	}
	return fmt.Sprintf("%s IN (%s)", column, strings.Join(marks, ","))
}

func scanEvent(rows *sql.Rows) (Event, error) {
	var (
		e                          Event
		typ, severity, outcome     string
		actorID, email, role       sql.NullString
		userAgent, meta, requestID sql.NullString
	)
	err := rows.Scan(
		&e.ID, &e.Timestamp, &typ, &severity, &outcome,
		&actorID, &email, &role,
		&e.Source.IPAddress, &userAgent,
		&e.Action, &e.Description, &meta, &requestID,
	)
	if err != nil {
		return Event{}, err
	}

	e.Type = EventType(typ)
	e.Severity = Severity(severity)
	e.Outcome = Outcome(outcome)
	e.Actor = Actor{ID: actorID.String, Email: email.String, Role: role.String}
	e.Source.UserAgent = userAgent.String
	e.RequestID = requestID.String
	if meta.Valid && meta.String != "" {
		e.Metadata = json.RawMessage(meta.String)
	}
	return e, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
