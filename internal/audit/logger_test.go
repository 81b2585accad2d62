// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package audit

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tomtom215/natours/internal/config"
	"github.com/tomtom215/natours/internal/models"
)

func testUser() *models.User {
	return &models.User{
		ID:    primitive.NewObjectID(),
		Name:  "Laura Wilson",
		Email: "laura@example.com",
		Role:  models.RoleUser,
	}
}

func TestLogger_HelpersPersistOnClose(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(100)
	logger := NewLogger(store, &config.AuditConfig{BufferSize: 16})

	u := testUser()
	r := httptest.NewRequest("POST", "/api/v1/users/login", nil)
	r.RemoteAddr = "10.0.0.7:51234"
	r.Header.Set("User-Agent", "natours-test")

	logger.Signup(r, u)
	logger.LoginSucceeded(r, u)
	logger.LoginFailed(r, "Laura@Example.com", "incorrect email or password")
	logger.Logout(r, u, "jti-1")
	logger.PasswordChanged(r, u)
	logger.PasswordResetRequested(r, u, false)
	logger.PasswordReset(r, u)
	logger.Deactivated(r, u)
	logger.Denied(r, u, "tours:write")

	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if store.Len() != 9 {
		t.Fatalf("expected 9 events, got %d", store.Len())
	}

	ctx := context.Background()
	failed, err := store.Query(ctx, QueryFilter{Types: []EventType{EventTypeLoginFailure}})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(failed) != 1 {
		t.Fatalf("expected 1 login failure, got %d", len(failed))
	}
	if failed[0].Actor.Email != "laura@example.com" {
		t.Errorf("email not normalized: %q", failed[0].Actor.Email)
	}
	if failed[0].Source.IPAddress != "10.0.0.7" || failed[0].Source.UserAgent != "natours-test" {
		t.Errorf("unexpected source %+v", failed[0].Source)
	}
	if failed[0].ID == "" || failed[0].Timestamp.IsZero() {
		t.Error("expected generated id and timestamp")
	}

	n, err := store.Count(ctx, QueryFilter{Outcomes: []Outcome{OutcomeFailure}})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	// login failure, undelivered reset, denial
	if n != 3 {
		t.Errorf("expected 3 failures, got %d", n)
	}
}

func TestLogger_NilIsNoop(t *testing.T) {
	t.Parallel()

	var l *Logger
	r := httptest.NewRequest("GET", "/", nil)
	l.LoginSucceeded(r, testUser())
	if n, err := l.Cleanup(context.Background()); n != 0 || err != nil {
		t.Errorf("Cleanup on nil logger = %d, %v", n, err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("Close on nil logger: %v", err)
	}
}

func TestLogger_LogAfterCloseIsDropped(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(10)
	logger := NewLogger(store, &config.AuditConfig{})
	_ = logger.Close()
	_ = logger.Close()

	logger.Log(&Event{Type: EventTypeLogout})
	if store.Len() != 0 {
		t.Errorf("expected no events after close, got %d", store.Len())
	}
}

func TestLogger_Cleanup(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(10)
	ctx := context.Background()
	_ = store.Save(ctx, &Event{ID: "old", Timestamp: now.AddDate(0, 0, -31)})
	_ = store.Save(ctx, &Event{ID: "new", Timestamp: now.AddDate(0, 0, -29)})

	logger := NewLogger(store, &config.AuditConfig{RetentionDays: 30})
	defer logger.Close()
	logger.now = func() time.Time { return now }

	n, err := logger.Cleanup(ctx)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if n != 1 || store.Len() != 1 {
		t.Errorf("expected one event removed, got n=%d len=%d", n, store.Len())
	}
}

func TestSourceFromRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"socket address", "192.168.1.4:4000", "", "192.168.1.4"},
		{"forwarded first hop", "10.0.0.1:80", "203.0.113.9, 10.0.0.1", "203.0.113.9"},
		{"no port", "192.168.1.4", "", "192.168.1.4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := SourceFromRequest(r).IPAddress; got != tt.want {
				t.Errorf("IPAddress = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMemoryStore_QueryOrderingAndPaging(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(100)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_ = store.Save(ctx, &Event{
			ID:        string(rune('a' + i)),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Actor:     Actor{ID: "u1"},
		})
	}

	got, err := store.Query(ctx, QueryFilter{ActorID: "u1", Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 || got[0].ID != "d" || got[1].ID != "c" {
		t.Errorf("unexpected page: %+v", got)
	}

	start := base.Add(3 * time.Minute)
	n, _ := store.Count(ctx, QueryFilter{StartTime: &start})
	if n != 2 {
		t.Errorf("expected 2 events after start, got %d", n)
	}

	empty, _ := store.Query(ctx, QueryFilter{Offset: 10})
	if len(empty) != 0 {
		t.Errorf("expected empty page, got %d", len(empty))
	}
}

func TestMemoryStore_Eviction(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(10)
	for i := 0; i < 11; i++ {
		_ = store.Save(context.Background(), &Event{ID: string(rune('a' + i))})
	}
	if store.Len() != 10 {
		t.Errorf("expected 10 events after eviction, got %d", store.Len())
	}
}
