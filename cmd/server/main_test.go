// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/natours/internal/audit"
	"github.com/tomtom215/natours/internal/auth"
	"github.com/tomtom215/natours/internal/config"
)

func TestOpenDenylist(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		path   string
		badger bool
	}{
		{name: "memory", path: ""},
		{name: "badger", path: filepath.Join(t.TempDir(), "denylist"), badger: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d, gc, err := openDenylist(tt.path)
			if err != nil {
				t.Fatalf("openDenylist() error = %v", err)
			}
			t.Cleanup(func() { _ = d.Close() })

			if _, ok := d.(*auth.BadgerDenylist); ok != tt.badger {
				t.Errorf("denylist type = %T", d)
			}

			entry := &auth.RevokedToken{JTI: "jti-1", ExpiresAt: time.Now().Add(time.Hour)}
			if err := d.Revoke(t.Context(), entry); err != nil {
				t.Fatalf("Revoke() error = %v", err)
			}
			revoked, err := d.IsRevoked(t.Context(), "jti-1")
			if err != nil || !revoked {
				t.Errorf("IsRevoked() = %v, %v", revoked, err)
			}
			if err := gc(); err != nil {
				t.Errorf("gc() error = %v", err)
			}
		})
	}
}

func TestOpenAuditStore(t *testing.T) {
	t.Parallel()

	t.Run("disabled keeps memory", func(t *testing.T) {
		t.Parallel()
		s, closeFn, err := openAuditStore(t.Context(), &config.AuditConfig{})
		if err != nil {
			t.Fatalf("openAuditStore() error = %v", err)
		}
		defer closeFn()
		if _, ok := s.(*audit.MemoryStore); !ok {
			t.Errorf("store type = %T, want *audit.MemoryStore", s)
		}
	})

	t.Run("enabled opens duckdb", func(t *testing.T) {
		t.Parallel()
		cfg := &config.AuditConfig{Enabled: true, Path: filepath.Join(t.TempDir(), "audit.duckdb")}
		s, closeFn, err := openAuditStore(t.Context(), cfg)
		if err != nil {
			t.Fatalf("openAuditStore() error = %v", err)
		}
		defer closeFn()
		if _, ok := s.(*audit.DuckDBStore); !ok {
			t.Errorf("store type = %T, want *audit.DuckDBStore", s)
		}
		n, err := s.Count(t.Context(), audit.QueryFilter{})
		if err != nil || n != 0 {
			t.Errorf("Count() = %d, %v", n, err)
		}
	})
}

func TestUptimeServiceStopsWithContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	svc := uptimeService{start: time.Now()}
	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() = %v, want deadline exceeded", err)
	}
	if svc.String() != "uptime" {
		t.Errorf("String() = %q", svc.String())
	}
}
