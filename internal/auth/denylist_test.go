// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testDenylist(t *testing.T, d Denylist) {
	t.Helper()
	ctx := context.Background()

	t.Run("revoked until expiry", func(t *testing.T) {
		err := d.Revoke(ctx, &RevokedToken{JTI: "jti-1", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)})
		if err != nil {
			t.Fatalf("Revoke: %v", err)
		}
		revoked, err := d.IsRevoked(ctx, "jti-1")
		if err != nil || !revoked {
			t.Errorf("IsRevoked = %v, %v; want true", revoked, err)
		}
	})

	t.Run("unknown jti", func(t *testing.T) {
		revoked, err := d.IsRevoked(ctx, "jti-unknown")
		if err != nil || revoked {
			t.Errorf("IsRevoked = %v, %v; want false", revoked, err)
		}
	})

	t.Run("already expired tokens are not stored", func(t *testing.T) {
		if err := d.Revoke(ctx, &RevokedToken{JTI: "jti-old", ExpiresAt: time.Now().Add(-time.Minute)}); err != nil {
			t.Fatalf("Revoke: %v", err)
		}
		if revoked, _ := d.IsRevoked(ctx, "jti-old"); revoked {
			t.Error("expired token reported revoked")
		}
	})

	t.Run("cleanup keeps live entries", func(t *testing.T) {
		if _, err := d.CleanupExpired(ctx); err != nil {
			t.Fatalf("CleanupExpired: %v", err)
		}
		if revoked, _ := d.IsRevoked(ctx, "jti-1"); !revoked {
			t.Error("cleanup removed a live entry")
		}
	})

	t.Run("closed", func(t *testing.T) {
		if err := d.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
		if _, err := d.IsRevoked(ctx, "jti-1"); !errors.Is(err, ErrDenylistClosed) {
			t.Errorf("IsRevoked after Close = %v, want ErrDenylistClosed", err)
		}
	})
}

func TestMemoryDenylist(t *testing.T) {
	testDenylist(t, NewMemoryDenylist())
}

func TestMemoryDenylistCleanup(t *testing.T) {
	d := NewMemoryDenylist()
	ctx := context.Background()
	now := time.Now()
	d.now = func() time.Time { return now }

	_ = d.Revoke(ctx, &RevokedToken{JTI: "a", ExpiresAt: now.Add(time.Minute)})
	_ = d.Revoke(ctx, &RevokedToken{JTI: "b", ExpiresAt: now.Add(time.Hour)})

	d.now = func() time.Time { return now.Add(30 * time.Minute) }
	n, err := d.CleanupExpired(ctx)
	if err != nil || n != 1 {
		t.Errorf("CleanupExpired = %d, %v; want 1", n, err)
	}
}

func TestBadgerDenylist(t *testing.T) {
	db, err := OpenBadger("")
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	d := NewBadgerDenylist(db, "")
	if err := d.RunValueLogGC(0.5); err != nil {
		t.Errorf("RunValueLogGC: %v", err)
	}
	testDenylist(t, d)
}

func TestBadgerDenylistOnDisk(t *testing.T) {
	dir := t.TempDir()
	db, err := OpenBadger(dir)
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	d := NewBadgerDenylist(db, "test:")
	ctx := context.Background()
	if err := d.Revoke(ctx, &RevokedToken{JTI: "persist", ExpiresAt: time.Now().Add(time.Hour)}); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	_ = d.Close()

	db, err = OpenBadger(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	d = NewBadgerDenylist(db, "test:")
	defer d.Close()
	if revoked, err := d.IsRevoked(ctx, "persist"); err != nil || !revoked {
		t.Errorf("IsRevoked after reopen = %v, %v", revoked, err)
	}
}
