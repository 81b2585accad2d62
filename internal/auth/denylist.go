// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/natours/internal/logging"
)

// ErrDenylistClosed indicates the denylist has been closed.
var ErrDenylistClosed = errors.New("token denylist is closed")

// RevokedToken is a denylist record.
type RevokedToken struct {
	JTI       string    `json:"jti"`
	UserID    string    `json:"user_id"`
	RevokedAt time.Time `json:"revoked_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Denylist stores the ids of tokens revoked by logout until they expire.
type Denylist interface {
	// Revoke records the token. Entries past ExpiresAt are ignored.
	Revoke(ctx context.Context, entry *RevokedToken) error

	// IsRevoked reports whether jti was revoked and has not yet expired.
	IsRevoked(ctx context.Context, jti string) (bool, error)

	// CleanupExpired removes expired entries and returns how many.
	CleanupExpired(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// MemoryDenylist is an in-memory denylist for tests and single-process
// development. Entries are lost on restart.
type MemoryDenylist struct {
	mu      sync.RWMutex
	entries map[string]*RevokedToken
	closed  bool
	now     func() time.Time
}

// NewMemoryDenylist creates an empty in-memory denylist.
func NewMemoryDenylist() *MemoryDenylist {
	return &MemoryDenylist{entries: make(map[string]*RevokedToken), now: time.Now}
}

func (d *MemoryDenylist) Revoke(_ context.Context, entry *RevokedToken) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		DenylistOperations.WithLabelValues("revoke", "failure").Inc()
		return ErrDenylistClosed
	}
	if !d.now().Before(entry.ExpiresAt) {
		return nil
	}
	if entry.RevokedAt.IsZero() {
		entry.RevokedAt = d.now()
	}
	d.entries[entry.JTI] = entry

	DenylistOperations.WithLabelValues("revoke", "success").Inc()
	DenylistSize.Set(float64(len(d.entries)))
	return nil
}

func (d *MemoryDenylist) IsRevoked(_ context.Context, jti string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return false, ErrDenylistClosed
	}
	entry, ok := d.entries[jti]
	if !ok {
		return false, nil
	}
	return d.now().Before(entry.ExpiresAt), nil
}

func (d *MemoryDenylist) CleanupExpired(_ context.Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, ErrDenylistClosed
	}

	count := 0
	now := d.now()
	for jti, entry := range d.entries {
		if !now.Before(entry.ExpiresAt) {
			delete(d.entries, jti)
			count++
		}
	}

	DenylistOperations.WithLabelValues("cleanup", "success").Inc()
	DenylistSize.Set(float64(len(d.entries)))
	return count, nil
}

func (d *MemoryDenylist) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.entries = nil
	return nil
}

// BadgerDenylist persists revoked token ids in BadgerDB. Each key carries
// a TTL equal to the token's remaining lifetime, so Badger drops entries
// on its own during compaction.
type BadgerDenylist struct {
	db     *badger.DB
	prefix []byte
	mu     sync.RWMutex
	closed bool
}

// OpenBadger opens (or creates) a BadgerDB directory with quiet logging.
func OpenBadger(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}
	return db, nil
}

// NewBadgerDenylist wraps an open BadgerDB. prefix defaults to "jti:".
func NewBadgerDenylist(db *badger.DB, prefix string) *BadgerDenylist {
	if prefix == "" {
		prefix = "jti:"
	}
	return &BadgerDenylist{db: db, prefix: []byte(prefix)}
}

func (d *BadgerDenylist) key(jti string) []byte {
	k := make([]byte, 0, len(d.prefix)+len(jti))
	return append(append(k, d.prefix...), jti...)
}

func (d *BadgerDenylist) isClosed() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.closed
}

func (d *BadgerDenylist) Revoke(_ context.Context, entry *RevokedToken) error {
	if d.isClosed() {
		DenylistOperations.WithLabelValues("revoke", "failure").Inc()
		return ErrDenylistClosed
	}

	now := time.Now()
	ttl := entry.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return nil
	}
	if entry.RevokedAt.IsZero() {
		entry.RevokedAt = now
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	err = d.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(d.key(entry.JTI), data).WithTTL(ttl))
	})
	if err != nil {
		DenylistOperations.WithLabelValues("revoke", "failure").Inc()
		return fmt.Errorf("revoke token: %w", err)
	}

	DenylistOperations.WithLabelValues("revoke", "success").Inc()
	logging.Debug().Str("jti", entry.JTI).Str("user_id", entry.UserID).Msg("Token revoked")
	return nil
}

func (d *BadgerDenylist) IsRevoked(_ context.Context, jti string) (bool, error) {
	if d.isClosed() {
		return false, ErrDenylistClosed
	}

	var revoked bool
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(d.key(jti))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		var entry RevokedToken
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &entry); err != nil {
				return err
			}
			revoked = time.Now().Before(entry.ExpiresAt)
			return nil
		})
	})
	if err != nil {
		DenylistOperations.WithLabelValues("check", "failure").Inc()
		return false, fmt.Errorf("check token: %w", err)
	}
	return revoked, nil
}

// CleanupExpired deletes entries whose token has expired. Badger expires
// keys by TTL already; this also refreshes the size gauge.
func (d *BadgerDenylist) CleanupExpired(_ context.Context) (int, error) {
	if d.isClosed() {
		return 0, ErrDenylistClosed
	}

	count, remaining := 0, 0
	now := time.Now()
	err := d.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = d.prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		var expired [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var entry RevokedToken
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &entry) }); err != nil {
				continue
			}
			if !now.Before(entry.ExpiresAt) {
				expired = append(expired, item.KeyCopy(nil))
				continue
			}
			remaining++
		}

		for _, k := range expired {
			if err := txn.Delete(k); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		DenylistOperations.WithLabelValues("cleanup", "failure").Inc()
		return 0, fmt.Errorf("cleanup denylist: %w", err)
	}

	DenylistOperations.WithLabelValues("cleanup", "success").Inc()
	DenylistSize.Set(float64(remaining))
	return count, nil
}

// RunValueLogGC reclaims value log space. Having nothing to rewrite is
// not an error.
func (d *BadgerDenylist) RunValueLogGC(discardRatio float64) error {
	if d.isClosed() {
		return ErrDenylistClosed
	}
	err := d.db.RunValueLogGC(discardRatio)
	if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
		return nil
	}
	return err
}

// Close marks the denylist closed and closes the database.
func (d *BadgerDenylist) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.db.Close()
}
