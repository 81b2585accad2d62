// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

var _ suture.Service = (*PeriodicService)(nil)

func TestNewPeriodicService_Defaults(t *testing.T) {
	t.Parallel()

	p := NewPeriodicService("audit-cleanup", 0, func(context.Context) error { return nil })
	if p.Interval() != time.Hour {
		t.Errorf("Interval() = %v, want 1h", p.Interval())
	}
	if p.String() != "audit-cleanup" {
		t.Errorf("String() = %q", p.String())
	}
	if p.runOnStart {
		t.Error("runOnStart should default to false")
	}
}

func TestPeriodicService_Serve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		interval time.Duration
		opts     []PeriodicOption
		runErr   error
		wait     time.Duration
		minRuns  int32
		maxRuns  int32
	}{
		{name: "ticks", interval: 10 * time.Millisecond, wait: 100 * time.Millisecond, minRuns: 3, maxRuns: 20},
		{name: "errors keep ticking", interval: 10 * time.Millisecond, runErr: errors.New("disk full"), wait: 100 * time.Millisecond, minRuns: 3, maxRuns: 20},
		{name: "run on start", interval: time.Hour, opts: []PeriodicOption{RunOnStart()}, wait: 50 * time.Millisecond, minRuns: 1, maxRuns: 1},
		{name: "waits for first tick", interval: time.Hour, wait: 50 * time.Millisecond, minRuns: 0, maxRuns: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var runs atomic.Int32
			p := NewPeriodicService(tt.name, tt.interval, func(context.Context) error {
				runs.Add(1)
				return tt.runErr
			}, tt.opts...)

			ctx, cancel := context.WithTimeout(context.Background(), tt.wait)
			defer cancel()

			err := p.Serve(ctx)
			if !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("Serve() = %v, want deadline exceeded", err)
			}
			if n := runs.Load(); n < tt.minRuns || n > tt.maxRuns {
				t.Errorf("runs = %d, want [%d, %d]", n, tt.minRuns, tt.maxRuns)
			}
		})
	}
}

func TestPeriodicService_PassesContext(t *testing.T) {
	t.Parallel()

	type key struct{}
	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), key{}, "natours"))
	defer cancel()

	got := make(chan any, 1)
	p := NewPeriodicService("ctx", time.Hour, func(ctx context.Context) error {
		got <- ctx.Value(key{})
		cancel()
		return nil
	}, RunOnStart())

	if err := p.Serve(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
	if v := <-got; v != "natours" {
		t.Errorf("run saw value %v", v)
	}
}
