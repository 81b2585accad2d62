// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package services

import (
	"context"
	"time"

	"github.com/tomtom215/natours/internal/logging"
)

// RunFunc is one run of a periodic job.
type RunFunc func(ctx context.Context) error

// PeriodicService calls run every interval until its context is canceled.
type PeriodicService struct {
	name       string
	interval   time.Duration
	run        RunFunc
	runOnStart bool
}

// PeriodicOption configures a PeriodicService.
type PeriodicOption func(*PeriodicService)

// RunOnStart makes the service run once before waiting for the first tick.
func RunOnStart() PeriodicOption {
	return func(p *PeriodicService) { p.runOnStart = true }
}

// NewPeriodicService creates a job named name. A non-positive interval
// means one hour.
func NewPeriodicService(name string, interval time.Duration, run RunFunc, opts ...PeriodicOption) *PeriodicService {
	if interval <= 0 {
		interval = time.Hour
	}
	p := &PeriodicService{name: name, interval: interval, run: run}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Serve implements suture.Service.
func (p *PeriodicService) Serve(ctx context.Context) error {
	log := logging.WithComponent(p.name)

	if p.runOnStart {
		p.once(ctx)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	log.Debug().Dur("interval", p.interval).Msg("Periodic job started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.once(ctx)
		}
	}
}

func (p *PeriodicService) once(ctx context.Context) {
	start := time.Now()
	if err := p.run(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		log := logging.WithComponent(p.name)
		log.Warn().Err(err).Msg("Periodic job failed")
		return
	}
	log := logging.WithComponent(p.name)
	log.Debug().Dur("took", time.Since(start)).Msg("Periodic job finished")
}

func (p *PeriodicService) String() string {
	return p.name
}

// Interval reports how often the job runs.
func (p *PeriodicService) Interval() time.Duration {
	return p.interval
}
