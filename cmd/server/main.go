// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/natours/internal/api"
	"github.com/tomtom215/natours/internal/audit"
	"github.com/tomtom215/natours/internal/auth"
	"github.com/tomtom215/natours/internal/authz"
	"github.com/tomtom215/natours/internal/cache"
	"github.com/tomtom215/natours/internal/config"
	"github.com/tomtom215/natours/internal/database"
	"github.com/tomtom215/natours/internal/email"
	"github.com/tomtom215/natours/internal/logging"
	"github.com/tomtom215/natours/internal/metrics"
	"github.com/tomtom215/natours/internal/payment"
	"github.com/tomtom215/natours/internal/supervisor"
	"github.com/tomtom215/natours/internal/supervisor/services"
	"github.com/tomtom215/natours/internal/views"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Error().Err(err).Msg("Server stopped with error")
		stop()
		os.Exit(1)
	}
	logging.Info().Msg("Application stopped gracefully")
}

// run wires every component, serves until ctx is canceled and releases
// resources in reverse order.
func run(ctx context.Context, cfg *config.Config) error {
	started := time.Now()
	metrics.SetAppInfo(Version)

	logging.Info().
		Str("version", Version).
		Str("environment", cfg.Server.Environment).
		Str("database", cfg.Database.Name).
		Msg("Starting Natours")

	db, err := database.Connect(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Close(closeCtx); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	if err := db.EnsureIndexes(ctx); err != nil {
		return err
	}
	store := database.NewStore(db.Database())

	denylist, gc, err := openDenylist(cfg.Security.DenylistPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := denylist.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing token denylist")
		}
	}()

	auditStore, closeAuditStore, err := openAuditStore(ctx, &cfg.Audit)
	if err != nil {
		return err
	}
	defer closeAuditStore()
	auditLogger := audit.NewLogger(auditStore, &cfg.Audit)
	defer func() {
		if err := auditLogger.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing audit logger")
		}
	}()

	mailer, err := email.NewMailer(&cfg.Email, email.NewTransport(&cfg.Email, cfg.IsProduction()))
	if err != nil {
		return err
	}

	jwt, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		return err
	}

	renderer, err := views.NewRenderer()
	if err != nil {
		return err
	}
	errs := api.NewErrorHandler(cfg.IsProduction(), renderer)

	enforcer, err := authz.NewEnforcer(errs.Write)
	if err != nil {
		return err
	}
	enforcer.OnDenied(auditLogger.Denied)

	deps := api.DepsFromStore(store)
	deps.Health = db
	deps.Guard = auth.NewGuard(jwt, store.Accounts, denylist, errs.Write)
	deps.Enforcer = enforcer
	deps.Errors = errs
	deps.Pages = renderer
	deps.Mailer = mailer
	deps.Payments = payment.NewClient(&cfg.Payment)
	deps.Audit = auditLogger
	deps.AuditEvents = auditStore

	var aggregates *api.AggregateCache
	if ttl := cfg.Server.AggregateCacheTTL; ttl > 0 {
		aggregates = cache.New[any]("tour-aggregates", ttl)
		deps.Aggregates = aggregates
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewRouter(cfg, deps).Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to create supervisor tree: %w", err)
	}

	if cfg.Audit.RetentionDays > 0 {
		tree.AddMaintenanceService(services.NewPeriodicService("audit-cleanup", cfg.Audit.CleanupEvery,
			func(ctx context.Context) error {
				_, err := auditLogger.Cleanup(ctx)
				return err
			}, services.RunOnStart()))
	}
	tree.AddMaintenanceService(services.NewPeriodicService("denylist-cleanup", 10*time.Minute,
		func(ctx context.Context) error {
			n, err := denylist.CleanupExpired(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				logging.Debug().Int("removed", n).Msg("Expired revoked tokens removed")
			}
			return gc()
		}))
	if aggregates != nil {
		tree.AddMaintenanceService(services.NewPeriodicService("cache-cleanup", 5*time.Minute,
			func(context.Context) error {
				aggregates.CleanupExpired()
				return nil
			}))
	}
	tree.AddMaintenanceService(uptimeService{start: started})
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for services")
		serveErr = <-errCh
	case serveErr = <-errCh:
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		return serveErr
	}
	return nil
}

// openDenylist returns the token denylist and a value-log GC step for the
// maintenance job. The memory denylist has nothing to collect.
func openDenylist(path string) (auth.Denylist, func() error, error) {
	if path == "" {
		logging.Warn().Msg("DENYLIST_PATH not set, revoked tokens are kept in memory")
		return auth.NewMemoryDenylist(), func() error { return nil }, nil
	}

	bdb, err := auth.OpenBadger(path)
	if err != nil {
		return nil, nil, err
	}
	d := auth.NewBadgerDenylist(bdb, "")
	logging.Info().Str("path", path).Msg("Token denylist opened")
	return d, func() error { return d.RunValueLogGC(0.5) }, nil
}

// auditStore is what the audit logger and the admin endpoint need.
type auditStore interface {
	audit.Store
	api.AuditReader
}

func openAuditStore(ctx context.Context, cfg *config.AuditConfig) (auditStore, func(), error) {
	if !cfg.Enabled {
		logging.Info().Msg("Audit persistence disabled, keeping recent events in memory")
		return audit.NewMemoryStore(10000), func() {}, nil
	}

	s, err := audit.OpenDuckDB(ctx, cfg.Path)
	if err != nil {
		return nil, nil, err
	}
	logging.Info().Str("path", cfg.Path).Msg("Audit trail opened")
	return s, func() {
		if err := s.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing audit database")
		}
	}, nil
}

// uptimeService publishes the uptime gauge.
type uptimeService struct {
	start time.Time
}

func (u uptimeService) Serve(ctx context.Context) error {
	metrics.TrackUptime(ctx, u.start, 15*time.Second)
	return ctx.Err()
}

func (uptimeService) String() string { return "uptime" }
