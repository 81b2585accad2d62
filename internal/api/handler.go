// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tomtom215/natours/internal/audit"
	"github.com/tomtom215/natours/internal/auth"
	"github.com/tomtom215/natours/internal/database"
	"github.com/tomtom215/natours/internal/models"
	"github.com/tomtom215/natours/internal/payment"
)

// AccountStore is the user persistence used by the authentication flows.
// *database.Accounts implements it.
type AccountStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindWithPassword(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
	SetResetToken(ctx context.Context, id primitive.ObjectID, tokenHash string, expires time.Time) error
	ClearResetToken(ctx context.Context, id primitive.ObjectID) error
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string, changedAt time.Time) error
	UpdateProfile(ctx context.Context, u *models.User, fields []string) (*models.User, error)
	Deactivate(ctx context.Context, id primitive.ObjectID) error
}

// RatingCalculator refreshes a tour's rating summary. *database.Ratings
// implements it.
type RatingCalculator interface {
	Recalculate(ctx context.Context, tourID primitive.ObjectID) (database.RatingSummary, error)
}

// TourQueries runs the analytical tour queries. *database.TourAggregates
// implements it.
type TourQueries interface {
	Stats(ctx context.Context) ([]database.DifficultyStats, error)
	MonthlyPlan(ctx context.Context, year int) ([]database.MonthPlan, error)
	Within(ctx context.Context, q database.GeoQuery) ([]*models.Tour, error)
	Distances(ctx context.Context, q database.GeoQuery) ([]database.TourDistance, error)
}

// Mailer sends account emails. *email.Mailer implements it.
type Mailer interface {
	SendWelcome(ctx context.Context, u *models.User, url string) error
	SendPasswordReset(ctx context.Context, u *models.User, url string, ttl time.Duration) error
}

// CheckoutProvider creates hosted payment pages. *payment.Client
// implements it.
type CheckoutProvider interface {
	CreateCheckoutSession(ctx context.Context, req *payment.CheckoutRequest) (*payment.Session, error)
}

// Handler holds the dependencies of the API handlers.
type Handler struct {
	tours    Repository[models.Tour]
	users    Repository[models.User]
	reviews  Repository[models.Review]
	bookings Repository[models.Booking]
	accounts AccountStore
	ratings  RatingCalculator
	queries  TourQueries

	guard       *auth.Guard
	cookies     auth.CookieConfig
	mailer      Mailer
	payments    CheckoutProvider
	audit       *audit.Logger
	auditEvents AuditReader
	aggregates  *AggregateCache
	images      *ImageStore
	errors      *ErrorHandler
	publicURL   string
	now         func() time.Time
}

// fail renders err through the error handler.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.errors.Write(w, r, err)
}

// baseURL is the configured public URL, or the scheme and host of r.
func (h *Handler) baseURL(r *http.Request) string {
	if h.publicURL != "" {
		return strings.TrimRight(h.publicURL, "/")
	}
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// currentUser returns the user attached by Protect.
func currentUser(r *http.Request) (*models.User, error) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		return nil, auth.ErrNotLoggedIn
	}
	return u, nil
}
