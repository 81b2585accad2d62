// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tomtom215/natours/internal/database"
	"github.com/tomtom215/natours/internal/logging"
	"github.com/tomtom215/natours/internal/models"
)

type contextKey string

const (
	userContextKey   contextKey = "user"
	claimsContextKey contextKey = "claims"
)

// UserLookup finds active users by id.
type UserLookup interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// ErrorWriter renders an authentication failure.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Guard provides the authentication middlewares.
type Guard struct {
	jwt      *JWTManager
	users    UserLookup
	denylist Denylist
	onError  ErrorWriter
}

// NewGuard creates a guard. onError receives every Protect failure.
func NewGuard(jwt *JWTManager, users UserLookup, denylist Denylist, onError ErrorWriter) *Guard {
	if onError == nil {
		onError = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
		}
	}
	return &Guard{jwt: jwt, users: users, denylist: denylist, onError: onError}
}

// JWT returns the token manager.
func (g *Guard) JWT() *JWTManager {
	return g.jwt
}

// Denylist returns the revoked token store.
func (g *Guard) Denylist() Denylist {
	return g.denylist
}

// Protect requires a valid token and attaches the user to the context.
func (g *Guard) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			token = cookieToken(r)
		}

		user, claims, err := g.authenticate(r.Context(), token)
		AuthAttempts.WithLabelValues("protect", outcomeOf(err)).Inc()
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Str("path", r.URL.Path).Msg("Request not authenticated")
			g.onError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user, claims)))
	})
}

// IsLoggedIn exposes the user from a valid jwt cookie and otherwise
// continues anonymously.
func (g *Guard) IsLoggedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := cookieToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, claims, err := g.authenticate(r.Context(), token)
		AuthAttempts.WithLabelValues("is_logged_in", outcomeOf(err)).Inc()
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user, claims)))
	})
}

func (g *Guard) authenticate(ctx context.Context, token string) (*models.User, *Claims, error) {
	if token == "" {
		return nil, nil, ErrNotLoggedIn
	}

	claims, err := g.jwt.ValidateToken(token)
	if err != nil {
		return nil, nil, err
	}

	if g.denylist != nil && claims.ID != "" {
		revoked, err := g.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, nil, err
		}
		if revoked {
			return nil, nil, ErrTokenRevoked
		}
	}

	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, nil, ErrTokenInvalid
	}
	user, err := g.users.FindByID(ctx, id)
	if err != nil || user == nil {
		if err != nil && !database.IsNotFound(err) {
			return nil, nil, err
		}
		return nil, nil, ErrUserGone
	}

	if user.ChangedPasswordAfter(claims.IssuedAt.Time) {
		return nil, nil, ErrPasswordChanged
	}
	return user, claims, nil
}

// Revoke adds the token in ctx to the denylist until it expires.
func (g *Guard) Revoke(ctx context.Context, claims *Claims) error {
	if g.denylist == nil || claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	return g.denylist.Revoke(ctx, &RevokedToken{
		JTI:       claims.ID,
		UserID:    claims.UserID,
		ExpiresAt: claims.ExpiresAt.Time,
	})
}

// ClaimsFromToken validates a raw token without loading the user, used at
// logout where the account may already be gone.
func (g *Guard) ClaimsFromToken(token string) (*Claims, error) {
	return g.jwt.ValidateToken(token)
}

// RequestToken returns the token carried by r, header first.
func RequestToken(r *http.Request) string {
	if t := bearerToken(r); t != "" {
		return t
	}
	return cookieToken(r)
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func cookieToken(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == LoggedOutValue {
		return ""
	}
	return c.Value
}

func withUser(ctx context.Context, user *models.User, claims *Claims) context.Context {
	ctx = context.WithValue(ctx, userContextKey, user)
	ctx = context.WithValue(ctx, claimsContextKey, claims)
	return logging.ContextWithUserID(ctx, user.ID.Hex())
}

// WithUser returns a context carrying user, for handlers and tests.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return withUser(ctx, user, nil)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userContextKey).(*models.User)
	return u, ok && u != nil
}

// ClaimsFromContext returns the claims of the token used for the request.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsContextKey).(*Claims)
	return c, ok && c != nil
}

func isExpired(err error) bool {
	return errors.Is(err, ErrTokenExpired)
}
