// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package authz

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/tomtom215/natours/internal/auth"
	"github.com/tomtom215/natours/internal/logging"
	"github.com/tomtom215/natours/internal/models"
)

// ErrForbidden is returned when the user's role is not granted the route.
var ErrForbidden = errors.New("you do not have permission to perform this action")

const modelText = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj
`

// ErrorWriter renders an authorization failure.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// DeniedHook observes denied requests, e.g. for the audit trail.
type DeniedHook func(r *http.Request, user *models.User, object string)

// Enforcer wraps a Casbin enforcer holding one policy line per role and
// route group.
type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
	onError  ErrorWriter
	onDenied DeniedHook
}

// NewEnforcer creates an enforcer with no grants.
func NewEnforcer(onError ErrorWriter) (*Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}
	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}
	if onError == nil {
		onError = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusForbidden)
		}
	}
	return &Enforcer{enforcer: e, onError: onError}, nil
}

// OnDenied registers a hook called for every denied request.
func (e *Enforcer) OnDenied(hook DeniedHook) {
	e.onDenied = hook
}

// Grant allows roles on object.
func (e *Enforcer) Grant(object string, roles ...models.Role) error {
	for _, role := range roles {
		if _, err := e.enforcer.AddPolicy(string(role), object); err != nil {
			return fmt.Errorf("failed to grant %s on %s: %w", role, object, err)
		}
	}
	return nil
}

// Enforce reports whether role may access object.
func (e *Enforcer) Enforce(role models.Role, object string) (bool, error) {
	start := time.Now()
	allowed, err := e.enforcer.Enforce(string(role), object)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}
	RecordDecision(string(role), object, allowed, time.Since(start))
	return allowed, nil
}

// Policies returns the current grants as (role, object) pairs.
func (e *Enforcer) Policies() ([][]string, error) {
	return e.enforcer.GetPolicy()
}

// RestrictTo grants roles on object and returns middleware that only lets
// those roles through. It must run after auth.Guard.Protect. It panics if
// the grant cannot be stored, which only happens at router setup.
func (e *Enforcer) RestrictTo(object string, roles ...models.Role) func(http.Handler) http.Handler {
	if err := e.Grant(object, roles...); err != nil {
		panic(err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.UserFromContext(r.Context())
			if !ok {
				e.onError(w, r, ErrForbidden)
				return
			}

			allowed, err := e.Enforce(user.Role, object)
			if err != nil {
				logging.Ctx(r.Context()).Error().Err(err).Str("object", object).Msg("Authorization error")
				e.onError(w, r, err)
				return
			}
			if !allowed {
				logging.Ctx(r.Context()).Warn().
					Str("role", string(user.Role)).
					Str("object", object).
					Msg("Access denied")
				if e.onDenied != nil {
					e.onDenied(r, user, object)
				}
				e.onError(w, r, ErrForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
