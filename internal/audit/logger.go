// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package audit

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/natours/internal/config"
	"github.com/tomtom215/natours/internal/logging"
	"github.com/tomtom215/natours/internal/models"
)

const saveTimeout = 5 * time.Second

// Logger buffers events and writes them to a Store from a single goroutine.
// A nil *Logger is valid and discards everything.
type Logger struct {
	store     Store
	retention time.Duration
	events    chan *Event
	stop      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
	now       func() time.Time
}

// NewLogger starts the async writer. Close must be called to flush.
func NewLogger(store Store, cfg *config.AuditConfig) *Logger {
	size := cfg.BufferSize
	if size <= 0 {
		size = 1000
	}
	days := cfg.RetentionDays
	if days <= 0 {
		days = 90
	}

	l := &Logger{
		store:     store,
		retention: time.Duration(days) * 24 * time.Hour,
		events:    make(chan *Event, size),
		stop:      make(chan struct{}),
		now:       time.Now,
	}

	l.wg.Add(1)
	go l.run()
	return l
}

func (l *Logger) run() {
	defer l.wg.Done()
	for {
		select {
		case <-l.stop:
			for {
				select {
				case e := <-l.events:
					l.write(e)
				default:
					return
				}
			}
		case e := <-l.events:
			l.write(e)
		}
	}
}

func (l *Logger) write(e *Event) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := l.store.Save(ctx, e); err != nil {
		logging.Error().Err(err).Str("event_type", string(e.Type)).Msg("Failed to save audit event")
	}
}

// Log queues an event. It never blocks: when the buffer is full the event
// is dropped with a warning.
func (l *Logger) Log(e *Event) {
	if l == nil {
		return
	}
	if e.ID == "" {
		e.ID = newEventID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = l.now().UTC()
	}

	select {
	case <-l.stop:
		return
	default:
	}

	select {
	case l.events <- e:
	default:
		logging.Warn().Str("event_id", e.ID).Str("event_type", string(e.Type)).Msg("Audit event buffer full, dropping event")
	}
}

// Close stops accepting events and waits for the buffer to drain.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.closeOnce.Do(func() { close(l.stop) })
	l.wg.Wait()
	return nil
}

// Cleanup deletes events older than the retention window.
func (l *Logger) Cleanup(ctx context.Context) (int64, error) {
	if l == nil {
		return 0, nil
	}
	n, err := l.store.Delete(ctx, l.now().Add(-l.retention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logging.Info().Int64("count", n).Msg("Cleaned up old audit events")
	}
	return n, nil
}

// Query reads events back from the store.
func (l *Logger) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	return l.store.Query(ctx, filter)
}

// Signup records account creation.
func (l *Logger) Signup(r *http.Request, u *models.User) {
	l.Log(&Event{
		Type:        EventTypeSignup,
		Severity:    SeverityInfo,
		Outcome:     OutcomeSuccess,
		Actor:       ActorFromUser(u),
		Source:      SourceFromRequest(r),
		Action:      "signup",
		Description: "Account created",
		RequestID:   logging.RequestIDFromContext(r.Context()),
	})
}

// LoginSucceeded records a successful credential check.
func (l *Logger) LoginSucceeded(r *http.Request, u *models.User) {
	l.Log(&Event{
		Type:        EventTypeLoginSuccess,
		Severity:    SeverityInfo,
		Outcome:     OutcomeSuccess,
		Actor:       ActorFromUser(u),
		Source:      SourceFromRequest(r),
		Action:      "login",
		Description: "User logged in",
		RequestID:   logging.RequestIDFromContext(r.Context()),
	})
}

// LoginFailed records a rejected login. The email is whatever was submitted.
func (l *Logger) LoginFailed(r *http.Request, email, reason string) {
	l.Log(&Event{
		Type:        EventTypeLoginFailure,
		Severity:    SeverityWarning,
		Outcome:     OutcomeFailure,
		Actor:       Actor{Email: strings.ToLower(email)},
		Source:      SourceFromRequest(r),
		Action:      "login",
		Description: "Login failed: " + reason,
		Metadata:    mustJSON(map[string]string{"reason": reason}),
		RequestID:   logging.RequestIDFromContext(r.Context()),
	})
}

// Logout records token revocation. u may be nil for anonymous logouts.
func (l *Logger) Logout(r *http.Request, u *models.User, jti string) {
	var actor Actor
	if u != nil {
		actor = ActorFromUser(u)
	}
	l.Log(&Event{
		Type:        EventTypeLogout,
		Severity:    SeverityInfo,
		Outcome:     OutcomeSuccess,
		Actor:       actor,
		Source:      SourceFromRequest(r),
		Action:      "logout",
		Description: "User logged out",
		Metadata:    mustJSON(map[string]string{"jti": jti}),
		RequestID:   logging.RequestIDFromContext(r.Context()),
	})
}

// PasswordChanged records updateMyPassword.
func (l *Logger) PasswordChanged(r *http.Request, u *models.User) {
	l.Log(&Event{
		Type:        EventTypePasswordChanged,
		Severity:    SeverityWarning,
		Outcome:     OutcomeSuccess,
		Actor:       ActorFromUser(u),
		Source:      SourceFromRequest(r),
		Action:      "update_password",
		Description: "Password changed",
		RequestID:   logging.RequestIDFromContext(r.Context()),
	})
}

// PasswordResetRequested records a forgotPassword call. delivered is false
// when the email could not be sent and the token was rolled back.
func (l *Logger) PasswordResetRequested(r *http.Request, u *models.User, delivered bool) {
	outcome, sev := OutcomeSuccess, SeverityInfo
	if !delivered {
		outcome, sev = OutcomeFailure, SeverityWarning
	}
	l.Log(&Event{
		Type:        EventTypePasswordResetRequested,
		Severity:    sev,
		Outcome:     outcome,
		Actor:       ActorFromUser(u),
		Source:      SourceFromRequest(r),
		Action:      "forgot_password",
		Description: "Password reset requested",
		Metadata:    mustJSON(map[string]bool{"delivered": delivered}),
		RequestID:   logging.RequestIDFromContext(r.Context()),
	})
}

// PasswordReset records a completed reset.
func (l *Logger) PasswordReset(r *http.Request, u *models.User) {
	l.Log(&Event{
		Type:        EventTypePasswordReset,
		Severity:    SeverityWarning,
		Outcome:     OutcomeSuccess,
		Actor:       ActorFromUser(u),
		Source:      SourceFromRequest(r),
		Action:      "reset_password",
		Description: "Password reset with token",
		RequestID:   logging.RequestIDFromContext(r.Context()),
	})
}

// Deactivated records a deleteMe soft delete.
func (l *Logger) Deactivated(r *http.Request, u *models.User) {
	l.Log(&Event{
		Type:        EventTypeUserDeactivated,
		Severity:    SeverityWarning,
		Outcome:     OutcomeSuccess,
		Actor:       ActorFromUser(u),
		Source:      SourceFromRequest(r),
		Action:      "deactivate",
		Description: "Account deactivated by its owner",
		RequestID:   logging.RequestIDFromContext(r.Context()),
	})
}

// Denied records a role check failure. It matches authz.DeniedHook.
func (l *Logger) Denied(r *http.Request, u *models.User, object string) {
	var actor Actor
	if u != nil {
		actor = ActorFromUser(u)
	}
	l.Log(&Event{
		Type:        EventTypeAuthzDenied,
		Severity:    SeverityWarning,
		Outcome:     OutcomeFailure,
		Actor:       actor,
		Source:      SourceFromRequest(r),
		Action:      r.Method + " " + r.URL.Path,
		Description: "Access denied to " + object,
		Metadata:    mustJSON(map[string]string{"object": object}),
		RequestID:   logging.RequestIDFromContext(r.Context()),
	})
}

// ActorFromUser builds an Actor from an account.
func ActorFromUser(u *models.User) Actor {
	if u == nil {
		return Actor{}
	}
	return Actor{ID: u.ID.Hex(), Email: u.Email, Role: string(u.Role)}
}

// SourceFromRequest extracts the client address and user agent. The first
// X-Forwarded-For hop wins over the socket address.
func SourceFromRequest(r *http.Request) Source {
	ip := r.RemoteAddr
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ip = strings.TrimSpace(strings.Split(xff, ",")[0])
	} else if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return Source{IPAddress: ip, UserAgent: r.UserAgent()}
}

func newEventID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return time.Now().Format("20060102150405.000000000")
	}
	return hex.EncodeToString(b)
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return data
}
