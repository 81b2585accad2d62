// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package auth

import (
	"net/http"
	"strings"
	"time"
)

const (
	// CookieName is the cookie carrying the token for browser sessions.
	CookieName = "jwt"

	// LoggedOutValue replaces the token at logout.
	LoggedOutValue = "logging out"

	// LogoutCookieTTL is how long the logout placeholder cookie lives.
	LogoutCookieTTL = 10 * time.Second
)

// CookieConfig controls the token cookie.
type CookieConfig struct {
	TTL time.Duration

	// Secure forces the Secure flag. Otherwise it is set for TLS requests
	// and requests forwarded as https.
	Secure bool
}

func (c CookieConfig) secure(r *http.Request) bool {
	if c.Secure || r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// SetTokenCookie stores token in the HttpOnly jwt cookie.
func (c CookieConfig) SetTokenCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(c.TTL),
		HttpOnly: true,
		Secure:   c.secure(r),
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearTokenCookie overwrites the jwt cookie with a short-lived placeholder.
func (c CookieConfig) ClearTokenCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    LoggedOutValue,
		Path:     "/",
		Expires:  time.Now().Add(LogoutCookieTTL),
		HttpOnly: true,
		Secure:   c.secure(r),
		SameSite: http.SameSiteLaxMode,
	})
}
