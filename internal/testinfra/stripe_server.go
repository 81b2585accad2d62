// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package testinfra

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

// StripeCapture is a request received by MockStripeServer.
type StripeCapture struct {
	Method        string
	Path          string
	Authorization string
	Form          url.Values
}

// MockStripeServer imitates the Stripe Checkout Sessions endpoint and
// records every request.
type MockStripeServer struct {
	Server *httptest.Server

	mu       sync.Mutex
	captures []StripeCapture
	status   int
	body     string
}

// NewMockStripeServer starts a server that answers session creation with
// a fixed session and closes it on cleanup.
func NewMockStripeServer(t *testing.T) *MockStripeServer {
	t.Helper()

	m := &MockStripeServer{status: http.StatusOK}
	m.Server = httptest.NewServer(http.HandlerFunc(m.handle))
	t.Cleanup(m.Server.Close)
	return m
}

func (m *MockStripeServer) handle(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	form, _ := url.ParseQuery(string(raw))

	m.mu.Lock()
	m.captures = append(m.captures, StripeCapture{
		Method:        r.Method,
		Path:          r.URL.Path,
		Authorization: r.Header.Get("Authorization"),
		Form:          form,
	})
	status, body := m.status, m.body
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == "" {
		body = fmt.Sprintf(`{"id":"cs_test_%d","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test","customer_email":%q,"client_reference_id":%q,"mode":%q}`,
			len(m.Captures()), form.Get("customer_email"), form.Get("client_reference_id"), form.Get("mode"))
	}
	_, _ = io.WriteString(w, body)
}

// Respond makes the server answer every following request with status and body.
func (m *MockStripeServer) Respond(status int, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status, m.body = status, body
}

// URL returns the base URL to configure as the Stripe API endpoint.
func (m *MockStripeServer) URL() string {
	return m.Server.URL
}

// Captures returns a copy of the requests received so far.
func (m *MockStripeServer) Captures() []StripeCapture {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]StripeCapture, len(m.captures))
	copy(out, m.captures)
	return out
}
