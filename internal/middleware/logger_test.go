// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/natours/internal/logging"
)

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := logging.Logger()
	logging.SetLogger(logging.NewTestLogger(&buf))
	t.Cleanup(func() { logging.SetLogger(prev) })

	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"ok", http.StatusCreated, "info"},
		{"client error", http.StatusNotFound, "info"},
		{"server error", http.StatusBadGateway, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			h := RequestID(RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("hello"))
			})))

			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/users/login", nil))

			var line struct {
				Level     string `json:"level"`
				Method    string `json:"method"`
				Path      string `json:"path"`
				Status    int    `json:"status"`
				Bytes     int    `json:"bytes"`
				RequestID string `json:"request_id"`
			}
			if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
				t.Fatalf("access log is not one JSON line: %v (%q)", err, buf.String())
			}
			if line.Level != tt.wantLevel || line.Status != tt.status || line.Bytes != 5 {
				t.Errorf("unexpected log line %+v", line)
			}
			if line.Method != http.MethodPost || line.Path != "/api/v1/users/login" || line.RequestID == "" {
				t.Errorf("missing request fields %+v", line)
			}
		})
	}
}
