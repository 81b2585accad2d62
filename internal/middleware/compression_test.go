// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func TestCompression_GzipsBody(t *testing.T) {
	t.Parallel()

	body := strings.Repeat(`{"status":"success"}`, 200)
	h := Compression(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Length", "4000")
		_, _ = io.WriteString(w, body)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil)
	req.Header.Set("Accept-Encoding", "deflate, gzip;q=0.8")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip encoding, got %q", rec.Header().Get("Content-Encoding"))
	}
	if rec.Header().Get("Content-Length") != "" {
		t.Error("expected Content-Length to be dropped")
	}
	if rec.Header().Get("Vary") != "Accept-Encoding" {
		t.Errorf("expected Vary header, got %q", rec.Header().Get("Vary"))
	}

	zr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	defer zr.Close()
	got, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != body {
		t.Error("decompressed body does not match")
	}
}

func TestCompression_DetectsContentType(t *testing.T) {
	t.Parallel()

	h := Compression(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<!DOCTYPE html><html><body>hi</body></html>")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected sniffed text/html, got %q", ct)
	}
}

func TestCompression_PassThrough(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		accept   string
		method   string
		status   int
		ctype    string
		encoding string
	}{
		{"client without gzip", "br", http.MethodGet, http.StatusOK, "application/json", ""},
		{"gzip refused with q=0", "gzip;q=0", http.MethodGet, http.StatusOK, "application/json", ""},
		{"no content", "gzip", http.MethodDelete, http.StatusNoContent, "", ""},
		{"jpeg image", "gzip", http.MethodGet, http.StatusOK, "image/jpeg", ""},
		{"head request", "gzip", http.MethodHead, http.StatusOK, "text/html", ""},
		{"already encoded", "gzip", http.MethodGet, http.StatusOK, "text/plain", "br"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := Compression(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.ctype != "" {
					w.Header().Set("Content-Type", tt.ctype)
				}
				if tt.encoding != "" {
					w.Header().Set("Content-Encoding", tt.encoding)
				}
				w.WriteHeader(tt.status)
				if tt.status != http.StatusNoContent {
					_, _ = io.WriteString(w, "plain body")
				}
			}))

			req := httptest.NewRequest(tt.method, "/x", nil)
			req.Header.Set("Accept-Encoding", tt.accept)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if got := rec.Header().Get("Content-Encoding"); got != tt.encoding {
				t.Errorf("Content-Encoding = %q, want %q", got, tt.encoding)
			}
			if tt.status != http.StatusNoContent && rec.Body.String() != "plain body" {
				t.Errorf("body altered: %q", rec.Body.String())
			}
			if tt.status == http.StatusNoContent && rec.Body.Len() != 0 {
				t.Errorf("expected empty body, got %d bytes", rec.Body.Len())
			}
		})
	}
}

func TestAcceptsGzip(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"":                  false,
		"gzip":              true,
		"GZIP":              true,
		"br, gzip":          true,
		"gzip; q=0":         false,
		"*":                 true,
		"identity, deflate": false,
	}
	for header, want := range tests {
		if got := acceptsGzip(header); got != want {
			t.Errorf("acceptsGzip(%q) = %v, want %v", header, got, want)
		}
	}
}
