// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestGeneratedIDs(t *testing.T) {
	t.Parallel()

	if id := GenerateRequestID(); len(id) != 36 {
		t.Errorf("expected 36-character request ID, got %d", len(id))
	}
	if id := GenerateCorrelationID(); len(id) != 8 {
		t.Errorf("expected 8-character correlation ID, got %d", len(id))
	}
	if GenerateRequestID() == GenerateRequestID() {
		t.Error("expected unique request IDs")
	}
}

func TestContextValues(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if RequestIDFromContext(ctx) != "" || UserIDFromContext(ctx) != "" || CorrelationIDFromContext(ctx) != "" {
		t.Fatal("expected empty values on a bare context")
	}

	ctx = ContextWithRequestID(ctx, "req-1")
	ctx = ContextWithUserID(ctx, "5c8a1d5b0190b214360dc057")
	ctx = ContextWithNewCorrelationID(ctx)

	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Errorf("expected request id req-1, got %s", got)
	}
	if got := UserIDFromContext(ctx); got != "5c8a1d5b0190b214360dc057" {
		t.Errorf("expected user id, got %s", got)
	}
	if got := CorrelationIDFromContext(ctx); len(got) != 8 {
		t.Errorf("expected generated correlation id, got %q", got)
	}
}

func TestCtxAddsFields(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Output: &buf})
	t.Cleanup(func() { Init(DefaultConfig()) })

	ctx := ContextWithUserID(ContextWithRequestID(context.Background(), "abc"), "u1")
	Ctx(ctx).Info().Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"request_id":"abc"`) || !strings.Contains(out, `"user_id":"u1"`) {
		t.Errorf("expected request and user ids in output, got: %s", out)
	}
}
