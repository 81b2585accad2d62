// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package email

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tomtom215/natours/internal/config"
	"github.com/tomtom215/natours/internal/logging"
)

// LogTransport writes messages to the log instead of sending them.
type LogTransport struct {
	log zerolog.Logger
}

// NewLogTransport creates a transport that only logs.
func NewLogTransport() *LogTransport {
	return &LogTransport{log: logging.WithComponent("email")}
}

// Name implements Transport.
func (t *LogTransport) Name() string { return "log" }

// Send implements Transport.
func (t *LogTransport) Send(_ context.Context, msg *Message) error {
	t.log.Info().
		Str("to", msg.To.Address).
		Str("subject", msg.Subject).
		Str("text", msg.Text).
		Msg("Email not sent, no transport configured")
	return nil
}

// NewTransport picks Mailjet in production when its keys are set, SMTP when
// a relay host is configured, and LogTransport otherwise.
func NewTransport(cfg *config.EmailConfig, production bool) Transport {
	switch {
	case production && cfg.MailjetKey != "" && cfg.MailjetSecret != "":
		return NewMailjetTransport(cfg.MailjetKey, cfg.MailjetSecret)
	case cfg.Host != "":
		return NewSMTPTransport(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	default:
		return NewLogTransport()
	}
}
