// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package email

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"net/mail"
	texttemplate "text/template"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/natours/internal/config"
	"github.com/tomtom215/natours/internal/logging"
	"github.com/tomtom215/natours/internal/metrics"
	"github.com/tomtom215/natours/internal/models"
)

// Template names.
const (
	TemplateWelcome       = "welcome"
	TemplatePasswordReset = "passwordReset"
)

const (
	subjectWelcome       = "Welcome to the Natours Family!"
	subjectPasswordReset = "Your password reset token (valid for only 10 minutes)"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// ErrNoRecipient is returned when the user has no email address.
var ErrNoRecipient = errors.New("email: recipient address is empty")

// Message is a fully rendered email.
type Message struct {
	From    mail.Address
	To      mail.Address
	Subject string
	HTML    string
	Text    string
}

// Transport delivers a rendered message.
type Transport interface {
	Send(ctx context.Context, msg *Message) error
	// Name labels metrics and logs, e.g. "smtp".
	Name() string
}

type templatePair struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

// templateData is what every template sees.
type templateData struct {
	Subject   string
	FirstName string
	URL       string
	ValidFor  string
}

// Mailer renders templates for a user and hands them to a Transport.
type Mailer struct {
	from      mail.Address
	transport Transport
	limiter   *rate.Limiter
	templates map[string]templatePair
}

// NewMailer parses the embedded templates. A zero RatePerSecond disables
// throttling.
func NewMailer(cfg *config.EmailConfig, transport Transport) (*Mailer, error) {
	from, err := mail.ParseAddress(cfg.From)
	if err != nil {
		return nil, fmt.Errorf("parse sender address %q: %w", cfg.From, err)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RatePerSecond > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}

	templates := make(map[string]templatePair, 2)
	for _, name := range []string{TemplateWelcome, TemplatePasswordReset} {
		html, err := htmltemplate.ParseFS(templateFS, "templates/layout.html.tmpl", "templates/"+name+".html.tmpl")
		if err != nil {
			return nil, fmt.Errorf("parse %s html template: %w", name, err)
		}
		text, err := texttemplate.ParseFS(templateFS, "templates/"+name+".txt.tmpl")
		if err != nil {
			return nil, fmt.Errorf("parse %s text template: %w", name, err)
		}
		templates[name] = templatePair{html: html, text: text}
	}

	return &Mailer{
		from:      *from,
		transport: transport,
		limiter:   limiter,
		templates: templates,
	}, nil
}

// SendWelcome greets a new user. url points at the account page.
func (m *Mailer) SendWelcome(ctx context.Context, u *models.User, url string) error {
	return m.send(ctx, u, TemplateWelcome, subjectWelcome, url, 0)
}

// SendPasswordReset mails the reset link, valid for ttl.
func (m *Mailer) SendPasswordReset(ctx context.Context, u *models.User, url string, ttl time.Duration) error {
	return m.send(ctx, u, TemplatePasswordReset, subjectPasswordReset, url, ttl)
}

// Render builds the message without sending it.
func (m *Mailer) Render(u *models.User, name, subject, url string, ttl time.Duration) (*Message, error) {
	if u.Email == "" {
		return nil, ErrNoRecipient
	}
	pair, ok := m.templates[name]
	if !ok {
		return nil, fmt.Errorf("unknown email template %q", name)
	}

	data := templateData{
		Subject:   subject,
		FirstName: u.FirstName(),
		URL:       url,
		ValidFor:  fmt.Sprintf("%d minutes", int(ttl.Minutes())),
	}

	var html, text bytes.Buffer
	if err := pair.html.ExecuteTemplate(&html, "layout", data); err != nil {
		return nil, fmt.Errorf("render %s html: %w", name, err)
	}
	if err := pair.text.Execute(&text, data); err != nil {
		return nil, fmt.Errorf("render %s text: %w", name, err)
	}

	return &Message{
		From:    m.from,
		To:      mail.Address{Name: u.Name, Address: u.Email},
		Subject: subject,
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}

func (m *Mailer) send(ctx context.Context, u *models.User, name, subject, url string, ttl time.Duration) error {
	msg, err := m.Render(u, name, subject, url, ttl)
	if err != nil {
		return err
	}

	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("email rate limit: %w", err)
	}

	err = m.transport.Send(ctx, msg)
	metrics.RecordEmail(name, m.transport.Name(), err)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).
			Str("template", name).
			Str("transport", m.transport.Name()).
			Msg("Failed to send email")
		return fmt.Errorf("send %s email: %w", name, err)
	}

	logging.Ctx(ctx).Debug().
		Str("template", name).
		Str("transport", m.transport.Name()).
		Msg("Email sent")
	return nil
}
