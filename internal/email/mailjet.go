// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package email

import (
	"context"
	"errors"
	"fmt"

	mailjet "github.com/mailjet/mailjet-apiv3-go"
)

// MailjetTransport sends through the Mailjet v3.1 Send API.
type MailjetTransport struct {
	send func(*mailjet.MessagesV31) (*mailjet.ResultsV31, error)
}

// NewMailjetTransport creates a transport authenticated with the API key pair.
func NewMailjetTransport(apiKey, secretKey string) *MailjetTransport {
	client := mailjet.NewMailjetClient(apiKey, secretKey)
	return &MailjetTransport{
		send: func(m *mailjet.MessagesV31) (*mailjet.ResultsV31, error) {
			return client.SendMailV31(m)
		},
	}
}

// Name implements Transport.
func (t *MailjetTransport) Name() string { return "mailjet" }

// Send implements Transport. The Mailjet client has no context support, so
// a cancelled ctx is only honoured before the call starts.
func (t *MailjetTransport) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload := &mailjet.MessagesV31{
		Info: []mailjet.InfoMessagesV31{{
			From: &mailjet.RecipientV31{
				Email: msg.From.Address,
				Name:  msg.From.Name,
			},
			To: &mailjet.RecipientsV31{
				mailjet.RecipientV31{
					Email: msg.To.Address,
					Name:  msg.To.Name,
				},
			},
			Subject:  msg.Subject,
			TextPart: msg.Text,
			HTMLPart: msg.HTML,
		}},
	}

	res, err := t.send(payload)
	if err != nil {
		return fmt.Errorf("mailjet send: %w", err)
	}
	if res == nil || len(res.ResultsV31) == 0 {
		return errors.New("mailjet send: empty response")
	}
	if status := res.ResultsV31[0].Status; status != "success" {
		return fmt.Errorf("mailjet send: status %q", status)
	}
	return nil
}
