// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

// Package email renders and delivers the transactional emails: the welcome
// message on signup and the password reset link.
//
// Rendering uses embedded html/template and text/template files so every
// message carries an HTML part and a plain-text alternative. Delivery goes
// through a Transport:
//   - SMTPTransport for development relays such as Mailtrap
//   - MailjetTransport for production
//   - LogTransport when nothing is configured
//
// Sends are throttled with golang.org/x/time/rate to stay inside the relay
// quota.
package email
