// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

// Package views renders the server-side HTML pages: the tour overview,
// tour details, login, the account page and the user's booked tours.
//
// Templates are embedded and parsed once at startup. Each page template
// defines "content" and is rendered inside the shared "base" layout. The
// logged-in user, when IsLoggedIn or Protect found one, is available to
// every template as .User.
package views
