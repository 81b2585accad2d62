// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package middleware

import "net/http"

// contentSecurityPolicy allows the third-party scripts the views load:
// Stripe Checkout, Mapbox GL and Google Fonts.
const contentSecurityPolicy = "default-src 'self'; " +
	"base-uri 'self'; " +
	"script-src 'self' https://js.stripe.com https://api.mapbox.com; " +
	"style-src 'self' 'unsafe-inline' https://api.mapbox.com https://fonts.googleapis.com; " +
	"font-src 'self' https://fonts.gstatic.com; " +
	"img-src 'self' data: blob:; " +
	"connect-src 'self' https://api.mapbox.com https://events.mapbox.com; " +
	"frame-src https://js.stripe.com https://checkout.stripe.com; " +
	"worker-src 'self' blob:; " +
	"object-src 'none'; " +
	"frame-ancestors 'self'"

// SecurityHeaders sets browser hardening headers. HSTS is only sent when
// hsts is true, which the server does in production.
func SecurityHeaders(hsts bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Content-Security-Policy", contentSecurityPolicy)
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "SAMEORIGIN")
			h.Set("X-DNS-Prefetch-Control", "off")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Cross-Origin-Opener-Policy", "same-origin")
			h.Set("X-XSS-Protection", "0")
			if hsts {
				h.Set("Strict-Transport-Security", "max-age=15552000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}
