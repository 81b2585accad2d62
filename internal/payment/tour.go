// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package payment

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/tomtom215/natours/internal/models"
)

// TourCheckout builds the checkout request for booking a tour. baseURL is
// the scheme and host the browser used, e.g. "https://natours.example".
//
// The success URL carries tour, user and price so the overview page can
// record the booking when Stripe redirects back.
func TourCheckout(t *models.Tour, u *models.User, baseURL string) *CheckoutRequest {
	base := strings.TrimRight(baseURL, "/")

	q := url.Values{}
	q.Set("tour", t.ID.Hex())
	q.Set("user", u.ID.Hex())
	q.Set("price", formatPrice(t.Price))

	var images []string
	if t.ImageCover != "" {
		images = []string{base + "/img/tours/" + url.PathEscape(t.ImageCover)}
	}

	return &CheckoutRequest{
		CustomerEmail:     u.Email,
		ClientReferenceID: t.ID.Hex(),
		SuccessURL:        base + "/?" + q.Encode(),
		CancelURL:         base + "/tour/" + url.PathEscape(t.Slug),
		Items: []LineItem{{
			Name:        t.Name + " Tour",
			Description: t.Summary,
			Images:      images,
			UnitAmount:  int64(math.Round(t.Price * 100)),
			Quantity:    1,
		}},
	}
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
