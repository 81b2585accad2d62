// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package api

import (
	"net/http"

	"github.com/tomtom215/natours/internal/logging"
	"github.com/tomtom215/natours/internal/payment"
)

type checkoutResponse struct {
	Status  string           `json:"status"`
	Session *payment.Session `json:"session"`
}

// CheckoutSession creates a hosted checkout page for booking {tourId}.
func (h *Handler) CheckoutSession(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	tourID, err := idParam(r, "tourId")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	tour, err := h.tours.FindByID(r.Context(), tourID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	session, err := h.payments.CreateCheckoutSession(r.Context(), payment.TourCheckout(tour, u, h.baseURL(r)))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("tour_id", tour.ID.Hex()).
		Str("session_id", session.ID).
		Msg("Checkout session created")
	respondJSON(w, http.StatusOK, &checkoutResponse{Status: StatusSuccess, Session: session})
}
