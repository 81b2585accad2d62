// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/natours/internal/validation"
)

// profileFields are the only fields updateMe applies.
var profileFields = map[string]bool{"name": true, "email": true, "photo": true}

// GetMe rewrites the {id} parameter to the current user so the factory's
// GetOne can serve /users/me.
func (h *Handler) GetMe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := currentUser(r)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			rctx.URLParams.Add("id", u.ID.Hex())
		}
		next.ServeHTTP(w, r)
	})
}

// UpdateMe changes the current user's name, email and photo. Password
// fields are refused; other fields are ignored.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	current, err := currentUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	body, err := readBody(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	keys, err := bodyKeys(body)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	fields := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "password" || k == "passwordConfirm" {
			h.fail(w, r, badRequest(MsgNotForPasswords))
			return
		}
		if profileFields[k] {
			fields = append(fields, k)
		}
	}

	var patch struct {
		Name  *string `json:"name"`
		Email *string `json:"email"`
		Photo *string `json:"photo"`
	}
	if err := decodeBody(body, &patch); err != nil {
		h.fail(w, r, err)
		return
	}

	u := *current
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.Photo != nil {
		u.Photo = *patch.Photo
	}
	u.Normalize()
	if verr := validation.ValidateStruct(&u); verr != nil {
		h.fail(w, r, verr)
		return
	}

	updated, err := h.accounts.UpdateProfile(r.Context(), &u, fields)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondData(w, http.StatusOK, "user", updated)
}

// DeleteMe deactivates the current account.
func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.accounts.Deactivate(r.Context(), u.ID); err != nil {
		h.fail(w, r, err)
		return
	}
	h.audit.Deactivated(r, u)
	respondNoContent(w)
}

// CreateUser is disabled; accounts are created through signup.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	h.fail(w, r, NewAppError(http.StatusInternalServerError, MsgUseSignup))
}
