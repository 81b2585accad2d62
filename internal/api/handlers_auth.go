// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/natours/internal/auth"
	"github.com/tomtom215/natours/internal/database"
	"github.com/tomtom215/natours/internal/logging"
	"github.com/tomtom215/natours/internal/models"
	"github.com/tomtom215/natours/internal/validation"
)

// SignupRequest is the body of POST /users/signup.
type SignupRequest struct {
	Name            string `json:"name" validate:"required,min=5,max=40"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// LoginRequest is the body of POST /users/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordRequest carries a new password, used by resetPassword and
// updateMyPassword.
type PasswordRequest struct {
	PasswordCurrent string `json:"passwordCurrent"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

type authData struct {
	User *models.User `json:"user"`
}

// createSendToken issues a token for u, sets the cookie and replies with
// the token and the user.
func (h *Handler) createSendToken(w http.ResponseWriter, r *http.Request, u *models.User, status int) {
	token, _, err := h.guard.JWT().GenerateToken(u.ID.Hex())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.cookies.SetTokenCookie(w, r, token)
	respondJSON(w, status, &Response{Status: StatusSuccess, Token: token, Data: authData{User: u}})
}

// Signup creates a regular user account and logs it in.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeRequest(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if verr := validation.ValidateStruct(&req); verr != nil {
		h.fail(w, r, verr)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	u := &models.User{Name: req.Name, Email: req.Email, Role: models.RoleUser, Password: hash}
	if err := h.accounts.Create(r.Context(), u); err != nil {
		h.fail(w, r, err)
		return
	}
	h.audit.Signup(r, u)

	// A failed welcome email does not undo the signup.
	if err := h.mailer.SendWelcome(r.Context(), u, h.baseURL(r)+"/me"); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Str("user_id", u.ID.Hex()).Msg("Failed to send welcome email")
	}

	u.Password = ""
	h.createSendToken(w, r, u, http.StatusCreated)
}

// Login checks the credentials and issues a token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeRequest(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		h.fail(w, r, badRequest(MsgMissingLogin))
		return
	}

	u, err := h.accounts.FindByEmail(r.Context(), email)
	if err != nil && !database.IsNotFound(err) {
		h.fail(w, r, err)
		return
	}
	if u == nil || !auth.CheckPassword(u.Password, req.Password) {
		auth.AuthAttempts.WithLabelValues("login", "failure").Inc()
		h.audit.LoginFailed(r, email, "invalid_credentials")
		h.fail(w, r, unauthorized(MsgIncorrectLogin))
		return
	}

	auth.AuthAttempts.WithLabelValues("login", "success").Inc()
	h.audit.LoginSucceeded(r, u)
	u.Password = ""
	h.createSendToken(w, r, u, http.StatusOK)
}

// Logout replaces the cookie and revokes the presented token until it
// would have expired.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := auth.RequestToken(r); token != "" {
		if claims, err := h.guard.ClaimsFromToken(token); err == nil {
			if err := h.guard.Revoke(r.Context(), claims); err != nil {
				logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to revoke token")
			}
			var u *models.User
			if id, err := models.ParseID("id", claims.UserID); err == nil {
				u, _ = h.accounts.FindByID(r.Context(), id)
			}
			h.audit.Logout(r, u, claims.ID)
		}
	}

	h.cookies.ClearTokenCookie(w, r)
	respondJSON(w, http.StatusOK, &Response{Status: StatusSuccess})
}

// ForgotPassword emails a single-use reset link. The stored token is
// removed again when the email cannot be sent.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeRequest(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	u, err := h.accounts.FindByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if database.IsNotFound(err) {
		h.fail(w, r, notFound(MsgNoUserWithEmail))
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	token, hash, err := auth.NewResetToken()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.accounts.SetResetToken(r.Context(), u.ID, hash, h.now().Add(auth.ResetTokenTTL)); err != nil {
		h.fail(w, r, err)
		return
	}

	resetURL := h.baseURL(r) + "/api/v1/users/resetPassword/" + token
	if err := h.mailer.SendPasswordReset(r.Context(), u, resetURL, auth.ResetTokenTTL); err != nil {
		if cerr := h.accounts.ClearResetToken(r.Context(), u.ID); cerr != nil {
			logging.Ctx(r.Context()).Error().Err(cerr).Msg("Failed to roll back reset token")
		}
		h.audit.PasswordResetRequested(r, u, false)
		h.fail(w, r, wrapAppError(http.StatusInternalServerError, MsgEmailSendFailed, err))
		return
	}

	h.audit.PasswordResetRequested(r, u, true)
	respondJSON(w, http.StatusOK, &Response{Status: StatusSuccess, Message: MsgTokenSent})
}

// ResetPassword sets a new password using an emailed token.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	hash := auth.HashResetToken(chi.URLParam(r, "token"))
	u, err := h.accounts.FindByResetToken(r.Context(), hash, h.now())
	if database.IsNotFound(err) {
		h.fail(w, r, badRequest(MsgResetInvalid))
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req PasswordRequest
	if err := decodeRequest(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		h.fail(w, r, verr)
		return
	}
	if err := h.setPassword(r, u, req.Password); err != nil {
		h.fail(w, r, err)
		return
	}

	h.audit.PasswordReset(r, u)
	h.createSendToken(w, r, u, http.StatusOK)
}

// UpdateMyPassword changes the password of the logged-in user after
// checking the current one.
func (h *Handler) UpdateMyPassword(w http.ResponseWriter, r *http.Request) {
	current, err := currentUser(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req PasswordRequest
	if err := decodeRequest(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	u, err := h.accounts.FindWithPassword(r.Context(), current.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !auth.CheckPassword(u.Password, req.PasswordCurrent) {
		h.fail(w, r, unauthorized(MsgWrongPassword))
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		h.fail(w, r, verr)
		return
	}
	if err := h.setPassword(r, u, req.Password); err != nil {
		h.fail(w, r, err)
		return
	}

	h.audit.PasswordChanged(r, u)
	h.createSendToken(w, r, u, http.StatusOK)
}

func (h *Handler) setPassword(r *http.Request, u *models.User, plain string) error {
	hash, err := auth.HashPassword(plain)
	if err != nil {
		return err
	}
	changedAt := auth.PasswordChangedAt(h.now())
	if err := h.accounts.UpdatePassword(r.Context(), u.ID, hash, changedAt); err != nil {
		return err
	}
	u.Password = ""
	u.PasswordChangedAt = &changedAt
	u.PasswordResetToken = ""
	u.PasswordResetExpires = nil
	return nil
}
