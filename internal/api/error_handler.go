// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/tomtom215/natours/internal/logging"
)

// PageRenderer renders the HTML error page for view routes.
type PageRenderer interface {
	RenderError(w http.ResponseWriter, r *http.Request, status int, message string)
}

// ErrorHandler is the single place where failures become responses.
// Requests under /api get the JSON envelope; everything else gets the
// error page.
type ErrorHandler struct {
	production bool
	pages      PageRenderer
}

// NewErrorHandler creates an error handler. pages may be nil, in which
// case every error is rendered as JSON.
func NewErrorHandler(production bool, pages PageRenderer) *ErrorHandler {
	return &ErrorHandler{production: production, pages: pages}
}

// Write translates err and renders it. Its signature matches
// auth.ErrorWriter and authz.ErrorWriter.
func (h *ErrorHandler) Write(w http.ResponseWriter, r *http.Request, err error) {
	appErr := Translate(err)

	log := logging.Ctx(r.Context())
	if appErr.StatusCode >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", appErr.StatusCode).Str("path", r.URL.Path).Msg("Request failed")
	} else {
		log.Debug().Err(err).Int("status", appErr.StatusCode).Str("path", r.URL.Path).Msg("Request rejected")
	}

	message := appErr.Message
	if h.production && !appErr.IsOperational {
		message = MsgGenericError
	}

	if h.pages != nil && !isAPIRequest(r) {
		h.pages.RenderError(w, r, appErr.StatusCode, message)
		return
	}

	switch {
	case !h.production:
		respondJSON(w, appErr.StatusCode, &errorResponse{
			Status:  appErr.Status,
			Error:   fmt.Sprintf("%+v", err),
			Message: appErr.Message,
			Stack:   appErr.Stack(),
		})
	default:
		respondJSON(w, appErr.StatusCode, &Response{Status: appErr.Status, Message: message})
	}
}

// NotFound answers unknown routes.
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.Write(w, r, notFound(fmt.Sprintf("can't find %s on this server", r.URL.RequestURI())))
}

// MethodNotAllowed answers known paths hit with the wrong method.
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.Write(w, r, NewAppError(http.StatusMethodNotAllowed, fmt.Sprintf("%s is not allowed on %s", r.Method, r.URL.Path)))
}

// Recoverer turns panics into a 500 through Write. It replaces chi's
// Recoverer so panics share the error format.
func (h *ErrorHandler) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logging.Ctx(r.Context()).Error().Interface("panic", rec).Msg("Recovered from panic")
			h.Write(w, r, internalError(fmt.Errorf("panic: %v", rec)))
		}()
		next.ServeHTTP(w, r)
	})
}

func isAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api")
}
