// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package api

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/natours/internal/auth"
	"github.com/tomtom215/natours/internal/authz"
	"github.com/tomtom215/natours/internal/database"
	"github.com/tomtom215/natours/internal/models"
	"github.com/tomtom215/natours/internal/payment"
	"github.com/tomtom215/natours/internal/validation"
	"github.com/tomtom215/natours/internal/views"
)

// Envelope statuses.
const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// Client-facing messages shared by several handlers.
const (
	MsgGenericError     = "something went very wrong!"
	MsgNotFoundID       = "no data found with this id"
	MsgTooManyRequests  = "too many requests from this IP, please try again in an hour"
	MsgNotAnImage       = "not an image! please upload only images"
	MsgEmailSendFailed  = "there was an error sending the email. try again later!"
	MsgUseSignup        = "this route is not defined, please use /signup instead"
	MsgNotForPasswords  = "this route is not for password updates. please use /updateMyPassword"
	MsgMissingLogin     = "please provide email and password!"
	MsgIncorrectLogin   = "incorrect email or password"
	MsgWrongPassword    = "your current password is wrong"
	MsgNoUserWithEmail  = "there is no user with that email address."
	MsgResetInvalid     = "token is invalid or has expired"
	MsgPaymentsDown     = "payments are temporarily unavailable, please try again later"
	MsgInvalidBody      = "invalid request body"
	MsgRequestTooLarge  = "request body is too large"
	MsgTokenSent        = "token sent to email!"
	MsgPaymentsDisabled = "payments are not configured on this server"
)

// AppError is an error with an HTTP status. Operational errors are
// expected failures whose message is safe to show to clients.
type AppError struct {
	StatusCode    int
	Status        string
	Message       string
	IsOperational bool

	// Err is the underlying cause, if any.
	Err   error
	stack []byte
}

// NewAppError creates an operational error.
func NewAppError(statusCode int, message string) *AppError {
	return &AppError{
		StatusCode:    statusCode,
		Status:        statusFor(statusCode),
		Message:       message,
		IsOperational: true,
		stack:         debug.Stack(),
	}
}

// wrapAppError creates an operational error that keeps err as its cause.
func wrapAppError(statusCode int, message string, err error) *AppError {
	e := NewAppError(statusCode, message)
	e.Err = err
	return e
}

// internalError wraps an unexpected failure. Its message is hidden in
// production.
func internalError(err error) *AppError {
	return &AppError{
		StatusCode: http.StatusInternalServerError,
		Status:     StatusError,
		Message:    err.Error(),
		Err:        err,
		stack:      debug.Stack(),
	}
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Stack returns the goroutine stack captured when the error was created.
func (e *AppError) Stack() string {
	return string(e.stack)
}

func statusFor(code int) string {
	if code >= 400 && code < 500 {
		return StatusFail
	}
	return StatusError
}

// Constructors for the common operational errors.
func badRequest(msg string) *AppError   { return NewAppError(http.StatusBadRequest, msg) }
func unauthorized(msg string) *AppError { return NewAppError(http.StatusUnauthorized, msg) }
func notFound(msg string) *AppError     { return NewAppError(http.StatusNotFound, msg) }

// Translate maps err onto an AppError. Known shapes become operational
// client errors; anything else is an internal error.
func Translate(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var castErr *models.CastError
	var valErr *validation.RequestValidationError
	var stripeErr *payment.APIError

	switch {
	case database.IsDuplicateKey(err):
		return wrapAppError(http.StatusBadRequest,
			fmt.Sprintf("Duplicate field value: %s. Please use another value!", database.DuplicateValue(err)), err)

	case errors.As(err, &castErr):
		return wrapAppError(http.StatusBadRequest, castErr.Error(), err)

	case errors.As(err, &valErr):
		return wrapAppError(http.StatusBadRequest, "Invalid input data. "+strings.Join(valErr.Messages(), ". "), err)

	case errors.Is(err, jwt.ErrTokenExpired):
		return wrapAppError(http.StatusUnauthorized, auth.ErrTokenExpired.Error(), err)

	case errors.Is(err, jwt.ErrTokenMalformed), errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return wrapAppError(http.StatusUnauthorized, auth.ErrTokenInvalid.Error(), err)

	case auth.IsAuthError(err):
		return wrapAppError(http.StatusUnauthorized, authMessage(err), err)

	case errors.Is(err, authz.ErrForbidden):
		return wrapAppError(http.StatusForbidden, err.Error(), err)

	case errors.Is(err, views.ErrTourNotFound):
		return wrapAppError(http.StatusNotFound, err.Error(), err)

	case database.IsNotFound(err):
		return wrapAppError(http.StatusNotFound, MsgNotFoundID, err)

	case errors.Is(err, database.ErrInvalidLatLng),
		errors.Is(err, database.ErrInvalidUnit),
		errors.Is(err, database.ErrInvalidDistance):
		return wrapAppError(http.StatusBadRequest, err.Error(), err)

	case errors.Is(err, payment.ErrUnavailable):
		return wrapAppError(http.StatusServiceUnavailable, MsgPaymentsDown, err)

	case errors.Is(err, payment.ErrNotConfigured):
		return wrapAppError(http.StatusServiceUnavailable, MsgPaymentsDisabled, err)

	case errors.As(err, &stripeErr) && stripeErr.Status >= 500:
		return wrapAppError(http.StatusBadGateway, MsgPaymentsDown, err)
	}

	return internalError(err)
}

// authMessage returns the client message of the guard error wrapped in
// err, without the token library's detail.
func authMessage(err error) string {
	for _, target := range []error{
		auth.ErrNotLoggedIn, auth.ErrTokenInvalid, auth.ErrTokenExpired,
		auth.ErrTokenRevoked, auth.ErrUserGone, auth.ErrPasswordChanged,
	} {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return err.Error()
}
