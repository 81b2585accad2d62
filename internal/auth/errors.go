// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package auth

import "errors"

// Guard errors. Their messages are shown to clients as-is.
var (
	ErrNotLoggedIn     = errors.New("you are not logged in please log in and try again")
	ErrTokenInvalid    = errors.New("invalid token please login again")
	ErrTokenExpired    = errors.New("the token has been expired please login again")
	ErrTokenRevoked    = errors.New("this token has been logged out please log in again")
	ErrUserGone        = errors.New("the user belonging to this token no longer exists")
	ErrPasswordChanged = errors.New("user recently changed the password, please log in again")
)

// IsAuthError reports whether err should be answered with 401.
func IsAuthError(err error) bool {
	for _, target := range []error{ErrNotLoggedIn, ErrTokenInvalid, ErrTokenExpired, ErrTokenRevoked, ErrUserGone, ErrPasswordChanged} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
