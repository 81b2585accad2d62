// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	// PasswordCost is the bcrypt work factor for stored passwords.
	PasswordCost = 12

	// ResetTokenTTL is how long a password reset link stays valid.
	ResetTokenTTL = 10 * time.Minute

	resetTokenBytes = 32
)

// HashPassword hashes a password with the default cost.
func HashPassword(plain string) (string, error) {
	return HashPasswordCost(plain, PasswordCost)
}

// HashPasswordCost hashes a password with an explicit bcrypt cost.
func HashPasswordCost(plain string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether plain matches hash.
func CheckPassword(hash, plain string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// NewResetToken returns a random token to mail to the user and the hash
// to store.
func NewResetToken() (token, hash string, err error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("generate reset token: %w", err)
	}
	token = hex.EncodeToString(b)
	return token, HashResetToken(token), nil
}

// HashResetToken returns the stored form of a reset token.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// PasswordChangedAt is the timestamp recorded when a password changes. It
// is backdated one second so a token issued in the same second as the
// change is still accepted.
func PasswordChangedAt(now time.Time) time.Time {
	return now.Add(-time.Second)
}
