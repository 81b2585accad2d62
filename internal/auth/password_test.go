// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package auth

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHashing(t *testing.T) {
	t.Parallel()

	hash, err := HashPasswordCost("pass1234", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPasswordCost: %v", err)
	}
	if hash == "pass1234" {
		t.Fatal("password stored in clear text")
	}
	if !CheckPassword(hash, "pass1234") {
		t.Error("CheckPassword rejected the right password")
	}
	if CheckPassword(hash, "pass12345") {
		t.Error("CheckPassword accepted a wrong password")
	}
	if CheckPassword("", "pass1234") {
		t.Error("CheckPassword accepted an empty hash")
	}
}

func TestDefaultCost(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("pass1234")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil || cost != PasswordCost {
		t.Errorf("cost = %d (%v), want %d", cost, err, PasswordCost)
	}
}

func TestResetToken(t *testing.T) {
	t.Parallel()

	token, hash, err := NewResetToken()
	if err != nil {
		t.Fatalf("NewResetToken: %v", err)
	}
	if len(token) != 64 || len(hash) != 64 {
		t.Errorf("token/hash lengths = %d/%d, want 64/64", len(token), len(hash))
	}
	if token == hash {
		t.Error("stored hash equals the mailed token")
	}
	if HashResetToken(token) != hash {
		t.Error("HashResetToken does not reproduce the stored hash")
	}

	other, _, _ := NewResetToken()
	if other == token {
		t.Error("reset tokens repeat")
	}
}

func TestPasswordChangedAt(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	if got := PasswordChangedAt(now); !got.Equal(now.Add(-time.Second)) {
		t.Errorf("PasswordChangedAt = %v", got)
	}
}
