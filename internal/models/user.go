// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is a user's authorization role.
type Role string

const (
	RoleUser      Role = "user"
	RoleGuide     Role = "guide"
	RoleLeadGuide Role = "lead-guide"
	RoleAdmin     Role = "admin"
)

// DefaultPhoto is assigned to users who never uploaded one.
const DefaultPhoto = "default.jpg"

// User is an account. Password, reset token and active state are tagged
// json:"-" so no handler can leak them.
type User struct {
	ID                   primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name                 string             `json:"name" bson:"name" validate:"required,min=5,max=40"`
	Email                string             `json:"email" bson:"email" validate:"required,email"`
	Photo                string             `json:"photo" bson:"photo"`
	Role                 Role               `json:"role" bson:"role" validate:"required,oneof=user guide lead-guide admin"`
	Password             string             `json:"-" bson:"password,omitempty"`
	PasswordChangedAt    *time.Time         `json:"-" bson:"passwordChangedAt,omitempty"`
	PasswordResetToken   string             `json:"-" bson:"passwordResetToken,omitempty"`
	PasswordResetExpires *time.Time         `json:"-" bson:"passwordResetExpires,omitempty"`
	Active               bool               `json:"-" bson:"active"`
	Version              int                `json:"-" bson:"__v"`
}

// Normalize lower-cases the email and fills defaults. It runs before every
// insert and update.
func (u *User) Normalize() {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Photo == "" {
		u.Photo = DefaultPhoto
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
}

// ChangedPasswordAfter reports whether the password was changed after a
// token issued at iat. Both sides are compared at second precision, the
// resolution JWT timestamps carry.
func (u *User) ChangedPasswordAfter(iat time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return iat.Unix() < u.PasswordChangedAt.Unix()
}

// FirstName is the first word of Name, used to greet users in emails.
func (u *User) FirstName() string {
	if f := strings.Fields(u.Name); len(f) > 0 {
		return f[0]
	}
	return u.Name
}

// HasRole reports whether the user holds any of roles.
func (u *User) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}
