// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Booking records a paid reservation. It is normally created after the
// payment provider confirms checkout; admins may also create one directly.
type Booking struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Tour      Ref[Tour]          `json:"tour" bson:"tour" validate:"required"`
	User      Ref[User]          `json:"user" bson:"user" validate:"required"`
	Price     float64            `json:"price" bson:"price" validate:"required,gt=0"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	Paid      *bool              `json:"paid" bson:"paid"`
	Version   int                `json:"-" bson:"__v"`
}

// Normalize marks bookings paid unless the client said otherwise.
func (b *Booking) Normalize() {
	if b.Paid == nil {
		paid := true
		b.Paid = &paid
	}
}
