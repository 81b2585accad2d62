// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package database

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotSecret hides tours flagged secretTour. Tours without the flag match.
func NotSecret() bson.D {
	return bson.D{{Key: "secretTour", Value: bson.D{{Key: "$ne", Value: true}}}}
}

// ActiveOnly hides deactivated accounts. Users without the flag match.
func ActiveOnly() bson.D {
	return bson.D{{Key: "active", Value: bson.D{{Key: "$ne", Value: false}}}}
}

// ByID matches a single document.
func ByID(id primitive.ObjectID) bson.D {
	return bson.D{{Key: "_id", Value: id}}
}

// ByTour matches documents referencing a tour, used by nested review routes.
func ByTour(tourID primitive.ObjectID) bson.D {
	return bson.D{{Key: "tour", Value: tourID}}
}

// ByUser matches documents referencing a user.
func ByUser(userID primitive.ObjectID) bson.D {
	return bson.D{{Key: "user", Value: userID}}
}
