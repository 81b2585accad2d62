// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tomtom215/natours/internal/models"
)

// Populator names accepted by Collection.Populate.
const (
	PopulateGuides  = "guides"
	PopulateReviews = "reviews"
	PopulateUser    = "user"
	PopulateTour    = "tour"
)

// Store groups the typed collections and the queries built on them.
type Store struct {
	Tours    *Collection[models.Tour]
	Users    *Collection[models.User]
	Reviews  *Collection[models.Review]
	Bookings *Collection[models.Booking]

	Accounts   *Accounts
	Ratings    *Ratings
	Aggregates *TourAggregates
}

// NewStore builds every collection over db and wires the populators
// between them.
func NewStore(db *mongo.Database) *Store {
	s := &Store{
		Tours:    NewCollection(db, TourDescriptor()),
		Users:    NewCollection(db, UserDescriptor()),
		Reviews:  NewCollection(db, ReviewDescriptor()),
		Bookings: NewCollection(db, BookingDescriptor()),
	}

	s.Tours.AddPopulator(PopulateGuides, func(ctx context.Context, docs []*models.Tour) error {
		return populateRefs(ctx, docs, s.Users, func(t *models.Tour) []*models.Ref[models.User] {
			refs := make([]*models.Ref[models.User], len(t.Guides))
			for i := range t.Guides {
				refs[i] = &t.Guides[i]
			}
			return refs
		})
	})
	s.Tours.AddPopulator(PopulateReviews, func(ctx context.Context, docs []*models.Tour) error {
		return populateTourReviews(ctx, docs, s.Reviews)
	})

	s.Reviews.AddPopulator(PopulateUser, func(ctx context.Context, docs []*models.Review) error {
		return populateRefs(ctx, docs, s.Users, func(r *models.Review) []*models.Ref[models.User] {
			return []*models.Ref[models.User]{&r.User}
		}, "name", "photo")
	})

	s.Bookings.AddPopulator(PopulateUser, func(ctx context.Context, docs []*models.Booking) error {
		return populateRefs(ctx, docs, s.Users, func(b *models.Booking) []*models.Ref[models.User] {
			return []*models.Ref[models.User]{&b.User}
		})
	})
	s.Bookings.AddPopulator(PopulateTour, func(ctx context.Context, docs []*models.Booking) error {
		return populateRefs(ctx, docs, s.Tours, func(b *models.Booking) []*models.Ref[models.Tour] {
			return []*models.Ref[models.Tour]{&b.Tour}
		}, "name")
	})

	s.Accounts = &Accounts{users: s.Users}
	s.Ratings = &Ratings{reviews: s.Reviews, tours: s.Tours}
	s.Aggregates = &TourAggregates{tours: s.Tours}
	return s
}

func stampID(id *primitive.ObjectID) {
	if id.IsZero() {
		*id = primitive.NewObjectID()
	}
}

func stampTime(t *time.Time, now time.Time) {
	if t.IsZero() {
		*t = now
	}
}

// TourDescriptor hides secret tours and keeps the slug in sync with the name.
func TourDescriptor() Descriptor[models.Tour] {
	return Descriptor[models.Tour]{
		Name:      ToursCollection,
		Scope:     NotSecret(),
		IDFields:  []string{"_id", "guides"},
		Normalize: (*models.Tour).Normalize,
		Stamp: func(t *models.Tour, now time.Time) {
			stampID(&t.ID)
			stampTime(&t.CreatedAt, now)
		},
		Derived: map[string][]string{"name": {"slug"}},
	}
}

// UserDescriptor hides inactive accounts and every password field.
func UserDescriptor() Descriptor[models.User] {
	return Descriptor[models.User]{
		Name:      UsersCollection,
		Scope:     ActiveOnly(),
		Hidden:    []string{"password"},
		IDFields:  []string{"_id"},
		Normalize: (*models.User).Normalize,
		Stamp: func(u *models.User, _ time.Time) {
			stampID(&u.ID)
			u.Active = true
		},
	}
}

// ReviewDescriptor describes reviews; the author is populated on reads.
func ReviewDescriptor() Descriptor[models.Review] {
	return Descriptor[models.Review]{
		Name:      ReviewsCollection,
		IDFields:  []string{"_id", "tour", "user"},
		Normalize: (*models.Review).Normalize,
		Stamp: func(r *models.Review, now time.Time) {
			stampID(&r.ID)
			stampTime(&r.CreatedAt, now)
		},
	}
}

// BookingDescriptor describes bookings.
func BookingDescriptor() Descriptor[models.Booking] {
	return Descriptor[models.Booking]{
		Name:      BookingsCollection,
		IDFields:  []string{"_id", "tour", "user"},
		Normalize: (*models.Booking).Normalize,
		Stamp: func(b *models.Booking, now time.Time) {
			stampID(&b.ID)
			stampTime(&b.CreatedAt, now)
		},
	}
}
