// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tomtom215/natours/internal/database/query"
	"github.com/tomtom215/natours/internal/models"
)

// Accounts holds the user lookups and writes needed by authentication.
// Unlike the generic collection it can read password hashes.
type Accounts struct {
	users *Collection[models.User]
}

// Create inserts a new active user. The password must already be hashed.
func (a *Accounts) Create(ctx context.Context, u *models.User) error {
	return a.users.Insert(ctx, u)
}

// FindByID returns an active user without password fields.
func (a *Accounts) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return a.users.FindByID(ctx, id)
}

// FindByEmail returns an active user including the password hash.
func (a *Accounts) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return a.findWithPassword(ctx, bson.D{{Key: "email", Value: email}})
}

// FindWithPassword returns an active user by id including the password hash.
func (a *Accounts) FindWithPassword(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return a.findWithPassword(ctx, ByID(id))
}

// FindByResetToken returns the user holding an unexpired reset token hash.
func (a *Accounts) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	return a.findWithPassword(ctx, bson.D{
		{Key: "passwordResetToken", Value: tokenHash},
		{Key: "passwordResetExpires", Value: bson.D{{Key: "$gt", Value: now}}},
	})
}

func (a *Accounts) findWithPassword(ctx context.Context, filter bson.D) (*models.User, error) {
	start := time.Now()
	var u models.User
	err := a.users.coll.FindOne(ctx, query.And(a.users.desc.Scope, filter),
		options.FindOne().SetProjection(bson.D{{Key: query.VersionField, Value: 0}})).Decode(&u)
	recordQuery("find_account", UsersCollection, start, err)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	return &u, nil
}

// SetResetToken stores a reset token hash and its expiry.
func (a *Accounts) SetResetToken(ctx context.Context, id primitive.ObjectID, tokenHash string, expires time.Time) error {
	return a.update(ctx, "set_reset_token", id, bson.D{{Key: "$set", Value: bson.D{
		{Key: "passwordResetToken", Value: tokenHash},
		{Key: "passwordResetExpires", Value: expires},
	}}})
}

// ClearResetToken removes any pending reset token.
func (a *Accounts) ClearResetToken(ctx context.Context, id primitive.ObjectID) error {
	return a.update(ctx, "clear_reset_token", id, bson.D{{Key: "$unset", Value: bson.D{
		{Key: "passwordResetToken", Value: ""},
		{Key: "passwordResetExpires", Value: ""},
	}}})
}

// UpdatePassword stores a new hash, records when it changed and clears any
// reset token.
func (a *Accounts) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string, changedAt time.Time) error {
	return a.update(ctx, "update_password", id, bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "password", Value: hash},
			{Key: "passwordChangedAt", Value: changedAt},
		}},
		{Key: "$unset", Value: bson.D{
			{Key: "passwordResetToken", Value: ""},
			{Key: "passwordResetExpires", Value: ""},
		}},
	})
}

// UpdateProfile applies name, email and photo changes from u.
func (a *Accounts) UpdateProfile(ctx context.Context, u *models.User, fields []string) (*models.User, error) {
	allowed := make([]string, 0, len(fields))
	for _, f := range fields {
		switch f {
		case "name", "email", "photo":
			allowed = append(allowed, f)
		}
	}
	return a.users.UpdateFields(ctx, u.ID, u, allowed)
}

// Deactivate soft-deletes a user.
func (a *Accounts) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	return a.update(ctx, "deactivate", id, bson.D{{Key: "$set", Value: bson.D{{Key: "active", Value: false}}}})
}

func (a *Accounts) update(ctx context.Context, op string, id primitive.ObjectID, update bson.D) error {
	start := time.Now()
	res, err := a.users.coll.UpdateOne(ctx, query.And(a.users.desc.Scope, ByID(id)), update)
	recordQuery(op, UsersCollection, start, err)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
