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
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tomtom215/natours/internal/config"
	"github.com/tomtom215/natours/internal/logging"
)

// Collection names.
const (
	ToursCollection    = "tours"
	UsersCollection    = "users"
	ReviewsCollection  = "reviews"
	BookingsCollection = "bookings"
)

// DB wraps the MongoDB client and the application database.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
	cfg    *config.DatabaseConfig
}

// Connect opens a client, verifies it with a ping and selects the database.
func Connect(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	uri := cfg.ConnectionString()
	if uri == "" {
		return nil, errors.New("database uri is empty")
	}

	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}

	opts := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(connectTimeout).
		SetAppName("natours")
	if cfg.QueryTimeout > 0 {
		opts.SetTimeout(cfg.QueryTimeout)
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	logging.Info().Str("database", cfg.Name).Msg("MongoDB connected")

	return &DB{client: client, db: client.Database(cfg.Name), cfg: cfg}, nil
}

// Database returns the application database handle.
func (d *DB) Database() *mongo.Database {
	return d.db
}

// Ping checks the primary is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (d *DB) Close(ctx context.Context) error {
	if err := d.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect mongodb: %w", err)
	}
	return nil
}

// IndexSpecs lists the indexes the service relies on, keyed by collection.
func IndexSpecs() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		ToursCollection: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "price", Value: 1}, {Key: "ratingsAverage", Value: -1}}},
			{Keys: bson.D{{Key: "slug", Value: 1}}},
			{Keys: bson.D{{Key: "startLocation", Value: "2dsphere"}}},
		},
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		ReviewsCollection: {
			{Keys: bson.D{{Key: "tour", Value: 1}, {Key: "user", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		BookingsCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}}},
			{Keys: bson.D{{Key: "tour", Value: 1}}},
		},
	}
}

// EnsureIndexes creates any missing index. Existing indexes are left alone.
func (d *DB) EnsureIndexes(ctx context.Context) error {
	for coll, models := range IndexSpecs() {
		start := time.Now()
		names, err := d.db.Collection(coll).Indexes().CreateMany(ctx, models)
		recordQuery("create_indexes", coll, start, err)
		if err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll, err)
		}
		logging.Debug().Str("collection", coll).Strs("indexes", names).Msg("Indexes ensured")
	}
	return nil
}
