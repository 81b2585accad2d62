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
)

// Populator resolves references on a batch of documents in place.
type Populator[T any] func(ctx context.Context, docs []*T) error

// Descriptor describes how a document type is stored.
type Descriptor[T any] struct {
	// Name is the MongoDB collection name.
	Name string

	// Scope is the default read predicate, nil for none.
	Scope bson.D

	// Hidden fields are never projected on reads.
	Hidden []string

	// IDFields hold ObjectIDs, so query-string filters on them are parsed
	// as ids rather than compared as strings.
	IDFields []string

	// Normalize runs before every insert and update.
	Normalize func(doc *T)

	// Stamp runs once before insert to assign the id and creation time.
	Stamp func(doc *T, now time.Time)

	// Derived lists fields recomputed by Normalize when a field changes,
	// e.g. name -> slug.
	Derived map[string][]string

	// Populators are named reference resolvers run on request.
	Populators map[string]Populator[T]
}

// Collection is a typed view over one MongoDB collection.
type Collection[T any] struct {
	coll *mongo.Collection
	desc Descriptor[T]
}

// NewCollection binds a descriptor to a database.
func NewCollection[T any](db *mongo.Database, desc Descriptor[T]) *Collection[T] {
	if desc.Populators == nil {
		desc.Populators = map[string]Populator[T]{}
	}
	return &Collection[T]{coll: db.Collection(desc.Name), desc: desc}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string {
	return c.desc.Name
}

// Raw exposes the driver collection for aggregations.
func (c *Collection[T]) Raw() *mongo.Collection {
	return c.coll
}

// Scope returns the default read predicate.
func (c *Collection[T]) Scope() bson.D {
	return c.desc.Scope
}

// Normalize applies the descriptor's normalization to doc.
func (c *Collection[T]) Normalize(doc *T) {
	if c.desc.Normalize != nil {
		c.desc.Normalize(doc)
	}
}

// AddPopulator registers a named populator. Populators that reference
// other collections are wired after all collections exist.
func (c *Collection[T]) AddPopulator(name string, p Populator[T]) {
	c.desc.Populators[name] = p
}

func (c *Collection[T]) hiddenProjection() bson.D {
	proj := bson.D{{Key: query.VersionField, Value: 0}}
	for _, h := range c.desc.Hidden {
		proj = append(proj, bson.E{Key: h, Value: 0})
	}
	return proj
}

// Insert stamps, normalizes and stores doc.
func (c *Collection[T]) Insert(ctx context.Context, doc *T) error {
	if c.desc.Stamp != nil {
		c.desc.Stamp(doc, time.Now().UTC())
	}
	c.Normalize(doc)

	start := time.Now()
	_, err := c.coll.InsertOne(ctx, doc)
	recordQuery("insert", c.desc.Name, start, err)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", c.desc.Name, err)
	}
	return nil
}

// FindByID returns the document with id visible under the default scope.
func (c *Collection[T]) FindByID(ctx context.Context, id primitive.ObjectID, populate ...string) (*T, error) {
	return c.FindOne(ctx, ByID(id), populate...)
}

// FindOne returns the first document matching filter under the default scope.
func (c *Collection[T]) FindOne(ctx context.Context, filter bson.D, populate ...string) (*T, error) {
	start := time.Now()
	var doc T
	err := c.coll.FindOne(ctx, query.And(c.desc.Scope, filter),
		options.FindOne().SetProjection(c.hiddenProjection())).Decode(&doc)
	recordQuery("find_one", c.desc.Name, start, err)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", c.desc.Name, err)
	}

	if err := c.Populate(ctx, []*T{&doc}, populate...); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Find lists documents matching the default scope, the implicit filter
// and the features built from the request query.
func (c *Collection[T]) Find(ctx context.Context, f *query.Features, implicit bson.D, populate ...string) ([]*T, error) {
	if f == nil {
		f = query.New(nil)
	}
	if len(c.desc.IDFields) > 0 {
		f.IDFields(c.desc.IDFields...)
	}
	if err := f.Err(); err != nil {
		return nil, err
	}
	filter := query.And(c.desc.Scope, implicit, f.FilterDoc())

	start := time.Now()
	cur, err := c.coll.Find(ctx, filter, f.FindOptions(c.desc.Hidden...))
	if err != nil {
		recordQuery("find", c.desc.Name, start, err)
		return nil, fmt.Errorf("find in %s: %w", c.desc.Name, err)
	}

	docs := []*T{}
	err = cur.All(ctx, &docs)
	recordQuery("find", c.desc.Name, start, err)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.desc.Name, err)
	}

	if err := c.Populate(ctx, docs, populate...); err != nil {
		return nil, err
	}
	return docs, nil
}

// Count counts documents matching filter under the default scope.
func (c *Collection[T]) Count(ctx context.Context, filter bson.D) (int64, error) {
	start := time.Now()
	n, err := c.coll.CountDocuments(ctx, query.And(c.desc.Scope, filter))
	recordQuery("count", c.desc.Name, start, err)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", c.desc.Name, err)
	}
	return n, nil
}

// UpdateFields writes the named fields of doc (plus any derived fields)
// with $set and returns the stored document after the update. doc is
// expected to be normalized and validated already.
func (c *Collection[T]) UpdateFields(ctx context.Context, id primitive.ObjectID, doc *T, fields []string) (*T, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", c.desc.Name, err)
	}

	set := c.setDocument(bson.Raw(raw), fields)
	if len(set) == 0 {
		return c.FindByID(ctx, id)
	}

	start := time.Now()
	var updated T
	err = c.coll.FindOneAndUpdate(ctx,
		query.And(c.desc.Scope, ByID(id)),
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(c.hiddenProjection()),
	).Decode(&updated)
	recordQuery("update", c.desc.Name, start, err)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", c.desc.Name, err)
	}
	return &updated, nil
}

func (c *Collection[T]) setDocument(raw bson.Raw, fields []string) bson.D {
	seen := map[string]bool{"_id": true, query.VersionField: true}
	set := bson.D{}
	add := func(field string) {
		if seen[field] {
			return
		}
		seen[field] = true
		if v, err := raw.LookupErr(field); err == nil {
			set = append(set, bson.E{Key: field, Value: v})
		}
	}
	for _, f := range fields {
		add(f)
		for _, d := range c.desc.Derived[f] {
			add(d)
		}
	}
	return set
}

// DeleteByID removes the document and returns it.
func (c *Collection[T]) DeleteByID(ctx context.Context, id primitive.ObjectID) (*T, error) {
	start := time.Now()
	var doc T
	err := c.coll.FindOneAndDelete(ctx, query.And(c.desc.Scope, ByID(id))).Decode(&doc)
	recordQuery("delete", c.desc.Name, start, err)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete from %s: %w", c.desc.Name, err)
	}
	return &doc, nil
}

// Populate runs the named populators over docs.
func (c *Collection[T]) Populate(ctx context.Context, docs []*T, names ...string) error {
	if len(docs) == 0 {
		return nil
	}
	for _, name := range names {
		p, ok := c.desc.Populators[name]
		if !ok {
			return fmt.Errorf("%s has no populator %q", c.desc.Name, name)
		}
		if err := p(ctx, docs); err != nil {
			return fmt.Errorf("populate %s.%s: %w", c.desc.Name, name, err)
		}
	}
	return nil
}
