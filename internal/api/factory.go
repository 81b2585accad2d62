// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tomtom215/natours/internal/database/query"
	"github.com/tomtom215/natours/internal/models"
	"github.com/tomtom215/natours/internal/validation"
)

// Repository is the storage a Factory needs. *database.Collection[T]
// implements it.
type Repository[T any] interface {
	Insert(ctx context.Context, doc *T) error
	FindByID(ctx context.Context, id primitive.ObjectID, populate ...string) (*T, error)
	Find(ctx context.Context, f *query.Features, implicit bson.D, populate ...string) ([]*T, error)
	UpdateFields(ctx context.Context, id primitive.ObjectID, doc *T, fields []string) (*T, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) (*T, error)
	Normalize(doc *T)
}

// ErrorWriter renders a handler failure.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// FactoryOptions customizes the generated handlers for one resource.
type FactoryOptions[T any] struct {
	// Populate lists the populators run by GetOne.
	Populate []string

	// ListPopulate lists the populators run by GetAll.
	ListPopulate []string

	// Implicit returns a filter merged into GetAll, e.g. the parent of a
	// nested route.
	Implicit func(r *http.Request) (bson.D, error)

	// Prepare fills request-derived defaults before a create is validated.
	Prepare func(r *http.Request, doc *T) error

	// AfterWrite runs after a successful create, update or delete with the
	// affected document.
	AfterWrite func(ctx context.Context, doc *T) error

	// AfterUpdate replaces AfterWrite for updates and also receives the
	// document as it was before the update.
	AfterUpdate func(ctx context.Context, before, after *T) error
}

// Factory builds the five CRUD handlers for a document type.
type Factory[T any] struct {
	repo Repository[T]
	fail ErrorWriter
	opts FactoryOptions[T]
}

// NewFactory creates a factory over repo.
func NewFactory[T any](repo Repository[T], fail ErrorWriter, opts FactoryOptions[T]) *Factory[T] {
	return &Factory[T]{repo: repo, fail: fail, opts: opts}
}

// idParam parses the {id} URL parameter.
func idParam(r *http.Request, name string) (primitive.ObjectID, error) {
	return models.ParseID("_id", chi.URLParam(r, name))
}

// CreateOne decodes, validates and inserts a document: 201 with the stored
// document.
func (f *Factory[T]) CreateOne() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var doc T
		if err := decodeRequest(r, &doc); err != nil {
			f.fail(w, r, err)
			return
		}
		if f.opts.Prepare != nil {
			if err := f.opts.Prepare(r, &doc); err != nil {
				f.fail(w, r, err)
				return
			}
		}

		f.repo.Normalize(&doc)
		if verr := validation.ValidateStruct(&doc); verr != nil {
			f.fail(w, r, verr)
			return
		}
		if err := f.repo.Insert(r.Context(), &doc); err != nil {
			f.fail(w, r, err)
			return
		}
		if err := f.afterWrite(r.Context(), &doc); err != nil {
			f.fail(w, r, err)
			return
		}
		respondData(w, http.StatusCreated, "data", &doc)
	}
}

// GetOne returns the document with the {id} parameter.
func (f *Factory[T]) GetOne() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			f.fail(w, r, err)
			return
		}
		doc, err := f.repo.FindByID(r.Context(), id, f.opts.Populate...)
		if err != nil {
			f.fail(w, r, err)
			return
		}
		respondData(w, http.StatusOK, "data", doc)
	}
}

// GetAll lists documents filtered, sorted, projected and paginated from
// the query string.
func (f *Factory[T]) GetAll() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var implicit bson.D
		if f.opts.Implicit != nil {
			var err error
			if implicit, err = f.opts.Implicit(r); err != nil {
				f.fail(w, r, err)
				return
			}
		}

		features := query.New(r.URL.Query()).Filter().Sort().LimitFields().Paginate()
		docs, err := f.repo.Find(r.Context(), features, implicit, f.opts.ListPopulate...)
		if err != nil {
			f.fail(w, r, err)
			return
		}
		respondList(w, "data", docs)
	}
}

// UpdateOne applies the fields present in the body to the stored document,
// re-validates the result and writes only those fields.
func (f *Factory[T]) UpdateOne() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			f.fail(w, r, err)
			return
		}
		body, err := readBody(r)
		if err != nil {
			f.fail(w, r, err)
			return
		}
		fields, err := bodyKeys(body)
		if err != nil {
			f.fail(w, r, err)
			return
		}

		doc, err := f.repo.FindByID(r.Context(), id)
		if err != nil {
			f.fail(w, r, err)
			return
		}
		before := *doc
		if err := decodeBody(body, doc); err != nil {
			f.fail(w, r, err)
			return
		}
		f.repo.Normalize(doc)
		if verr := validation.ValidateStruct(doc); verr != nil {
			f.fail(w, r, verr)
			return
		}

		updated, err := f.repo.UpdateFields(r.Context(), id, doc, fields)
		if err != nil {
			f.fail(w, r, err)
			return
		}
		if f.opts.AfterUpdate != nil {
			err = f.opts.AfterUpdate(r.Context(), &before, updated)
		} else {
			err = f.afterWrite(r.Context(), updated)
		}
		if err != nil {
			f.fail(w, r, err)
			return
		}
		respondData(w, http.StatusOK, "data", updated)
	}
}

// DeleteOne removes the document: 204 with no body.
func (f *Factory[T]) DeleteOne() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			f.fail(w, r, err)
			return
		}
		doc, err := f.repo.DeleteByID(r.Context(), id)
		if err != nil {
			f.fail(w, r, err)
			return
		}
		if err := f.afterWrite(r.Context(), doc); err != nil {
			f.fail(w, r, err)
			return
		}
		respondNoContent(w)
	}
}

func (f *Factory[T]) afterWrite(ctx context.Context, doc *T) error {
	if f.opts.AfterWrite == nil || doc == nil {
		return nil
	}
	return f.opts.AfterWrite(ctx, doc)
}
