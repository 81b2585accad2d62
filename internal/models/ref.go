// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package models

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Ref points at another document by ObjectID. In MongoDB it is stored as
// the bare id. In JSON it is the id string until Doc is populated, then the
// embedded document.
type Ref[T any] struct {
	ID  primitive.ObjectID
	Doc *T `validate:"-"`
}

// RefTo builds an unpopulated reference.
func RefTo[T any](id primitive.ObjectID) Ref[T] {
	return Ref[T]{ID: id}
}

// IsZero lets bson omitempty skip unset references.
func (r Ref[T]) IsZero() bool {
	return r.ID.IsZero()
}

func (r Ref[T]) MarshalJSON() ([]byte, error) {
	if r.Doc != nil {
		return json.Marshal(r.Doc)
	}
	if r.ID.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(r.ID.Hex())
}

// UnmarshalJSON accepts an id string or an object carrying "_id" or "id".
func (r *Ref[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = Ref[T]{}
		return nil
	}

	var hex string
	if len(data) > 0 && data[0] == '{' {
		var obj struct {
			UnderscoreID string `json:"_id"`
			ID           string `json:"id"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		hex = obj.UnderscoreID
		if hex == "" {
			hex = obj.ID
		}
	} else if err := json.Unmarshal(data, &hex); err != nil {
		return fmt.Errorf("reference must be an id string: %w", err)
	}

	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return &CastError{Path: "reference", Value: hex}
	}
	*r = Ref[T]{ID: id}
	return nil
}

func (r Ref[T]) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if r.ID.IsZero() {
		return bson.MarshalValue(nil)
	}
	return bson.MarshalValue(r.ID)
}

func (r *Ref[T]) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	if t == bson.TypeNull {
		*r = Ref[T]{}
		return nil
	}
	id, ok := raw.ObjectIDOK()
	if !ok {
		return fmt.Errorf("reference: expected ObjectID, got %s", t)
	}
	*r = Ref[T]{ID: id}
	return nil
}

// CastError reports a value that could not be converted to the type its
// field requires, most often a malformed ObjectID.
type CastError struct {
	Path  string
	Value string
}

func (e *CastError) Error() string {
	return fmt.Sprintf("Invalid %s: %s.", e.Path, e.Value)
}

// ParseID converts a hex string into an ObjectID, reporting a CastError on
// malformed input.
func ParseID(path, hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, &CastError{Path: path, Value: hex}
	}
	return id, nil
}

// IDs collects the referenced ids of a slice of references.
func IDs[T any](refs []Ref[T]) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(refs))
	for _, r := range refs {
		if !r.ID.IsZero() {
			out = append(out, r.ID)
		}
	}
	return out
}
