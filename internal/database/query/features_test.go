// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package query

import (
	"errors"
	"math"
	"net/url"
	"reflect"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tomtom215/natours/internal/models"
)

func mustParse(t *testing.T, raw string) url.Values {
	t.Helper()
	v, err := url.ParseQuery(raw)
	if err != nil {
		t.Fatalf("ParseQuery(%q): %v", raw, err)
	}
	return v
}

func TestFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want bson.D
	}{
		{
			name: "empty query",
			raw:  "",
			want: bson.D{},
		},
		{
			name: "reserved keys stripped",
			raw:  "page=2&sort=price&limit=5&fields=name",
			want: bson.D{},
		},
		{
			name: "equality and comparison",
			raw:  "difficulty=easy&duration[gte]=5",
			want: bson.D{
				{Key: "difficulty", Value: "easy"},
				{Key: "duration", Value: bson.D{{Key: "$gte", Value: int64(5)}}},
			},
		},
		{
			name: "two operators on one field merge",
			raw:  "price[lt]=1500&price[gte]=400.5",
			want: bson.D{
				{Key: "price", Value: bson.D{
					{Key: "$gte", Value: 400.5},
					{Key: "$lt", Value: int64(1500)},
				}},
			},
		},
		{
			name: "injection keys dropped",
			raw:  "$where=1&a.b=2&price[ne]=3&name=The+Forest+Hiker",
			want: bson.D{{Key: "name", Value: "The Forest Hiker"}},
		},
		{
			name: "whitelisted repeat becomes $in",
			raw:  "difficulty=easy&difficulty=medium",
			want: bson.D{{Key: "difficulty", Value: bson.D{{Key: "$in", Value: bson.A{"easy", "medium"}}}}},
		},
		{
			name: "other repeat keeps last",
			raw:  "name=a&name=b",
			want: bson.D{{Key: "name", Value: "b"}},
		},
		{
			name: "boolean coercion",
			raw:  "secretTour=true",
			want: bson.D{{Key: "secretTour", Value: true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := New(mustParse(t, tt.raw)).Filter().FilterDoc()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Filter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCoerceDate(t *testing.T) {
	t.Parallel()

	got, ok := Coerce("2021-06-19").(time.Time)
	if !ok {
		t.Fatalf("Coerce returned %T, want time.Time", Coerce("2021-06-19"))
	}
	if got.Year() != 2021 || got.Month() != time.June || got.Day() != 19 {
		t.Errorf("Coerce date = %v", got)
	}
	if s := Coerce("forest"); s != "forest" {
		t.Errorf("Coerce(forest) = %v, want string", s)
	}
}

func TestSort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want bson.D
	}{
		{"", bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}},
		{"sort=-price,ratingsAverage", bson.D{
			{Key: "price", Value: -1},
			{Key: "ratingsAverage", Value: 1},
			{Key: "_id", Value: 1},
		}},
		{"sort=price&sort=-duration", bson.D{{Key: "duration", Value: -1}, {Key: "_id", Value: 1}}},
		{"sort=$bad", bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}},
		{"sort=_id", bson.D{{Key: "_id", Value: 1}}},
	}

	for _, tt := range tests {
		got := New(mustParse(t, tt.raw)).Sort().SortDoc()
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Sort(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestLimitFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		raw    string
		hidden []string
		want   bson.D
	}{
		{
			name: "default hides version",
			want: bson.D{{Key: "__v", Value: 0}},
		},
		{
			name: "inclusion list",
			raw:  "fields=name,duration,__v",
			want: bson.D{{Key: "name", Value: 1}, {Key: "duration", Value: 1}},
		},
		{
			name: "exclusion list",
			raw:  "fields=-summary",
			want: bson.D{{Key: "summary", Value: 0}, {Key: "__v", Value: 0}},
		},
		{
			name:   "hidden field stripped from inclusion",
			raw:    "fields=name,password",
			hidden: []string{"password"},
			want:   bson.D{{Key: "name", Value: 1}},
		},
		{
			name:   "hidden field added to exclusion",
			hidden: []string{"password"},
			want:   bson.D{{Key: "__v", Value: 0}, {Key: "password", Value: 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := New(mustParse(t, tt.raw)).LimitFields().ProjectionDoc(tt.hidden...)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("projection = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPaginate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw                     string
		wantPage, wantSkip, lim int64
	}{
		{"", 1, 0, 100},
		{"page=3&limit=10", 3, 20, 10},
		{"page=0&limit=-4", 1, 0, 100},
		{"page=abc&limit=2", 1, 0, 2},
		{"page=100000000000000000&limit=100", 100000000000000000, math.MaxInt64, 100},
		{"page=9223372036854775807&limit=2", math.MaxInt64, math.MaxInt64, 2},
	}

	for _, tt := range tests {
		f := New(mustParse(t, tt.raw)).Paginate()
		if f.Page() != tt.wantPage || f.Skip() != tt.wantSkip || f.Limit() != tt.lim {
			t.Errorf("Paginate(%q) = page %d skip %d limit %d, want %d %d %d",
				tt.raw, f.Page(), f.Skip(), f.Limit(), tt.wantPage, tt.wantSkip, tt.lim)
		}
	}
}

func TestFindOptions(t *testing.T) {
	t.Parallel()

	opts := New(mustParse(t, "page=2&limit=3&sort=price")).All().FindOptions()
	if opts.Skip == nil || *opts.Skip != 3 {
		t.Errorf("Skip = %v, want 3", opts.Skip)
	}
	if opts.Limit == nil || *opts.Limit != 3 {
		t.Errorf("Limit = %v, want 3", opts.Limit)
	}
	if opts.Sort == nil {
		t.Error("Sort not set")
	}

	// Stages that did not run leave their options unset.
	bare := New(nil).FindOptions()
	if bare.Sort != nil || bare.Limit != nil || bare.Projection != nil {
		t.Errorf("expected empty options, got %+v", bare)
	}
}

func TestNewCopiesValues(t *testing.T) {
	t.Parallel()

	v := url.Values{"price": {"10"}}
	f := New(v)
	v.Set("price", "20")
	if got := f.Filter().FilterDoc(); !reflect.DeepEqual(got, bson.D{{Key: "price", Value: int64(10)}}) {
		t.Errorf("Filter() = %v after mutating source values", got)
	}
}

func TestAnd(t *testing.T) {
	t.Parallel()

	scope := bson.D{{Key: "secretTour", Value: bson.D{{Key: "$ne", Value: true}}}}
	implicit := bson.D{{Key: "tour", Value: "abc"}}

	if got := And(); !reflect.DeepEqual(got, bson.D{}) {
		t.Errorf("And() = %v, want empty", got)
	}
	if got := And(bson.D{}, scope, nil); !reflect.DeepEqual(got, scope) {
		t.Errorf("And(single) = %v, want %v", got, scope)
	}
	want := bson.D{{Key: "$and", Value: bson.A{scope, implicit}}}
	if got := And(scope, implicit); !reflect.DeepEqual(got, want) {
		t.Errorf("And() = %v, want %v", got, want)
	}
}

func TestFilterIDFields(t *testing.T) {
	t.Parallel()

	tourID, _ := primitive.ObjectIDFromHex("5c88fa8cf4afda39709c2955")
	// All digits, which Coerce alone would read as a number.
	userID, _ := primitive.ObjectIDFromHex("507011111111111111111111")

	tests := []struct {
		name     string
		raw      string
		ids      []string
		want     bson.D
		wantPath string
	}{
		{
			name: "hex id cast",
			raw:  "tour=5c88fa8cf4afda39709c2955",
			ids:  []string{"tour", "user"},
			want: bson.D{{Key: "tour", Value: tourID}},
		},
		{
			name: "numeric looking id cast",
			raw:  "user=507011111111111111111111&rating[gte]=4",
			ids:  []string{"tour", "user"},
			want: bson.D{
				{Key: "rating", Value: bson.D{{Key: "$gte", Value: int64(4)}}},
				{Key: "user", Value: userID},
			},
		},
		{
			name: "unmarked field stays coerced",
			raw:  "tour=5c88fa8cf4afda39709c2955",
			want: bson.D{{Key: "tour", Value: "5c88fa8cf4afda39709c2955"}},
		},
		{
			name:     "malformed id",
			raw:      "_id=nope&difficulty=easy",
			ids:      []string{"_id"},
			want:     bson.D{{Key: "difficulty", Value: "easy"}},
			wantPath: "_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			// IDFields after Filter rebuilds the filter.
			f := New(mustParse(t, tt.raw)).Filter().IDFields(tt.ids...)
			if got := f.FilterDoc(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FilterDoc() = %v, want %v", got, tt.want)
			}

			var castErr *models.CastError
			switch {
			case tt.wantPath == "" && f.Err() != nil:
				t.Errorf("Err() = %v, want nil", f.Err())
			case tt.wantPath != "" && !errors.As(f.Err(), &castErr):
				t.Errorf("Err() = %v, want a cast error", f.Err())
			case tt.wantPath != "" && castErr.Path != tt.wantPath:
				t.Errorf("cast error path = %q, want %q", castErr.Path, tt.wantPath)
			}
		})
	}
}

func TestIDFieldsBeforeFilter(t *testing.T) {
	t.Parallel()

	id := primitive.NewObjectID()
	f := New(url.Values{"guides": {id.Hex()}}).IDFields("guides")
	if len(f.FilterDoc()) != 0 {
		t.Fatalf("IDFields built a filter before Filter ran: %v", f.FilterDoc())
	}
	want := bson.D{{Key: "guides", Value: id}}
	if got := f.Filter().FilterDoc(); !reflect.DeepEqual(got, want) {
		t.Errorf("FilterDoc() = %v, want %v", got, want)
	}
}
