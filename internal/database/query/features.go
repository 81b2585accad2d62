// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package query

import (
	"math"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tomtom215/natours/internal/models"
)

const (
	// DefaultSort orders listings newest first.
	DefaultSort = "-createdAt"

	// VersionField is the internal document version, never returned to clients.
	VersionField = "__v"

	DefaultPage  int64 = 1
	DefaultLimit int64 = 100
)

// reservedKeys drive the other stages and are never treated as filters.
var reservedKeys = map[string]bool{"page": true, "sort": true, "limit": true, "fields": true}

// MultiValueFields may be repeated in a query string and then match any of
// the given values. Repeating any other key keeps only the last value.
var MultiValueFields = map[string]bool{
	"duration":        true,
	"ratingsAverage":  true,
	"ratingsQuantity": true,
	"maxGroupSize":    true,
	"difficulty":      true,
	"price":           true,
}

var (
	fieldName   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	operatorKey = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\[(gte|gt|lte|lt)\]$`)
)

// Features is a find descriptor built from query parameters.
type Features struct {
	values     url.Values
	filter     bson.D
	sort       bson.D
	projection bson.D
	skip       int64
	limit      int64
	page       int64

	idFields map[string]bool
	filtered bool
	err      error
}

// New starts a descriptor over a copy of values.
func New(values url.Values) *Features {
	cp := make(url.Values, len(values))
	for k, v := range values {
		cp[k] = append([]string(nil), v...)
	}
	return &Features{values: cp, filter: bson.D{}}
}

// All runs every stage in order.
func (f *Features) All() *Features {
	return f.Filter().Sort().LimitFields().Paginate()
}

type fieldClause struct {
	equals    []string
	operators map[string]string
}

// IDFields marks fields holding ObjectIDs. Their values are parsed as ids
// instead of coerced, and a malformed id is reported by Err. A filter that
// was already built is rebuilt.
func (f *Features) IDFields(fields ...string) *Features {
	if f.idFields == nil {
		f.idFields = make(map[string]bool, len(fields))
	}
	for _, field := range fields {
		f.idFields[field] = true
	}
	if f.filtered {
		return f.Filter()
	}
	return f
}

// Err returns the first cast error met while building the filter.
func (f *Features) Err() error { return f.err }

// Filter converts non-reserved parameters into an equality or comparison filter.
func (f *Features) Filter() *Features {
	clauses := map[string]*fieldClause{}
	clauseFor := func(field string) *fieldClause {
		c, ok := clauses[field]
		if !ok {
			c = &fieldClause{operators: map[string]string{}}
			clauses[field] = c
		}
		return c
	}

	for key, vals := range f.values {
		if reservedKeys[key] || len(vals) == 0 {
			continue
		}
		if m := operatorKey.FindStringSubmatch(key); m != nil {
			clauseFor(m[1]).operators["$"+m[2]] = vals[len(vals)-1]
			continue
		}
		if !fieldName.MatchString(key) {
			// Operator injection ($where, a.b, price[ne]) and anything else
			// that is not a plain field name is dropped.
			continue
		}
		c := clauseFor(key)
		if MultiValueFields[key] {
			c.equals = append(c.equals, vals...)
		} else {
			c.equals = []string{vals[len(vals)-1]}
		}
	}

	fields := make([]string, 0, len(clauses))
	for field := range clauses {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	f.filtered, f.err = true, nil
	filter := bson.D{}
	for _, field := range fields {
		cast := coerceValue
		if f.idFields[field] {
			cast = idCaster(field)
		}
		v, err := clauses[field].build(cast)
		if err != nil {
			f.err = err
			continue
		}
		filter = append(filter, bson.E{Key: field, Value: v})
	}
	f.filter = filter
	return f
}

func coerceValue(s string) (any, error) { return Coerce(s), nil }

func idCaster(field string) func(string) (any, error) {
	return func(s string) (any, error) {
		return models.ParseID(field, s)
	}
}

func (c *fieldClause) build(cast func(string) (any, error)) (any, error) {
	var eq any
	switch len(c.equals) {
	case 0:
	case 1:
		v, err := cast(c.equals[0])
		if err != nil {
			return nil, err
		}
		eq = v
	default:
		in := bson.A{}
		for _, s := range c.equals {
			v, err := cast(s)
			if err != nil {
				return nil, err
			}
			in = append(in, v)
		}
		eq = bson.D{{Key: "$in", Value: in}}
	}
	if len(c.operators) == 0 {
		return eq, nil
	}

	ops := make([]string, 0, len(c.operators))
	for op := range c.operators {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	doc := bson.D{}
	if eq != nil {
		if d, ok := eq.(bson.D); ok {
			doc = append(doc, d...)
		} else {
			doc = append(doc, bson.E{Key: "$eq", Value: eq})
		}
	}
	for _, op := range ops {
		v, err := cast(c.operators[op])
		if err != nil {
			return nil, err
		}
		doc = append(doc, bson.E{Key: op, Value: v})
	}
	return doc, nil
}

// Coerce converts a query-string value into the BSON type it most likely
// compares against: integers, floats, booleans and dates, otherwise a string.
func Coerce(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if fl, err := strconv.ParseFloat(s, 64); err == nil {
		return fl
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return s
}

// Sort builds the sort spec from a comma list such as "-price,ratingsAverage".
// _id is appended as a tie-breaker so consecutive pages never overlap.
func (f *Features) Sort() *Features {
	spec := last(f.values, "sort")
	if strings.TrimSpace(spec) == "" {
		spec = DefaultSort
	}

	sortDoc := bson.D{}
	seen := map[string]bool{}
	for _, part := range splitList(spec) {
		dir := 1
		if strings.HasPrefix(part, "-") {
			dir = -1
			part = part[1:]
		}
		if !fieldName.MatchString(part) || seen[part] {
			continue
		}
		seen[part] = true
		sortDoc = append(sortDoc, bson.E{Key: part, Value: dir})
	}
	if len(sortDoc) == 0 {
		sortDoc = bson.D{{Key: "createdAt", Value: -1}}
	}
	if !seen["_id"] {
		sortDoc = append(sortDoc, bson.E{Key: "_id", Value: 1})
	}
	f.sort = sortDoc
	return f
}

// LimitFields builds the projection. "name,price" includes only those
// fields; "-summary" excludes fields. __v is never returned.
func (f *Features) LimitFields() *Features {
	include, exclude := bson.D{}, bson.D{}
	for _, part := range splitList(last(f.values, "fields")) {
		excluded := strings.HasPrefix(part, "-")
		part = strings.TrimPrefix(part, "-")
		if !fieldName.MatchString(part) || part == VersionField {
			continue
		}
		if excluded {
			exclude = append(exclude, bson.E{Key: part, Value: 0})
		} else {
			include = append(include, bson.E{Key: part, Value: 1})
		}
	}

	// MongoDB rejects projections mixing inclusion and exclusion; an
	// inclusion list already omits __v.
	if len(include) > 0 {
		f.projection = include
		return f
	}
	f.projection = append(exclude, bson.E{Key: VersionField, Value: 0})
	return f
}

// Paginate converts page and limit into skip and limit.
func (f *Features) Paginate() *Features {
	f.page = positive(last(f.values, "page"), DefaultPage)
	f.limit = positive(last(f.values, "limit"), DefaultLimit)
	// A page far past the end clamps instead of overflowing into a
	// negative skip; it still yields an empty list.
	if f.page-1 > math.MaxInt64/f.limit {
		f.skip = math.MaxInt64
	} else {
		f.skip = (f.page - 1) * f.limit
	}
	return f
}

// FilterDoc returns the filter built by Filter, or an empty document.
func (f *Features) FilterDoc() bson.D { return f.filter }

// SortDoc returns the sort built by Sort, nil if Sort was not run.
func (f *Features) SortDoc() bson.D { return f.sort }

// Skip returns the number of documents to skip.
func (f *Features) Skip() int64 { return f.skip }

// Limit returns the page size, 0 if Paginate was not run.
func (f *Features) Limit() int64 { return f.limit }

// Page returns the requested page.
func (f *Features) Page() int64 { return f.page }

// ProjectionDoc returns the projection with hidden fields removed from an
// inclusion list or added to an exclusion list.
func (f *Features) ProjectionDoc(hidden ...string) bson.D {
	projection := f.projection
	if projection == nil && len(hidden) == 0 {
		return nil
	}

	isHidden := map[string]bool{}
	for _, h := range hidden {
		isHidden[h] = true
	}

	inclusion := false
	for _, e := range projection {
		if e.Value == 1 {
			inclusion = true
			break
		}
	}

	out := bson.D{}
	for _, e := range projection {
		if inclusion && isHidden[e.Key] {
			continue
		}
		out = append(out, e)
		delete(isHidden, e.Key)
	}
	if !inclusion {
		for _, h := range hidden {
			if isHidden[h] {
				out = append(out, bson.E{Key: h, Value: 0})
			}
		}
	}
	return out
}

// FindOptions assembles driver options from every stage that ran.
func (f *Features) FindOptions(hidden ...string) *options.FindOptions {
	opts := options.Find()
	if f.sort != nil {
		opts.SetSort(f.sort)
	}
	if p := f.ProjectionDoc(hidden...); len(p) > 0 {
		opts.SetProjection(p)
	}
	if f.limit > 0 {
		opts.SetSkip(f.skip).SetLimit(f.limit)
	}
	return opts
}

// And combines non-empty filters. A single filter is returned unchanged.
func And(parts ...bson.D) bson.D {
	nonEmpty := make([]bson.D, 0, len(parts))
	for _, p := range parts {
		if len(p) > 0 {
			nonEmpty = append(nonEmpty, p)
		}
	}
	switch len(nonEmpty) {
	case 0:
		return bson.D{}
	case 1:
		return nonEmpty[0]
	}
	arr := bson.A{}
	for _, p := range nonEmpty {
		arr = append(arr, p)
	}
	return bson.D{{Key: "$and", Value: arr}}
}

func last(values url.Values, key string) string {
	v := values[key]
	if len(v) == 0 {
		return ""
	}
	return v[len(v)-1]
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func positive(s string, def int64) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 1 {
		return def
	}
	return n
}
