// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

// Package query turns URL query strings into MongoDB find descriptors.
//
// A listing request such as
//
//	GET /api/v1/tours?difficulty=easy&price[lt]=1500&sort=-price&fields=name,price&page=2&limit=10
//
// is translated by four independent stages:
//
//	f := query.New(r.URL.Query()).Filter().Sort().LimitFields().Paginate()
//	cur, err := coll.Find(ctx, f.FilterDoc(), f.FindOptions())
//
// Filter strips the reserved keys (page, sort, limit, fields), rewrites
// bracketed comparison suffixes into $gte/$gt/$lte/$lt operators and drops
// keys that could smuggle operators into the query. Sort defaults to newest
// first, LimitFields always hides the internal __v field and Paginate
// converts page/limit into skip/limit. Nothing here performs I/O.
package query
