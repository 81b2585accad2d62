// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

// Package api serves the Natours REST API under /api/v1 and mounts the
// server-rendered views.
//
// Routing uses chi. Every handler reports failures through ErrorHandler,
// which translates known error shapes (duplicate keys, malformed ids,
// validation failures, token errors, missing documents) into operational
// AppErrors and renders them either as the JSON envelope or, for view
// routes, as the HTML error page.
//
// Resource handlers are built by the generic Factory over a Repository,
// which *database.Collection satisfies:
//
//	tours := api.NewFactory[models.Tour](store.Tours, errs.Write, api.FactoryOptions[models.Tour]{
//		Populate: []string{database.PopulateGuides, database.PopulateReviews},
//	})
//	r.Get("/tours/{id}", tours.GetOne())
//
// Response envelope:
//
//	{"status": "success" | "fail" | "error", "results": n, "token": "...", "data": {...}, "message": "..."}
//
// 4xx responses use "fail" and 5xx use "error".
package api
