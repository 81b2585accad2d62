// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

// Package authz restricts route groups to user roles using Casbin.
//
// Each guarded route group is a Casbin object such as "tours.write". The
// router grants roles on it at setup and installs the middleware after
// authentication:
//
//	r.Group(func(r chi.Router) {
//	    r.Use(guard.Protect)
//	    r.Use(enforcer.RestrictTo("tours.write", models.RoleAdmin, models.RoleLeadGuide))
//	    r.Post("/", h.CreateTour)
//	})
//
// # Model
//
//	[request_definition]
//	r = sub, obj
//
//	[policy_definition]
//	p = sub, obj
//
//	[policy_effect]
//	e = some(where (p.eft == allow))
//
//	[matchers]
//	m = r.sub == p.sub && r.obj == p.obj
//
// The subject is the user's role. A request without an authenticated user
// is denied.
package authz
