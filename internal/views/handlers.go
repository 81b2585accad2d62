// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package views

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tomtom215/natours/internal/auth"
	"github.com/tomtom215/natours/internal/database"
	"github.com/tomtom215/natours/internal/database/query"
	"github.com/tomtom215/natours/internal/logging"
	"github.com/tomtom215/natours/internal/models"
	"github.com/tomtom215/natours/internal/validation"
)

// ErrTourNotFound is reported for an unknown tour slug.
var ErrTourNotFound = errors.New("there is no tour with that name")

// TourFinder reads tours. *database.Collection[models.Tour] implements it.
type TourFinder interface {
	Find(ctx context.Context, f *query.Features, implicit bson.D, populate ...string) ([]*models.Tour, error)
	FindOne(ctx context.Context, filter bson.D, populate ...string) (*models.Tour, error)
}

// BookingWriter stores confirmed bookings.
type BookingWriter interface {
	Insert(ctx context.Context, doc *models.Booking) error
}

// ProfileUpdater applies account form changes.
type ProfileUpdater interface {
	UpdateProfile(ctx context.Context, u *models.User, fields []string) (*models.User, error)
}

// BookedToursFunc lists the tours a user booked.
type BookedToursFunc func(ctx context.Context, userID primitive.ObjectID) ([]*models.Tour, error)

// ErrorWriter renders a failure, normally as the error page.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Deps are the collaborators of the view handlers.
type Deps struct {
	Renderer    *Renderer
	Tours       TourFinder
	Bookings    BookingWriter
	Accounts    ProfileUpdater
	BookedTours BookedToursFunc
	Fail        ErrorWriter
}

// Handler serves the HTML pages.
type Handler struct {
	Deps
}

// NewHandler creates the view handlers.
func NewHandler(deps Deps) *Handler {
	return &Handler{Deps: deps}
}

// Overview lists every visible tour.
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	tours, err := h.Tours.Find(r.Context(), query.New(nil), nil)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	h.Renderer.Render(w, r, http.StatusOK, PageOverview, &PageData{Title: "All Tours", Tours: tours})
}

// Tour shows one tour with its guides and reviews.
func (h *Handler) Tour(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	tour, err := h.Tours.FindOne(r.Context(), bson.D{{Key: "slug", Value: slug}},
		database.PopulateGuides, database.PopulateReviews)
	if database.IsNotFound(err) {
		h.Fail(w, r, ErrTourNotFound)
		return
	}
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	h.Renderer.Render(w, r, http.StatusOK, PageTour, &PageData{Title: tour.Name + " Tour", Tour: tour})
}

// Login shows the login form.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	h.Renderer.Render(w, r, http.StatusOK, PageLogin, &PageData{Title: "Log into your account"})
}

// Account shows the settings of the logged-in user.
func (h *Handler) Account(w http.ResponseWriter, r *http.Request) {
	h.Renderer.Render(w, r, http.StatusOK, PageAccount, &PageData{Title: "Your account"})
}

// MyTours lists the tours the logged-in user booked.
func (h *Handler) MyTours(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.Fail(w, r, auth.ErrNotLoggedIn)
		return
	}
	tours, err := h.BookedTours(r.Context(), u.ID)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	h.Renderer.Render(w, r, http.StatusOK, PageOverview, &PageData{Title: "My Tours", Tours: tours})
}

// SubmitUserData applies the account form and shows the page again.
func (h *Handler) SubmitUserData(w http.ResponseWriter, r *http.Request) {
	current, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.Fail(w, r, auth.ErrNotLoggedIn)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.Fail(w, r, err)
		return
	}

	u := *current
	u.Name = r.PostForm.Get("name")
	u.Email = r.PostForm.Get("email")
	u.Normalize()
	if verr := validation.ValidateStruct(&u); verr != nil {
		h.Fail(w, r, verr)
		return
	}

	updated, err := h.Accounts.UpdateProfile(r.Context(), &u, []string{"name", "email"})
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	h.Renderer.Render(w, r, http.StatusOK, PageAccount, &PageData{
		Title:   "Your account",
		User:    updated,
		Message: "Your settings were updated.",
	})
}

// CreateBookingCheckout records the booking carried by the checkout
// success redirect (?tour=&user=&price=) and redirects to the bare path.
// Requests without those parameters pass through.
func (h *Handler) CreateBookingCheckout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		tourHex, userHex, rawPrice := q.Get("tour"), q.Get("user"), q.Get("price")
		if tourHex == "" || userHex == "" || rawPrice == "" {
			next.ServeHTTP(w, r)
			return
		}

		tourID, err := models.ParseID("tour", tourHex)
		if err != nil {
			h.Fail(w, r, err)
			return
		}
		userID, err := models.ParseID("user", userHex)
		if err != nil {
			h.Fail(w, r, err)
			return
		}
		price, err := strconv.ParseFloat(rawPrice, 64)
		if err != nil {
			h.Fail(w, r, &models.CastError{Path: "price", Value: rawPrice})
			return
		}

		booking := &models.Booking{
			Tour:  models.RefTo[models.Tour](tourID),
			User:  models.RefTo[models.User](userID),
			Price: price,
		}
		booking.Normalize()
		if verr := validation.ValidateStruct(booking); verr != nil {
			h.Fail(w, r, verr)
			return
		}
		if err := h.Bookings.Insert(r.Context(), booking); err != nil {
			h.Fail(w, r, err)
			return
		}

		logging.Ctx(r.Context()).Info().
			Str("booking_id", booking.ID.Hex()).
			Str("tour_id", tourHex).
			Str("user_id", userHex).
			Msg("Booking created from checkout")
		http.Redirect(w, r, r.URL.Path, http.StatusSeeOther)
	})
}
