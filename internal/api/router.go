// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/tomtom215/natours/internal/audit"
	"github.com/tomtom215/natours/internal/auth"
	"github.com/tomtom215/natours/internal/authz"
	"github.com/tomtom215/natours/internal/config"
	"github.com/tomtom215/natours/internal/database"
	"github.com/tomtom215/natours/internal/middleware"
	"github.com/tomtom215/natours/internal/models"
	"github.com/tomtom215/natours/internal/views"
)

// Authorization objects, one per guarded route group.
const (
	ObjectTourPlan      = "tours.monthly_plan"
	ObjectTourWrite     = "tours.write"
	ObjectReviewCreate  = "reviews.create"
	ObjectReviewWrite   = "reviews.write"
	ObjectUserAdmin     = "users.admin"
	ObjectBookingManage = "bookings.manage"
	ObjectAuditRead     = "audit.read"
)

// TourRepository is the tour storage, which also serves slug lookups for
// the views.
type TourRepository interface {
	Repository[models.Tour]
	FindOne(ctx context.Context, filter bson.D, populate ...string) (*models.Tour, error)
}

// HealthChecker reports database reachability. *database.DB implements it.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Tours       TourRepository
	Users       Repository[models.User]
	Reviews     Repository[models.Review]
	Bookings    Repository[models.Booking]
	Accounts    AccountStore
	Ratings     RatingCalculator
	Queries     TourQueries
	BookedTours views.BookedToursFunc
	Health      HealthChecker

	Guard    *auth.Guard
	Enforcer *authz.Enforcer
	Errors   *ErrorHandler
	Pages    *views.Renderer
	Mailer   Mailer
	Payments CheckoutProvider
	Audit    *audit.Logger

	// AuditEvents serves the admin audit endpoint. Nil disables it.
	AuditEvents AuditReader

	// Aggregates caches tour stats, monthly plans and geo queries. Nil
	// disables caching.
	Aggregates *AggregateCache
}

// DepsFromStore fills the storage dependencies from a database store.
func DepsFromStore(store *database.Store) Deps {
	return Deps{
		Tours:       store.Tours,
		Users:       store.Users,
		Reviews:     store.Reviews,
		Bookings:    store.Bookings,
		Accounts:    store.Accounts,
		Ratings:     store.Ratings,
		Queries:     store.Aggregates,
		BookedTours: store.BookedTours,
	}
}

// Router builds the HTTP handler tree.
type Router struct {
	cfg     *config.Config
	deps    Deps
	handler *Handler
	views   *views.Handler
	chi     *ChiMiddleware
}

// NewRouter creates a router.
func NewRouter(cfg *config.Config, deps Deps) *Router {
	h := &Handler{
		tours:       deps.Tours,
		users:       deps.Users,
		reviews:     deps.Reviews,
		bookings:    deps.Bookings,
		accounts:    deps.Accounts,
		ratings:     deps.Ratings,
		queries:     deps.Queries,
		guard:       deps.Guard,
		cookies:     auth.CookieConfig{TTL: cfg.Security.CookieTTL(), Secure: cfg.IsProduction()},
		mailer:      deps.Mailer,
		payments:    deps.Payments,
		audit:       deps.Audit,
		auditEvents: deps.AuditEvents,
		aggregates:  deps.Aggregates,
		images:      NewImageStore(cfg.Uploads.PublicDir, cfg.Uploads.MaxFileSize),
		errors:      deps.Errors,
		publicURL:   cfg.Server.PublicURL,
		now:         time.Now,
	}
	if deps.Aggregates != nil {
		h.queries = newCachedQueries(deps.Queries, deps.Aggregates)
	}

	v := views.NewHandler(views.Deps{
		Renderer:    deps.Pages,
		Tours:       deps.Tours,
		Bookings:    deps.Bookings,
		Accounts:    deps.Accounts,
		BookedTours: deps.BookedTours,
		Fail:        deps.Errors.Write,
	})

	mw := DefaultChiMiddlewareConfig()
	if len(cfg.Security.CORSOrigins) > 0 {
		mw.CORSAllowedOrigins = cfg.Security.CORSOrigins
	}
	mw.RateLimitRequests = cfg.Security.RateLimitReqs
	mw.RateLimitWindow = cfg.Security.RateLimitWindow
	mw.RateLimitDisabled = cfg.Security.RateLimitDisabled
	mw.LoginRateLimitRequests = cfg.Security.LoginRateLimitReqs

	return &Router{cfg: cfg, deps: deps, handler: h, views: v, chi: NewChiMiddleware(mw)}
}

// Setup returns the complete handler: global middleware, operational
// endpoints, static files, views and the /api/v1 routes.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()
	errs := rt.deps.Errors

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.RealIP)
	r.Use(errs.Recoverer)
	r.Use(middleware.SecurityHeaders(rt.cfg.IsProduction()))
	r.Use(rt.chi.CORS())
	r.Use(middleware.Compression)
	r.Use(middleware.PrometheusMetrics)

	r.NotFound(errs.NotFound)
	r.MethodNotAllowed(errs.MethodNotAllowed)

	r.Get("/healthz", rt.handler.Healthz(rt.deps.Health))
	r.Handle("/metrics", promhttp.Handler())

	static := http.FileServer(http.Dir(rt.cfg.Uploads.PublicDir))
	for _, dir := range []string{"/css/*", "/js/*", "/img/*"} {
		r.Handle(dir, static)
	}

	rt.viewRoutes(r)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.chi.RateLimit())
		r.Route("/tours", rt.tourRoutes)
		r.Route("/users", rt.userRoutes)
		r.Route("/reviews", rt.reviewRoutes)
		r.Route("/bookings", rt.bookingRoutes)
		r.With(rt.deps.Guard.Protect, rt.deps.Enforcer.RestrictTo(ObjectAuditRead, models.RoleAdmin)).
			Get("/audit/events", rt.handler.ListAuditEvents)
	})

	return r
}

func (rt *Router) viewRoutes(r chi.Router) {
	guard, v := rt.deps.Guard, rt.views

	r.Group(func(r chi.Router) {
		r.Use(guard.IsLoggedIn)
		r.With(v.CreateBookingCheckout).Get("/", v.Overview)
		r.Get("/tour/{slug}", v.Tour)
		r.Get("/login", v.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(guard.Protect)
		r.Get("/me", v.Account)
		r.Get("/my-tours", v.MyTours)
		r.Post("/submit-user-data", v.SubmitUserData)
	})
}

func (rt *Router) tourRoutes(r chi.Router) {
	h, guard, enf := rt.handler, rt.deps.Guard, rt.deps.Enforcer
	tours := NewFactory[models.Tour](rt.deps.Tours, h.fail, FactoryOptions[models.Tour]{
		Populate:   []string{database.PopulateGuides, database.PopulateReviews},
		AfterWrite: h.tourWritten,
	})

	r.Route("/{tourId}/reviews", rt.reviewRoutes)

	r.With(AliasTopTours).Get("/top-5-cheap", tours.GetAll())
	r.Get("/tour-stats", h.TourStats)
	r.With(guard.Protect, enf.RestrictTo(ObjectTourPlan, models.RoleAdmin, models.RoleLeadGuide, models.RoleGuide)).
		Get("/monthly-plan/{year}", h.MonthlyPlan)
	r.Get("/tours-within/{distance}/center/{latlng}/unit/{unit}", h.ToursWithin)
	r.Get("/distances/{latlng}/unit/{unit}", h.Distances)

	r.Get("/", tours.GetAll())
	r.Get("/{id}", tours.GetOne())

	r.Group(func(r chi.Router) {
		r.Use(guard.Protect, enf.RestrictTo(ObjectTourWrite, models.RoleAdmin, models.RoleLeadGuide))
		r.Post("/", tours.CreateOne())
		r.With(h.UploadTourImages).Patch("/{id}", tours.UpdateOne())
		r.Delete("/{id}", tours.DeleteOne())
	})
}

// reviewRoutes serves both /reviews and /tours/{tourId}/reviews.
func (rt *Router) reviewRoutes(r chi.Router) {
	h, guard, enf := rt.handler, rt.deps.Guard, rt.deps.Enforcer
	reviews := NewFactory[models.Review](rt.deps.Reviews, h.fail, h.reviewOptions())

	r.Use(guard.Protect)
	r.Get("/", reviews.GetAll())
	r.With(enf.RestrictTo(ObjectReviewCreate, models.RoleUser)).Post("/", reviews.CreateOne())
	r.Get("/{id}", reviews.GetOne())

	r.Group(func(r chi.Router) {
		r.Use(enf.RestrictTo(ObjectReviewWrite, models.RoleUser, models.RoleAdmin))
		r.Patch("/{id}", reviews.UpdateOne())
		r.Delete("/{id}", reviews.DeleteOne())
	})
}

func (rt *Router) userRoutes(r chi.Router) {
	h, guard, enf := rt.handler, rt.deps.Guard, rt.deps.Enforcer
	users := NewFactory[models.User](rt.deps.Users, h.fail, FactoryOptions[models.User]{})
	login := rt.chi.RateLimitLogin()

	r.With(login).Post("/signup", h.Signup)
	r.With(login).Post("/login", h.Login)
	r.Get("/logout", h.Logout)
	r.With(login).Post("/forgotPassword", h.ForgotPassword)
	r.Patch("/resetPassword/{token}", h.ResetPassword)

	r.Group(func(r chi.Router) {
		r.Use(guard.Protect)
		r.Patch("/updateMyPassword", h.UpdateMyPassword)
		r.With(h.GetMe).Get("/me", users.GetOne())
		r.With(h.UploadUserPhoto).Patch("/updateMe", h.UpdateMe)
		r.Delete("/deleteMe", h.DeleteMe)

		r.Group(func(r chi.Router) {
			r.Use(enf.RestrictTo(ObjectUserAdmin, models.RoleAdmin))
			r.Get("/", users.GetAll())
			r.Post("/", h.CreateUser)
			r.Get("/{id}", users.GetOne())
			r.Patch("/{id}", users.UpdateOne())
			r.Delete("/{id}", users.DeleteOne())
		})
	})
}

func (rt *Router) bookingRoutes(r chi.Router) {
	h, guard, enf := rt.handler, rt.deps.Guard, rt.deps.Enforcer
	bookings := NewFactory[models.Booking](rt.deps.Bookings, h.fail, FactoryOptions[models.Booking]{
		Populate:     []string{database.PopulateUser, database.PopulateTour},
		ListPopulate: []string{database.PopulateUser, database.PopulateTour},
	})

	r.Use(guard.Protect)
	r.Get("/checkout-session/{tourId}", h.CheckoutSession)

	r.Group(func(r chi.Router) {
		r.Use(enf.RestrictTo(ObjectBookingManage, models.RoleAdmin, models.RoleLeadGuide))
		r.Get("/", bookings.GetAll())
		r.Post("/", bookings.CreateOne())
		r.Get("/{id}", bookings.GetOne())
		r.Patch("/{id}", bookings.UpdateOne())
		r.Delete("/{id}", bookings.DeleteOne())
	})
}
