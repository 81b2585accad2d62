// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tomtom215/natours/internal/audit"
	"github.com/tomtom215/natours/internal/auth"
	"github.com/tomtom215/natours/internal/authz"
	"github.com/tomtom215/natours/internal/config"
	"github.com/tomtom215/natours/internal/database"
	"github.com/tomtom215/natours/internal/database/query"
	"github.com/tomtom215/natours/internal/models"
	"github.com/tomtom215/natours/internal/payment"
	"github.com/tomtom215/natours/internal/views"
)

const testSecret = "test-secret-that-is-at-least-32-characters-long"

// memRepo is an in-memory Repository keyed by the document id.
type memRepo[T any] struct {
	mu        sync.Mutex
	docs      map[primitive.ObjectID]T
	order     []primitive.ObjectID
	idOf      func(*T) *primitive.ObjectID
	normalize func(*T)
	slugOf    func(*T) string

	lastFeatures *query.Features
	lastImplicit bson.D
}

func tourID(t *models.Tour) *primitive.ObjectID       { return &t.ID }
func userID(u *models.User) *primitive.ObjectID       { return &u.ID }
func reviewID(r *models.Review) *primitive.ObjectID   { return &r.ID }
func bookingID(b *models.Booking) *primitive.ObjectID { return &b.ID }

func newMemRepo[T any](idOf func(*T) *primitive.ObjectID, normalize func(*T)) *memRepo[T] {
	return &memRepo[T]{docs: map[primitive.ObjectID]T{}, idOf: idOf, normalize: normalize}
}

func (m *memRepo[T]) Insert(_ context.Context, doc *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.idOf(doc)
	if id.IsZero() {
		*id = primitive.NewObjectID()
	}
	m.normalize(doc)
	if _, ok := m.docs[*id]; !ok {
		m.order = append(m.order, *id)
	}
	m.docs[*id] = *doc
	return nil
}

func (m *memRepo[T]) FindByID(_ context.Context, id primitive.ObjectID, _ ...string) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &doc, nil
}

func (m *memRepo[T]) FindOne(_ context.Context, filter bson.D, _ ...string) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slugOf == nil || len(filter) == 0 {
		return nil, database.ErrNotFound
	}
	for _, id := range m.order {
		doc := m.docs[id]
		if m.slugOf(&doc) == filter[0].Value {
			return &doc, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *memRepo[T]) Find(_ context.Context, f *query.Features, implicit bson.D, _ ...string) ([]*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFeatures, m.lastImplicit = f, implicit

	out := []*T{}
	for _, id := range m.order {
		if doc, ok := m.docs[id]; ok {
			out = append(out, &doc)
		}
	}
	if f != nil {
		skip, limit := int(f.Skip()), int(f.Limit())
		if skip >= len(out) {
			return []*T{}, nil
		}
		out = out[skip:]
		if limit > 0 && limit < len(out) {
			out = out[:limit]
		}
	}
	return out, nil
}

func (m *memRepo[T]) UpdateFields(_ context.Context, id primitive.ObjectID, doc *T, _ []string) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return nil, database.ErrNotFound
	}
	m.docs[id] = *doc
	out := *doc
	return &out, nil
}

func (m *memRepo[T]) DeleteByID(_ context.Context, id primitive.ObjectID) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	delete(m.docs, id)
	return &doc, nil
}

func (m *memRepo[T]) Normalize(doc *T) {
	m.normalize(doc)
}

func (m *memRepo[T]) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

// duplicateKeyError mimics the driver's E11000 error.
func duplicateKeyError(field, value string) error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{
		Code:    11000,
		Message: `E11000 duplicate key error collection: natours.users index: ` + field + `_1 dup key: { ` + field + `: "` + value + `" }`,
	}}}
}

// fakeAccounts stores users with their password hashes.
type fakeAccounts struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{users: map[primitive.ObjectID]*models.User{}}
}

func (a *fakeAccounts) find(match func(*models.User) bool, withPassword bool) (*models.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, u := range a.users {
		if u.Active && match(u) {
			cp := *u
			if !withPassword {
				cp.Password = ""
			}
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (a *fakeAccounts) Create(_ context.Context, u *models.User) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, existing := range a.users {
		if existing.Email == u.Email {
			return duplicateKeyError("email", u.Email)
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.Normalize()
	u.Active = true
	cp := *u
	a.users[u.ID] = &cp
	return nil
}

func (a *fakeAccounts) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	return a.find(func(u *models.User) bool { return u.ID == id }, false)
}

func (a *fakeAccounts) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return a.find(func(u *models.User) bool { return u.Email == email }, true)
}

func (a *fakeAccounts) FindWithPassword(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	return a.find(func(u *models.User) bool { return u.ID == id }, true)
}

func (a *fakeAccounts) FindByResetToken(_ context.Context, hash string, now time.Time) (*models.User, error) {
	return a.find(func(u *models.User) bool {
		return u.PasswordResetToken == hash && u.PasswordResetExpires != nil && u.PasswordResetExpires.After(now)
	}, true)
}

func (a *fakeAccounts) update(id primitive.ObjectID, fn func(*models.User)) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	u, ok := a.users[id]
	if !ok || !u.Active {
		return database.ErrNotFound
	}
	fn(u)
	return nil
}

func (a *fakeAccounts) SetResetToken(_ context.Context, id primitive.ObjectID, hash string, expires time.Time) error {
	return a.update(id, func(u *models.User) {
		u.PasswordResetToken = hash
		u.PasswordResetExpires = &expires
	})
}

func (a *fakeAccounts) ClearResetToken(_ context.Context, id primitive.ObjectID) error {
	return a.update(id, func(u *models.User) {
		u.PasswordResetToken = ""
		u.PasswordResetExpires = nil
	})
}

func (a *fakeAccounts) UpdatePassword(_ context.Context, id primitive.ObjectID, hash string, changedAt time.Time) error {
	return a.update(id, func(u *models.User) {
		u.Password = hash
		u.PasswordChangedAt = &changedAt
		u.PasswordResetToken = ""
		u.PasswordResetExpires = nil
	})
}

func (a *fakeAccounts) UpdateProfile(ctx context.Context, in *models.User, fields []string) (*models.User, error) {
	err := a.update(in.ID, func(u *models.User) {
		for _, f := range fields {
			switch f {
			case "name":
				u.Name = in.Name
			case "email":
				u.Email = in.Email
			case "photo":
				u.Photo = in.Photo
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return a.FindByID(ctx, in.ID)
}

func (a *fakeAccounts) Deactivate(_ context.Context, id primitive.ObjectID) error {
	return a.update(id, func(u *models.User) { u.Active = false })
}

func (a *fakeAccounts) get(id primitive.ObjectID) models.User {
	a.mu.Lock()
	defer a.mu.Unlock()
	return *a.users[id]
}

type fakeMailer struct {
	mu      sync.Mutex
	err     error
	welcome []string
	resets  []string
}

func (m *fakeMailer) SendWelcome(_ context.Context, u *models.User, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.welcome = append(m.welcome, u.Email+" "+url)
	return m.err
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, u *models.User, url string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets = append(m.resets, url)
	return m.err
}

type fakeRatings struct {
	mu    sync.Mutex
	tours []primitive.ObjectID
}

func (f *fakeRatings) Recalculate(_ context.Context, tourID primitive.ObjectID) (database.RatingSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tours = append(f.tours, tourID)
	return database.RatingSummary{Quantity: 1, Average: 4.5}, nil
}

type fakeQueries struct {
	mu    sync.Mutex
	calls []string
	year  int
	geo   database.GeoQuery
}

func (q *fakeQueries) record(call string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls = append(q.calls, call)
}

func (q *fakeQueries) Stats(context.Context) ([]database.DifficultyStats, error) {
	q.record("stats")
	return []database.DifficultyStats{{Difficulty: "EASY", NumTours: 2, AvgPrice: 500}}, nil
}

func (q *fakeQueries) MonthlyPlan(_ context.Context, year int) ([]database.MonthPlan, error) {
	q.record("plan")
	q.year = year
	return []database.MonthPlan{{Month: 7, NumTourStarts: 3, Tours: []string{"The Sea Explorer"}}}, nil
}

func (q *fakeQueries) Within(_ context.Context, g database.GeoQuery) ([]*models.Tour, error) {
	q.record("within")
	q.geo = g
	return []*models.Tour{}, nil
}

func (q *fakeQueries) Distances(_ context.Context, g database.GeoQuery) ([]database.TourDistance, error) {
	q.record("distances")
	q.geo = g
	return []database.TourDistance{{Name: "The Forest Hiker", Distance: 12.3}}, nil
}

func (q *fakeQueries) callCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.calls)
}

type fakePayments struct {
	mu   sync.Mutex
	err  error
	last *payment.CheckoutRequest
}

func (p *fakePayments) CreateCheckoutSession(_ context.Context, req *payment.CheckoutRequest) (*payment.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = req
	if p.err != nil {
		return nil, p.err
	}
	return &payment.Session{ID: "cs_test_1", Object: "checkout.session", URL: "https://checkout.stripe.test/cs_test_1"}, nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

// apiFixture wires the full router over in-memory fakes.
type apiFixture struct {
	cfg        *config.Config
	tours      *memRepo[models.Tour]
	users      *memRepo[models.User]
	reviews    *memRepo[models.Review]
	bookings   *memRepo[models.Booking]
	accounts   *fakeAccounts
	ratings    *fakeRatings
	queries    *fakeQueries
	mailer     *fakeMailer
	payments   *fakePayments
	auditStore *audit.MemoryStore
	audit      *audit.Logger
	aggregates *AggregateCache
	jwt        *auth.JWTManager
	pinger     fakePinger
	handler    http.Handler
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{Environment: "development", PublicURL: "http://natours.test"},
		Security: config.SecurityConfig{
			JWTSecret:          testSecret,
			JWTExpiresIn:       "1h",
			JWTCookieExpiresIn: 1,
			RateLimitReqs:      1000,
			RateLimitWindow:    time.Hour,
			LoginRateLimitReqs: 1000,
		},
		Uploads: config.UploadsConfig{PublicDir: t.TempDir(), MaxFileSize: 1 << 20},
	}
}

func newFixture(t *testing.T, mutate ...func(*apiFixture)) *apiFixture {
	t.Helper()

	f := &apiFixture{
		cfg:        testConfig(t),
		tours:      newMemRepo(tourID, (*models.Tour).Normalize),
		users:      newMemRepo(userID, (*models.User).Normalize),
		reviews:    newMemRepo(reviewID, (*models.Review).Normalize),
		bookings:   newMemRepo(bookingID, (*models.Booking).Normalize),
		accounts:   newFakeAccounts(),
		ratings:    &fakeRatings{},
		queries:    &fakeQueries{},
		mailer:     &fakeMailer{},
		payments:   &fakePayments{},
		auditStore: audit.NewMemoryStore(100),
	}
	f.tours.slugOf = func(t *models.Tour) string { return t.Slug }
	for _, m := range mutate {
		m(f)
	}
	f.audit = audit.NewLogger(f.auditStore, &config.AuditConfig{BufferSize: 64})
	t.Cleanup(func() { _ = f.audit.Close() })

	jwtm, err := auth.NewJWTManager(&f.cfg.Security)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	f.jwt = jwtm

	pages, err := views.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	errs := NewErrorHandler(f.cfg.IsProduction(), pages)
	enforcer, err := authz.NewEnforcer(errs.Write)
	if err != nil {
		t.Fatalf("NewEnforcer: %v", err)
	}
	enforcer.OnDenied(f.audit.Denied)

	f.handler = NewRouter(f.cfg, Deps{
		Tours:       f.tours,
		Users:       f.users,
		Reviews:     f.reviews,
		Bookings:    f.bookings,
		Accounts:    f.accounts,
		Ratings:     f.ratings,
		Queries:     f.queries,
		BookedTours: func(context.Context, primitive.ObjectID) ([]*models.Tour, error) { return []*models.Tour{}, nil },
		Health:      f.pinger,
		Guard:       auth.NewGuard(jwtm, f.accounts, auth.NewMemoryDenylist(), errs.Write),
		Enforcer:    enforcer,
		Errors:      errs,
		Pages:       pages,
		Mailer:      f.mailer,
		Payments:    f.payments,
		Audit:       f.audit,
		AuditEvents: f.auditStore,
		Aggregates:  f.aggregates,
	}).Setup()
	return f
}

// addUser stores an active user with the given role and password in both
// the account store and the user repository.
func (f *apiFixture) addUser(t *testing.T, role models.Role, password string) *models.User {
	t.Helper()
	hash, err := auth.HashPasswordCost(password, 4)
	if err != nil {
		t.Fatalf("HashPasswordCost: %v", err)
	}
	u := &models.User{
		Name:     "Test " + strings.ReplaceAll(string(role), "-", " ") + " user",
		Email:    primitive.NewObjectID().Hex() + "@example.com",
		Role:     role,
		Password: hash,
	}
	if err := f.accounts.Create(context.Background(), u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	u.Password = ""
	if err := f.users.Insert(context.Background(), u); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	return u
}

func (f *apiFixture) token(t *testing.T, u *models.User) string {
	t.Helper()
	token, _, err := f.jwt.GenerateToken(u.ID.Hex())
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return token
}

func (f *apiFixture) addTour(t *testing.T, name string, price float64) *models.Tour {
	t.Helper()
	tour := &models.Tour{
		Name:         name,
		Duration:     5,
		MaxGroupSize: 25,
		Difficulty:   models.DifficultyEasy,
		Price:        price,
		Summary:      "Breathtaking hike through the Canadian Banff National Park",
		ImageCover:   "tour-1-cover.jpg",
	}
	if err := f.tours.Insert(context.Background(), tour); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	return tour
}

// do sends a request through the router. A non-empty token is sent as a
// bearer header.
func (f *apiFixture) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

// envelope is the decoded JSON reply.
type envelope struct {
	Status  string                     `json:"status"`
	Results *int                       `json:"results"`
	Token   string                     `json:"token"`
	Message string                     `json:"message"`
	Error   string                     `json:"error"`
	Stack   string                     `json:"stack"`
	Data    map[string]json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return env
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, want, rec.Body.String())
	}
}

var errBoom = errors.New("boom")

// auditEvents flushes the audit logger and returns the stored events of
// the given types.
func (f *apiFixture) auditEvents(t *testing.T, types ...audit.EventType) []audit.Event {
	t.Helper()
	if err := f.audit.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	events, err := f.auditStore.Query(context.Background(), audit.QueryFilter{Types: types})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	return events
}

func tokenCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	return nil
}
