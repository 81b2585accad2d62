// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/natours/internal/models"
)

// factoryServer mounts the five factory handlers the way the tour routes do.
func factoryServer(repo Repository[models.Tour], opts FactoryOptions[models.Tour]) http.Handler {
	f := NewFactory(repo, NewErrorHandler(false, nil).Write, opts)
	r := chi.NewRouter()
	r.Get("/tours", f.GetAll())
	r.Post("/tours", f.CreateOne())
	r.Get("/tours/{id}", f.GetOne())
	r.Patch("/tours/{id}", f.UpdateOne())
	r.Delete("/tours/{id}", f.DeleteOne())
	return r
}

func serve(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeTour(t *testing.T, raw json.RawMessage) map[string]any {
	t.Helper()
	var tour map[string]any
	if err := json.Unmarshal(raw, &tour); err != nil {
		t.Fatalf("decode tour %s: %v", raw, err)
	}
	return tour
}

const newTourBody = `{
	"name": "The Park Camper Deluxe",
	"duration": 14,
	"maxGroupSize": 10,
	"difficulty": "medium",
	"price": 1497,
	"summary": "Breathing in Nature in America's most spectacular National Parks",
	"imageCover": "tour-5-cover.jpg"
}`

func TestFactoryCreateOne(t *testing.T) {
	t.Parallel()

	t.Run("valid document", func(t *testing.T) {
		t.Parallel()
		repo := newMemRepo(tourID, (*models.Tour).Normalize)
		var after atomic.Int32
		h := factoryServer(repo, FactoryOptions[models.Tour]{
			AfterWrite: func(context.Context, *models.Tour) error {
				after.Add(1)
				return nil
			},
		})

		rec := serve(t, h, http.MethodPost, "/tours", newTourBody)
		expectStatus(t, rec, http.StatusCreated)

		env := decodeEnvelope(t, rec)
		tour := decodeTour(t, env.Data["data"])
		if tour["slug"] != "the-park-camper-deluxe" {
			t.Errorf("slug = %v, want the-park-camper-deluxe", tour["slug"])
		}
		if tour["ratingsAverage"] != 4.5 {
			t.Errorf("ratingsAverage = %v, want 4.5", tour["ratingsAverage"])
		}
		if tour["durationWeeks"] != 2.0 {
			t.Errorf("durationWeeks = %v, want 2", tour["durationWeeks"])
		}
		if repo.len() != 1 {
			t.Errorf("stored %d tours, want 1", repo.len())
		}
		if after.Load() != 1 {
			t.Errorf("AfterWrite ran %d times, want 1", after.Load())
		}
	})

	t.Run("invalid document", func(t *testing.T) {
		t.Parallel()
		repo := newMemRepo(tourID, (*models.Tour).Normalize)
		h := factoryServer(repo, FactoryOptions[models.Tour]{})

		rec := serve(t, h, http.MethodPost, "/tours", `{"name":"Short","price":-1}`)
		expectStatus(t, rec, http.StatusBadRequest)

		env := decodeEnvelope(t, rec)
		if env.Status != StatusFail || !strings.HasPrefix(env.Message, "Invalid input data.") {
			t.Errorf("got %q %q, want a validation failure", env.Status, env.Message)
		}
		if repo.len() != 0 {
			t.Error("invalid tour was stored")
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		t.Parallel()
		h := factoryServer(newMemRepo(tourID, (*models.Tour).Normalize), FactoryOptions[models.Tour]{})
		rec := serve(t, h, http.MethodPost, "/tours", `{"name":`)
		expectStatus(t, rec, http.StatusBadRequest)
	})
}

func TestFactoryGetOne(t *testing.T) {
	t.Parallel()

	repo := newMemRepo(tourID, (*models.Tour).Normalize)
	tour := &models.Tour{Name: "The Forest Hiker", Price: 397}
	if err := repo.Insert(context.Background(), tour); err != nil {
		t.Fatal(err)
	}
	h := factoryServer(repo, FactoryOptions[models.Tour]{})

	tests := []struct {
		name        string
		id          string
		wantCode    int
		wantMessage string
	}{
		{"found", tour.ID.Hex(), http.StatusOK, ""},
		{"missing", "5c88fa8cf4afda39709c2951", http.StatusNotFound, MsgNotFoundID},
		{"malformed", "wwwww", http.StatusBadRequest, "Invalid _id: wwwww."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := serve(t, h, http.MethodGet, "/tours/"+tt.id, "")
			expectStatus(t, rec, tt.wantCode)
			env := decodeEnvelope(t, rec)
			if env.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", env.Message, tt.wantMessage)
			}
		})
	}
}

func TestFactoryGetAllPaginates(t *testing.T) {
	t.Parallel()

	repo := newMemRepo(tourID, (*models.Tour).Normalize)
	for _, name := range []string{"The Forest Hiker", "The Sea Explorer", "The Snow Adventurer"} {
		if err := repo.Insert(context.Background(), &models.Tour{Name: name}); err != nil {
			t.Fatal(err)
		}
	}
	h := factoryServer(repo, FactoryOptions[models.Tour]{})

	rec := serve(t, h, http.MethodGet, "/tours?limit=2&page=2&difficulty=easy", "")
	expectStatus(t, rec, http.StatusOK)

	env := decodeEnvelope(t, rec)
	if env.Results == nil || *env.Results != 1 {
		t.Fatalf("results = %v, want 1", env.Results)
	}
	if got := repo.lastFeatures.FilterDoc(); len(got) != 1 || got[0].Key != "difficulty" {
		t.Errorf("filter = %v, want difficulty only", got)
	}
}

func TestFactoryUpdateOne(t *testing.T) {
	t.Parallel()

	repo := newMemRepo(tourID, (*models.Tour).Normalize)
	tour := &models.Tour{
		Name: "The Forest Hiker", Duration: 5, MaxGroupSize: 25, Difficulty: models.DifficultyEasy,
		Price: 397, Summary: "Breathtaking hike", ImageCover: "tour-1-cover.jpg",
	}
	if err := repo.Insert(context.Background(), tour); err != nil {
		t.Fatal(err)
	}
	h := factoryServer(repo, FactoryOptions[models.Tour]{})

	rec := serve(t, h, http.MethodPatch, "/tours/"+tour.ID.Hex(), `{"price": 497}`)
	expectStatus(t, rec, http.StatusOK)
	got := decodeTour(t, decodeEnvelope(t, rec).Data["data"])
	if got["price"] != 497.0 || got["name"] != "The Forest Hiker" {
		t.Errorf("updated tour = %v, want new price and unchanged name", got)
	}

	rec = serve(t, h, http.MethodPatch, "/tours/"+tour.ID.Hex(), `{"difficulty": "extreme"}`)
	expectStatus(t, rec, http.StatusBadRequest)

	stored, err := repo.FindByID(context.Background(), tour.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Difficulty != models.DifficultyEasy {
		t.Errorf("difficulty = %q after a rejected update", stored.Difficulty)
	}
}

func TestFactoryDeleteOne(t *testing.T) {
	t.Parallel()

	repo := newMemRepo(tourID, (*models.Tour).Normalize)
	tour := &models.Tour{Name: "The Forest Hiker"}
	if err := repo.Insert(context.Background(), tour); err != nil {
		t.Fatal(err)
	}
	h := factoryServer(repo, FactoryOptions[models.Tour]{})

	rec := serve(t, h, http.MethodDelete, "/tours/"+tour.ID.Hex(), "")
	expectStatus(t, rec, http.StatusNoContent)
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rec.Body.String())
	}

	rec = serve(t, h, http.MethodDelete, "/tours/"+tour.ID.Hex(), "")
	expectStatus(t, rec, http.StatusNotFound)
}
