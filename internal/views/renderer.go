// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/natours/internal/auth"
	"github.com/tomtom215/natours/internal/logging"
	"github.com/tomtom215/natours/internal/models"
)

// Page template names.
const (
	PageOverview = "overview"
	PageTour     = "tour"
	PageLogin    = "login"
	PageAccount  = "account"
	PageError    = "error"
)

// ErrorTitle is the title of the error page.
const ErrorTitle = "something went wrong!"

//go:embed templates/*.html
var templateFS embed.FS

// PageData is what every page template sees.
type PageData struct {
	Title   string
	User    *models.User
	Tours   []*models.Tour
	Tour    *models.Tour
	Message string
}

// Renderer executes the page templates.
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"difficulty": difficultyLabel,
	"monthYear":  monthYear,
	"price":      formatPrice,
	"roleLabel":  roleLabel,
	"paragraphs": paragraphs,
	"inc":        inc,
	"stars":      stars,
}

func difficultyLabel(d models.Difficulty) string {
	s := string(d)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func monthYear(t time.Time) string { return t.Format("January 2006") }

func formatPrice(p float64) string { return strconv.FormatFloat(p, 'f', -1, 64) }

func roleLabel(r models.Role) string {
	if r == models.RoleLeadGuide {
		return "Lead guide"
	}
	return "Tour guide"
}

// paragraphs splits a description on newlines, dropping blank lines.
func paragraphs(s string) []string {
	var out []string
	for _, p := range strings.Split(s, "\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func inc(i int) int { return i + 1 }

// stars renders a rating as five filled or empty stars.
func stars(rating float64) string {
	n := int(rating + 0.5)
	if n > 5 {
		n = 5
	}
	if n < 0 {
		n = 0
	}
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

// NewRenderer parses every page against the base layout.
func NewRenderer() (*Renderer, error) {
	pages := make(map[string]*template.Template)
	for _, name := range []string{PageOverview, PageTour, PageLogin, PageAccount, PageError} {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		pages[name] = t
	}
	return &Renderer{pages: pages}, nil
}

// Render executes page with data. The user is taken from the request
// context when data has none.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, page string, data *PageData) {
	t, ok := rd.pages[page]
	if !ok {
		logging.Ctx(r.Context()).Error().Str("page", page).Msg("Unknown page template")
		http.Error(w, ErrorTitle, http.StatusInternalServerError)
		return
	}
	if data.User == nil {
		data.User, _ = auth.UserFromContext(r.Context())
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("page", page).Msg("Failed to render page")
		http.Error(w, ErrorTitle, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Failed to write page")
	}
}

// RenderError renders the error page with message.
func (rd *Renderer) RenderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	rd.Render(w, r, status, PageError, &PageData{Title: ErrorTitle, Message: message})
}
