// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package payment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/natours/internal/config"
	"github.com/tomtom215/natours/internal/logging"
	"github.com/tomtom215/natours/internal/metrics"
)

const (
	// DefaultBaseURL is Stripe's production API.
	DefaultBaseURL = "https://api.stripe.com"

	breakerName      = "stripe"
	sessionsPath     = "/v1/checkout/sessions"
	maxResponseBytes = 1 << 20
)

var (
	// ErrNotConfigured is returned when no secret key is set.
	ErrNotConfigured = errors.New("payment provider is not configured")
	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("payment provider is temporarily unavailable")
)

// APIError is an error response from Stripe.
type APIError struct {
	Status  int    `json:"-"`
	Type    string `json:"type"`
	Code    string `json:"code"`
	Param   string `json:"param"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stripe: %s (status %d, type %s)", e.Message, e.Status, e.Type)
}

// LineItem is a single product on a checkout page.
type LineItem struct {
	Name        string
	Description string
	Images      []string
	// UnitAmount is in the currency's smallest unit, e.g. cents.
	UnitAmount int64
	Quantity   int
}

// CheckoutRequest describes a one-off payment session.
type CheckoutRequest struct {
	CustomerEmail     string
	ClientReferenceID string
	SuccessURL        string
	CancelURL         string
	Items             []LineItem
}

// Session is the subset of a Stripe checkout.session object the service
// returns to clients.
type Session struct {
	ID                string `json:"id"`
	Object            string `json:"object"`
	URL               string `json:"url"`
	Mode              string `json:"mode"`
	Currency          string `json:"currency,omitempty"`
	AmountTotal       int64  `json:"amount_total,omitempty"`
	CustomerEmail     string `json:"customer_email"`
	ClientReferenceID string `json:"client_reference_id"`
	SuccessURL        string `json:"success_url,omitempty"`
	CancelURL         string `json:"cancel_url,omitempty"`
	PaymentStatus     string `json:"payment_status,omitempty"`
}

// Client talks to the Checkout Sessions endpoint.
type Client struct {
	baseURL  string
	secret   string
	currency string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker[*Session]
}

// NewClient builds a client from config. The breaker opens after five
// consecutive failures and probes again after 30 seconds.
func NewClient(cfg *config.PaymentConfig) *Client {
	base := strings.TrimRight(cfg.StripeBaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	currency := strings.ToLower(cfg.Currency)
	if currency == "" {
		currency = "usd"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		baseURL:  base,
		secret:   cfg.StripeSecretKey,
		currency: currency,
		http:     &http.Client{Timeout: timeout},
	}
	c.breaker = gobreaker.NewCircuitBreaker[*Session](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			return err == nil || (errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordBreakerTransition(name, from.String(), to.String())
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	})
	return c
}

// CreateCheckoutSession creates a payment-mode session.
func (c *Client) CreateCheckoutSession(ctx context.Context, req *CheckoutRequest) (*Session, error) {
	if c.secret == "" {
		return nil, ErrNotConfigured
	}
	if len(req.Items) == 0 {
		return nil, errors.New("checkout request has no line items")
	}

	form := c.encode(req)
	sess, err := c.breaker.Execute(func() (*Session, error) {
		return c.post(ctx, sessionsPath, form)
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordBreakerRequest(breakerName, metrics.BreakerRejected)
		return nil, ErrUnavailable
	case err != nil:
		metrics.RecordBreakerRequest(breakerName, metrics.BreakerFailure)
		return nil, err
	}
	metrics.RecordBreakerRequest(breakerName, metrics.BreakerSuccess)
	return sess, nil
}

// encode flattens the request into Stripe's bracketed form encoding.
func (c *Client) encode(req *CheckoutRequest) url.Values {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Add("payment_method_types[]", "card")
	form.Set("success_url", req.SuccessURL)
	form.Set("cancel_url", req.CancelURL)
	if req.CustomerEmail != "" {
		form.Set("customer_email", req.CustomerEmail)
	}
	if req.ClientReferenceID != "" {
		form.Set("client_reference_id", req.ClientReferenceID)
	}

	for i, item := range req.Items {
		p := "line_items[" + strconv.Itoa(i) + "]"
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		form.Set(p+"[quantity]", strconv.Itoa(qty))
		form.Set(p+"[price_data][currency]", c.currency)
		form.Set(p+"[price_data][unit_amount]", strconv.FormatInt(item.UnitAmount, 10))
		form.Set(p+"[price_data][product_data][name]", item.Name)
		if item.Description != "" {
			form.Set(p+"[price_data][product_data][description]", item.Description)
		}
		for j, img := range item.Images {
			form.Set(p+"[price_data][product_data][images]["+strconv.Itoa(j)+"]", img)
		}
	}
	return form
}

func (c *Client) post(ctx context.Context, path string, form url.Values) (*Session, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build stripe request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secret)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if id := logging.RequestIDFromContext(ctx); id != "" {
		httpReq.Header.Set("Idempotency-Key", id)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("stripe request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read stripe response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var envelope struct {
			Error APIError `json:"error"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error.Message == "" {
			envelope.Error.Message = http.StatusText(resp.StatusCode)
		}
		envelope.Error.Status = resp.StatusCode
		return nil, &envelope.Error
	}

	var sess Session
	if err := json.Unmarshal(body, &sess); err != nil {
		return nil, fmt.Errorf("decode stripe session: %w", err)
	}
	return &sess, nil
}
