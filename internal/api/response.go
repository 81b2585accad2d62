// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/natours/internal/logging"
	"github.com/tomtom215/natours/internal/models"
)

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 10 << 10

// Response is the envelope of every JSON reply.
type Response struct {
	Status  string `json:"status"`
	Results *int   `json:"results,omitempty"`
	Token   string `json:"token,omitempty"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// errorResponse is the development error body.
type errorResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// respondJSON sends v with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondData sends {status:"success", data:{key: value}}.
func respondData(w http.ResponseWriter, status int, key string, value any) {
	respondJSON(w, status, &Response{Status: StatusSuccess, Data: map[string]any{key: value}})
}

// respondList sends a list with its length as results.
func respondList[T any](w http.ResponseWriter, key string, items []T) {
	n := len(items)
	respondJSON(w, http.StatusOK, &Response{Status: StatusSuccess, Results: &n, Data: map[string]any{key: items}})
}

func respondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

type bodyContextKey struct{}

// readBody returns the request body. Upload middleware may have replaced
// a multipart form with an equivalent JSON document.
func readBody(r *http.Request) ([]byte, error) {
	if b, ok := r.Context().Value(bodyContextKey{}).([]byte); ok {
		return b, nil
	}
	if r.Body == nil {
		return []byte("{}"), nil
	}

	data, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxJSONBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, NewAppError(http.StatusRequestEntityTooLarge, MsgRequestTooLarge)
		}
		return nil, wrapAppError(http.StatusBadRequest, MsgInvalidBody, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []byte("{}"), nil
	}
	return data, nil
}

// decodeBody unmarshals data into v. Malformed ids keep their cast error.
func decodeBody(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		var castErr *models.CastError
		if errors.As(err, &castErr) {
			return castErr
		}
		return wrapAppError(http.StatusBadRequest, MsgInvalidBody, err)
	}
	return nil
}

// bodyKeys lists the top-level keys of a JSON object.
func bodyKeys(data []byte) ([]string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, wrapAppError(http.StatusBadRequest, MsgInvalidBody, err)
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	return keys, nil
}

// decodeRequest reads and decodes the body of r into v.
func decodeRequest(r *http.Request, v any) error {
	data, err := readBody(r)
	if err != nil {
		return err
	}
	return decodeBody(data, v)
}
