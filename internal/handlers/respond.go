// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"shopadmin/internal/category"
	"shopadmin/internal/drafts"
)

var errValidation = category.ErrValidation

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

// statusFor maps the category error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, category.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, category.ErrNotFound), errors.Is(err, drafts.ErrDraftNotFound):
		return http.StatusNotFound
	case errors.Is(err, category.ErrCycle), errors.Is(err, category.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError responds with {"error": msg}. Client errors carry the
// underlying message; server errors are logged and answered generically.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		msg = "Internal server error"
		if errors.Is(err, category.ErrIntegrity) {
			msg = "Stored categories are inconsistent; contact an administrator."
		}
	}
	writeJSON(w, status, map[string]string{"error": msg})
}
