// Modelyard - Predictive Model Serving and Lifecycle Management
// Copyright 2026 Modelyard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modelyard/modelyard

// errors.go - Mapping of core error kinds to HTTP responses.
package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/modelyard/modelyard/internal/logging"
	"github.com/modelyard/modelyard/internal/models"
)

// errorResponse is the uniform error body.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// writeJSON serializes v with a status code. Encoding failures are logged
// but cannot be reported to the client because the header is already out.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Err(err).Msg("encode response")
	}
}

// writeBadRequest reports a malformed request body or parameter.
func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg, Kind: "bad_request"})
}

// writeError maps a core error to its status code and kind. Unrecognized
// errors become opaque 500s so internal detail does not leak.
func writeError(w http.ResponseWriter, err error) {
	status, kind := classify(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		logging.Err(err).Msg("internal error")
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: msg, Kind: kind})
}

// classify picks the status and kind for a core error.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, models.ErrDuplicateModel):
		return http.StatusConflict, "duplicate_model"
	case errors.Is(err, models.ErrValidation):
		return http.StatusUnprocessableEntity, "validation"
	case errors.Is(err, models.ErrPreprocessing):
		return http.StatusUnprocessableEntity, "preprocessing"
	case errors.Is(err, models.ErrInference):
		return http.StatusBadGateway, "inference"
	case errors.Is(err, models.ErrBackupFailed):
		return http.StatusInternalServerError, "backup_failed"
	case errors.Is(err, models.ErrStoreIO):
		return http.StatusInternalServerError, "store_io"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
