// Modelyard - Predictive Model Serving and Lifecycle Management
// Copyright 2026 Modelyard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modelyard/modelyard

// handlers.go - HTTP handlers translating wire requests into core calls.
package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/modelyard/modelyard/internal/lifecycle"
	"github.com/modelyard/modelyard/internal/models"
	"github.com/modelyard/modelyard/internal/pipeline"
	"github.com/modelyard/modelyard/internal/predictor"
	"github.com/modelyard/modelyard/internal/validation"
)

// Handler holds the core collaborators the HTTP layer calls into.
type Handler struct {
	manager  *lifecycle.Manager
	pipeline *pipeline.Pipeline
	registry *predictor.Registry
}

// NewHandler creates the HTTP handler set.
func NewHandler(manager *lifecycle.Manager, pl *pipeline.Pipeline, registry *predictor.Registry) *Handler {
	return &Handler{manager: manager, pipeline: pl, registry: registry}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// deployRequest is the deploy wire format. Model and transformers are
// artifact envelopes ({"type": tag, "params": ...}) resolved against the
// predictor registry.
type deployRequest struct {
	ModelID      string                `json:"model_id" validate:"required,model_id"`
	Model        json.RawMessage       `json:"model" validate:"required"`
	Transformers json.RawMessage       `json:"transformers,omitempty"`
	Metadata     *models.ModelMetadata `json:"metadata" validate:"required"`
}

// Deploy handles POST /api/v1/models.
func (h *Handler) Deploy(w http.ResponseWriter, r *http.Request) {
	var req deployRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "malformed deploy request: "+err.Error())
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		writeBadRequest(w, verr.Error())
		return
	}

	pred, err := h.registry.DecodePredictor(req.Model)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var chain []predictor.Transformer
	if req.Transformers != nil {
		chain, err = h.registry.DecodeTransformers(req.Transformers)
		if err != nil {
			writeBadRequest(w, err.Error())
			return
		}
	}

	meta, err := h.manager.Deploy(req.ModelID, pred, chain, req.Metadata)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, meta)
}

// ListModels handles GET /api/v1/models.
func (h *Handler) ListModels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"model_ids": h.manager.ModelIDs()})
}

// predictRequest is the single-prediction wire format.
type predictRequest struct {
	Features          models.Features `json:"features"`
	WantProbabilities bool            `json:"want_probabilities"`
}

// Predict handles POST /api/v1/models/{modelID}/predict.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	modelID := chi.URLParam(r, "modelID")

	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "malformed predict request: "+err.Error())
		return
	}

	result, err := h.pipeline.Predict(modelID, req.Features, req.WantProbabilities)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// batchPredictRequest is the batch wire format. Items are processed in
// order, and each failure is reported at its index without aborting the
// rest.
type batchPredictRequest struct {
	Items             []models.Features `json:"items"`
	WantProbabilities bool              `json:"want_probabilities"`
}

// BatchPredict handles POST /api/v1/models/{modelID}/batch-predict.
func (h *Handler) BatchPredict(w http.ResponseWriter, r *http.Request) {
	modelID := chi.URLParam(r, "modelID")

	var req batchPredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "malformed batch request: "+err.Error())
		return
	}
	if len(req.Items) == 0 {
		writeBadRequest(w, "items must not be empty")
		return
	}

	result, err := h.pipeline.BatchPredict(modelID, req.Items, req.WantProbabilities)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// updateRequest is the update wire format; absent fields keep current
// values.
type updateRequest struct {
	Model        json.RawMessage    `json:"model,omitempty"`
	Transformers json.RawMessage    `json:"transformers,omitempty"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
}

// Update handles PUT /api/v1/models/{modelID}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	modelID := chi.URLParam(r, "modelID")

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "malformed update request: "+err.Error())
		return
	}

	var core lifecycle.UpdateRequest
	if req.Model != nil {
		pred, err := h.registry.DecodePredictor(req.Model)
		if err != nil {
			writeBadRequest(w, err.Error())
			return
		}
		core.Predictor = pred
	}
	if req.Transformers != nil {
		chain, err := h.registry.DecodeTransformers(req.Transformers)
		if err != nil {
			writeBadRequest(w, err.Error())
			return
		}
		core.Transformers = chain
	}
	core.Metrics = req.Metrics

	if err := h.manager.Update(modelID, core); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"model_id": modelID, "status": "updated"})
}

// Remove handles DELETE /api/v1/models/{modelID}?backup=true|false.
// Backup defaults to true.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	modelID := chi.URLParam(r, "modelID")

	createBackup := true
	if raw := r.URL.Query().Get("backup"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeBadRequest(w, "backup must be a boolean")
			return
		}
		createBackup = parsed
	}

	info, err := h.manager.Remove(modelID, createBackup)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// Performance handles GET /api/v1/models/{modelID}/performance.
func (h *Handler) Performance(w http.ResponseWriter, r *http.Request) {
	report, err := h.manager.GetPerformance(chi.URLParam(r, "modelID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ListBackups handles GET /api/v1/models/{modelID}/backups.
func (h *Handler) ListBackups(w http.ResponseWriter, r *http.Request) {
	modelID := chi.URLParam(r, "modelID")

	timestamps, err := h.manager.Backups().List(modelID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"model_id": modelID, "backups": timestamps})
}

// restoreRequest names the snapshot to restore.
type restoreRequest struct {
	Timestamp string `json:"timestamp"`
}

// Restore handles POST /api/v1/models/{modelID}/restore.
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	modelID := chi.URLParam(r, "modelID")

	var req restoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "malformed restore request: "+err.Error())
		return
	}
	if req.Timestamp == "" {
		writeBadRequest(w, "timestamp is required")
		return
	}

	meta, err := h.manager.RestoreFromBackup(modelID, req.Timestamp)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// Dashboard handles GET /api/v1/dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.GetDashboard())
}

// CacheStats handles GET /api/v1/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, _ *http.Request) {
	stats := h.manager.Cache().Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"stats":    stats,
		"hit_rate": stats.HitRate(),
	})
}
