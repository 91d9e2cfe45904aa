// Modelyard - Predictive Model Serving and Lifecycle Management
// Copyright 2026 Modelyard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modelyard/modelyard

// reports.go - Performance and dashboard read models.
package lifecycle

import (
	"time"

	"github.com/modelyard/modelyard/internal/cache"
	"github.com/modelyard/modelyard/internal/models"
	"github.com/modelyard/modelyard/internal/stats"
)

// PerformanceReport merges a model's metadata with its live prediction
// statistics. Usage count and last-used come from the stats tracker, the
// single writer of those counters, so the persisted metadata record never
// needs rewriting on the prediction path.
type PerformanceReport struct {
	Metadata *models.ModelMetadata `json:"metadata"`
	Stats    stats.Snapshot        `json:"stats"`
}

// DashboardReport aggregates serving state across all models.
type DashboardReport struct {
	TotalModels      int                 `json:"total_models"`
	TotalPredictions int64               `json:"total_predictions"`
	TotalErrors      int64               `json:"total_errors"`
	ErrorRate        float64             `json:"error_rate"`
	Cache            cache.Stats         `json:"cache"`
	Recent           stats.WindowSummary `json:"recent"`
	GeneratedAt      time.Time           `json:"generated_at"`
}

// GetPerformance returns the merged performance report for one model.
func (m *Manager) GetPerformance(modelID string) (*PerformanceReport, error) {
	if !m.Known(modelID) {
		return nil, &models.NotFoundError{ModelID: modelID}
	}

	var meta *models.ModelMetadata
	if entry, ok := m.cache.Get(modelID); ok {
		meta = entry.Metadata.Clone()
	} else {
		loaded, err := m.readMetadata(modelID)
		if err != nil {
			return nil, err
		}
		meta = loaded
	}

	snap, ok := m.tracker.Snapshot(modelID)
	if !ok {
		// Registered model without a stats record means removal raced this
		// read; report it as absent.
		return nil, &models.NotFoundError{ModelID: modelID}
	}

	meta.UsageCount = snap.TotalPredictions + snap.ErrorCount
	meta.LastUsed = snap.LastPredictionTime

	return &PerformanceReport{Metadata: meta, Stats: snap}, nil
}

// GetDashboard aggregates totals, cache state and the recent outcome window.
func (m *Manager) GetDashboard() DashboardReport {
	totalModels, predictions, errors := m.tracker.Totals()

	attempts := predictions + errors
	var errorRate float64
	if attempts > 0 {
		errorRate = float64(errors) / float64(attempts)
	}

	return DashboardReport{
		TotalModels:      totalModels,
		TotalPredictions: predictions,
		TotalErrors:      errors,
		ErrorRate:        errorRate,
		Cache:            m.cache.Stats(),
		Recent:           m.tracker.Recent(),
		GeneratedAt:      m.now(),
	}
}
