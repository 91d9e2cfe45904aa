// Modelyard - Predictive Model Serving and Lifecycle Management
// Copyright 2026 Modelyard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modelyard/modelyard

// Package stats tracks per-model prediction counters and a bounded rolling
// window of recent outcomes for the dashboard.
//
// Counters are per-model structs with their own mutex, so concurrent
// predictions against different models never serialize on each other; the
// tracker's RWMutex guards only the model map itself.
package stats

import (
	"sync"
	"time"
)

// modelStats holds the mutable counters for one model.
type modelStats struct {
	mu sync.Mutex

	totalPredictions int64
	totalLatency     time.Duration
	errorCount       int64
	lastPrediction   *time.Time
	deployedAt       time.Time
}

// Snapshot is a consistent point-in-time copy of one model's counters with
// the derived rates the performance report exposes.
type Snapshot struct {
	TotalPredictions   int64      `json:"total_predictions"`
	ErrorCount         int64      `json:"error_count"`
	ErrorRate          float64    `json:"error_rate"`
	TotalLatencyMS     float64    `json:"total_latency_ms"`
	AvgLatencyMS       float64    `json:"avg_latency_ms"`
	LastPredictionTime *time.Time `json:"last_prediction_time,omitempty"`
	DeployedAt         time.Time  `json:"deployed_at"`
	DeploymentAge      string     `json:"deployment_age"`
}

// Tracker holds prediction statistics for all deployed models.
type Tracker struct {
	mu     sync.RWMutex
	models map[string]*modelStats

	window *window

	// now is the clock, replaceable in tests.
	now func() time.Time
}

// NewTracker creates a tracker with the given rolling window capacity.
// Capacity <= 0 uses DefaultWindowSize.
func NewTracker(windowSize int) *Tracker {
	return &Tracker{
		models: make(map[string]*modelStats),
		window: newWindow(windowSize),
		now:    time.Now,
	}
}

// Register creates the counter record for a model. Registering an id twice
// resets nothing: the existing record is kept.
func (t *Tracker) Register(modelID string, deployedAt time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.models[modelID]; exists {
		return
	}
	t.models[modelID] = &modelStats{deployedAt: deployedAt}
}

// Remove drops a model's counters. Window events are kept: they are part of
// the recent-activity trail, not per-model state.
func (t *Tracker) Remove(modelID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.models, modelID)
}

func (t *Tracker) get(modelID string) (*modelStats, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.models[modelID]
	return s, ok
}

// RecordSuccess records one successful prediction: total and latency advance
// and the last-prediction time is set.
func (t *Tracker) RecordSuccess(modelID string, latency time.Duration) {
	s, ok := t.get(modelID)
	if !ok {
		return
	}

	now := t.now()
	s.mu.Lock()
	s.totalPredictions++
	s.totalLatency += latency
	s.lastPrediction = &now
	s.mu.Unlock()

	t.window.add(event{ModelID: modelID, Success: true, LatencyMS: durationMS(latency), Timestamp: now})
}

// RecordError records one failed prediction attempt: only the error count
// advances, never the prediction total.
func (t *Tracker) RecordError(modelID string, latency time.Duration) {
	s, ok := t.get(modelID)
	if !ok {
		return
	}

	now := t.now()
	s.mu.Lock()
	s.errorCount++
	s.lastPrediction = &now
	s.mu.Unlock()

	t.window.add(event{ModelID: modelID, Success: false, LatencyMS: durationMS(latency), Timestamp: now})
}

// Snapshot returns a copy of one model's counters.
// The second return is false for an unknown id.
func (t *Tracker) Snapshot(modelID string) (Snapshot, bool) {
	s, ok := t.get(modelID)
	if !ok {
		return Snapshot{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		TotalPredictions: s.totalPredictions,
		ErrorCount:       s.errorCount,
		TotalLatencyMS:   durationMS(s.totalLatency),
		DeployedAt:       s.deployedAt,
		DeploymentAge:    t.now().Sub(s.deployedAt).Round(time.Second).String(),
	}
	if s.lastPrediction != nil {
		lp := *s.lastPrediction
		snap.LastPredictionTime = &lp
	}

	attempts := s.totalPredictions
	if attempts < 1 {
		attempts = 1
	}
	snap.ErrorRate = float64(s.errorCount) / float64(attempts)

	if s.totalPredictions > 0 {
		snap.AvgLatencyMS = snap.TotalLatencyMS / float64(s.totalPredictions)
	}
	return snap, true
}

// Totals aggregates counters across all models.
func (t *Tracker) Totals() (modelCount int, predictions, errors int64) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, s := range t.models {
		s.mu.Lock()
		predictions += s.totalPredictions
		errors += s.errorCount
		s.mu.Unlock()
	}
	return len(t.models), predictions, errors
}

// Recent summarizes the rolling outcome window.
func (t *Tracker) Recent() WindowSummary {
	return t.window.summary()
}

func durationMS(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
