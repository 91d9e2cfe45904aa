// Modelyard - Predictive Model Serving and Lifecycle Management
// Copyright 2026 Modelyard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modelyard/modelyard

package models

import "time"

// Features is one raw input record, keyed by feature name.
// Values are converted to float64 during preprocessing.
type Features map[string]float64

// PredictionResult is the outcome of a single successful prediction.
type PredictionResult struct {
	ModelID string `json:"model_id"`

	Prediction float64 `json:"prediction"`

	// Confidence is the maximum class probability for classification models
	// whose predictor exposes probabilities; nil otherwise.
	Confidence *float64 `json:"confidence,omitempty"`

	// Probabilities holds per-class probabilities when requested and
	// available.
	Probabilities []float64 `json:"probabilities,omitempty"`

	Timestamp time.Time     `json:"timestamp"`
	Latency   time.Duration `json:"-"`
	LatencyMS float64       `json:"latency_ms"`
}

// BatchItem is the per-item outcome of a batch prediction at its original
// input index. Exactly one of Result or Err is set.
type BatchItem struct {
	Index  int               `json:"index"`
	Result *PredictionResult `json:"result,omitempty"`
	Err    error             `json:"-"`

	// Error carries the failure message for serialized responses.
	Error string `json:"error,omitempty"`
}

// BatchResult aggregates a batch prediction. Items preserves input order and
// always has one entry per input record: a failed item does not abort the
// rest of the batch.
type BatchResult struct {
	ModelID    string      `json:"model_id"`
	Items      []BatchItem `json:"items"`
	Successful int         `json:"successful"`
	Failed     int         `json:"failed"`

	TotalLatencyMS float64   `json:"total_latency_ms"`
	AvgLatencyMS   float64   `json:"avg_latency_ms"`
	Timestamp      time.Time `json:"timestamp"`
}
