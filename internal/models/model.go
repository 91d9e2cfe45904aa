// Modelyard - Predictive Model Serving and Lifecycle Management
// Copyright 2026 Modelyard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modelyard/modelyard

// Package models defines the shared data types of the serving core:
// model metadata, prediction results, and the serving error taxonomy.
package models

import "time"

// ProblemType classifies what a model predicts.
type ProblemType string

const (
	// ProblemClassification models predict a discrete class label.
	ProblemClassification ProblemType = "classification"

	// ProblemRegression models predict a continuous value.
	ProblemRegression ProblemType = "regression"
)

// Valid reports whether the problem type is one of the known values.
func (p ProblemType) Valid() bool {
	return p == ProblemClassification || p == ProblemRegression
}

// ModelMetadata describes one deployed model generation.
//
// Metadata is immutable after deployment. LastUsed and UsageCount are filled
// in from the stats tracker when a report is assembled; the persisted record
// is never rewritten on the prediction path. FeatureNames is ordered and defines
// the input schema contract: preprocessing and inference consume features in
// exactly this order, and a mismatch is a validation error, never a silent
// reorder.
type ModelMetadata struct {
	ModelID     string      `json:"model_id"`
	ModelType   string      `json:"model_type"`
	ProblemType ProblemType `json:"problem_type"`

	FeatureNames []string `json:"feature_names"`
	TargetColumn string   `json:"target_column"`

	// PreprocessingConfig records transformer name -> parameters for audit.
	// The executable preprocessing plan lives in the transformer artifacts;
	// this mapping is informational only.
	PreprocessingConfig map[string]map[string]any `json:"preprocessing_config,omitempty"`

	// PerformanceMetrics holds training-time evaluation metrics (accuracy,
	// r2, rmse, ...), informational only.
	PerformanceMetrics map[string]float64 `json:"performance_metrics,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used,omitempty"`
	UsageCount int64      `json:"usage_count"`
}

// Clone returns a deep copy of the metadata. Lifecycle update builds the
// replacement cache entry from a clone so that readers holding the previous
// entry never observe partial mutation (copy-on-write swap).
func (m *ModelMetadata) Clone() *ModelMetadata {
	if m == nil {
		return nil
	}

	out := *m

	out.FeatureNames = append([]string(nil), m.FeatureNames...)

	if m.PreprocessingConfig != nil {
		out.PreprocessingConfig = make(map[string]map[string]any, len(m.PreprocessingConfig))
		for name, params := range m.PreprocessingConfig {
			cp := make(map[string]any, len(params))
			for k, v := range params {
				cp[k] = v
			}
			out.PreprocessingConfig[name] = cp
		}
	}

	if m.PerformanceMetrics != nil {
		out.PerformanceMetrics = make(map[string]float64, len(m.PerformanceMetrics))
		for k, v := range m.PerformanceMetrics {
			out.PerformanceMetrics[k] = v
		}
	}

	if m.LastUsed != nil {
		t := *m.LastUsed
		out.LastUsed = &t
	}

	return &out
}

// RemovalInfo reports the outcome of removing a model.
type RemovalInfo struct {
	ModelID       string    `json:"model_id"`
	BackupCreated bool      `json:"backup_created"`
	BackupID      string    `json:"backup_id,omitempty"`
	RemovedAt     time.Time `json:"removed_at"`
}
