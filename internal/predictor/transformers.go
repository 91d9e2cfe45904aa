// Modelyard - Predictive Model Serving and Lifecycle Management
// Copyright 2026 Modelyard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modelyard/modelyard

// transformers.go - Reference transformer implementations
package predictor

import "fmt"

// Identity passes the vector through unchanged. Useful as an explicit no-op
// preprocessing plan.
type Identity struct{}

// TypeTag implements Transformer.
func (t *Identity) TypeTag() string { return TypeIdentity }

// Transform implements Transformer.
func (t *Identity) Transform(vector []float64) ([]float64, error) {
	out := make([]float64, len(vector))
	copy(out, vector)
	return out, nil
}

// StandardScaler centers and scales each feature: (x - mean) / scale.
// Mean and Scale are per-feature, fitted at training time.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// TypeTag implements Transformer.
func (t *StandardScaler) TypeTag() string { return TypeStandardScaler }

// Transform implements Transformer.
func (t *StandardScaler) Transform(vector []float64) ([]float64, error) {
	if len(vector) != len(t.Mean) || len(t.Mean) != len(t.Scale) {
		return nil, fmt.Errorf("dimension mismatch: vector %d, mean %d, scale %d",
			len(vector), len(t.Mean), len(t.Scale))
	}

	out := make([]float64, len(vector))
	for i, v := range vector {
		scale := t.Scale[i]
		if scale == 0 {
			// Constant feature at training time: center only.
			out[i] = v - t.Mean[i]
			continue
		}
		out[i] = (v - t.Mean[i]) / scale
	}
	return out, nil
}

// MinMaxScaler rescales each feature to [0, 1] using the fitted min and max.
type MinMaxScaler struct {
	Min []float64 `json:"min"`
	Max []float64 `json:"max"`
}

// TypeTag implements Transformer.
func (t *MinMaxScaler) TypeTag() string { return TypeMinMaxScaler }

// Transform implements Transformer.
func (t *MinMaxScaler) Transform(vector []float64) ([]float64, error) {
	if len(vector) != len(t.Min) || len(t.Min) != len(t.Max) {
		return nil, fmt.Errorf("dimension mismatch: vector %d, min %d, max %d",
			len(vector), len(t.Min), len(t.Max))
	}

	out := make([]float64, len(vector))
	for i, v := range vector {
		span := t.Max[i] - t.Min[i]
		if span == 0 {
			out[i] = 0
			continue
		}
		out[i] = (v - t.Min[i]) / span
	}
	return out, nil
}
