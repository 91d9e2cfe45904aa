// Modelyard - Predictive Model Serving and Lifecycle Management
// Copyright 2026 Modelyard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modelyard/modelyard

// builtin.go - Reference predictor implementations
//
// These are the closed set of predictor variants the default registry knows.
// They exist so the system is usable and testable end to end without an
// external toolkit; any real toolkit integrates by registering its own
// factory on the Registry.
package predictor

import (
	"fmt"
	"math"
)

// Artifact type tags for the built-in variants.
const (
	TypeLinearRegression = "linear_regression"
	TypeLogistic         = "logistic"
	TypeNearestCentroid  = "nearest_centroid"

	TypeIdentity       = "identity"
	TypeStandardScaler = "standard_scaler"
	TypeMinMaxScaler   = "min_max_scaler"
)

// LinearRegressor predicts intercept + coefficients . vector.
type LinearRegressor struct {
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

// TypeTag implements Predictor.
func (p *LinearRegressor) TypeTag() string { return TypeLinearRegression }

// Predict implements Predictor.
func (p *LinearRegressor) Predict(vector []float64) (float64, error) {
	if len(vector) != len(p.Coefficients) {
		return 0, fmt.Errorf("dimension mismatch: got %d features, model has %d coefficients",
			len(vector), len(p.Coefficients))
	}

	out := p.Intercept
	for i, v := range vector {
		out += v * p.Coefficients[i]
	}
	return out, nil
}

// LogisticClassifier is a binary classifier over a linear decision function.
// Predict returns the class label (0 or 1); probabilities are the sigmoid of
// the decision value and its complement.
type LogisticClassifier struct {
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`

	// Threshold is the decision boundary on the positive-class probability.
	// Zero means the conventional 0.5.
	Threshold float64 `json:"threshold,omitempty"`
}

// TypeTag implements Predictor.
func (p *LogisticClassifier) TypeTag() string { return TypeLogistic }

// Predict implements Predictor.
func (p *LogisticClassifier) Predict(vector []float64) (float64, error) {
	probs, err := p.PredictProbabilities(vector)
	if err != nil {
		return 0, err
	}

	threshold := p.Threshold
	if threshold == 0 {
		threshold = 0.5
	}
	if probs[1] >= threshold {
		return 1, nil
	}
	return 0, nil
}

// PredictProbabilities implements ProbabilityPredictor.
// The result is [P(class 0), P(class 1)].
func (p *LogisticClassifier) PredictProbabilities(vector []float64) ([]float64, error) {
	if len(vector) != len(p.Coefficients) {
		return nil, fmt.Errorf("dimension mismatch: got %d features, model has %d coefficients",
			len(vector), len(p.Coefficients))
	}

	z := p.Intercept
	for i, v := range vector {
		z += v * p.Coefficients[i]
	}
	positive := 1.0 / (1.0 + math.Exp(-z))
	return []float64{1 - positive, positive}, nil
}

// NearestCentroidClassifier predicts the label of the nearest centroid by
// Euclidean distance. Probabilities are a softmax over negative distances,
// which keeps them ordered by proximity and summing to one.
type NearestCentroidClassifier struct {
	Centroids [][]float64 `json:"centroids"`
	Labels    []float64   `json:"labels"`
}

// TypeTag implements Predictor.
func (p *NearestCentroidClassifier) TypeTag() string { return TypeNearestCentroid }

// Predict implements Predictor.
func (p *NearestCentroidClassifier) Predict(vector []float64) (float64, error) {
	distances, err := p.distances(vector)
	if err != nil {
		return 0, err
	}

	best := 0
	for i, d := range distances {
		if d < distances[best] {
			best = i
		}
	}
	return p.Labels[best], nil
}

// PredictProbabilities implements ProbabilityPredictor.
func (p *NearestCentroidClassifier) PredictProbabilities(vector []float64) ([]float64, error) {
	distances, err := p.distances(vector)
	if err != nil {
		return nil, err
	}

	probs := make([]float64, len(distances))
	var sum float64
	for i, d := range distances {
		probs[i] = math.Exp(-d)
		sum += probs[i]
	}
	if sum == 0 {
		// All centroids are extremely far; fall back to uniform.
		for i := range probs {
			probs[i] = 1.0 / float64(len(probs))
		}
		return probs, nil
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs, nil
}

func (p *NearestCentroidClassifier) distances(vector []float64) ([]float64, error) {
	if len(p.Centroids) == 0 || len(p.Centroids) != len(p.Labels) {
		return nil, fmt.Errorf("malformed model: %d centroids, %d labels",
			len(p.Centroids), len(p.Labels))
	}

	distances := make([]float64, len(p.Centroids))
	for i, c := range p.Centroids {
		if len(c) != len(vector) {
			return nil, fmt.Errorf("dimension mismatch: got %d features, centroid has %d",
				len(vector), len(c))
		}
		var sq float64
		for j, v := range vector {
			d := v - c[j]
			sq += d * d
		}
		distances[i] = math.Sqrt(sq)
	}
	return distances, nil
}
