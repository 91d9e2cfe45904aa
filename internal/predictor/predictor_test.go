// Modelyard - Predictive Model Serving and Lifecycle Management
// Copyright 2026 Modelyard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modelyard/modelyard

package predictor

import (
	"errors"
	"math"
	"testing"

	"github.com/goccy/go-json"
)

func TestRegistryRejectsUnknownPredictorType(t *testing.T) {
	r := Default()

	_, err := r.DecodePredictor([]byte(`{"type":"gradient_boosting","params":{}}`))
	if err == nil {
		t.Fatal("Expected error for unregistered predictor type")
	}
	if !errors.Is(err, ErrUnknownType) {
		t.Errorf("Expected ErrUnknownType, got %v", err)
	}
}

func TestRegistryRejectsUnknownTransformerType(t *testing.T) {
	r := Default()

	_, err := r.DecodeTransformers([]byte(`[{"type":"pca","params":{}}]`))
	if !errors.Is(err, ErrUnknownType) {
		t.Errorf("Expected ErrUnknownType, got %v", err)
	}
}

func TestRegistryRejectsDuplicateRegistration(t *testing.T) {
	r := Default()

	err := r.RegisterPredictor(TypeLinearRegression, func(json.RawMessage) (Predictor, error) {
		return nil, nil
	})
	if err == nil {
		t.Error("Expected duplicate predictor registration to fail")
	}

	err = r.RegisterTransformer(TypeIdentity, func(json.RawMessage) (Transformer, error) {
		return nil, nil
	})
	if err == nil {
		t.Error("Expected duplicate transformer registration to fail")
	}
}

func TestPredictorEnvelopeRoundTrip(t *testing.T) {
	r := Default()

	original := &LinearRegressor{Intercept: 1.5, Coefficients: []float64{2, -0.5}}
	data, err := EncodePredictor(original)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, err := r.DecodePredictor(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.TypeTag() != TypeLinearRegression {
		t.Errorf("Expected tag %s, got %s", TypeLinearRegression, decoded.TypeTag())
	}

	got, err := decoded.Predict([]float64{1, 2})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	want := 1.5 + 2*1 + (-0.5)*2
	if got != want {
		t.Errorf("Expected %f, got %f", want, got)
	}
}

func TestTransformerChainRoundTripPreservesOrder(t *testing.T) {
	r := Default()

	chain := []Transformer{
		&StandardScaler{Mean: []float64{1}, Scale: []float64{2}},
		&MinMaxScaler{Min: []float64{-1}, Max: []float64{1}},
	}
	data, err := EncodeTransformers(chain)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, err := r.DecodeTransformers(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("Expected chain of 2, got %d", len(decoded))
	}
	if decoded[0].TypeTag() != TypeStandardScaler || decoded[1].TypeTag() != TypeMinMaxScaler {
		t.Errorf("Chain order not preserved: [%s %s]", decoded[0].TypeTag(), decoded[1].TypeTag())
	}

	// (5 - 1) / 2 = 2, then (2 - (-1)) / 2 = 1.5
	out, err := decoded[0].Transform([]float64{5})
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	out, err = decoded[1].Transform(out)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if out[0] != 1.5 {
		t.Errorf("Expected chained result 1.5, got %f", out[0])
	}
}

func TestLinearRegressorDimensionMismatch(t *testing.T) {
	p := &LinearRegressor{Coefficients: []float64{1, 2}}
	if _, err := p.Predict([]float64{1}); err == nil {
		t.Error("Expected dimension mismatch error")
	}
}

func TestLogisticClassifier(t *testing.T) {
	p := &LogisticClassifier{Intercept: 0, Coefficients: []float64{1}}

	probs, err := p.PredictProbabilities([]float64{0})
	if err != nil {
		t.Fatalf("PredictProbabilities failed: %v", err)
	}
	if len(probs) != 2 {
		t.Fatalf("Expected 2 probabilities, got %d", len(probs))
	}
	if math.Abs(probs[0]-0.5) > 1e-9 || math.Abs(probs[1]-0.5) > 1e-9 {
		t.Errorf("Expected [0.5 0.5] at decision boundary, got %v", probs)
	}
	if math.Abs(probs[0]+probs[1]-1) > 1e-9 {
		t.Errorf("Probabilities must sum to 1, got %v", probs)
	}

	label, err := p.Predict([]float64{3})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if label != 1 {
		t.Errorf("Expected class 1 for positive decision value, got %f", label)
	}

	label, err = p.Predict([]float64{-3})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if label != 0 {
		t.Errorf("Expected class 0 for negative decision value, got %f", label)
	}
}

func TestLogisticClassifierCustomThreshold(t *testing.T) {
	// With a 0.9 threshold, a mildly positive decision value maps to class 0.
	p := &LogisticClassifier{Coefficients: []float64{1}, Threshold: 0.9}

	label, err := p.Predict([]float64{1})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if label != 0 {
		t.Errorf("Expected class 0 below custom threshold, got %f", label)
	}
}

func TestNearestCentroidClassifier(t *testing.T) {
	p := &NearestCentroidClassifier{
		Centroids: [][]float64{{0, 0}, {10, 10}},
		Labels:    []float64{3, 7},
	}

	label, err := p.Predict([]float64{1, 1})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if label != 3 {
		t.Errorf("Expected label 3 for point near first centroid, got %f", label)
	}

	probs, err := p.PredictProbabilities([]float64{1, 1})
	if err != nil {
		t.Fatalf("PredictProbabilities failed: %v", err)
	}
	if len(probs) != 2 {
		t.Fatalf("Expected 2 probabilities, got %d", len(probs))
	}
	if probs[0] <= probs[1] {
		t.Errorf("Expected nearer centroid to have higher probability, got %v", probs)
	}
	if math.Abs(probs[0]+probs[1]-1) > 1e-9 {
		t.Errorf("Probabilities must sum to 1, got %v", probs)
	}
}

func TestNearestCentroidMalformedModel(t *testing.T) {
	p := &NearestCentroidClassifier{
		Centroids: [][]float64{{0, 0}},
		Labels:    []float64{1, 2},
	}
	if _, err := p.Predict([]float64{0, 0}); err == nil {
		t.Error("Expected error for centroid/label count mismatch")
	}
}

func TestStandardScalerZeroScale(t *testing.T) {
	s := &StandardScaler{Mean: []float64{5}, Scale: []float64{0}}

	out, err := s.Transform([]float64{7})
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if out[0] != 2 {
		t.Errorf("Expected center-only result 2 for zero scale, got %f", out[0])
	}
}

func TestMinMaxScalerZeroSpan(t *testing.T) {
	s := &MinMaxScaler{Min: []float64{3}, Max: []float64{3}}

	out, err := s.Transform([]float64{3})
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if out[0] != 0 {
		t.Errorf("Expected 0 for zero span, got %f", out[0])
	}
}

func TestTransformersDoNotMutateInput(t *testing.T) {
	input := []float64{4}
	s := &StandardScaler{Mean: []float64{1}, Scale: []float64{1}}

	if _, err := s.Transform(input); err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if input[0] != 4 {
		t.Errorf("Transform mutated its input: %v", input)
	}
}
