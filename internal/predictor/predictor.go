// Modelyard - Predictive Model Serving and Lifecycle Management
// Copyright 2026 Modelyard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modelyard/modelyard

// Package predictor defines the opaque inference capabilities consumed by the
// serving core, and a registry resolving artifact type tags to constructors.
//
// The core never dispatches on ad-hoc string keys: a Predictor or Transformer
// artifact is a JSON envelope {"type": tag, "params": ...}, and the tag must
// name a factory registered at construction time. Unknown tags are rejected
// explicitly at deploy and load time.
package predictor

import (
	"errors"
	"fmt"
	"sync"

	"github.com/goccy/go-json"
)

// Predictor performs inference on a preprocessed feature vector.
// Implementations must be safe for concurrent use: the cache hands the same
// instance to many in-flight predictions.
type Predictor interface {
	// TypeTag returns the registered artifact type tag.
	TypeTag() string

	// Predict returns the model output for one feature vector.
	Predict(vector []float64) (float64, error)
}

// ProbabilityPredictor is implemented by classifiers that can report
// per-class probabilities. The pipeline type-asserts for this capability
// when probabilities are requested.
type ProbabilityPredictor interface {
	Predictor

	// PredictProbabilities returns per-class probabilities for one vector.
	PredictProbabilities(vector []float64) ([]float64, error)
}

// Transformer converts a feature vector into model-ready form.
// Transformers are applied in the fixed order recorded at deploy time.
type Transformer interface {
	// TypeTag returns the registered artifact type tag.
	TypeTag() string

	// Transform returns the converted vector. It must not mutate its input.
	Transform(vector []float64) ([]float64, error)
}

// ErrUnknownType indicates an artifact type tag with no registered factory.
var ErrUnknownType = errors.New("unknown artifact type")

// PredictorFactory builds a Predictor from its serialized parameters.
type PredictorFactory func(params json.RawMessage) (Predictor, error)

// TransformerFactory builds a Transformer from its serialized parameters.
type TransformerFactory func(params json.RawMessage) (Transformer, error)

// envelope is the on-disk artifact format.
type envelope struct {
	Type   string          `json:"type"`
	Params json.RawMessage `json:"params"`
}

// Registry maps artifact type tags to factories. It is the capability object
// handed to the lifecycle manager at construction; there is no package-level
// mutable registry.
type Registry struct {
	mu           sync.RWMutex
	predictors   map[string]PredictorFactory
	transformers map[string]TransformerFactory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		predictors:   make(map[string]PredictorFactory),
		transformers: make(map[string]TransformerFactory),
	}
}

// Default returns a registry with all built-in predictor and transformer
// variants registered.
func Default() *Registry {
	r := NewRegistry()

	// Registration of builtins cannot fail: tags are distinct constants.
	_ = r.RegisterPredictor(TypeLinearRegression, func(params json.RawMessage) (Predictor, error) {
		var p LinearRegressor
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		return &p, nil
	})
	_ = r.RegisterPredictor(TypeLogistic, func(params json.RawMessage) (Predictor, error) {
		var p LogisticClassifier
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		return &p, nil
	})
	_ = r.RegisterPredictor(TypeNearestCentroid, func(params json.RawMessage) (Predictor, error) {
		var p NearestCentroidClassifier
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		return &p, nil
	})

	_ = r.RegisterTransformer(TypeIdentity, func(json.RawMessage) (Transformer, error) {
		return &Identity{}, nil
	})
	_ = r.RegisterTransformer(TypeStandardScaler, func(params json.RawMessage) (Transformer, error) {
		var t StandardScaler
		if err := json.Unmarshal(params, &t); err != nil {
			return nil, err
		}
		return &t, nil
	})
	_ = r.RegisterTransformer(TypeMinMaxScaler, func(params json.RawMessage) (Transformer, error) {
		var t MinMaxScaler
		if err := json.Unmarshal(params, &t); err != nil {
			return nil, err
		}
		return &t, nil
	})

	return r
}

// RegisterPredictor adds a predictor factory for a type tag.
// Registering a tag twice is an error.
func (r *Registry) RegisterPredictor(tag string, factory PredictorFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.predictors[tag]; exists {
		return fmt.Errorf("predictor type %q already registered", tag)
	}
	r.predictors[tag] = factory
	return nil
}

// RegisterTransformer adds a transformer factory for a type tag.
// Registering a tag twice is an error.
func (r *Registry) RegisterTransformer(tag string, factory TransformerFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.transformers[tag]; exists {
		return fmt.Errorf("transformer type %q already registered", tag)
	}
	r.transformers[tag] = factory
	return nil
}

// EncodePredictor serializes a predictor into its artifact envelope.
func EncodePredictor(p Predictor) ([]byte, error) {
	params, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode predictor %q: %w", p.TypeTag(), err)
	}
	return json.Marshal(envelope{Type: p.TypeTag(), Params: params})
}

// DecodePredictor deserializes a predictor artifact, resolving its type tag
// against the registry.
func (r *Registry) DecodePredictor(data []byte) (Predictor, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode predictor envelope: %w", err)
	}

	r.mu.RLock()
	factory, ok := r.predictors[env.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("predictor type %q: %w", env.Type, ErrUnknownType)
	}

	p, err := factory(env.Params)
	if err != nil {
		return nil, fmt.Errorf("decode predictor %q: %w", env.Type, err)
	}
	return p, nil
}

// EncodeTransformers serializes an ordered transformer chain into a single
// artifact. Order is preserved: it is the preprocessing contract.
func EncodeTransformers(chain []Transformer) ([]byte, error) {
	envs := make([]envelope, 0, len(chain))
	for _, t := range chain {
		params, err := json.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("encode transformer %q: %w", t.TypeTag(), err)
		}
		envs = append(envs, envelope{Type: t.TypeTag(), Params: params})
	}
	return json.Marshal(envs)
}

// DecodeTransformers deserializes an ordered transformer chain.
func (r *Registry) DecodeTransformers(data []byte) ([]Transformer, error) {
	var envs []envelope
	if err := json.Unmarshal(data, &envs); err != nil {
		return nil, fmt.Errorf("decode transformer chain: %w", err)
	}

	chain := make([]Transformer, 0, len(envs))
	for _, env := range envs {
		r.mu.RLock()
		factory, ok := r.transformers[env.Type]
		r.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("transformer type %q: %w", env.Type, ErrUnknownType)
		}

		t, err := factory(env.Params)
		if err != nil {
			return nil, fmt.Errorf("decode transformer %q: %w", env.Type, err)
		}
		chain = append(chain, t)
	}
	return chain, nil
}
