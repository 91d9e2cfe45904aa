// Modelyard - Predictive Model Serving and Lifecycle Management
// Copyright 2026 Modelyard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modelyard/modelyard

/*
Package pipeline executes predictions: validate -> preprocess -> infer ->
postprocess -> record stats.

The pipeline obtains one cache entry reference per prediction (or per batch)
and uses it throughout, even if a concurrent update swaps the cache behind
it; the swapped-out entry stays valid for in-flight work. No lock is held
during inference.

Each model's predictor is called through its own circuit breaker: a
predictor failing repeatedly trips the breaker and predictions against that
model fail fast with an InferenceError until the cool-down elapses. Models
do not share breakers, so one broken model never throttles the others.
*/
package pipeline

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/modelyard/modelyard/internal/cache"
	"github.com/modelyard/modelyard/internal/lifecycle"
	"github.com/modelyard/modelyard/internal/logging"
	"github.com/modelyard/modelyard/internal/metrics"
	"github.com/modelyard/modelyard/internal/models"
	"github.com/modelyard/modelyard/internal/predictor"
)

// Options tunes the pipeline's inference circuit breakers.
type Options struct {
	// BreakerThreshold is the consecutive-failure count that trips a
	// model's breaker. Default: 5.
	BreakerThreshold uint32

	// BreakerCooldown is how long a tripped breaker stays open.
	// Default: 30s.
	BreakerCooldown time.Duration
}

// Pipeline executes single and batch predictions against cached models.
type Pipeline struct {
	manager *lifecycle.Manager
	opts    Options

	breakerMu sync.Mutex
	breakers  map[string]*gobreaker.CircuitBreaker[float64]

	// now is the clock, replaceable in tests.
	now func() time.Time
}

// New creates a prediction pipeline on top of the lifecycle manager.
func New(manager *lifecycle.Manager, opts Options) *Pipeline {
	if opts.BreakerThreshold == 0 {
		opts.BreakerThreshold = 5
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = 30 * time.Second
	}
	return &Pipeline{
		manager:  manager,
		opts:     opts,
		breakers: make(map[string]*gobreaker.CircuitBreaker[float64]),
		now:      time.Now,
	}
}

// Predict runs one prediction. Validation, preprocessing and inference
// failures are returned to the caller and recorded in the model's stats as
// errors; only a successful prediction advances the prediction total.
func (p *Pipeline) Predict(modelID string, features models.Features, wantProbabilities bool) (*models.PredictionResult, error) {
	start := p.now()

	entry, err := p.manager.GetEntry(modelID)
	if err != nil {
		metrics.RecordPrediction(modelID, "not_found", p.now().Sub(start))
		return nil, err
	}

	return p.predictWithEntry(modelID, entry, features, wantProbabilities, start)
}

// predictWithEntry runs the pipeline stages against an already-resolved
// cache entry. Batch prediction reuses it so the cache is consulted once
// per batch, not once per item.
func (p *Pipeline) predictWithEntry(modelID string, entry *cache.Entry, features models.Features, wantProbabilities bool, start time.Time) (*models.PredictionResult, error) {
	vector, err := p.buildVector(modelID, entry.Metadata, features)
	if err != nil {
		p.recordFailure(modelID, "validation", start)
		return nil, err
	}

	for _, t := range entry.Transformers {
		vector, err = t.Transform(vector)
		if err != nil {
			p.recordFailure(modelID, "preprocessing", start)
			return nil, &models.PreprocessingError{ModelID: modelID, Transformer: t.TypeTag(), Err: err}
		}
	}

	value, err := p.infer(modelID, entry.Predictor, vector)
	if err != nil {
		p.recordFailure(modelID, "inference", start)
		return nil, &models.InferenceError{ModelID: modelID, Err: err}
	}

	result := &models.PredictionResult{
		ModelID:    modelID,
		Prediction: value,
		Timestamp:  p.now(),
	}

	// Confidence is the maximum class probability when the predictor can
	// report probabilities; otherwise it is omitted.
	if entry.Metadata.ProblemType == models.ProblemClassification {
		if pp, ok := entry.Predictor.(predictor.ProbabilityPredictor); ok {
			probs, perr := pp.PredictProbabilities(vector)
			if perr != nil {
				p.recordFailure(modelID, "inference", start)
				return nil, &models.InferenceError{ModelID: modelID, Err: perr}
			}
			confidence := maxProbability(probs)
			result.Confidence = &confidence
			if wantProbabilities {
				result.Probabilities = probs
			}
		}
	}

	latency := p.now().Sub(start)
	result.Latency = latency
	result.LatencyMS = float64(latency.Microseconds()) / 1000.0

	p.manager.Tracker().RecordSuccess(modelID, latency)
	metrics.RecordPrediction(modelID, "success", latency)
	return result, nil
}

// buildVector validates the input record against the model's feature schema
// and assembles the vector in feature_names order. Missing required
// features fail validation; unknown extra keys are logged and ignored.
func (p *Pipeline) buildVector(modelID string, meta *models.ModelMetadata, features models.Features) ([]float64, error) {
	var missing []string
	vector := make([]float64, 0, len(meta.FeatureNames))

	for _, name := range meta.FeatureNames {
		value, ok := features[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		vector = append(vector, value)
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &models.ValidationError{ModelID: modelID, Missing: missing}
	}

	if len(features) > len(meta.FeatureNames) {
		extras := extraKeys(meta.FeatureNames, features)
		logging.Debug().
			Str("model_id", modelID).
			Strs("extra_features", extras).
			Msg("ignoring unknown features")
	}
	return vector, nil
}

// infer calls the predictor through the model's circuit breaker.
func (p *Pipeline) infer(modelID string, pred predictor.Predictor, vector []float64) (float64, error) {
	cb := p.breaker(modelID)
	value, err := cb.Execute(func() (float64, error) {
		return pred.Predict(vector)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			logging.Warn().Str("model_id", modelID).Msg("inference breaker open")
		}
		return 0, err
	}
	return value, nil
}

func (p *Pipeline) breaker(modelID string) *gobreaker.CircuitBreaker[float64] {
	p.breakerMu.Lock()
	defer p.breakerMu.Unlock()

	if cb, ok := p.breakers[modelID]; ok {
		return cb
	}

	threshold := p.opts.BreakerThreshold
	cb := gobreaker.NewCircuitBreaker[float64](gobreaker.Settings{
		Name:    "infer-" + modelID,
		Timeout: p.opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("inference breaker state change")
		},
	})
	p.breakers[modelID] = cb
	return cb
}

func (p *Pipeline) recordFailure(modelID, outcome string, start time.Time) {
	latency := p.now().Sub(start)
	p.manager.Tracker().RecordError(modelID, latency)
	metrics.RecordPrediction(modelID, outcome, latency)
}

func maxProbability(probs []float64) float64 {
	var max float64
	for _, p := range probs {
		if p > max {
			max = p
		}
	}
	return max
}

func extraKeys(known []string, features models.Features) []string {
	set := make(map[string]struct{}, len(known))
	for _, name := range known {
		set[name] = struct{}{}
	}

	var extras []string
	for name := range features {
		if _, ok := set[name]; !ok {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)
	return extras
}
