// Modelyard - Predictive Model Serving and Lifecycle Management
// Copyright 2026 Modelyard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modelyard/modelyard

// Package metrics exposes Prometheus instrumentation for the serving core:
// prediction latency and outcomes, cache efficiency, lifecycle operations,
// and API traffic. Collectors register on the default registry via promauto
// and are served on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Prediction Pipeline Metrics
	PredictionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "modelyard_prediction_duration_seconds",
			Help:    "Duration of single predictions in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"model_id"},
	)

	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelyard_predictions_total",
			Help: "Total number of prediction attempts",
		},
		[]string{"model_id", "outcome"}, // "success", "validation", "preprocessing", "inference", "not_found"
	)

	BatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "modelyard_batch_size",
			Help:    "Number of items per batch prediction",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	// Model Cache Metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "modelyard_cache_hits_total",
			Help: "Total number of model cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "modelyard_cache_misses_total",
			Help: "Total number of model cache misses",
		},
	)

	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "modelyard_cache_evictions_total",
			Help: "Total number of LRU evictions from the model cache",
		},
	)

	CacheResidentModels = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "modelyard_cache_resident_models",
			Help: "Current number of models resident in the cache",
		},
	)

	// Lifecycle Metrics
	LifecycleOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelyard_lifecycle_operations_total",
			Help: "Total number of lifecycle operations",
		},
		[]string{"operation", "outcome"}, // operation: "deploy", "update", "remove", "restore"
	)

	DeployedModels = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "modelyard_deployed_models",
			Help: "Current number of deployed models",
		},
	)

	BackupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelyard_backups_total",
			Help: "Total number of backup snapshots taken",
		},
		[]string{"outcome"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelyard_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "modelyard_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)
)

// RecordPrediction records one prediction attempt.
func RecordPrediction(modelID, outcome string, duration time.Duration) {
	PredictionsTotal.WithLabelValues(modelID, outcome).Inc()
	PredictionDuration.WithLabelValues(modelID).Observe(duration.Seconds())
}

// RecordLifecycle records one lifecycle operation outcome.
func RecordLifecycle(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	LifecycleOperations.WithLabelValues(operation, outcome).Inc()
}

// RecordAPIRequest records one HTTP request.
func RecordAPIRequest(method, endpoint string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
