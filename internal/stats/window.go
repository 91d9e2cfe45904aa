// Modelyard - Predictive Model Serving and Lifecycle Management
// Copyright 2026 Modelyard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modelyard/modelyard

package stats

import (
	"sync"
	"time"
)

// DefaultWindowSize bounds the rolling outcome window.
const DefaultWindowSize = 1000

// event is one prediction outcome in the rolling window.
type event struct {
	ModelID   string    `json:"model_id"`
	Success   bool      `json:"success"`
	LatencyMS float64   `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
}

// window is a fixed-capacity ring of recent prediction outcomes. Old events
// are overwritten once the ring is full, keeping memory bounded regardless
// of traffic.
type window struct {
	mu   sync.Mutex
	ring []event
	next int
	full bool
}

func newWindow(capacity int) *window {
	if capacity <= 0 {
		capacity = DefaultWindowSize
	}
	return &window{ring: make([]event, capacity)}
}

func (w *window) add(e event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.ring[w.next] = e
	w.next++
	if w.next == len(w.ring) {
		w.next = 0
		w.full = true
	}
}

// WindowSummary aggregates the rolling window for the dashboard.
type WindowSummary struct {
	Capacity     int     `json:"capacity"`
	Count        int     `json:"count"`
	Successes    int     `json:"successes"`
	Failures     int     `json:"failures"`
	AvgLatencyMS float64 `json:"avg_latency_ms"`
}

func (w *window) summary() WindowSummary {
	w.mu.Lock()
	defer w.mu.Unlock()

	count := w.next
	if w.full {
		count = len(w.ring)
	}

	s := WindowSummary{Capacity: len(w.ring), Count: count}
	var totalLatency float64
	for i := 0; i < count; i++ {
		e := w.ring[i]
		if e.Success {
			s.Successes++
		} else {
			s.Failures++
		}
		totalLatency += e.LatencyMS
	}
	if count > 0 {
		s.AvgLatencyMS = totalLatency / float64(count)
	}
	return s
}
