// Modelyard - Predictive Model Serving and Lifecycle Management
// Copyright 2026 Modelyard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modelyard/modelyard

// batch.go - Batch prediction with per-item failure isolation.
package pipeline

import (
	"github.com/modelyard/modelyard/internal/metrics"
	"github.com/modelyard/modelyard/internal/models"
)

// BatchPredict runs predictions over an ordered sequence of feature records.
// Items are processed independently: one item's failure is recorded at its
// index and the loop continues. The cache is consulted once for the whole
// batch; an unknown model fails the batch as a whole.
//
// Inference is looped per item rather than vectorized, because the Predictor
// capability does not guarantee batched calls. This is a throughput choice,
// not a correctness one.
func (p *Pipeline) BatchPredict(modelID string, items []models.Features, wantProbabilities bool) (*models.BatchResult, error) {
	batchStart := p.now()

	entry, err := p.manager.GetEntry(modelID)
	if err != nil {
		return nil, err
	}

	metrics.BatchSize.Observe(float64(len(items)))

	result := &models.BatchResult{
		ModelID: modelID,
		Items:   make([]models.BatchItem, 0, len(items)),
	}

	for i, features := range items {
		itemStart := p.now()
		prediction, perr := p.predictWithEntry(modelID, entry, features, wantProbabilities, itemStart)

		item := models.BatchItem{Index: i}
		if perr != nil {
			item.Err = perr
			item.Error = perr.Error()
			result.Failed++
		} else {
			item.Result = prediction
			result.Successful++
			result.TotalLatencyMS += prediction.LatencyMS
		}
		result.Items = append(result.Items, item)
	}

	if result.Successful > 0 {
		result.AvgLatencyMS = result.TotalLatencyMS / float64(result.Successful)
	}
	result.Timestamp = batchStart
	return result, nil
}
