// Modelyard - Predictive Model Serving and Lifecycle Management
// Copyright 2026 Modelyard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modelyard/modelyard

// ops.go - Mutating lifecycle operations: deploy, update, remove, restore.
package lifecycle

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/modelyard/modelyard/internal/cache"
	"github.com/modelyard/modelyard/internal/logging"
	"github.com/modelyard/modelyard/internal/metrics"
	"github.com/modelyard/modelyard/internal/models"
	"github.com/modelyard/modelyard/internal/predictor"
	"github.com/modelyard/modelyard/internal/store"
)

// Deploy persists a new model and makes it resident. The write order is
// predictor artifact, transformer chain, metadata last; partial writes are
// cleaned up on failure so a failed deploy leaves neither store nor cache
// state behind.
func (m *Manager) Deploy(modelID string, pred predictor.Predictor, chain []predictor.Transformer, meta *models.ModelMetadata) (result *models.ModelMetadata, err error) {
	defer func() { metrics.RecordLifecycle("deploy", err) }()

	if err = validateDeploy(modelID, pred, meta); err != nil {
		return nil, err
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	// Reserve the id so a racing deploy fails fast with the duplicate error
	// instead of interleaving writes.
	m.mu.Lock()
	if _, exists := m.known[modelID]; exists {
		m.mu.Unlock()
		return nil, &models.DuplicateModelError{ModelID: modelID}
	}
	m.known[modelID] = struct{}{}
	m.mu.Unlock()

	unreserve := func() {
		m.mu.Lock()
		delete(m.known, modelID)
		m.mu.Unlock()
	}

	stored := meta.Clone()
	stored.ModelID = modelID
	stored.UsageCount = 0
	stored.LastUsed = nil
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = m.now()
	}

	if err = m.writeArtifacts(modelID, pred, chain, stored); err != nil {
		m.cleanupArtifacts(modelID)
		unreserve()
		return nil, err
	}

	m.tracker.Register(modelID, stored.CreatedAt)
	m.cache.Put(modelID, &cache.Entry{Predictor: pred, Transformers: chain, Metadata: stored})

	m.mu.RLock()
	metrics.DeployedModels.Set(float64(len(m.known)))
	m.mu.RUnlock()

	logging.Info().
		Str("model_id", modelID).
		Str("model_type", stored.ModelType).
		Str("problem_type", string(stored.ProblemType)).
		Int("features", len(stored.FeatureNames)).
		Msg("model deployed")
	return stored.Clone(), nil
}

// UpdateRequest carries the optional pieces of an update. Nil fields keep
// the current value.
type UpdateRequest struct {
	Predictor    predictor.Predictor
	Transformers []predictor.Transformer
	Metrics      map[string]float64
}

// Update replaces parts of a deployed model. A snapshot of the current
// artifacts is taken first and the update does not proceed without it. On a
// store failure after the snapshot, the cache keeps the pre-update entry and
// the prior version remains loadable from the backup; the error is surfaced
// as recoverable, not fatal.
func (m *Manager) Update(modelID string, req UpdateRequest) (err error) {
	defer func() { metrics.RecordLifecycle("update", err) }()

	m.opMu.Lock()
	defer m.opMu.Unlock()

	if !m.Known(modelID) {
		return &models.NotFoundError{ModelID: modelID}
	}

	if _, err = m.backups.Snapshot(modelID); err != nil {
		return err
	}

	current, err := m.GetEntry(modelID)
	if err != nil {
		return err
	}

	pred := current.Predictor
	if req.Predictor != nil {
		pred = req.Predictor
	}
	chain := current.Transformers
	if req.Transformers != nil {
		chain = req.Transformers
	}

	meta := current.Metadata.Clone()
	if req.Metrics != nil {
		meta.PerformanceMetrics = req.Metrics
	}

	if err = m.writeArtifacts(modelID, pred, chain, meta); err != nil {
		return err
	}

	// Atomic swap: in-flight predictions keep the entry reference they
	// already obtained; new Gets observe the replacement.
	m.cache.Put(modelID, &cache.Entry{Predictor: pred, Transformers: chain, Metadata: meta})

	logging.Info().
		Str("model_id", modelID).
		Bool("new_predictor", req.Predictor != nil).
		Bool("new_transformers", req.Transformers != nil).
		Msg("model updated")
	return nil
}

// Remove deletes a model from store, cache and stats. With createBackup a
// snapshot is taken first and its failure aborts the removal. Metadata is
// deleted before the other artifacts, the inverse of the deploy order, so an
// interrupted removal never leaves valid metadata pointing at deleted
// artifacts.
func (m *Manager) Remove(modelID string, createBackup bool) (info *models.RemovalInfo, err error) {
	defer func() { metrics.RecordLifecycle("remove", err) }()

	m.opMu.Lock()
	defer m.opMu.Unlock()

	if !m.Known(modelID) {
		return nil, &models.NotFoundError{ModelID: modelID}
	}

	info = &models.RemovalInfo{ModelID: modelID}
	if createBackup {
		snap, serr := m.backups.Snapshot(modelID)
		if serr != nil {
			return nil, serr
		}
		info.BackupCreated = true
		info.BackupID = snap.Timestamp
	}

	for _, key := range []string{
		store.MetadataKey(modelID),
		store.ModelKey(modelID),
		store.TransformersKey(modelID),
	} {
		if derr := m.store.Delete(key); derr != nil && !errors.Is(derr, store.ErrKeyNotFound) {
			err = &models.StoreIOError{Op: "delete", Key: key, Err: derr}
			return nil, err
		}
	}

	m.cache.Remove(modelID)
	m.tracker.Remove(modelID)

	m.mu.Lock()
	delete(m.known, modelID)
	metrics.DeployedModels.Set(float64(len(m.known)))
	m.mu.Unlock()

	info.RemovedAt = m.now()
	logging.Info().
		Str("model_id", modelID).
		Bool("backup_created", info.BackupCreated).
		Msg("model removed")
	return info, nil
}

// RestoreFromBackup re-hydrates a model from a named snapshot: live
// artifacts are rewritten, the model is registered and made resident, and
// its stats record is recreated. Restoring over a currently deployed model
// is a rollback to the snapshot.
func (m *Manager) RestoreFromBackup(modelID, timestamp string) (result *models.ModelMetadata, err error) {
	defer func() { metrics.RecordLifecycle("restore", err) }()

	m.opMu.Lock()
	defer m.opMu.Unlock()

	artifacts, err := m.backups.Load(modelID, timestamp)
	if err != nil {
		return nil, err
	}

	var meta models.ModelMetadata
	if jerr := json.Unmarshal(artifacts.Metadata, &meta); jerr != nil {
		err = &models.BackupFailedError{ModelID: modelID, Err: fmt.Errorf("decode snapshot metadata: %w", jerr)}
		return nil, err
	}
	meta.ModelID = modelID

	pred, err := m.registry.DecodePredictor(artifacts.Model)
	if err != nil {
		return nil, &models.BackupFailedError{ModelID: modelID, Err: err}
	}
	chain, err := m.registry.DecodeTransformers(artifacts.Transformers)
	if err != nil {
		return nil, &models.BackupFailedError{ModelID: modelID, Err: err}
	}

	if err = m.writeArtifacts(modelID, pred, chain, &meta); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.known[modelID] = struct{}{}
	metrics.DeployedModels.Set(float64(len(m.known)))
	m.mu.Unlock()

	m.tracker.Register(modelID, meta.CreatedAt)
	m.cache.Put(modelID, &cache.Entry{Predictor: pred, Transformers: chain, Metadata: &meta})

	logging.Info().
		Str("model_id", modelID).
		Str("timestamp", timestamp).
		Msg("model restored from backup")
	return meta.Clone(), nil
}

// writeArtifacts persists all three artifacts, metadata last.
func (m *Manager) writeArtifacts(modelID string, pred predictor.Predictor, chain []predictor.Transformer, meta *models.ModelMetadata) error {
	modelData, err := predictor.EncodePredictor(pred)
	if err != nil {
		return &models.StoreIOError{Op: "encode", Key: store.ModelKey(modelID), Err: err}
	}
	transformerData, err := predictor.EncodeTransformers(chain)
	if err != nil {
		return &models.StoreIOError{Op: "encode", Key: store.TransformersKey(modelID), Err: err}
	}

	if err := m.store.Put(store.ModelKey(modelID), modelData); err != nil {
		return &models.StoreIOError{Op: "put", Key: store.ModelKey(modelID), Err: err}
	}
	if err := m.store.Put(store.TransformersKey(modelID), transformerData); err != nil {
		return &models.StoreIOError{Op: "put", Key: store.TransformersKey(modelID), Err: err}
	}
	return m.writeMetadata(meta)
}

// cleanupArtifacts removes whatever a failed deploy managed to write.
func (m *Manager) cleanupArtifacts(modelID string) {
	for _, key := range []string{
		store.MetadataKey(modelID),
		store.ModelKey(modelID),
		store.TransformersKey(modelID),
	} {
		if err := m.store.Delete(key); err != nil && !errors.Is(err, store.ErrKeyNotFound) {
			logging.Warn().Err(err).Str("key", key).Msg("could not clean up partial deploy")
		}
	}
}

func validateDeploy(modelID string, pred predictor.Predictor, meta *models.ModelMetadata) error {
	switch {
	case modelID == "":
		return fmt.Errorf("model id is required")
	case pred == nil:
		return fmt.Errorf("predictor is required")
	case meta == nil:
		return fmt.Errorf("metadata is required")
	case !meta.ProblemType.Valid():
		return fmt.Errorf("unknown problem type %q", meta.ProblemType)
	case len(meta.FeatureNames) == 0:
		return fmt.Errorf("feature names are required")
	}
	return nil
}
