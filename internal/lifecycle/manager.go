// Modelyard - Predictive Model Serving and Lifecycle Management
// Copyright 2026 Modelyard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modelyard/modelyard

/*
Package lifecycle manages deployed models: deploy, update, remove and
restore, plus cold-loading models into the cache for the prediction
pipeline.

State machine per model id:

	absent -> deployed -> (updated)* -> removed

Deploy over a deployed id fails with DuplicateModelError; update and remove
on an absent id fail with NotFoundError. Every update, and every remove that
requests one, is preceded by a durable backup snapshot; a failed snapshot
blocks the mutation.

Persistence ordering on deploy is artifacts first, metadata last, so a crash
mid-deploy never leaves valid metadata pointing at a missing model. On
startup the manager scans the store and loads every metadata record eagerly;
predictor and transformer artifacts stay on disk until the first cache miss
touches them (lazy hydration).
*/
package lifecycle

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/modelyard/modelyard/internal/backup"
	"github.com/modelyard/modelyard/internal/cache"
	"github.com/modelyard/modelyard/internal/logging"
	"github.com/modelyard/modelyard/internal/metrics"
	"github.com/modelyard/modelyard/internal/models"
	"github.com/modelyard/modelyard/internal/predictor"
	"github.com/modelyard/modelyard/internal/stats"
	"github.com/modelyard/modelyard/internal/store"
)

// Manager owns the model lifecycle. All collaborators are injected at
// construction; there are no package-level capability flags.
type Manager struct {
	store    store.Store
	cache    *cache.ModelCache
	backups  *backup.Manager
	registry *predictor.Registry
	tracker  *stats.Tracker

	// mu guards the known-model set. It is never held across store I/O for
	// reads; mutations reserve their id, release the lock, then do I/O.
	mu    sync.RWMutex
	known map[string]struct{}

	// loadMu serializes cold loads so concurrent misses on the same model
	// do not duplicate disk reads and decode work.
	loadMu sync.Mutex

	// opMu serializes mutating lifecycle operations (deploy, update, remove,
	// restore) including their store I/O. Predictions never take it.
	opMu sync.Mutex

	// now is the clock, replaceable in tests.
	now func() time.Time
}

// New creates a lifecycle manager and scans the store for previously
// deployed models. Metadata records found are registered immediately so
// predictions can demand-load them.
func New(st store.Store, mc *cache.ModelCache, bm *backup.Manager, reg *predictor.Registry, tr *stats.Tracker) (*Manager, error) {
	m := &Manager{
		store:    st,
		cache:    mc,
		backups:  bm,
		registry: reg,
		tracker:  tr,
		known:    make(map[string]struct{}),
		now:      time.Now,
	}

	if err := m.scan(); err != nil {
		return nil, fmt.Errorf("scan model store: %w", err)
	}
	return m, nil
}

// scan registers every persisted model by its metadata record.
func (m *Manager) scan() error {
	keys, err := m.store.List("")
	if err != nil {
		return err
	}

	for _, key := range keys {
		modelID, ok := store.IsMetadataKey(key)
		if !ok {
			continue
		}

		meta, err := m.readMetadata(modelID)
		if err != nil {
			logging.Warn().Err(err).Str("model_id", modelID).Msg("skipping unreadable metadata record")
			continue
		}

		m.known[modelID] = struct{}{}
		m.tracker.Register(modelID, meta.CreatedAt)
		logging.Info().
			Str("model_id", modelID).
			Str("model_type", meta.ModelType).
			Msg("registered persisted model")
	}

	metrics.DeployedModels.Set(float64(len(m.known)))
	return nil
}

// Known reports whether a model id is currently deployed.
func (m *Manager) Known(modelID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.known[modelID]
	return ok
}

// ModelIDs returns the ids of all deployed models.
func (m *Manager) ModelIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.known))
	for id := range m.known {
		ids = append(ids, id)
	}
	return ids
}

// GetEntry returns the resident cache entry for a model, cold-loading it
// from the store on a miss. This load is the only place a prediction may
// block on disk I/O.
func (m *Manager) GetEntry(modelID string) (*cache.Entry, error) {
	if entry, ok := m.cache.Get(modelID); ok {
		return entry, nil
	}

	if !m.Known(modelID) {
		return nil, &models.NotFoundError{ModelID: modelID}
	}

	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	// Another caller may have completed the load while we waited.
	if entry, ok := m.cache.Get(modelID); ok {
		return entry, nil
	}

	entry, err := m.loadEntry(modelID)
	if err != nil {
		return nil, err
	}
	m.cache.Put(modelID, entry)

	logging.Debug().Str("model_id", modelID).Msg("model cold-loaded into cache")
	return entry, nil
}

// loadEntry reads and decodes all three artifacts of a model.
func (m *Manager) loadEntry(modelID string) (*cache.Entry, error) {
	meta, err := m.readMetadata(modelID)
	if err != nil {
		return nil, err
	}

	modelData, err := m.store.Get(store.ModelKey(modelID))
	if err != nil {
		return nil, &models.StoreIOError{Op: "get", Key: store.ModelKey(modelID), Err: err}
	}
	pred, err := m.registry.DecodePredictor(modelData)
	if err != nil {
		return nil, fmt.Errorf("model %q: %w", modelID, err)
	}

	transformerData, err := m.store.Get(store.TransformersKey(modelID))
	if err != nil {
		return nil, &models.StoreIOError{Op: "get", Key: store.TransformersKey(modelID), Err: err}
	}
	chain, err := m.registry.DecodeTransformers(transformerData)
	if err != nil {
		return nil, fmt.Errorf("model %q: %w", modelID, err)
	}

	return &cache.Entry{Predictor: pred, Transformers: chain, Metadata: meta}, nil
}

func (m *Manager) readMetadata(modelID string) (*models.ModelMetadata, error) {
	data, err := m.store.Get(store.MetadataKey(modelID))
	if err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			return nil, &models.NotFoundError{ModelID: modelID}
		}
		return nil, &models.StoreIOError{Op: "get", Key: store.MetadataKey(modelID), Err: err}
	}

	var meta models.ModelMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, &models.StoreIOError{Op: "decode", Key: store.MetadataKey(modelID), Err: err}
	}
	return &meta, nil
}

func (m *Manager) writeMetadata(meta *models.ModelMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return &models.StoreIOError{Op: "encode", Key: store.MetadataKey(meta.ModelID), Err: err}
	}
	if err := m.store.Put(store.MetadataKey(meta.ModelID), data); err != nil {
		return &models.StoreIOError{Op: "put", Key: store.MetadataKey(meta.ModelID), Err: err}
	}
	return nil
}

// Cache returns the model cache, for dashboard assembly and the janitor.
func (m *Manager) Cache() *cache.ModelCache { return m.cache }

// Tracker returns the stats tracker.
func (m *Manager) Tracker() *stats.Tracker { return m.tracker }

// Backups returns the backup manager.
func (m *Manager) Backups() *backup.Manager { return m.backups }
