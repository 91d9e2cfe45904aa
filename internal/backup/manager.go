// Modelyard - Predictive Model Serving and Lifecycle Management
// Copyright 2026 Modelyard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modelyard/modelyard

// Package backup creates and restores immutable snapshots of model
// artifacts.
//
// A snapshot is a timestamped copy of a model's three live artifacts
// (predictor, metadata, transformer chain) under the store's backup area.
// Snapshots are write-once: nothing in this package mutates an existing
// snapshot. Snapshot failure propagates loudly, because the lifecycle
// manager must not apply a mutation whose prior-state snapshot did not
// complete.
package backup

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/modelyard/modelyard/internal/logging"
	"github.com/modelyard/modelyard/internal/metrics"
	"github.com/modelyard/modelyard/internal/models"
	"github.com/modelyard/modelyard/internal/store"
)

// TimestampFormat names snapshots. It is filesystem-safe and sorts
// lexicographically in creation order, which retention relies on.
const TimestampFormat = "20060102T150405.000000000"

// Snapshot describes one completed backup.
type Snapshot struct {
	ID        string    `json:"id"`
	ModelID   string    `json:"model_id"`
	Timestamp string    `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
	Keys      []string  `json:"keys"`
}

// Artifacts is the byte content of one snapshot, as read back for restore.
type Artifacts struct {
	Model        []byte
	Metadata     []byte
	Transformers []byte
}

// Manager snapshots and restores model artifacts through the Store.
type Manager struct {
	store store.Store

	// retain is the per-model snapshot count kept by retention; 0 keeps all.
	retain int

	// now is the clock, replaceable in tests.
	now func() time.Time
}

// NewManager creates a backup manager. retain bounds the snapshots kept per
// model (oldest pruned first); retain <= 0 keeps all.
func NewManager(st store.Store, retain int) *Manager {
	return &Manager{store: st, retain: retain, now: time.Now}
}

// Snapshot copies a model's current artifacts into the backup area and
// returns the snapshot descriptor. It fails if any source artifact is
// missing or unreadable; a partial snapshot is removed before returning.
func (m *Manager) Snapshot(modelID string) (*Snapshot, error) {
	ts := m.now().UTC()
	timestamp := ts.Format(TimestampFormat)

	type artifact struct {
		src, dst string
	}
	artifacts := []artifact{
		{store.ModelKey(modelID), store.BackupModelKey(modelID, timestamp)},
		{store.MetadataKey(modelID), store.BackupMetadataKey(modelID, timestamp)},
		{store.TransformersKey(modelID), store.BackupTransformersKey(modelID, timestamp)},
	}

	snap := &Snapshot{
		ID:        uuid.NewString(),
		ModelID:   modelID,
		Timestamp: timestamp,
		CreatedAt: ts,
	}

	for _, a := range artifacts {
		data, err := m.store.Get(a.src)
		if err != nil {
			m.discard(snap.Keys)
			metrics.BackupsTotal.WithLabelValues("error").Inc()
			return nil, &models.BackupFailedError{ModelID: modelID, Err: fmt.Errorf("read %q: %w", a.src, err)}
		}
		if err := m.store.Put(a.dst, data); err != nil {
			m.discard(snap.Keys)
			metrics.BackupsTotal.WithLabelValues("error").Inc()
			return nil, &models.BackupFailedError{ModelID: modelID, Err: fmt.Errorf("write %q: %w", a.dst, err)}
		}
		snap.Keys = append(snap.Keys, a.dst)
	}

	metrics.BackupsTotal.WithLabelValues("success").Inc()
	logging.Info().
		Str("model_id", modelID).
		Str("timestamp", timestamp).
		Msg("backup snapshot created")

	if m.retain > 0 {
		m.applyRetention(modelID)
	}
	return snap, nil
}

// discard removes partially written snapshot keys, best effort.
func (m *Manager) discard(keys []string) {
	for _, k := range keys {
		if err := m.store.Delete(k); err != nil && !errors.Is(err, store.ErrKeyNotFound) {
			logging.Warn().Err(err).Str("key", k).Msg("could not discard partial snapshot artifact")
		}
	}
}

// List returns the snapshot timestamps for a model, newest first.
func (m *Manager) List(modelID string) ([]string, error) {
	keys, err := m.store.List(store.BackupPrefix + modelID + "/")
	if err != nil {
		return nil, &models.StoreIOError{Op: "list", Key: store.BackupPrefix + modelID, Err: err}
	}

	seen := make(map[string]struct{})
	prefix := modelID + "_"
	for _, key := range keys {
		name := key[strings.LastIndex(key, "/")+1:]
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		rest := strings.TrimPrefix(name, prefix)
		if i := strings.Index(rest, "."); i > 0 {
			// The timestamp itself contains one dot (fractional seconds);
			// the artifact suffix starts at the second dot.
			if j := strings.Index(rest[i+1:], "."); j >= 0 {
				seen[rest[:i+1+j]] = struct{}{}
			}
		}
	}

	timestamps := make([]string, 0, len(seen))
	for ts := range seen {
		timestamps = append(timestamps, ts)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(timestamps)))
	return timestamps, nil
}

// Load reads back the artifacts of a named snapshot.
func (m *Manager) Load(modelID, timestamp string) (*Artifacts, error) {
	var a Artifacts
	reads := []struct {
		key string
		dst *[]byte
	}{
		{store.BackupModelKey(modelID, timestamp), &a.Model},
		{store.BackupMetadataKey(modelID, timestamp), &a.Metadata},
		{store.BackupTransformersKey(modelID, timestamp), &a.Transformers},
	}

	for _, r := range reads {
		data, err := m.store.Get(r.key)
		if err != nil {
			return nil, &models.BackupFailedError{ModelID: modelID, Err: fmt.Errorf("read snapshot %q: %w", r.key, err)}
		}
		*r.dst = data
	}
	return &a, nil
}

// applyRetention prunes the oldest snapshots beyond the retention count.
// Pruning is best effort: a failed delete is logged, never surfaced to the
// snapshot caller.
func (m *Manager) applyRetention(modelID string) {
	timestamps, err := m.List(modelID)
	if err != nil {
		logging.Warn().Err(err).Str("model_id", modelID).Msg("retention listing failed")
		return
	}
	if len(timestamps) <= m.retain {
		return
	}

	for _, ts := range timestamps[m.retain:] {
		for _, key := range []string{
			store.BackupModelKey(modelID, ts),
			store.BackupMetadataKey(modelID, ts),
			store.BackupTransformersKey(modelID, ts),
		} {
			if err := m.store.Delete(key); err != nil && !errors.Is(err, store.ErrKeyNotFound) {
				logging.Warn().Err(err).Str("key", key).Msg("retention prune failed")
			}
		}
		logging.Debug().
			Str("model_id", modelID).
			Str("timestamp", ts).
			Msg("pruned expired snapshot")
	}
}

// PruneAll applies retention across every model that has snapshots.
// The retention service runs this on a timer.
func (m *Manager) PruneAll() {
	if m.retain <= 0 {
		return
	}

	keys, err := m.store.List(store.BackupPrefix)
	if err != nil {
		logging.Warn().Err(err).Msg("retention scan failed")
		return
	}

	seen := make(map[string]struct{})
	for _, key := range keys {
		rest := strings.TrimPrefix(key, store.BackupPrefix)
		if i := strings.Index(rest, "/"); i > 0 {
			seen[rest[:i]] = struct{}{}
		}
	}
	for modelID := range seen {
		m.applyRetention(modelID)
	}
}
