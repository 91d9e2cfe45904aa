// Modelyard - Predictive Model Serving and Lifecycle Management
// Copyright 2026 Modelyard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modelyard/modelyard

// Package store provides durable persistence of model artifacts.
//
// A Store is a flat artifact namespace addressed by slash-separated keys.
// Business logic (lifecycle, backup) never touches the filesystem directly;
// it composes keys and goes through the interface, so tests can substitute
// the in-memory implementation.
//
// Key layout:
//
//	{model_id}.model
//	{model_id}.metadata.json
//	{model_id}.transformers
//	backups/{model_id}/{model_id}_{timestamp}.model
//	backups/{model_id}/{model_id}_{timestamp}.metadata.json
//	backups/{model_id}/{model_id}_{timestamp}.transformers
package store

import (
	"errors"
	"fmt"
	"strings"
)

// ErrKeyNotFound indicates the requested artifact does not exist.
var ErrKeyNotFound = errors.New("artifact not found")

// Store is the persistence interface for model artifacts.
type Store interface {
	// Put writes an artifact, replacing any existing value.
	Put(key string, data []byte) error

	// Get reads an artifact. Returns ErrKeyNotFound if absent.
	Get(key string) ([]byte, error)

	// Delete removes an artifact. Returns ErrKeyNotFound if absent.
	Delete(key string) error

	// List returns all keys with the given prefix, in unspecified order.
	List(prefix string) ([]string, error)

	// Close releases backend resources.
	Close() error
}

// Artifact key suffixes.
const (
	suffixModel        = ".model"
	suffixMetadata     = ".metadata.json"
	suffixTransformers = ".transformers"

	// BackupPrefix is the key prefix of the backup area.
	BackupPrefix = "backups/"
)

// ModelKey returns the key of a model's predictor artifact.
func ModelKey(modelID string) string { return modelID + suffixModel }

// MetadataKey returns the key of a model's metadata record.
func MetadataKey(modelID string) string { return modelID + suffixMetadata }

// TransformersKey returns the key of a model's transformer chain artifact.
func TransformersKey(modelID string) string { return modelID + suffixTransformers }

// BackupModelKey returns the backup key of a predictor artifact.
func BackupModelKey(modelID, timestamp string) string {
	return backupKey(modelID, timestamp, suffixModel)
}

// BackupMetadataKey returns the backup key of a metadata record.
func BackupMetadataKey(modelID, timestamp string) string {
	return backupKey(modelID, timestamp, suffixMetadata)
}

// BackupTransformersKey returns the backup key of a transformer chain.
func BackupTransformersKey(modelID, timestamp string) string {
	return backupKey(modelID, timestamp, suffixTransformers)
}

func backupKey(modelID, timestamp, suffix string) string {
	return fmt.Sprintf("%s%s/%s_%s%s", BackupPrefix, modelID, modelID, timestamp, suffix)
}

// IsMetadataKey reports whether a key names a live (non-backup) metadata
// record, and returns the model id it belongs to.
func IsMetadataKey(key string) (modelID string, ok bool) {
	if strings.HasPrefix(key, BackupPrefix) {
		return "", false
	}
	if !strings.HasSuffix(key, suffixMetadata) {
		return "", false
	}
	return strings.TrimSuffix(key, suffixMetadata), true
}

// ValidateKey rejects keys that could escape a filesystem root.
func ValidateKey(key string) error {
	if key == "" {
		return errors.New("empty artifact key")
	}
	if strings.HasPrefix(key, "/") {
		return fmt.Errorf("absolute artifact key %q", key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return fmt.Errorf("artifact key %q escapes store root", key)
		}
	}
	return nil
}
