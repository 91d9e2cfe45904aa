// Modelyard - Predictive Model Serving and Lifecycle Management
// Copyright 2026 Modelyard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modelyard/modelyard

// errors.go - Serving error taxonomy
//
// Sentinel errors classify failures; the typed wrappers carry detail
// (model id, missing features, wrapped cause). Callers branch with
// errors.Is against the sentinels and extract detail with errors.As.
package models

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the serving core.
var (
	// ErrNotFound indicates an unknown model id.
	ErrNotFound = errors.New("model not found")

	// ErrDuplicateModel indicates a deploy over an already-deployed id.
	ErrDuplicateModel = errors.New("model already deployed")

	// ErrValidation indicates missing or malformed input features.
	ErrValidation = errors.New("feature validation failed")

	// ErrPreprocessing indicates a transformer failure.
	ErrPreprocessing = errors.New("preprocessing failed")

	// ErrInference indicates a predictor failure.
	ErrInference = errors.New("inference failed")

	// ErrStoreIO indicates a persistence failure.
	ErrStoreIO = errors.New("store i/o failed")

	// ErrBackupFailed indicates a snapshot could not be created or read.
	// A failed snapshot blocks the mutation that requested it.
	ErrBackupFailed = errors.New("backup failed")
)

// NotFoundError reports an operation against an unknown model id.
type NotFoundError struct {
	ModelID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("model %q not found", e.ModelID)
}

// Is makes errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// DuplicateModelError reports a deploy over an existing model id.
type DuplicateModelError struct {
	ModelID string
}

func (e *DuplicateModelError) Error() string {
	return fmt.Sprintf("model %q already deployed", e.ModelID)
}

func (e *DuplicateModelError) Is(target error) bool { return target == ErrDuplicateModel }

// ValidationError reports missing required features for a prediction.
type ValidationError struct {
	ModelID string
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("model %q: missing required features: %s",
		e.ModelID, strings.Join(e.Missing, ", "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// PreprocessingError reports a transformer failure during preprocessing.
type PreprocessingError struct {
	ModelID     string
	Transformer string
	Err         error
}

func (e *PreprocessingError) Error() string {
	return fmt.Sprintf("model %q: transformer %q: %v", e.ModelID, e.Transformer, e.Err)
}

func (e *PreprocessingError) Unwrap() error { return e.Err }

func (e *PreprocessingError) Is(target error) bool { return target == ErrPreprocessing }

// InferenceError reports a predictor failure.
type InferenceError struct {
	ModelID string
	Err     error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("model %q: inference: %v", e.ModelID, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

func (e *InferenceError) Is(target error) bool { return target == ErrInference }

// StoreIOError reports a persistence failure, with the failing operation
// and artifact key for diagnostics.
type StoreIOError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreIOError) Error() string {
	return fmt.Sprintf("store %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StoreIOError) Unwrap() error { return e.Err }

func (e *StoreIOError) Is(target error) bool { return target == ErrStoreIO }

// BackupFailedError reports a snapshot failure. The mutation that requested
// the snapshot must not proceed.
type BackupFailedError struct {
	ModelID string
	Err     error
}

func (e *BackupFailedError) Error() string {
	return fmt.Sprintf("model %q: backup: %v", e.ModelID, e.Err)
}

func (e *BackupFailedError) Unwrap() error { return e.Err }

func (e *BackupFailedError) Is(target error) bool { return target == ErrBackupFailed }
