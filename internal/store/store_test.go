// Modelyard - Predictive Model Serving and Lifecycle Management
// Copyright 2026 Modelyard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modelyard/modelyard

package store

import (
	"bytes"
	"errors"
	"sort"
	"testing"
)

// storeContract runs the behavior every Store backend must share.
func storeContract(t *testing.T, s Store) {
	t.Helper()

	// Absent key.
	if _, err := s.Get("missing.model"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Expected ErrKeyNotFound for absent key, got %v", err)
	}
	if err := s.Delete("missing.model"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Expected ErrKeyNotFound deleting absent key, got %v", err)
	}

	// Round trip.
	if err := s.Put("fraud.model", []byte("weights")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	data, err := s.Get("fraud.model")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(data, []byte("weights")) {
		t.Errorf("Expected stored bytes back, got %q", data)
	}

	// Overwrite.
	if err := s.Put("fraud.model", []byte("weights-v2")); err != nil {
		t.Fatalf("Overwrite failed: %v", err)
	}
	data, _ = s.Get("fraud.model")
	if !bytes.Equal(data, []byte("weights-v2")) {
		t.Errorf("Expected overwritten bytes, got %q", data)
	}

	// Nested keys and prefix listing.
	if err := s.Put("backups/fraud/fraud_1.model", []byte("b1")); err != nil {
		t.Fatalf("Put nested key failed: %v", err)
	}
	if err := s.Put("backups/fraud/fraud_2.model", []byte("b2")); err != nil {
		t.Fatalf("Put nested key failed: %v", err)
	}

	keys, err := s.List("backups/fraud/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	sort.Strings(keys)
	want := []string{"backups/fraud/fraud_1.model", "backups/fraud/fraud_2.model"}
	if len(keys) != 2 || keys[0] != want[0] || keys[1] != want[1] {
		t.Errorf("Expected %v, got %v", want, keys)
	}

	// Delete.
	if err := s.Delete("fraud.model"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get("fraud.model"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Expected ErrKeyNotFound after delete, got %v", err)
	}

	// Key validation.
	if err := s.Put("../escape.model", []byte("x")); err == nil {
		t.Error("Expected traversal key to be rejected")
	}
}

func TestMemStoreContract(t *testing.T) {
	s := NewMemStore()
	storeContract(t, s)
}

func TestFSStoreContract(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}
	defer s.Close()
	storeContract(t, s)
}

func TestFSStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := NewFSStore(dir)
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}
	if err := s.Put("churn.metadata.json", []byte(`{"model_id":"churn"}`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewFSStore(dir)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer reopened.Close()

	data, err := reopened.Get("churn.metadata.json")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if !bytes.Equal(data, []byte(`{"model_id":"churn"}`)) {
		t.Errorf("Expected persisted bytes, got %q", data)
	}
}

func TestMemStoreFaultInjection(t *testing.T) {
	s := NewMemStore()
	boom := errors.New("disk full")
	s.PutHook = func(key string) error {
		if key == "fail.model" {
			return boom
		}
		return nil
	}

	if err := s.Put("ok.model", []byte("x")); err != nil {
		t.Fatalf("Unexpected Put failure: %v", err)
	}
	if err := s.Put("fail.model", []byte("x")); !errors.Is(err, boom) {
		t.Errorf("Expected injected error, got %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("Failed Put must not store data, len=%d", s.Len())
	}
}

func TestKeyHelpers(t *testing.T) {
	if got := ModelKey("fraud"); got != "fraud.model" {
		t.Errorf("ModelKey: got %q", got)
	}
	if got := MetadataKey("fraud"); got != "fraud.metadata.json" {
		t.Errorf("MetadataKey: got %q", got)
	}
	if got := TransformersKey("fraud"); got != "fraud.transformers" {
		t.Errorf("TransformersKey: got %q", got)
	}
	if got := BackupModelKey("fraud", "20260101T000000.000000000"); got != "backups/fraud/fraud_20260101T000000.000000000.model" {
		t.Errorf("BackupModelKey: got %q", got)
	}
}

func TestIsMetadataKey(t *testing.T) {
	tests := []struct {
		key    string
		wantID string
		wantOK bool
	}{
		{"fraud.metadata.json", "fraud", true},
		{"fraud.model", "", false},
		{"backups/fraud/fraud_1.metadata.json", "", false},
		{"a.b.metadata.json", "a.b", true},
	}
	for _, tt := range tests {
		id, ok := IsMetadataKey(tt.key)
		if id != tt.wantID || ok != tt.wantOK {
			t.Errorf("IsMetadataKey(%q) = (%q, %v), want (%q, %v)", tt.key, id, ok, tt.wantID, tt.wantOK)
		}
	}
}

func TestValidateKey(t *testing.T) {
	valid := []string{"fraud.model", "backups/fraud/fraud_1.model", "a.b.c"}
	for _, key := range valid {
		if err := ValidateKey(key); err != nil {
			t.Errorf("ValidateKey(%q) unexpectedly failed: %v", key, err)
		}
	}

	invalid := []string{"", "/abs.model", "../up.model", "backups/../../etc/passwd"}
	for _, key := range invalid {
		if err := ValidateKey(key); err == nil {
			t.Errorf("ValidateKey(%q) unexpectedly passed", key)
		}
	}
}
