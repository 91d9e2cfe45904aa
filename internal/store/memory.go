// Modelyard - Predictive Model Serving and Lifecycle Management
// Copyright 2026 Modelyard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modelyard/modelyard

package store

import (
	"fmt"
	"strings"
	"sync"
)

// MemStore is an in-memory Store for tests. The hook fields allow fault
// injection: when set and returning a non-nil error, the operation fails
// without touching the map.
type MemStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	// PutHook, GetHook and DeleteHook inject failures per key.
	PutHook    func(key string) error
	GetHook    func(key string) error
	DeleteHook func(key string) error
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string][]byte)}
}

// Put implements Store.
func (s *MemStore) Put(key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if s.PutHook != nil {
		if err := s.PutHook(key); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.data[key] = cp
	return nil
}

// Get implements Store.
func (s *MemStore) Get(key string) ([]byte, error) {
	if s.GetHook != nil {
		if err := s.GetHook(key); err != nil {
			return nil, err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[key]
	if !ok {
		return nil, fmt.Errorf("%q: %w", key, ErrKeyNotFound)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// Delete implements Store.
func (s *MemStore) Delete(key string) error {
	if s.DeleteHook != nil {
		if err := s.DeleteHook(key); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		return fmt.Errorf("%q: %w", key, ErrKeyNotFound)
	}
	delete(s.data, key)
	return nil
}

// List implements Store.
func (s *MemStore) List(prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Close implements Store.
func (s *MemStore) Close() error { return nil }

// Len returns the number of stored artifacts.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Snapshot returns a copy of all stored artifacts, for asserting that a
// failed operation left the store untouched.
func (s *MemStore) Snapshot() map[string][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]byte, len(s.data))
	for k, v := range s.data {
		cp := make([]byte, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

var _ Store = (*MemStore)(nil)
