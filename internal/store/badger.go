// Modelyard - Predictive Model Serving and Lifecycle Management
// Copyright 2026 Modelyard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modelyard/modelyard

package store

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/modelyard/modelyard/internal/logging"
)

// BadgerStore persists artifacts in an embedded BadgerDB key/value database.
// Compared to FSStore it trades direct file inspectability for a single
// compacting storage directory, which suits appliance-style deployments.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) a Badger database at dir.
func NewBadgerStore(dir string) (*BadgerStore, error) {
	if dir == "" {
		return nil, errors.New("store directory is required")
	}

	opts := badger.DefaultOptions(dir).
		WithLogger(badgerLogger{}).
		WithCompression(0)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Put implements Store.
func (s *BadgerStore) Put(key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("write artifact %q: %w", key, err)
	}
	return nil
}

// Get implements Store.
func (s *BadgerStore) Get(key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("%q: %w", key, ErrKeyNotFound)
		}
		return nil, fmt.Errorf("read artifact %q: %w", key, err)
	}
	return data, nil
}

// Delete implements Store.
func (s *BadgerStore) Delete(key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		// Badger deletes are blind; check existence first so Delete on an
		// absent key reports ErrKeyNotFound like the other backends.
		if _, err := txn.Get([]byte(key)); err != nil {
			return err
		}
		return txn.Delete([]byte(key))
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%q: %w", key, ErrKeyNotFound)
		}
		return fmt.Errorf("delete artifact %q: %w", key, err)
	}
	return nil
}

// List implements Store.
func (s *BadgerStore) List(prefix string) ([]string, error) {
	var keys []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list artifacts with prefix %q: %w", prefix, err)
	}
	return keys, nil
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// badgerLogger routes Badger's internal logging through zerolog.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...any) {
	logging.Error().Str("component", "badger").Msgf(format, args...)
}

func (badgerLogger) Warningf(format string, args ...any) {
	logging.Warn().Str("component", "badger").Msgf(format, args...)
}

func (badgerLogger) Infof(format string, args ...any) {
	logging.Debug().Str("component", "badger").Msgf(format, args...)
}

func (badgerLogger) Debugf(format string, args ...any) {
	logging.Debug().Str("component", "badger").Msgf(format, args...)
}

var _ Store = (*BadgerStore)(nil)
