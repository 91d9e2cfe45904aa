// Modelyard - Predictive Model Serving and Lifecycle Management
// Copyright 2026 Modelyard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modelyard/modelyard

package services

import (
	"context"
	"time"

	"github.com/modelyard/modelyard/internal/backup"
)

// BackupRetentionService applies snapshot retention across all models on a
// timer. Retention is also applied after each new snapshot; the periodic
// pass catches snapshots orphaned by crashes or manual store edits.
type BackupRetentionService struct {
	backups  *backup.Manager
	interval time.Duration
	name     string
}

// NewBackupRetentionService creates the retention loop. An interval of zero
// or less disables it.
func NewBackupRetentionService(backups *backup.Manager, interval time.Duration) *BackupRetentionService {
	return &BackupRetentionService{
		backups:  backups,
		interval: interval,
		name:     "backup-retention",
	}
}

// Serve implements suture.Service.
func (s *BackupRetentionService) Serve(ctx context.Context) error {
	if s.interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.backups.PruneAll()
		}
	}
}

// String implements fmt.Stringer; suture uses it in log messages.
func (s *BackupRetentionService) String() string {
	return s.name
}
