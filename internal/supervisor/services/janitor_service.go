// Modelyard - Predictive Model Serving and Lifecycle Management
// Copyright 2026 Modelyard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modelyard/modelyard

package services

import (
	"context"
	"time"

	"github.com/modelyard/modelyard/internal/cache"
	"github.com/modelyard/modelyard/internal/logging"
)

// CacheJanitorService sweeps expired cache entries on a timer. Expiry also
// happens lazily on Get, so the janitor only bounds how long an idle entry
// can hold memory.
type CacheJanitorService struct {
	cache    *cache.ModelCache
	interval time.Duration
	name     string
}

// NewCacheJanitorService creates the janitor. An interval of zero or less
// disables the sweep; Serve then just waits for cancellation.
func NewCacheJanitorService(c *cache.ModelCache, interval time.Duration) *CacheJanitorService {
	return &CacheJanitorService{
		cache:    c,
		interval: interval,
		name:     "cache-janitor",
	}
}

// Serve implements suture.Service.
func (s *CacheJanitorService) Serve(ctx context.Context) error {
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
			if removed := s.cache.CleanupExpired(); removed > 0 {
				logging.Debug().Int("removed", removed).Msg("cache janitor sweep")
			}
		}
	}
}

// String implements fmt.Stringer; suture uses it in log messages.
func (s *CacheJanitorService) String() string {
	return s.name
}
