// Modelyard - Predictive Model Serving and Lifecycle Management
// Copyright 2026 Modelyard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modelyard/modelyard

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/modelyard/modelyard/internal/models"
)

func testEntry(id string) *Entry {
	return &Entry{Metadata: &models.ModelMetadata{ModelID: id}}
}

// fakeClock lets tests advance time without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func TestCacheBasicOperations(t *testing.T) {
	c := New(3, time.Minute)

	c.Put("alpha", testEntry("alpha"))
	entry, exists := c.Get("alpha")
	if !exists {
		t.Fatal("Expected alpha to be resident")
	}
	if entry.Metadata.ModelID != "alpha" {
		t.Errorf("Expected alpha entry, got %s", entry.Metadata.ModelID)
	}

	_, exists = c.Get("beta")
	if exists {
		t.Error("Expected beta to be absent")
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(2, time.Minute)

	c.Put("a", testEntry("a"))
	c.Put("b", testEntry("b"))

	// Touch a so b becomes least recently used.
	if _, exists := c.Get("a"); !exists {
		t.Fatal("Expected a to be resident")
	}

	c.Put("c", testEntry("c"))

	if _, exists := c.Get("b"); exists {
		t.Error("Expected b to be evicted")
	}
	if _, exists := c.Get("a"); !exists {
		t.Error("Expected a to survive eviction")
	}
	if _, exists := c.Get("c"); !exists {
		t.Error("Expected c to be resident")
	}
}

func TestCacheCapacityNeverExceeded(t *testing.T) {
	const maxSize = 3
	c := New(maxSize, time.Minute)

	for i := 0; i < maxSize+5; i++ {
		c.Put(fmt.Sprintf("model-%d", i), testEntry("x"))
		if c.Len() > maxSize {
			t.Fatalf("Resident count %d exceeds max size %d", c.Len(), maxSize)
		}
	}
	if c.Len() != maxSize {
		t.Errorf("Expected %d resident models, got %d", maxSize, c.Len())
	}
}

func TestCacheTTLExpiry(t *testing.T) {
	clock := newFakeClock()
	c := New(3, time.Minute)
	c.now = clock.Now

	c.Put("a", testEntry("a"))

	clock.Advance(30 * time.Second)
	if _, exists := c.Get("a"); !exists {
		t.Fatal("Expected a to be resident before TTL")
	}

	// The Get above refreshed last access, so expiry counts from there.
	clock.Advance(time.Minute)
	if _, exists := c.Get("a"); exists {
		t.Error("Expected a to be expired after TTL of idle time")
	}
	if c.Len() != 0 {
		t.Errorf("Expected expired entry to be removed, len=%d", c.Len())
	}
}

func TestCacheGetRefreshesTTL(t *testing.T) {
	clock := newFakeClock()
	c := New(3, time.Minute)
	c.now = clock.Now

	c.Put("a", testEntry("a"))

	// Keep touching just inside the TTL; the entry must stay resident far
	// beyond the original deadline.
	for i := 0; i < 5; i++ {
		clock.Advance(59 * time.Second)
		if _, exists := c.Get("a"); !exists {
			t.Fatalf("Expected a to stay resident on touch %d", i)
		}
	}
}

func TestCachePutReplacesInPlace(t *testing.T) {
	c := New(2, time.Minute)

	old := testEntry("a")
	c.Put("a", old)
	c.Put("b", testEntry("b"))

	replacement := &Entry{Metadata: &models.ModelMetadata{ModelID: "a", ModelType: "v2"}}
	c.Put("a", replacement)

	if c.Len() != 2 {
		t.Fatalf("Replacement must not grow the cache, len=%d", c.Len())
	}
	entry, exists := c.Get("a")
	if !exists {
		t.Fatal("Expected a to be resident")
	}
	if entry != replacement {
		t.Error("Expected Get to return the replacement entry")
	}
	if old.Metadata.ModelType == "v2" {
		t.Error("Replacement must not mutate the old entry")
	}
}

func TestCacheRemove(t *testing.T) {
	c := New(2, time.Minute)

	c.Put("a", testEntry("a"))
	if !c.Remove("a") {
		t.Error("Expected Remove to report a as resident")
	}
	if c.Remove("a") {
		t.Error("Expected second Remove to report absent")
	}
	if _, exists := c.Get("a"); exists {
		t.Error("Expected a to be gone after Remove")
	}
}

func TestCacheClear(t *testing.T) {
	c := New(3, time.Minute)

	c.Put("a", testEntry("a"))
	c.Put("b", testEntry("b"))
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Expected empty cache after Clear, len=%d", c.Len())
	}
	if _, exists := c.Get("a"); exists {
		t.Error("Expected a to be cleared")
	}
}

func TestCacheCleanupExpired(t *testing.T) {
	clock := newFakeClock()
	c := New(5, time.Minute)
	c.now = clock.Now

	c.Put("old-1", testEntry("old-1"))
	c.Put("old-2", testEntry("old-2"))

	clock.Advance(30 * time.Second)
	c.Put("fresh", testEntry("fresh"))

	clock.Advance(45 * time.Second)
	removed := c.CleanupExpired()

	if removed != 2 {
		t.Errorf("Expected 2 expired entries removed, got %d", removed)
	}
	if _, exists := c.Get("fresh"); !exists {
		t.Error("Expected fresh to survive cleanup")
	}
}

func TestCacheStats(t *testing.T) {
	c := New(2, time.Minute)

	c.Put("a", testEntry("a"))
	c.Put("b", testEntry("b"))

	c.Get("a")       // hit
	c.Get("a")       // hit
	c.Get("missing") // miss

	c.Put("c", testEntry("c")) // evicts b

	stats := c.Stats()
	if stats.Hits != 2 {
		t.Errorf("Expected 2 hits, got %d", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Expected 1 miss, got %d", stats.Misses)
	}
	if stats.Evictions != 1 {
		t.Errorf("Expected 1 eviction, got %d", stats.Evictions)
	}
	if stats.Size != 2 || stats.MaxSize != 2 {
		t.Errorf("Expected size 2/2, got %d/%d", stats.Size, stats.MaxSize)
	}
	if stats.Utilization != 1.0 {
		t.Errorf("Expected utilization 1.0, got %f", stats.Utilization)
	}

	// MRU order: c was inserted last, a was touched before that.
	if len(stats.ResidentIDs) != 2 || stats.ResidentIDs[0] != "c" || stats.ResidentIDs[1] != "a" {
		t.Errorf("Expected resident order [c a], got %v", stats.ResidentIDs)
	}

	rate := stats.HitRate()
	if rate < 0.66 || rate > 0.67 {
		t.Errorf("Expected hit rate ~0.667, got %f", rate)
	}
}

func TestCacheHitRateEmptyCache(t *testing.T) {
	c := New(2, time.Minute)
	if rate := c.Stats().HitRate(); rate != 0 {
		t.Errorf("Expected hit rate 0 with no lookups, got %f", rate)
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := New(4, time.Minute)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				id := fmt.Sprintf("model-%d", (g+i)%6)
				switch i % 3 {
				case 0:
					c.Put(id, testEntry(id))
				case 1:
					c.Get(id)
				case 2:
					c.Remove(id)
				}
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > 4 {
		t.Errorf("Resident count %d exceeds max size after concurrent access", c.Len())
	}
}

func BenchmarkCacheGet(b *testing.B) {
	c := New(10, time.Hour)
	c.Put("model", testEntry("model"))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get("model")
	}
}

func BenchmarkCachePut(b *testing.B) {
	c := New(10, time.Hour)
	entry := testEntry("model")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Put(fmt.Sprintf("model-%d", i%20), entry)
	}
}
