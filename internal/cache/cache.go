// Modelyard - Predictive Model Serving and Lifecycle Management
// Copyright 2026 Modelyard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modelyard/modelyard

// Package cache keeps a bounded set of models resident in memory.
//
// The cache is a thread-safe LRU with TTL measured from last access, built on
// a doubly-linked list plus hashmap for O(1) Get, Put and eviction. The mutex
// guards only map and list bookkeeping; inference always runs outside the
// lock on the Entry reference returned by Get, so a slow model never blocks
// cache operations, and an entry swapped out by a concurrent update stays
// valid for predictions already holding it (copy-on-write semantics).
//
// Hit and miss counters are real measurements, exported both through Stats
// and as Prometheus counters.
package cache

import (
	"sync"
	"time"

	"github.com/modelyard/modelyard/internal/metrics"
	"github.com/modelyard/modelyard/internal/models"
	"github.com/modelyard/modelyard/internal/predictor"
)

// Entry is one resident model: the predictor, its ordered transformer chain,
// and its metadata. Entries are immutable once inserted; update replaces the
// whole entry atomically via Put on the same key.
type Entry struct {
	Predictor    predictor.Predictor
	Transformers []predictor.Transformer
	Metadata     *models.ModelMetadata
}

// node is a linked-list element. head.next is most recently used,
// tail.prev is least recently used.
type node struct {
	key        string
	entry      *Entry
	prev       *node
	next       *node
	lastAccess time.Time
}

// ModelCache is a bounded, thread-safe LRU+TTL cache keyed by model id.
type ModelCache struct {
	mu sync.Mutex

	maxSize int
	ttl     time.Duration

	items map[string]*node
	head  *node
	tail  *node

	hits      int64
	misses    int64
	evictions int64

	// now is the clock, replaceable in tests.
	now func() time.Time
}

// Default sizing when the configuration leaves them zero.
const (
	DefaultMaxSize = 5
	DefaultTTL     = time.Hour
)

// New creates a model cache holding at most maxSize models, treating entries
// idle longer than ttl as absent.
func New(maxSize int, ttl time.Duration) *ModelCache {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c := &ModelCache{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*node, maxSize),
		head:    &node{},
		tail:    &node{},
		now:     time.Now,
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Get returns the resident entry for modelID, refreshing its last access
// time. An entry idle longer than the TTL is removed and reported absent.
func (c *ModelCache) Get(modelID string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, exists := c.items[modelID]
	if !exists {
		c.misses++
		metrics.CacheMisses.Inc()
		return nil, false
	}

	now := c.now()
	if now.Sub(n.lastAccess) >= c.ttl {
		c.removeNode(n)
		c.misses++
		metrics.CacheMisses.Inc()
		metrics.CacheResidentModels.Set(float64(len(c.items)))
		return nil, false
	}

	n.lastAccess = now
	c.moveToFront(n)
	c.hits++
	metrics.CacheHits.Inc()
	return n.entry, true
}

// Put inserts or replaces the entry for modelID. Replacing an existing id
// swaps the entry in place; this is how update publishes a new model
// generation. When inserting into a full cache, the least recently used
// entry is evicted first, so the resident count never exceeds maxSize.
func (c *ModelCache) Put(modelID string, entry *Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	if n, exists := c.items[modelID]; exists {
		n.entry = entry
		n.lastAccess = now
		c.moveToFront(n)
		return
	}

	for len(c.items) >= c.maxSize {
		c.evictOldest()
	}

	n := &node{key: modelID, entry: entry, lastAccess: now}
	c.addToFront(n)
	c.items[modelID] = n
	metrics.CacheResidentModels.Set(float64(len(c.items)))
}

// Remove drops the entry for modelID. Returns true if it was resident.
func (c *ModelCache) Remove(modelID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, exists := c.items[modelID]
	if !exists {
		return false
	}
	c.removeNode(n)
	metrics.CacheResidentModels.Set(float64(len(c.items)))
	return true
}

// Clear drops all resident entries.
func (c *ModelCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*node, c.maxSize)
	c.head.next = c.tail
	c.tail.prev = c.head
	metrics.CacheResidentModels.Set(0)
}

// Len returns the current resident model count.
func (c *ModelCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// CleanupExpired removes all entries idle longer than the TTL and returns
// how many were dropped. The janitor service calls this periodically so idle
// models release memory without waiting for a Get.
func (c *ModelCache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0

	// Walk from the tail: entries are ordered by recency, so the first
	// non-expired entry ends the scan.
	for n := c.tail.prev; n != c.head; {
		prev := n.prev
		if now.Sub(n.lastAccess) < c.ttl {
			break
		}
		c.removeNode(n)
		removed++
		n = prev
	}

	if removed > 0 {
		metrics.CacheResidentModels.Set(float64(len(c.items)))
	}
	return removed
}

// Stats is a point-in-time view of cache state and effectiveness.
type Stats struct {
	Size        int      `json:"size"`
	MaxSize     int      `json:"max_size"`
	Utilization float64  `json:"utilization"`
	Hits        int64    `json:"hits"`
	Misses      int64    `json:"misses"`
	Evictions   int64    `json:"evictions"`
	ResidentIDs []string `json:"resident_ids"`
}

// HitRate returns the measured hit rate in [0, 1].
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Stats returns current cache statistics. Resident ids are ordered from most
// to least recently used.
func (c *ModelCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]string, 0, len(c.items))
	for n := c.head.next; n != c.tail; n = n.next {
		ids = append(ids, n.key)
	}

	return Stats{
		Size:        len(c.items),
		MaxSize:     c.maxSize,
		Utilization: float64(len(c.items)) / float64(c.maxSize),
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
		ResidentIDs: ids,
	}
}

// Internal list operations (lock must be held).

func (c *ModelCache) addToFront(n *node) {
	n.prev = c.head
	n.next = c.head.next
	c.head.next.prev = n
	c.head.next = n
}

func (c *ModelCache) moveToFront(n *node) {
	n.prev.next = n.next
	n.next.prev = n.prev
	c.addToFront(n)
}

func (c *ModelCache) removeNode(n *node) {
	n.prev.next = n.next
	n.next.prev = n.prev
	delete(c.items, n.key)
}

func (c *ModelCache) evictOldest() {
	oldest := c.tail.prev
	if oldest == c.head {
		return
	}
	c.removeNode(oldest)
	c.evictions++
	metrics.CacheEvictions.Inc()
}
