// Package tiercache implements the tiered fingerprint cache: an L1
// (small, hot) + L2 (large, warm) two-level LRU with promotion. Both
// tiers are in-memory LRUs — there is no persistence in the core.
package tiercache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Default tier sizes and promotion threshold.
const (
	DefaultL1Size           = 1000
	DefaultL2Size           = 5000
	DefaultPromoteThreshold = 3
)

// Stats is a snapshot of cache statistics, maintained with relaxed
// accuracy under the single-writer-per-engine assumption.
type Stats struct {
	L1Hits     uint64
	L2Hits     uint64
	Misses     uint64
	Promotions uint64
	Evictions  uint64
	L1Size     int
	L2Size     int
}

// Cache is the two-level LRU. New entries are inserted only into L2;
// repeated L2 hits promote an entry into L1.
type Cache struct {
	mu sync.Mutex

	l1 *lru.Cache[string, string]
	l2 *lru.Cache[string, string]

	promoteThreshold int
	l2AccessCount    map[string]int

	stats Stats
}

// Options configures tier sizes and the promotion threshold.
type Options struct {
	L1Size           int
	L2Size           int
	PromoteThreshold int
}

// New creates a two-tier cache. Zero-valued fields in opts fall back to
// the package defaults.
func New(opts Options) *Cache {
	if opts.L1Size <= 0 {
		opts.L1Size = DefaultL1Size
	}
	if opts.L2Size <= 0 {
		opts.L2Size = DefaultL2Size
	}
	if opts.PromoteThreshold <= 0 {
		opts.PromoteThreshold = DefaultPromoteThreshold
	}

	l1, _ := lru.New[string, string](opts.L1Size)
	l2, _ := lru.New[string, string](opts.L2Size)

	return &Cache{
		l1:               l1,
		l2:               l2,
		promoteThreshold: opts.PromoteThreshold,
		l2AccessCount:    make(map[string]int),
	}
}

// Get looks up ck. An L1 hit returns immediately; an L2 hit increments the
// per-key access counter and, once it reaches the promotion threshold,
// copies the entry into L1 (evicting L1's LRU tail if full, which the
// underlying hashicorp/golang-lru handles without cascading further — a
// dropped L1 eviction is simply gone, it does not fall back into L2).
func (c *Cache) Get(ck string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if f, ok := c.l1.Get(ck); ok {
		c.stats.L1Hits++
		return f, true
	}

	if f, ok := c.l2.Get(ck); ok {
		c.stats.L2Hits++
		c.l2AccessCount[ck]++
		if c.l2AccessCount[ck] >= c.promoteThreshold {
			if evicted := c.l1.Add(ck, f); evicted {
				c.stats.Evictions++
			}
			c.stats.Promotions++
			delete(c.l2AccessCount, ck)
		}
		return f, true
	}

	c.stats.Misses++
	return "", false
}

// Put inserts ck→f into L2, the only tier new entries are ever written to
// directly (promotion is read-triggered).
func (c *Cache) Put(ck, f string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if evicted := c.l2.Add(ck, f); evicted {
		c.stats.Evictions++
	}
}

// Remove sweeps ck from both tiers.
func (c *Cache) Remove(ck string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.l1.Remove(ck)
	c.l2.Remove(ck)
	delete(c.l2AccessCount, ck)
}

// Clear empties both tiers and zeroes every statistic, leaving the cache
// in the same state as a freshly constructed one.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.l1.Purge()
	c.l2.Purge()
	c.l2AccessCount = make(map[string]int)
	c.stats = Stats{}
}

// Stats returns a snapshot of cache statistics.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := c.stats
	snap.L1Size = c.l1.Len()
	snap.L2Size = c.l2.Len()
	return snap
}
