// Package fingerprint memoizes parse results keyed by file path and content
// fingerprint. The cache is a pure optimization: dropping any entry only
// costs a re-parse.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"impactgraph/internal/engine/parser"
	"impactgraph/internal/shared/observability"
)

// Of returns the hex SHA-256 fingerprint of content.
func Of(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

type entry struct {
	fingerprint string
	result      parser.ParseResult
}

type Stats struct {
	Hits       uint64 `json:"hits"`
	Misses     uint64 `json:"misses"`
	Mismatches uint64 `json:"mismatches"`
	Evictions  uint64 `json:"evictions"`
	Len        int    `json:"len"`
}

// Cache is a bounded LRU of parse results, safe for concurrent use.
type Cache struct {
	entries *lru.Cache[string, entry]

	hits       atomic.Uint64
	misses     atomic.Uint64
	mismatches atomic.Uint64
	evictions  atomic.Uint64
}

func New(capacity int) (*Cache, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", capacity)
	}
	entries, err := lru.New[string, entry](capacity)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries}, nil
}

// Lookup returns the cached result for path when it was stored under the
// same fingerprint. A stale entry is discarded and reported as a miss.
func (c *Cache) Lookup(path, fp string) (parser.ParseResult, bool) {
	e, ok := c.entries.Get(path)
	if !ok {
		c.misses.Add(1)
		observability.CacheMissesTotal.Inc()
		return parser.ParseResult{}, false
	}
	if e.fingerprint != fp {
		c.entries.Remove(path)
		c.mismatches.Add(1)
		c.misses.Add(1)
		observability.CacheMismatchesTotal.Inc()
		observability.CacheMissesTotal.Inc()
		return parser.ParseResult{}, false
	}
	c.hits.Add(1)
	observability.CacheHitsTotal.Inc()
	return e.result, true
}

// Store inserts or replaces the entry for path in one step.
func (c *Cache) Store(path, fp string, res parser.ParseResult) {
	if evicted := c.entries.Add(path, entry{fingerprint: fp, result: res}); evicted {
		c.evictions.Add(1)
		observability.CacheEvictionsTotal.Inc()
	}
}

// Parse serves path from the cache or runs parse and stores its result.
func (c *Cache) Parse(path string, content []byte, parse func(path string, content []byte) parser.ParseResult) (string, parser.ParseResult, bool) {
	fp := Of(content)
	if res, ok := c.Lookup(path, fp); ok {
		return fp, res, true
	}
	res := parse(path, content)
	c.Store(path, fp, res)
	return fp, res, false
}

func (c *Cache) Invalidate(path string) {
	c.entries.Remove(path)
}

func (c *Cache) Len() int {
	return c.entries.Len()
}

func (c *Cache) Stats() Stats {
	return Stats{
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
		Mismatches: c.mismatches.Load(),
		Evictions:  c.evictions.Load(),
		Len:        c.entries.Len(),
	}
}
