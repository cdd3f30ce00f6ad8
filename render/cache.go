// ABOUTME: In-memory render cache keyed by an xxhash of the DOT text and the output format.
// ABOUTME: Supports TTL-based expiry, concurrent access, pruning, and manual clearing.
package render

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/2389-research/graphdelta/dot"
)

// RenderFunc is the signature for a DOT rendering function that the cache wraps.
type RenderFunc func(ctx context.Context, dotText string, format string) ([]byte, error)

type cacheEntry struct {
	data      []byte
	createdAt time.Time
}

// Cache wraps a rendering function with an in-memory cache. Errors are never cached.
type Cache struct {
	renderFn RenderFunc
	ttl      time.Duration
	entries  map[string]*cacheEntry
	mu       sync.RWMutex
	now      func() time.Time
}

// NewCache creates a Cache wrapping renderFn. A nil renderFn uses RenderDOTSource.
func NewCache(renderFn RenderFunc, ttl time.Duration) *Cache {
	if renderFn == nil {
		renderFn = RenderDOTSource
	}
	return &Cache{
		renderFn: renderFn,
		ttl:      ttl,
		entries:  make(map[string]*cacheEntry),
		now:      time.Now,
	}
}

// Render serializes g and renders it through the cache.
func (c *Cache) Render(ctx context.Context, g *dot.Graph, format string) ([]byte, error) {
	if g == nil {
		return nil, fmt.Errorf("cannot render nil graph")
	}
	return c.RenderDOTSource(ctx, dot.Serialize(g), format)
}

// RenderDOTSource renders DOT text, returning a cached result when one exists and has not expired.
func (c *Cache) RenderDOTSource(ctx context.Context, dotText string, format string) ([]byte, error) {
	key := cacheKey(dotText, format)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.now().Sub(entry.createdAt) < c.ttl {
		return entry.data, nil
	}

	data, err := c.renderFn(ctx, dotText, format)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = &cacheEntry{data: data, createdAt: c.now()}
	c.mu.Unlock()
	return data, nil
}

// Prune drops expired entries and returns how many were removed.
func (c *Cache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k, e := range c.entries {
		if c.now().Sub(e.createdAt) >= c.ttl {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries currently in the cache (including expired ones).
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes all entries from the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

func cacheKey(dotText string, format string) string {
	return fmt.Sprintf("%016x:%s", xxhash.Sum64String(dotText), format)
}
