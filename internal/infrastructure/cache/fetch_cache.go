package cache

import (
	"context"
	"sync"
	"time"

	"github.com/creatorpulse/creatorpulse/internal/domain"
)

// FetchFunc fetches the current items of one source.
type FetchFunc func(ctx context.Context, source *domain.Source) ([]domain.ContentItem, error)

// FetchCache is a simple in-memory cache of per-source fetch results.
// avoids hitting upstream APIs (and their quotas) on every detection pass.
// uses a simple TTL-based expiration strategy, errors are never cached.
type FetchCache struct {
	entries map[domain.SourceID]*fetchEntry
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
}

type fetchEntry struct {
	handle    string
	items     []domain.ContentItem
	expiresAt time.Time
}

// NewFetchCache creates a new fetch cache.
func NewFetchCache(ttl time.Duration) *FetchCache {
	return &FetchCache{
		entries: make(map[domain.SourceID]*fetchEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// GetOrFetch returns the cached items of source, calling fetch on a miss.
// returns (items, hit, error).
func (c *FetchCache) GetOrFetch(ctx context.Context, source *domain.Source, fetch FetchFunc) ([]domain.ContentItem, bool, error) {
	// fast path: check cache. an entry for another handle is a miss
	c.mu.RLock()
	entry, ok := c.entries[source.ID()]
	if ok && entry.handle == source.Handle() && c.now().Before(entry.expiresAt) {
		c.mu.RUnlock()
		return entry.items, true, nil
	}
	c.mu.RUnlock()

	// slow path: call upstream
	items, err := fetch(ctx, source)
	if err != nil {
		return nil, false, err
	}

	c.mu.Lock()
	c.entries[source.ID()] = &fetchEntry{
		handle:    source.Handle(),
		items:     items,
		expiresAt: c.now().Add(c.ttl),
	}
	c.mu.Unlock()

	return items, false, nil
}

// Invalidate drops the cached items of a source.
// implements application.SourceCache.
func (c *FetchCache) Invalidate(sourceID domain.SourceID) {
	c.mu.Lock()
	delete(c.entries, sourceID)
	c.mu.Unlock()
}

// Size returns the current number of cached entries.
func (c *FetchCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Cleanup removes expired entries.
// call this periodically to prevent memory growth.
func (c *FetchCache) Cleanup() {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// RunCleanup calls Cleanup every interval until ctx is done.
func (c *FetchCache) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Cleanup()
		}
	}
}
