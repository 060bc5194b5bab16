package videos

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type cacheEntry struct {
	metadata Metadata
	expires  time.Time
}

// CachingProvider wraps another Provider with a TTL-based in-memory cache.
// Concurrent lookups of the same URL share one call to the base provider.
type CachingProvider struct {
	base Provider
	ttl  time.Duration
	now  func() time.Time

	group singleflight.Group

	mu    sync.RWMutex
	items map[string]cacheEntry
}

// NewCachingProvider returns a Provider that caches lookups for the provided TTL.
func NewCachingProvider(base Provider, ttl time.Duration) *CachingProvider {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachingProvider{
		base:  base,
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]cacheEntry),
	}
}

// Lookup returns cached metadata when available, otherwise it delegates to the
// underlying provider and stores the result. Failures are not cached.
func (c *CachingProvider) Lookup(ctx context.Context, url string) (Metadata, error) {
	if c == nil || c.base == nil {
		return Metadata{}, ErrProviderUnavailable
	}

	c.mu.RLock()
	entry, ok := c.items[url]
	c.mu.RUnlock()
	if ok && c.now().Before(entry.expires) {
		return entry.metadata, nil
	}

	v, err, _ := c.group.Do(url, func() (interface{}, error) {
		metadata, err := c.base.Lookup(ctx, url)
		if err != nil {
			return Metadata{}, err
		}

		now := c.now()
		c.mu.Lock()
		for key, item := range c.items {
			if !now.Before(item.expires) {
				delete(c.items, key)
			}
		}
		c.items[url] = cacheEntry{metadata: metadata, expires: now.Add(c.ttl)}
		c.mu.Unlock()

		return metadata, nil
	})
	if err != nil {
		return Metadata{}, err
	}
	return v.(Metadata), nil
}

// Len reports how many entries are cached.
func (c *CachingProvider) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
