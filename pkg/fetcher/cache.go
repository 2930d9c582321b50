package fetcher

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/jmylchreest/feedclean/internal/logger"
)

// Cache wraps a Fetcher so that each URL is fetched at most once.
// Concurrent callers for the same URL share one in-flight request; failed
// fetches are not cached and may be retried.
type Cache struct {
	next  Fetcher
	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]Content
}

// NewCache returns a caching wrapper around next.
func NewCache(next Fetcher) *Cache {
	return &Cache{
		next:    next,
		entries: make(map[string]Content),
	}
}

// Fetch returns the cached content for url or fetches it once.
func (c *Cache) Fetch(ctx context.Context, url string, opts Options) (Content, error) {
	c.mu.RLock()
	content, ok := c.entries[url]
	c.mu.RUnlock()
	if ok {
		logger.Debug("fetch cache hit", "url", url)
		return content, nil
	}

	v, err, shared := c.group.Do(url, func() (any, error) {
		c.mu.RLock()
		content, ok := c.entries[url]
		c.mu.RUnlock()
		if ok {
			return content, nil
		}

		content, err := c.next.Fetch(ctx, url, opts)
		if err != nil {
			return content, err
		}
		c.mu.Lock()
		c.entries[url] = content
		c.mu.Unlock()
		return content, nil
	})
	if shared {
		logger.Debug("fetch shared with in-flight request", "url", url)
	}
	return v.(Content), err
}

// Len returns the number of cached URLs.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close closes the wrapped fetcher.
func (c *Cache) Close() error {
	return c.next.Close()
}

// Type returns the fetcher type.
func (c *Cache) Type() string {
	return "cached(" + c.next.Type() + ")"
}
