package store

import (
	"context"
	"sync"
	"time"

	"ainewsbot/types"
)

const DefaultCacheTTL = 60 * time.Second

// CachedReader keeps the full article list for a while and filters it locally.
type CachedReader struct {
	inner Reader
	ttl   time.Duration
	now   func() time.Time

	mu       sync.Mutex
	articles []types.Article
	loadedAt time.Time
}

func NewCachedReader(inner Reader, ttl time.Duration) *CachedReader {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedReader{inner: inner, ttl: ttl, now: time.Now}
}

func (c *CachedReader) Query(ctx context.Context, f types.Filter) ([]types.Article, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.articles == nil || c.now().Sub(c.loadedAt) >= c.ttl {
		all, err := c.inner.Query(ctx, types.Filter{})
		if err != nil {
			return nil, err
		}
		if all == nil {
			all = []types.Article{}
		}
		c.articles = all
		c.loadedAt = c.now()
	}
	return f.Apply(c.articles), nil
}

// Invalidate drops the cached list.
func (c *CachedReader) Invalidate() {
	c.mu.Lock()
	c.articles = nil
	c.mu.Unlock()
}

// Publish drops the cache after a commit.
func (c *CachedReader) Publish(_ context.Context, _ *types.CycleReport, _ []types.Article) error {
	c.Invalidate()
	return nil
}
