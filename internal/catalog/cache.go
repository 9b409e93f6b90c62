package catalog

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/tbourn/bloom-backend/internal/domain"
)

// ItemLoader fetches a catalog item from durable storage.
type ItemLoader func(ctx context.Context, id string) (*domain.Item, error)

// ItemCache is a read-through cache for catalog items. Items never change
// after seeding, so a cached entry is only ever stale by its TTL. Per-user
// rows (ownership, points, rooms) must never be cached here.
type ItemCache struct {
	lru  *expirable.LRU[string, domain.Item]
	load ItemLoader
}

// NewItemCache builds a cache holding up to size items for ttl each.
// Non-positive values fall back to 256 entries and 10 minutes.
func NewItemCache(size int, ttl time.Duration, load ItemLoader) *ItemCache {
	if size <= 0 {
		size = 256
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ItemCache{
		lru:  expirable.NewLRU[string, domain.Item](size, nil, ttl),
		load: load,
	}
}

// Get returns the item with id, loading it on a miss. Loader errors
// (including not-found) are returned unchanged and nothing is cached.
func (c *ItemCache) Get(ctx context.Context, id string) (*domain.Item, error) {
	if it, ok := c.lru.Get(id); ok {
		return &it, nil
	}
	it, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	c.lru.Add(id, *it)
	return it, nil
}

// Purge drops every cached entry.
func (c *ItemCache) Purge() { c.lru.Purge() }

// Len reports the number of cached entries.
func (c *ItemCache) Len() int { return c.lru.Len() }
