package httpserver

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheEntry wraps a cached value with its expiry.
type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// queryCache is a small TTL-bounded LRU for query results, keyed by the
// canonical filter string. It only trims dashboard latency; correctness
// never depends on it.
type queryCache struct {
	lru *lru.Cache[string, cacheEntry]
	ttl time.Duration
}

func newQueryCache(size int, ttl time.Duration) (*queryCache, error) {
	l, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &queryCache{lru: l, ttl: ttl}, nil
}

func (c *queryCache) get(key string) (any, bool) {
	entry, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		c.lru.Remove(key)
		return nil, false
	}
	return entry.value, true
}

func (c *queryCache) set(key string, value any) {
	c.lru.Add(key, cacheEntry{value: value, expiresAt: time.Now().Add(c.ttl)})
}
