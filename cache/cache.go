// Package cache is the memoization layer consulted before the expensive
// OCR and translation calls. Keys are opaque fingerprints computed by the
// caller; the cache knows nothing about their structure.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache is a size-bounded LRU with TTL expiry checked on read. Safe for
// concurrent use by overlapping pipeline runs.
type Cache struct {
	lru *expirable.LRU[string, string]
}

// New builds a cache holding at most size entries. A ttl of zero disables
// time-based expiry.
func New(size int, ttl time.Duration) *Cache {
	if size < 1 {
		size = 1
	}
	return &Cache{lru: expirable.NewLRU[string, string](size, nil, ttl)}
}

// Get returns the cached value for key. An expired entry reads as absent.
func (c *Cache) Get(key string) (string, bool) {
	return c.lru.Get(key)
}

// Put stores value under key. Callers only write after a successful
// collaborator call; failures are never cached.
func (c *Cache) Put(key, value string) {
	c.lru.Add(key, value)
}

func (c *Cache) Len() int { return c.lru.Len() }

func (c *Cache) Purge() { c.lru.Purge() }
