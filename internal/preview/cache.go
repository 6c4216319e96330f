package preview

import (
	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// DefaultCacheSize is the number of payloads kept when none is configured.
const DefaultCacheSize = 10

type cacheEntry struct {
	payload    *Payload
	generation uint64
}

// Cache is a bounded LRU of payloads keyed by (path, mode). Each entry
// remembers the generation that produced it so an older job can never
// replace a newer result. It is not safe for concurrent use.
type Cache struct {
	lru *simplelru.LRU[Key, cacheEntry]
}

// NewCache returns a cache holding at most size entries.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	lru, err := simplelru.NewLRU[Key, cacheEntry](size, nil)
	if err != nil {
		// only reachable with size <= 0
		panic(err)
	}
	return &Cache{lru: lru}
}

// Get returns the payload for key and marks it most recently used.
func (c *Cache) Get(key Key) (*Payload, bool) {
	e, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	return e.payload, true
}

// Peek returns the payload and its generation without touching recency.
func (c *Cache) Peek(key Key) (*Payload, uint64, bool) {
	e, ok := c.lru.Peek(key)
	if !ok {
		return nil, 0, false
	}
	return e.payload, e.generation, true
}

// Put stores payload under key unless a newer generation already holds the
// key. It reports whether the write happened.
func (c *Cache) Put(key Key, payload *Payload, generation uint64) bool {
	if payload == nil {
		return false
	}
	if existing, ok := c.lru.Peek(key); ok && existing.generation > generation {
		return false
	}
	c.lru.Add(key, cacheEntry{payload: payload, generation: generation})
	return true
}

// Remove drops a single key.
func (c *Cache) Remove(key Key) {
	c.lru.Remove(key)
}

// RemovePath drops every mode cached for path and returns how many went.
func (c *Cache) RemovePath(path string) int {
	removed := 0
	for _, k := range c.lru.Keys() {
		if k.Path == path && c.lru.Remove(k) {
			removed++
		}
	}
	return removed
}

// Keys lists keys from least to most recently used.
func (c *Cache) Keys() []Key {
	return c.lru.Keys()
}

func (c *Cache) Len() int {
	return c.lru.Len()
}

// Purge empties the cache.
func (c *Cache) Purge() {
	c.lru.Purge()
}

// Resize changes the capacity, evicting the oldest entries if needed.
func (c *Cache) Resize(size int) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c.lru.Resize(size)
}
