package cache

import (
	"sync"
	"time"
)

// Cache is a small in-process string cache with per-entry expiry. The session
// manager uses it as a read-through layer in front of Redis; entries are
// deleted eagerly on logout so the cache never outlives the store record.
type Cache struct {
	mu sync.RWMutex
	m  map[string]entry
}

type entry struct {
	val string
	exp time.Time
}

func New() *Cache {
	return &Cache{m: make(map[string]entry)}
}

func (c *Cache) Get(key string) (string, bool) {
	now := time.Now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()

	if !ok {
		return "", false
	}

	if now.After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return "", false
	}

	return e.val, true
}

func (c *Cache) Set(key, val string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.m[key] = entry{val: val, exp: time.Now().Add(ttl)}
	c.mu.Unlock()
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}

func (c *Cache) Clear() {
	c.mu.Lock()
	c.m = make(map[string]entry)
	c.mu.Unlock()
}
