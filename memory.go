package lazycache

import (
	"context"
	"sync"
	"time"
)

var (
	_ Backend = &Memory{}
	_ Expirer = &Memory{}
	_ Walker  = &Memory{}
)

// Memory is an in-memory cache backend.
//
// Please use NewMemory to create it.
type Memory struct {
	sync.RWMutex
	data map[string]item

	*trait
}

// NewMemory creates an instance of in-memory backend with optional configuration.
//
// Memory must be closed to stop background cleanup.
func NewMemory(cfg ...BackendConfig) *Memory {
	config := BackendConfig{}

	if len(cfg) >= 1 {
		config = cfg[0]
	}

	c := &Memory{
		data: map[string]item{},
	}

	c.trait = newTrait(c, config)

	return c
}

// Read gets entry.
func (c *Memory) Read(ctx context.Context, k string) (*Entry, error) {
	c.RLock()
	closed := c.data == nil
	i, found := c.data[k]
	c.RUnlock()

	if closed {
		return nil, ErrCacheClosed
	}

	return c.prepareRead(ctx, k, i, found)
}

// Write stores entry.
func (c *Memory) Write(ctx context.Context, k string, e *Entry, ttl time.Duration) error {
	c.Lock()
	defer c.Unlock()

	if c.data == nil {
		if c.log != nil {
			c.log.Debug(ctx, "writing to a closed cache", "name", c.config.Name, "key", k)
		}

		return ErrCacheClosed
	}

	c.data[k] = item{entry: e, exp: time.Now().Add(ttl)}
	c.wrote(ctx, k, ttl)

	return nil
}

// ExpireAll marks all entries as expired, they can still serve stale cache.
func (c *Memory) ExpireAll() {
	now := time.Now()

	c.Lock()
	for k, i := range c.data {
		i.entry = i.entry.Expired(now)
		c.data[k] = i
	}
	c.Unlock()
}

// DeleteAll erases all entries.
func (c *Memory) DeleteAll() {
	c.Lock()
	if c.data != nil {
		c.data = make(map[string]item)
	}
	c.Unlock()
}

// Close disables backend instance and stops background jobs.
func (c *Memory) Close() {
	c.trait.Close()

	c.Lock()
	c.data = nil
	c.Unlock()
}

func (c *Memory) deleteExpiredBefore(now time.Time) int {
	keys := make([]string, 0, 100)

	c.RLock()
	for k, i := range c.data {
		if !now.Before(i.exp) {
			keys = append(keys, k)
		}
	}
	c.RUnlock()

	if len(keys) == 0 {
		return 0
	}

	n := 0

	c.Lock()
	for _, k := range keys {
		// Entry could have been rewritten in between.
		if i, ok := c.data[k]; ok && !now.Before(i.exp) {
			delete(c.data, k)
			n++
		}
	}
	c.Unlock()

	return n
}

// Len returns number of elements in cache, including evicted ones not yet cleaned up.
func (c *Memory) Len() int {
	c.RLock()
	cnt := len(c.data)
	c.RUnlock()

	return cnt
}

// Walk walks cached entries that are not evicted.
func (c *Memory) Walk(walkFn func(key string, e *Entry) error) (int, error) {
	c.RLock()
	defer c.RUnlock()

	n := 0
	now := time.Now()

	for k, i := range c.data {
		if !now.Before(i.exp) {
			continue
		}

		c.RUnlock()

		err := walkFn(k, i.entry)

		c.RLock()

		if err != nil {
			return n, err
		}

		n++
	}

	return n, nil
}
