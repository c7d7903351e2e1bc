package lazycache

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

var (
	_ Backend = &ShardedMap{}
	_ Expirer = &ShardedMap{}
	_ Walker  = &ShardedMap{}
)

const shards = 64

type bucket struct {
	sync.RWMutex
	data map[string]item
}

// ShardedMap is an in-memory cache backend with keys distributed among 64 buckets.
//
// Please use NewShardedMap to create it.
type ShardedMap struct {
	buckets [shards]bucket

	*trait
}

// NewShardedMap creates an instance of sharded in-memory backend with optional configuration.
//
// ShardedMap must be closed to stop background cleanup.
func NewShardedMap(cfg ...BackendConfig) *ShardedMap {
	config := BackendConfig{}

	if len(cfg) >= 1 {
		config = cfg[0]
	}

	c := &ShardedMap{}

	for i := 0; i < shards; i++ {
		c.buckets[i].data = make(map[string]item)
	}

	c.trait = newTrait(c, config)

	return c
}

func (c *ShardedMap) bucketOf(key string) *bucket {
	return &c.buckets[xxhash.Sum64String(key)%shards]
}

// Read gets entry.
func (c *ShardedMap) Read(ctx context.Context, key string) (*Entry, error) {
	b := c.bucketOf(key)

	b.RLock()
	i, found := b.data[key]
	b.RUnlock()

	return c.prepareRead(ctx, key, i, found)
}

// Write stores entry.
func (c *ShardedMap) Write(ctx context.Context, key string, e *Entry, ttl time.Duration) error {
	b := c.bucketOf(key)

	b.Lock()
	b.data[key] = item{entry: e, exp: time.Now().Add(ttl)}
	b.Unlock()

	c.wrote(ctx, key, ttl)

	return nil
}

// ExpireAll marks all entries as expired, they can still serve stale cache.
func (c *ShardedMap) ExpireAll() {
	now := time.Now()

	for i := range c.buckets {
		b := &c.buckets[i]

		b.Lock()
		for k, it := range b.data {
			it.entry = it.entry.Expired(now)
			b.data[k] = it
		}
		b.Unlock()
	}
}

// DeleteAll erases all entries.
func (c *ShardedMap) DeleteAll() {
	for i := range c.buckets {
		b := &c.buckets[i]

		b.Lock()
		b.data = make(map[string]item)
		b.Unlock()
	}
}

func (c *ShardedMap) deleteExpiredBefore(now time.Time) int {
	n := 0

	for i := range c.buckets {
		b := &c.buckets[i]

		b.Lock()
		for k, it := range b.data {
			if !now.Before(it.exp) {
				delete(b.data, k)
				n++
			}
		}
		b.Unlock()
	}

	return n
}

// Len returns number of elements in cache, including evicted ones not yet cleaned up.
func (c *ShardedMap) Len() int {
	cnt := 0

	for i := range c.buckets {
		b := &c.buckets[i]

		b.RLock()
		cnt += len(b.data)
		b.RUnlock()
	}

	return cnt
}

// Walk walks cached entries that are not evicted.
func (c *ShardedMap) Walk(walkFn func(key string, e *Entry) error) (int, error) {
	n := 0
	now := time.Now()

	for i := range c.buckets {
		b := &c.buckets[i]

		b.RLock()
		items := make(map[string]*Entry, len(b.data))

		for k, it := range b.data {
			if now.Before(it.exp) {
				items[k] = it.entry
			}
		}
		b.RUnlock()

		for k, e := range items {
			if err := walkFn(k, e); err != nil {
				return n, err
			}

			n++
		}
	}

	return n, nil
}
