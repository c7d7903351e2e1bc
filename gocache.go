package lazycache

import (
	"context"
	"time"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
	pca "github.com/patrickmn/go-cache"
)

var (
	_ Backend = &GoCache{}
	_ Expirer = &GoCache{}
)

// GoCache is a backend on top of github.com/patrickmn/go-cache.
type GoCache struct {
	c *pca.Cache

	name string
	log  ctxd.Logger
	stat stats.Tracker
}

// NewGoCache creates backend with a new go-cache instance.
//
// BackendConfig.DeleteExpiredJobInterval is used as go-cache cleanup interval.
func NewGoCache(cfg ...BackendConfig) *GoCache {
	config := BackendConfig{}

	if len(cfg) >= 1 {
		config = cfg[0]
	}

	config = config.withDefaults()

	return &GoCache{
		c:    pca.New(pca.NoExpiration, config.DeleteExpiredJobInterval),
		name: config.Name,
		log:  config.Logger,
		stat: config.Stats,
	}
}

// Read gets entry.
func (g *GoCache) Read(ctx context.Context, key string) (*Entry, error) {
	v, found := g.c.Get(key)
	if !found {
		return nil, ErrNotFound
	}

	return v.(*Entry), nil
}

// Write stores entry.
func (g *GoCache) Write(ctx context.Context, key string, e *Entry, ttl time.Duration) error {
	// Non-positive durations have special meaning in go-cache.
	if ttl <= 0 {
		return nil
	}

	g.c.Set(key, e, ttl)

	if g.log != nil {
		g.log.Debug(ctx, "wrote to cache", "name", g.name, "key", key, "ttl", ttl)
	}

	if g.stat != nil {
		g.stat.Add(ctx, MetricWrite, 1, "name", g.name)
	}

	return nil
}

// ExpireAll marks all entries as expired, they can still serve stale cache.
//
// Entries written concurrently with ExpireAll may be replaced by expired previous values.
func (g *GoCache) ExpireAll() {
	now := time.Now()

	for k, it := range g.c.Items() {
		e, ok := it.Object.(*Entry)
		if !ok {
			continue
		}

		ttl := time.Until(time.Unix(0, it.Expiration))
		if ttl <= 0 {
			continue
		}

		g.c.Set(k, e.Expired(now), ttl)
	}
}

// Len returns number of elements in cache, including evicted ones not yet cleaned up.
func (g *GoCache) Len() int {
	return g.c.ItemCount()
}
