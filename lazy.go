package lazycache

import (
	"context"
	"errors"
	"time"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
)

// LazyConfig is optional configuration for NewLazy.
type LazyConfig struct {
	// Name is added to logs and stats.
	Name string

	// Backend stores entries, in-memory map is created by default.
	Backend Backend

	// TimeToLive is a default time to live of built values, default 5m.
	// It can be overridden per call with WithTTL.
	TimeToLive time.Duration

	// Dispatcher runs background refresh of stale values, default is a goroutine per refresh.
	Dispatcher Dispatcher

	// Logger collects messages with context.
	Logger ctxd.Logger

	// Stats tracks stats.
	Stats stats.Tracker
}

// Lazy is a cache that builds missing values on demand and refreshes stale values in background.
//
// Build is locked per key, so a value is built at most once at a time regardless of
// concurrent demand. Please use NewLazy to create instance.
type Lazy struct {
	backend    Backend
	dispatcher Dispatcher
	locks      *keyLocks
	config     LazyConfig
	log        ctxd.Logger
	stat       stats.Tracker

	// own is set if backend was created by NewLazy and should be closed with Lazy.
	own *Memory
}

// NewLazy creates a Lazy cache instance.
func NewLazy(config LazyConfig) *Lazy {
	if config.TimeToLive == 0 {
		config.TimeToLive = DefaultTTL
	}

	l := &Lazy{
		locks: newKeyLocks(),
	}

	l.log = config.Logger
	if l.log == nil {
		l.log = ctxd.NoOpLogger{}
	}

	l.stat = config.Stats
	if l.stat == nil {
		l.stat = stats.NoOp{}
	}

	l.dispatcher = config.Dispatcher
	if l.dispatcher == nil {
		l.dispatcher = GoDispatcher{}
	}

	l.backend = config.Backend
	if l.backend == nil {
		l.own = NewMemory(BackendConfig{
			Name:   config.Name,
			Logger: config.Logger,
			Stats:  config.Stats,
		})
		l.backend = l.own
	}

	l.config = config

	return l
}

// Close releases resources of default backend, provided Backend is not closed.
func (l *Lazy) Close() {
	if l.own != nil {
		l.own.Close()
	}
}

// Get returns cached value, it does not build anything.
//
// Stale value is returned as long as it is not evicted.
func (l *Lazy) Get(ctx context.Context, key string) (interface{}, bool) {
	e, err := l.backend.Read(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			l.log.Warn(ctx, "failed to read cache value", "error", err, "name", l.config.Name, "key", key)
		}

		return nil, false
	}

	return e.Value(), true
}

// GetOrSet returns cached value or builds and caches it.
//
// If there is no value, caller is blocked until value is built, concurrent callers of the same key
// wait for a single build. If value is stale, it is returned immediately and refresh is dispatched
// in background unless another refresh of that key is in progress.
func (l *Lazy) GetOrSet(ctx context.Context, key string, build BuildFunc) (interface{}, error) {
	return l.getOrSet(ctx, key, build, isAny)
}

// Set builds value and caches it regardless of current cache state.
func (l *Lazy) Set(ctx context.Context, key string, build BuildFunc) (interface{}, error) {
	return l.update(ctx, key, build, true, isAny)
}

// GetAsync delivers result of Get to a channel, ErrNotFound is sent for a missing value.
func (l *Lazy) GetAsync(ctx context.Context, key string) <-chan Result {
	res := make(chan Result, 1)

	go func() {
		v, found := l.Get(ctx, key)
		if !found {
			res <- Result{Err: ErrNotFound}

			return
		}

		res <- Result{Value: v}
	}()

	return res
}

// GetOrSetAsync delivers result of GetOrSet to a channel.
func (l *Lazy) GetOrSetAsync(ctx context.Context, key string, build BuildFunc) <-chan Result {
	res := make(chan Result, 1)

	go func() {
		v, err := l.GetOrSet(ctx, key, build)
		res <- Result{Value: v, Err: err}
	}()

	return res
}

// SetAsync delivers result of Set to a channel.
func (l *Lazy) SetAsync(ctx context.Context, key string, build BuildFunc) <-chan Result {
	res := make(chan Result, 1)

	go func() {
		v, err := l.Set(ctx, key, build)
		res <- Result{Value: v, Err: err}
	}()

	return res
}

// ExpireAll marks all entries as stale if backend supports it.
func (l *Lazy) ExpireAll() {
	if e, ok := l.backend.(Expirer); ok {
		e.ExpireAll()
	}
}

func isAny(interface{}) bool {
	return true
}

func (l *Lazy) getOrSet(ctx context.Context, key string, build BuildFunc, accept func(interface{}) bool) (interface{}, error) {
	if SkipRead(ctx) {
		return l.update(ctx, key, build, true, accept)
	}

	e, err := l.backend.Read(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, ctxd.WrapError(ctx, err, "failed to read cache value", "key", key)
		}

		l.log.Debug(ctx, "cache miss", "name", l.config.Name, "key", key)
		l.stat.Add(ctx, MetricMiss, 1, "name", l.config.Name)

		return l.update(ctx, key, build, false, accept)
	}

	if !accept(e.Value()) {
		l.log.Debug(ctx, "cache value type mismatch", "name", l.config.Name, "key", key)
		l.stat.Add(ctx, MetricMiss, 1, "name", l.config.Name)

		return l.update(ctx, key, build, false, accept)
	}

	if !e.SoftExpired() {
		l.stat.Add(ctx, MetricHit, 1, "name", l.config.Name)

		return e.Value(), nil
	}

	l.stat.Add(ctx, MetricStale, 1, "name", l.config.Name)

	if l.locks.available(key) {
		l.refresh(ctx, key, build, accept)
	}

	return e.Value(), nil
}

// refresh dispatches update of stale value, caller is not waiting for result.
func (l *Lazy) refresh(ctx context.Context, key string, build BuildFunc, accept func(interface{}) bool) {
	// Detaching context to survive the end of the triggering call.
	ctx = detachedContext{ctx}

	err := l.dispatcher.Dispatch(func() {
		defer func() {
			if r := recover(); r != nil {
				l.log.Error(ctx, "background cache refresh panicked",
					"panic", r,
					"name", l.config.Name,
					"key", key)
			}
		}()

		if _, err := l.update(ctx, key, build, false, accept); err != nil {
			l.log.Warn(ctx, "failed to refresh stale cache value in background",
				"error", err,
				"name", l.config.Name,
				"key", key)
		}
	})
	if err != nil {
		l.log.Debug(ctx, "background cache refresh skipped",
			"error", err,
			"name", l.config.Name,
			"key", key)

		return
	}

	l.stat.Add(ctx, MetricRefresh, 1, "name", l.config.Name)
}

// update builds and stores value under key lock.
//
// Unless forced, value is not built if a fresh one was stored while waiting for the lock.
func (l *Lazy) update(
	ctx context.Context,
	key string,
	build BuildFunc,
	force bool,
	accept func(interface{}) bool,
) (interface{}, error) {
	unlock, err := l.locks.lock(ctx, key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if !force {
		if e, err := l.backend.Read(ctx, key); err == nil && accept(e.Value()) && !e.SoftExpired() {
			l.log.Debug(ctx, "cache value was built while waiting for lock", "name", l.config.Name, "key", key)
			l.stat.Add(ctx, MetricHit, 1, "name", l.config.Name)

			return e.Value(), nil
		}
	}

	return l.build(ctx, key, build)
}

func (l *Lazy) build(ctx context.Context, key string, build BuildFunc) (interface{}, error) {
	l.log.Debug(ctx, "building cache value", "name", l.config.Name, "key", key)
	l.stat.Add(ctx, MetricBuild, 1, "name", l.config.Name)

	v, err := build(ctx)
	if err != nil {
		l.stat.Add(ctx, MetricFailed, 1, "name", l.config.Name)

		return nil, err
	}

	ttl := TTL(ctx)
	if ttl == 0 {
		ttl = l.config.TimeToLive
	}

	e := NewEntry(v, ttl)

	if err := l.backend.Write(ctx, key, e, e.AbsoluteTTL()); err != nil {
		return nil, ctxd.WrapError(ctx, err, "failed to write cache value", "key", key)
	}

	return v, nil
}
