package lazycache

import (
	"context"
	"sync"
	"time"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
)

// BackendConfig controls in-memory backend instance.
type BackendConfig struct {
	// Logger is an instance of contextualized logger, can be nil.
	Logger ctxd.Logger

	// Stats is metrics collector, can be nil.
	Stats stats.Tracker

	// Name is cache instance name, used in stats and logging.
	Name string

	// DeleteExpiredJobInterval is delay between two consecutive cleanups of evicted entries, default 1m.
	DeleteExpiredJobInterval time.Duration

	// ItemsCountReportInterval is items count metric report interval, default 1m.
	ItemsCountReportInterval time.Duration
}

func (cfg BackendConfig) withDefaults() BackendConfig {
	if cfg.DeleteExpiredJobInterval == 0 {
		cfg.DeleteExpiredJobInterval = time.Minute
	}

	if cfg.ItemsCountReportInterval == 0 {
		cfg.ItemsCountReportInterval = time.Minute
	}

	return cfg
}

// storage is implemented by map based backends to share background jobs.
type storage interface {
	deleteExpiredBefore(now time.Time) int
	Len() int
}

// item is a stored entry with its eviction time.
type item struct {
	entry *Entry
	exp   time.Time
}

// trait is a shared part of map based backends.
type trait struct {
	closed    chan struct{}
	closeOnce sync.Once

	config BackendConfig
	log    ctxd.Logger
	stat   stats.Tracker
}

func newTrait(s storage, cfg BackendConfig) *trait {
	cfg = cfg.withDefaults()

	t := &trait{
		config: cfg,
		log:    cfg.Logger,
		stat:   cfg.Stats,
		closed: make(chan struct{}),
	}

	go t.janitor(s)

	if t.stat != nil {
		go t.reportItemsCount(s)
	}

	return t
}

// prepareRead checks physical expiration of found item and collects stats.
func (t *trait) prepareRead(ctx context.Context, key string, i item, found bool) (*Entry, error) {
	if found && !time.Now().Before(i.exp) {
		if t.log != nil {
			t.log.Debug(ctx, "cache entry evicted", "name", t.config.Name, "key", key)
		}

		if t.stat != nil {
			t.stat.Add(ctx, MetricExpired, 1, "name", t.config.Name)
		}

		found = false
	}

	if !found {
		return nil, ErrNotFound
	}

	return i.entry, nil
}

func (t *trait) wrote(ctx context.Context, key string, ttl time.Duration) {
	if t.log != nil {
		t.log.Debug(ctx, "wrote to cache", "name", t.config.Name, "key", key, "ttl", ttl)
	}

	if t.stat != nil {
		t.stat.Add(ctx, MetricWrite, 1, "name", t.config.Name)
	}
}

// Close stops background jobs of backend.
func (t *trait) Close() {
	t.closeOnce.Do(func() {
		close(t.closed)
	})
}

func (t *trait) janitor(s storage) {
	ticker := time.NewTicker(t.config.DeleteExpiredJobInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			n := s.deleteExpiredBefore(now)

			if t.log != nil && n > 0 {
				t.log.Debug(context.Background(), "deleted evicted cache items",
					"name", t.config.Name,
					"count", n,
				)
			}
		case <-t.closed:
			return
		}
	}
}

func (t *trait) reportItemsCount(s storage) {
	ticker := time.NewTicker(t.config.ItemsCountReportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.stat.Set(context.Background(), MetricItems, float64(s.Len()), "name", t.config.Name)
		case <-t.closed:
			return
		}
	}
}
