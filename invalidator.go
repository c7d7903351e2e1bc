package lazycache

import (
	"fmt"
	"sync"
	"time"
)

// Invalidator is a registry of cache expiration triggers.
//
// Invalidated caches keep serving stale values while refreshing them.
type Invalidator struct {
	sync.Mutex

	// SkipInterval defines minimal duration between two cache invalidations (flood protection), default 15s.
	SkipInterval time.Duration

	// Expirers are expired on invalidate, Lazy and map backends can be used.
	Expirers []Expirer

	// Callbacks contains a list of additional functions to call on invalidate.
	Callbacks []func()

	lastRun time.Time
}

// Invalidate triggers cache expiration.
func (i *Invalidator) Invalidate() error {
	i.Lock()
	defer i.Unlock()

	if len(i.Expirers) == 0 && len(i.Callbacks) == 0 {
		return ErrNothingToInvalidate
	}

	if i.SkipInterval == 0 {
		i.SkipInterval = 15 * time.Second
	}

	if !i.lastRun.IsZero() && time.Since(i.lastRun) < i.SkipInterval {
		return fmt.Errorf("%w at %s, %s did not pass",
			ErrAlreadyInvalidated, i.lastRun.String(), i.SkipInterval.String())
	}

	i.lastRun = time.Now()

	for _, e := range i.Expirers {
		e.ExpireAll()
	}

	for _, cb := range i.Callbacks {
		cb()
	}

	return nil
}
