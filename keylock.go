package lazycache

import (
	"context"
	"runtime"
	"sync/atomic"

	"github.com/bool64/ctxd"
	"github.com/puzpuzpuz/xsync"
)

// keyLock is a mutex of a single key shared by all callers of that key.
type keyLock struct {
	// uses is a number of callers holding or waiting for the lock, -1 when retired.
	uses int64
	sem  chan struct{}
}

func newKeyLock() *keyLock {
	return &keyLock{sem: make(chan struct{}, 1)}
}

// retain registers one more user unless the lock is retired.
func (l *keyLock) retain() bool {
	for {
		n := atomic.LoadInt64(&l.uses)
		if n < 0 {
			return false
		}

		if atomic.CompareAndSwapInt64(&l.uses, n, n+1) {
			return true
		}
	}
}

// forget unregisters a user and returns true if this was the last one and lock is now retired.
func (l *keyLock) forget() bool {
	if atomic.AddInt64(&l.uses, -1) > 0 {
		return false
	}

	return atomic.CompareAndSwapInt64(&l.uses, 0, -1)
}

func (l *keyLock) available() bool {
	return len(l.sem) == 0
}

// keyLocks is a registry of per key locks.
//
// Lock is present in registry only while it has users, so registry size is bounded by number of
// concurrently contended keys.
type keyLocks struct {
	m *xsync.Map
}

func newKeyLocks() *keyLocks {
	return &keyLocks{m: xsync.NewMap()}
}

// lock blocks until key is locked or ctx is done.
//
// Returned unlock function must be called exactly once.
func (kl *keyLocks) lock(ctx context.Context, key string) (unlock func(), err error) {
	if err := ctx.Err(); err != nil {
		return nil, ctxd.WrapError(ctx, err, "failed to lock cache key", "key", key)
	}

	l := kl.retain(key)

	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		kl.forget(key, l)

		return nil, ctxd.WrapError(ctx, ctx.Err(), "failed to lock cache key", "key", key)
	}

	return func() {
		<-l.sem
		kl.forget(key, l)
	}, nil
}

// retain returns published lock with user registered.
func (kl *keyLocks) retain(key string) *keyLock {
	for {
		v, found := kl.m.Load(key)
		if !found {
			// Losing instance is dropped unpublished and never used.
			v, _ = kl.m.LoadOrStore(key, newKeyLock())
		}

		l := v.(*keyLock)
		if l.retain() {
			return l
		}

		// Retired lock is about to be deleted by its last user.
		runtime.Gosched()
	}
}

func (kl *keyLocks) forget(key string, l *keyLock) {
	if l.forget() {
		// Retired lock can not be replaced while it is in the map, so this removes only l.
		kl.m.Delete(key)
	}
}

// available is a non-blocking check that key is not locked.
func (kl *keyLocks) available(key string) bool {
	v, found := kl.m.Load(key)
	if !found {
		return true
	}

	return v.(*keyLock).available()
}

// len returns number of keys in registry.
func (kl *keyLocks) len() int {
	cnt := 0

	kl.m.Range(func(_ string, _ interface{}) bool {
		cnt++

		return true
	})

	return cnt
}
