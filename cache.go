package lazycache

import (
	"context"
	"time"
)

// DefaultTTL is the time to live of an entry when none is provided with WithTTL or config.
const DefaultTTL = 5 * time.Minute

// Backend physically stores entries and evicts them once their ttl elapses.
type Backend interface {
	// Read returns a stored entry or ErrNotFound if it was never stored or already evicted.
	Read(ctx context.Context, key string) (*Entry, error)

	// Write stores entry, it must not be readable after ttl.
	Write(ctx context.Context, key string, e *Entry, ttl time.Duration) error
}

// Expirer marks all entries as soft expired, they can still serve stale values.
type Expirer interface {
	ExpireAll()
}

// Walker calls function for every entry in cache and fails on first error returned by that function.
//
// Count of processed entries is returned.
type Walker interface {
	Walk(func(key string, e *Entry) error) (int, error)
}

// BuildFunc produces a value to cache.
type BuildFunc func(ctx context.Context) (interface{}, error)

// Result is delivered by async operations.
type Result struct {
	Value interface{}
	Err   error
}
