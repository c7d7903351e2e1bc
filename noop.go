package lazycache

import (
	"context"
	"time"
)

// NoOp is a Backend stub.
//
// With NoOp backend every GetOrSet builds a value, but concurrent builds of a key are still serialized.
type NoOp struct{}

var _ Backend = NoOp{}

// Read does not find anything.
func (NoOp) Read(ctx context.Context, key string) (*Entry, error) {
	return nil, ErrNotFound
}

// Write discards entry.
func (NoOp) Write(ctx context.Context, key string, e *Entry, ttl time.Duration) error {
	return nil
}
