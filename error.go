package lazycache

// SentinelError is an error.
type SentinelError string

const (
	// ErrNotFound indicates missing cache entry.
	ErrNotFound = SentinelError("missing cache item")

	// ErrCacheClosed indicates cache backend was closed and deactivated.
	ErrCacheClosed = SentinelError("cache is closed")

	// ErrPoolSaturated indicates background pool has no free workers.
	ErrPoolSaturated = SentinelError("background pool is saturated")

	// ErrNothingToInvalidate indicates no caches were added to Invalidator.
	ErrNothingToInvalidate = SentinelError("nothing to invalidate")

	// ErrAlreadyInvalidated indicates recent invalidation.
	ErrAlreadyInvalidated = SentinelError("already invalidated")
)

// Error implements error.
func (e SentinelError) Error() string {
	return string(e)
}
