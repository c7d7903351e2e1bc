// Package lazycache provides an in-process lazy cache with stampede protection.
//
// Missing or stale values are rebuilt by a caller supplied function, at most one
// rebuild runs per key at a time regardless of how many callers ask for that key.
//
// Features:
//
//   - Cache updates are locked per key, concurrent callers of the same key wait for a single build.
//   - Lock registry only holds keys that are currently contended, it does not grow with key space.
//   - Separated soft and absolute expiration allows serving stale values while refreshing in background.
//   - Expiration jitter to avoid massive synchronized expiration.
//   - Background refresh is dispatched to an injectable executor (goroutine, bounded pool or inline).
//   - Pluggable backends with physical TTL eviction: map, sharded map, patrickmn/go-cache.
//   - Allows logging, stats collection.
//   - Propagates context to allow cancellation of lock waits and better control of build functions.
//   - Allows mass expiration (invalidation).
package lazycache
