package lazycache

import "context"

// Get returns cached value of type V.
//
// Value of another type stored under the same key is reported as missing.
func Get[V any](ctx context.Context, l *Lazy, key string) (V, bool) {
	var zero V

	v, found := l.Get(ctx, key)
	if !found {
		return zero, false
	}

	tv, ok := v.(V)
	if !ok {
		return zero, false
	}

	return tv, true
}

// GetOrSet returns cached value of type V or builds and caches it.
//
// Value of another type stored under the same key is treated as a miss and is replaced.
func GetOrSet[V any](ctx context.Context, l *Lazy, key string, build func(ctx context.Context) (V, error)) (V, error) {
	v, err := l.getOrSet(ctx, key, untyped(build), isOf[V])

	return typed[V](v, err)
}

// Set builds value of type V and caches it regardless of current cache state.
func Set[V any](ctx context.Context, l *Lazy, key string, build func(ctx context.Context) (V, error)) (V, error) {
	v, err := l.update(ctx, key, untyped(build), true, isOf[V])

	return typed[V](v, err)
}

func isOf[V any](v interface{}) bool {
	_, ok := v.(V)

	return ok
}

func untyped[V any](build func(ctx context.Context) (V, error)) BuildFunc {
	return func(ctx context.Context) (interface{}, error) {
		v, err := build(ctx)

		return v, err
	}
}

func typed[V any](v interface{}, err error) (V, error) {
	tv, _ := v.(V)

	return tv, err
}
