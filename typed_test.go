package lazycache_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearutop/lazycache"
)

type department struct {
	Name string
}

func (d department) String() string {
	return "department " + d.Name
}

type cityDepartment struct {
	department
	City string
}

func TestGetOrSet_typed(t *testing.T) {
	ctx := context.Background()
	l := lazycache.NewLazy(lazycache.LazyConfig{})
	defer l.Close()

	s, err := lazycache.GetOrSet(ctx, l, "key", func(ctx context.Context) (string, error) {
		return "123", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "123", s)

	s, found := lazycache.Get[string](ctx, l, "key")
	assert.True(t, found)
	assert.Equal(t, "123", s)

	// Type mismatch is a miss, not a failure.
	i, found := lazycache.Get[int](ctx, l, "key")
	assert.False(t, found)
	assert.Equal(t, 0, i)

	i, err = lazycache.GetOrSet(ctx, l, "key", func(ctx context.Context) (int, error) {
		return 123, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 123, i)

	_, found = lazycache.Get[string](ctx, l, "key")
	assert.False(t, found)

	v, found := l.Get(ctx, "key")
	assert.True(t, found)
	assert.Equal(t, 123, v)
}

func TestSet_typed(t *testing.T) {
	ctx := context.Background()
	l := lazycache.NewLazy(lazycache.LazyConfig{})
	defer l.Close()

	d, err := lazycache.Set(ctx, l, "key", func(ctx context.Context) (fmt.Stringer, error) {
		return cityDepartment{department: department{Name: "roads"}, City: "Riga"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "department roads", d.String())

	// Value stored as interface is available by its concrete type.
	cd, found := lazycache.Get[cityDepartment](ctx, l, "key")
	assert.True(t, found)
	assert.Equal(t, "Riga", cd.City)

	st, found := lazycache.Get[fmt.Stringer](ctx, l, "key")
	assert.True(t, found)
	assert.Equal(t, "department roads", st.String())

	// Exact type is required for structs.
	_, found = lazycache.Get[department](ctx, l, "key")
	assert.False(t, found)

	// Concrete value is available by interface.
	dur, err := lazycache.Set(ctx, l, "dur", func(ctx context.Context) (time.Duration, error) {
		return time.Second, nil
	})
	require.NoError(t, err)

	st, found = lazycache.Get[fmt.Stringer](ctx, l, "dur")
	assert.True(t, found)
	assert.Equal(t, dur.String(), st.String())
}

func TestGetOrSet_typedFailed(t *testing.T) {
	ctx := context.Background()
	l := lazycache.NewLazy(lazycache.LazyConfig{})
	defer l.Close()

	i, err := lazycache.GetOrSet(ctx, l, "key", func(ctx context.Context) (int, error) {
		return 0, assert.AnError
	})
	assert.Equal(t, assert.AnError, err)
	assert.Equal(t, 0, i)

	_, found := lazycache.Get[int](ctx, l, "key")
	assert.False(t, found)
}
