package lazycache_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearutop/lazycache"
)

type backend interface {
	lazycache.Backend
	lazycache.Expirer
	Len() int
}

func backends(cfg lazycache.BackendConfig) []backend {
	return []backend{
		lazycache.NewMemory(cfg),
		lazycache.NewShardedMap(cfg),
		lazycache.NewGoCache(cfg),
	}
}

func TestBackend(t *testing.T) {
	for _, b := range backends(lazycache.BackendConfig{
		Name:                     "test",
		Logger:                   ctxd.NoOpLogger{},
		DeleteExpiredJobInterval: 5 * time.Millisecond,
	}) {
		b := b

		t.Run(fmt.Sprintf("%T", b), func(t *testing.T) {
			ctx := context.Background()

			e, err := b.Read(ctx, "key")
			assert.Nil(t, e)
			assert.True(t, errors.Is(err, lazycache.ErrNotFound))

			written := lazycache.NewEntry(123, time.Minute)
			require.NoError(t, b.Write(ctx, "key", written, 30*time.Millisecond))

			e, err = b.Read(ctx, "key")
			require.NoError(t, err)
			assert.Same(t, written, e)
			assert.False(t, e.SoftExpired())

			// Forced expiration keeps value available.
			b.ExpireAll()

			e, err = b.Read(ctx, "key")
			require.NoError(t, err)
			assert.Equal(t, 123, e.Value())
			assert.True(t, e.SoftExpired())
			assert.False(t, written.SoftExpired())

			// Evicted after physical ttl.
			time.Sleep(40 * time.Millisecond)

			_, err = b.Read(ctx, "key")
			assert.True(t, errors.Is(err, lazycache.ErrNotFound))

			// Cleaned up by janitor.
			assert.Eventually(t, func() bool {
				return b.Len() == 0
			}, time.Second, 5*time.Millisecond)
		})
	}
}

func TestBackend_Read_concurrency(t *testing.T) {
	for _, b := range backends(lazycache.BackendConfig{}) {
		b := b

		t.Run(fmt.Sprintf("%T", b), func(t *testing.T) {
			ctx := context.Background()

			pipeline := make(chan struct{}, 500)
			n := 1000

			for i := 0; i < n; i++ {
				pipeline <- struct{}{}

				k := "oneone" + strconv.Itoa(i)

				go func() {
					defer func() {
						<-pipeline
					}()

					err := b.Write(ctx, k, lazycache.NewEntry(123, time.Minute), time.Minute)
					assert.NoError(t, err)

					e, err := b.Read(ctx, k)
					if assert.NoError(t, err) {
						assert.Equal(t, 123, e.Value())
					}
				}()
			}

			// Waiting for goroutines to finish.
			for i := 0; i < cap(pipeline); i++ {
				pipeline <- struct{}{}
			}

			assert.Equal(t, n, b.Len())
		})
	}
}

func TestMemory_stats(t *testing.T) {
	ctx := context.Background()
	st := &stats.TrackerMock{}
	m := lazycache.NewMemory(lazycache.BackendConfig{
		Name:                     "test",
		Stats:                    st,
		ItemsCountReportInterval: 5 * time.Millisecond,
	})
	defer m.Close()

	require.NoError(t, m.Write(ctx, "a", lazycache.NewEntry(1, time.Minute), time.Minute))
	require.NoError(t, m.Write(ctx, "b", lazycache.NewEntry(2, time.Minute), time.Nanosecond))

	time.Sleep(time.Millisecond)

	_, err := m.Read(ctx, "b")
	assert.True(t, errors.Is(err, lazycache.ErrNotFound))

	assert.Equal(t, 2, st.Int(lazycache.MetricWrite))
	assert.Equal(t, 1, st.Int(lazycache.MetricExpired))

	assert.Eventually(t, func() bool {
		return st.Values()[lazycache.MetricItems] == 2
	}, time.Second, 5*time.Millisecond)
}

func TestMemory_Close(t *testing.T) {
	ctx := context.Background()
	m := lazycache.NewMemory()

	require.NoError(t, m.Write(ctx, "a", lazycache.NewEntry(1, time.Minute), time.Minute))

	m.Close()
	m.Close()

	_, err := m.Read(ctx, "a")
	assert.Equal(t, lazycache.ErrCacheClosed, err)
	assert.Equal(t, lazycache.ErrCacheClosed, m.Write(ctx, "a", lazycache.NewEntry(1, time.Minute), time.Minute))
}

func TestMemory_Walk(t *testing.T) {
	ctx := context.Background()

	for _, w := range []interface {
		lazycache.Backend
		lazycache.Walker
		DeleteAll()
		Close()
	}{
		lazycache.NewMemory(),
		lazycache.NewShardedMap(),
	} {
		w := w

		t.Run(fmt.Sprintf("%T", w), func(t *testing.T) {
			defer w.Close()

			for i := 0; i < 10; i++ {
				require.NoError(t, w.Write(ctx, strconv.Itoa(i), lazycache.NewEntry(i, time.Minute), time.Minute))
			}

			require.NoError(t, w.Write(ctx, "evicted", lazycache.NewEntry(-1, time.Minute), time.Nanosecond))
			time.Sleep(time.Millisecond)

			sum := 0
			n, err := w.Walk(func(key string, e *lazycache.Entry) error {
				assert.Equal(t, key, strconv.Itoa(e.Value().(int)))
				sum += e.Value().(int)

				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, 10, n)
			assert.Equal(t, 45, sum)

			n, err = w.Walk(func(key string, e *lazycache.Entry) error {
				return assert.AnError
			})
			assert.Equal(t, assert.AnError, err)
			assert.Equal(t, 0, n)

			w.DeleteAll()

			n, err = w.Walk(func(key string, e *lazycache.Entry) error {
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, 0, n)
		})
	}
}
