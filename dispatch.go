package lazycache

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Dispatcher runs background tasks without blocking the caller.
type Dispatcher interface {
	// Dispatch schedules task or returns error if task can not be scheduled.
	Dispatch(task func()) error
}

// GoDispatcher runs every task in a new goroutine.
type GoDispatcher struct{}

// Dispatch starts task in a goroutine.
func (GoDispatcher) Dispatch(task func()) error {
	go task()

	return nil
}

// SyncDispatcher runs task in caller goroutine, it is mostly useful for deterministic tests.
type SyncDispatcher struct{}

// Dispatch runs task and returns after it is finished.
func (SyncDispatcher) Dispatch(task func()) error {
	task()

	return nil
}

// Pool is a Dispatcher with limited number of concurrent tasks.
type Pool struct {
	size int64
	sem  *semaphore.Weighted
}

var _ Dispatcher = &Pool{}

// NewPool creates a pool to run up to size tasks concurrently, size is at least 1.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}

	return &Pool{
		size: int64(size),
		sem:  semaphore.NewWeighted(int64(size)),
	}
}

// Dispatch starts task in a goroutine or fails with ErrPoolSaturated if all workers are busy.
func (p *Pool) Dispatch(task func()) error {
	if !p.sem.TryAcquire(1) {
		return ErrPoolSaturated
	}

	go func() {
		defer p.sem.Release(1)

		task()
	}()

	return nil
}

// Wait blocks until all started tasks are finished or ctx is done.
func (p *Pool) Wait(ctx context.Context) error {
	if err := p.sem.Acquire(ctx, p.size); err != nil {
		return err
	}

	p.sem.Release(p.size)

	return nil
}
