// Package pool is a shared append-only collection guarded by a counting
// semaphore: at most Capacity goroutines are inside Insert at any instant.
//
// The semaphore is golang.org/x/sync/semaphore.Weighted. Acquire parks the
// goroutine until a permit is released; it never spins. Waiters are not
// promised any particular order.
package pool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Pool admits up to capacity concurrent inserters.
type Pool[T any] struct {
	capacity int
	sem      *semaphore.Weighted

	// Hold, if set, runs while the caller holds a permit, after the item is
	// appended. Tests use it to keep permits held long enough to observe
	// the bound.
	Hold func(item T)

	inside    atomic.Int32 // goroutines between acquire and release
	highWater atomic.Int32 // peak of inside

	// mu protects items. Up to capacity permit holders append concurrently,
	// so the permit alone does not serialize the slice.
	mu    sync.Mutex
	items []T
}

// New returns a pool with capacity permits. It panics if capacity < 1.
func New[T any](capacity int) *Pool[T] {
	if capacity < 1 {
		panic(fmt.Sprintf("pool: capacity must be positive, got %d", capacity))
	}
	return &Pool[T]{
		capacity: capacity,
		sem:      semaphore.NewWeighted(int64(capacity)),
	}
}

// Insert waits for a permit, appends item, then releases the permit.
func (p *Pool[T]) Insert(item T) {
	// Background never cancels, so Acquire only returns once a permit is ours.
	_ = p.sem.Acquire(context.Background(), 1)
	defer p.sem.Release(1)

	n := p.inside.Add(1)
	defer p.inside.Add(-1)
	p.recordHighWater(n)

	p.mu.Lock()
	p.items = append(p.items, item)
	p.mu.Unlock()

	if p.Hold != nil {
		p.Hold(item)
	}
}

func (p *Pool[T]) recordHighWater(n int32) {
	for {
		prev := p.highWater.Load()
		if n <= prev || p.highWater.CompareAndSwap(prev, n) {
			return
		}
	}
}

// Items returns a copy of everything inserted so far, in insertion order.
func (p *Pool[T]) Items() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]T, len(p.items))
	copy(out, p.items)
	return out
}

// HighWater returns the largest number of goroutines observed inside Insert
// at the same time. It never exceeds Capacity.
func (p *Pool[T]) HighWater() int {
	return int(p.highWater.Load())
}

// Capacity returns the number of permits.
func (p *Pool[T]) Capacity() int {
	return p.capacity
}
