// Package cell holds single shared values guarded (or deliberately not
// guarded) by a mutex: a counter, its racy sibling, a bank balance and a
// seen-set.
//
// counter++ is NOT atomic. It is a read, an add and a write:
//
//	LOAD  counter → reg
//	ADD   reg, 1
//	STORE reg → counter
//
// When two goroutines interleave between LOAD and STORE they both read the
// same value and one increment is lost. Counter closes that window with a
// lock; RacyCounter leaves it open on purpose.
package cell

import "sync"

// Counter is a mutex-guarded integer. After any set of completed Increment
// calls, Value equals the number of calls.
type Counter struct {
	// Yield, if set, runs between the read and the write of Increment. It
	// is called while the lock is held, so it cannot break the count.
	Yield func()

	mu    sync.Mutex
	value int
}

// Increment adds one under the lock.
func (c *Counter) Increment() {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := c.value
	if c.Yield != nil {
		c.Yield()
	}
	c.value = v + 1
}

// Value returns the current count.
func (c *Counter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// RacyCounter has the same API as Counter but no lock. Concurrent Increment
// calls lose updates; that is the property it exists to show.
//
// Run its tests with -race and the detector flags every access.
type RacyCounter struct {
	// Yield, if set, runs between the read and the write of Increment.
	// runtime.Gosched is the usual choice: it widens the window in which
	// another goroutine can read the stale value.
	Yield func()

	value int
}

// Increment reads, optionally yields, and writes back value+1 without any
// synchronization.
func (c *RacyCounter) Increment() {
	v := c.value // DATA RACE: read
	if c.Yield != nil {
		c.Yield()
	}
	c.value = v + 1 // DATA RACE: write
}

// Value returns the current count. Only meaningful once every writer has
// finished.
func (c *RacyCounter) Value() int {
	return c.value
}
