// Package queue is an unbounded producer/consumer queue that also tracks
// unfinished work: Put counts an item as pending, TaskDone marks one
// finished, and Join waits until nothing is pending.
//
// Get and Join park on sync.Cond; neither polls.
package queue

import (
	"sync"

	"github.com/gammazero/deque"
)

// Queue is safe for concurrent use. The zero value is not usable; call New.
type Queue[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond // an item was added
	allDone  *sync.Cond // pending dropped to zero
	items    deque.Deque[T]
	pending  int
}

// New returns an empty queue.
func New[T any]() *Queue[T] {
	q := &Queue[T]{}
	q.notEmpty = sync.NewCond(&q.mu)
	q.allDone = sync.NewCond(&q.mu)
	return q
}

// Put appends item and counts it as pending. It never blocks on capacity.
func (q *Queue[T]) Put(item T) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items.PushBack(item)
	q.pending++
	q.notEmpty.Signal()
}

// Get removes and returns the oldest item, waiting for one if the queue is
// empty.
func (q *Queue[T]) Get() T {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.items.Len() == 0 {
		q.notEmpty.Wait()
	}
	return q.items.PopFront()
}

// TaskDone marks one previously fetched item as processed. When the last
// pending item is marked, every Join caller wakes.
//
// Calling TaskDone more times than Put panics.
func (q *Queue[T]) TaskDone() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.pending <= 0 {
		panic("queue: TaskDone called more times than Put")
	}
	q.pending--
	if q.pending == 0 {
		q.allDone.Broadcast()
	}
}

// Join blocks until every item put so far has been marked with TaskDone.
// It returns immediately if nothing is pending.
func (q *Queue[T]) Join() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.pending > 0 {
		q.allDone.Wait()
	}
}

// Pending returns the number of items put but not yet marked done.
func (q *Queue[T]) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending
}

// Len returns the number of items waiting to be fetched.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}
