// Package barrier holds rendezvous points built on sync.Cond: a one-shot
// two-phase barrier where workers publish results before any of them reads
// the full set, and a reusable cyclic barrier.
//
// Every wait follows the same pattern:
//
//	mu.Lock()
//	for !condition {   // loop, not if: re-check after every wakeup
//	    cond.Wait()    // releases mu while parked, re-acquires on wake
//	}
//	// ... read shared state ...
//	mu.Unlock()
package barrier

import (
	"fmt"
	"sync"
)

// TwoPhase coordinates N workers through two steps:
//
//	step 1: A[i] = B[i] + C[i]
//	step 2: V[i] = M[i] · A
//
// Step 2 for any worker needs every A[j], so no worker may start it until
// all N have finished step 1. The worker that completes the last step 1
// broadcasts; everyone else waits on the condition.
//
// If fewer than N workers ever run Step1, every Step2 blocks forever.
type TwoPhase struct {
	n    int
	b, c []int
	m    [][]int

	mu       sync.Mutex
	done     *sync.Cond // signalled when finished reaches n
	finished int
	a        []int
	v        []int
}

// NewTwoPhase builds a barrier for len(b) workers. c and every row of m must
// have the same length as b.
func NewTwoPhase(b, c []int, m [][]int) *TwoPhase {
	n := len(b)
	if n == 0 {
		panic("barrier: need at least one worker")
	}
	if len(c) != n || len(m) != n {
		panic(fmt.Sprintf("barrier: mismatched inputs len(b)=%d len(c)=%d len(m)=%d", n, len(c), len(m)))
	}
	for i, row := range m {
		if len(row) != n {
			panic(fmt.Sprintf("barrier: row %d of m has %d columns, want %d", i, len(row), n))
		}
	}

	tp := &TwoPhase{
		n: n,
		b: b,
		c: c,
		m: m,
		a: make([]int, n),
		v: make([]int, n),
	}
	tp.done = sync.NewCond(&tp.mu)
	return tp
}

// Demo returns the two-worker instance: B=[2,0], C=[0,5], M=[[1,2],[1,2]].
// Running both steps for both workers gives A=[2,5] and V=[12,12].
func Demo() *TwoPhase {
	return NewTwoPhase(
		[]int{2, 0},
		[]int{0, 5},
		[][]int{{1, 2}, {1, 2}},
	)
}

// Workers returns the number of participants.
func (tp *TwoPhase) Workers() int { return tp.n }

// Step1 publishes A[i] and records completion. The last worker to finish
// wakes every Step2 waiter.
func (tp *TwoPhase) Step1(i int) {
	sum := tp.b[i] + tp.c[i]

	tp.mu.Lock()
	defer tp.mu.Unlock()

	tp.a[i] = sum
	tp.finished++
	if tp.finished == tp.n {
		tp.done.Broadcast()
	}
}

// Step2 waits until every worker has finished Step1, then computes V[i]
// from the complete A.
func (tp *TwoPhase) Step2(i int) {
	tp.mu.Lock()
	for tp.finished < tp.n {
		tp.done.Wait()
	}
	a := make([]int, tp.n)
	copy(a, tp.a)
	tp.mu.Unlock()

	dot := 0
	for j, x := range tp.m[i] {
		dot += x * a[j]
	}

	tp.mu.Lock()
	tp.v[i] = dot
	tp.mu.Unlock()
}

// Run starts one goroutine per worker that performs Step1 then Step2 and
// waits for all of them.
func (tp *TwoPhase) Run() {
	var wg sync.WaitGroup
	for i := 0; i < tp.n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tp.Step1(i)
			tp.Step2(i)
		}(i)
	}
	wg.Wait()
}

// A returns a copy of the step-1 results.
func (tp *TwoPhase) A() []int {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	return append([]int(nil), tp.a...)
}

// V returns a copy of the step-2 results.
func (tp *TwoPhase) V() []int {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	return append([]int(nil), tp.v...)
}
