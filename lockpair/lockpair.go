// Package lockpair is two shared values, each behind its own lock, updated
// by two procedures that take the locks in opposite order.
//
//	Compute:      lock X, lock Y   y = x + y; x = x * x
//	AntiCompute:  lock Y, lock X   y -= x;    x *= 3
//
// Run one after the other, both finish. Run concurrently, and if each takes
// its first lock before the other takes its second, both wait forever:
//
//	P1                        P2
//	acquire X: ok             acquire Y: ok
//	acquire Y: wait           acquire X: wait
//	wait                      wait
//
// Nothing here detects or breaks the deadlock. Callers that need to observe
// it use a bounded wait.
package lockpair

import "sync"

// Pair holds x and y and their locks.
type Pair struct {
	xMu, yMu sync.Locker

	// Hold, if set, runs after a procedure takes its first lock and before
	// it asks for the second. A hook that waits for the other procedure to
	// take its first lock forces the deadlock.
	Hold func(proc string)

	x, y int
}

// New returns a pair over sync.Mutex with x = 1 and y = 0.
func New() *Pair {
	return NewWith(func() sync.Locker { return new(sync.Mutex) })
}

// NewWith returns a pair whose two locks come from newLock, so callers can
// substitute instrumented mutexes.
func NewWith(newLock func() sync.Locker) *Pair {
	return &Pair{
		xMu: newLock(),
		yMu: newLock(),
		x:   1,
		y:   0,
	}
}

// Compute locks X then Y.
func (p *Pair) Compute() {
	p.xMu.Lock()
	p.hold("compute")
	p.yMu.Lock()

	p.y = p.x + p.y
	p.x = p.x * p.x

	p.yMu.Unlock()
	p.xMu.Unlock()
}

// AntiCompute locks Y then X.
func (p *Pair) AntiCompute() {
	p.yMu.Lock()
	p.hold("anti_compute")
	p.xMu.Lock()

	p.y -= p.x
	p.x *= 3

	p.xMu.Unlock()
	p.yMu.Unlock()
}

func (p *Pair) hold(proc string) {
	if p.Hold != nil {
		p.Hold(proc)
	}
}

// Values returns x and y, taking both locks in Compute's order.
func (p *Pair) Values() (x, y int) {
	p.xMu.Lock()
	defer p.xMu.Unlock()
	p.yMu.Lock()
	defer p.yMu.Unlock()
	return p.x, p.y
}

// Rendezvous returns a Hold hook for two procedures: each one, once it owns
// its first lock, waits until the other owns its first lock too. With it
// installed, running Compute and AntiCompute concurrently always deadlocks.
func Rendezvous() func(proc string) {
	var wg sync.WaitGroup
	wg.Add(2)
	return func(string) {
		wg.Done()
		wg.Wait()
	}
}
