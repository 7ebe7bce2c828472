package barrier

import "sync"

// Cyclic is a reusable barrier for a fixed number of parties. Each call to
// Wait blocks until parties goroutines have called it; then all are released
// and the barrier resets for the next round.
type Cyclic struct {
	parties int

	mu         sync.Mutex
	cond       *sync.Cond
	count      int
	generation uint64
}

// NewCyclic returns a barrier for parties goroutines. It panics if
// parties <= 0.
func NewCyclic(parties int) *Cyclic {
	if parties <= 0 {
		panic("barrier: parties must be > 0")
	}
	cb := &Cyclic{parties: parties}
	cb.cond = sync.NewCond(&cb.mu)
	return cb
}

// Wait blocks until all parties have arrived and returns this caller's
// arrival index, 0 for the first and parties-1 for the last.
func (cb *Cyclic) Wait() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	arrival := cb.count
	gen := cb.generation
	cb.count++

	if cb.count == cb.parties {
		// Last to arrive: open the barrier and start a new generation.
		cb.count = 0
		cb.generation++
		cb.cond.Broadcast()
		return arrival
	}

	// Wait on the generation, not the count: a fast goroutine may already
	// be arriving for the next round when this one wakes.
	for gen == cb.generation {
		cb.cond.Wait()
	}
	return arrival
}

// StepCount runs two workers for steps rounds. In each round a worker reads
// its peer's counter, waits for both reads, writes peer+1 to its own
// counter, and waits for both writes. Both counters end at steps.
func StepCount(steps int) [2]int {
	var counters [2]int
	bar := NewCyclic(2)

	count := func(self int) {
		for s := 0; s < steps; s++ {
			other := counters[1-self]
			bar.Wait() // reads complete
			counters[self] = other + 1
			bar.Wait() // writes complete
		}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		count(1)
	}()
	count(0)
	wg.Wait()

	return counters
}
