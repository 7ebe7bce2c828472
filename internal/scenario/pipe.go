package scenario

import (
	"errors"
	"fmt"

	"github.com/marcodamonte/concurrency/sharedstate/internal/worker"
	"github.com/marcodamonte/concurrency/sharedstate/pipe"
)

// endOfStream is the pipe sentinel; items are never negative.
const endOfStream = -1

type pipeScenario struct{}

func (pipeScenario) Name() string { return "pipe" }

func (pipeScenario) Description() string {
	return "Message passing: sentinel pipe and symmetric deadlock"
}

// run streams Items values through a one-way pipe and expects the consumer
// to stop at the sentinel. With Symmetric set it then wires two relays that
// both receive first and expects them to hang.
func (pipeScenario) run(env Env) Outcome {
	items := env.Config.Items
	p := pipe.New(endOfStream, items)

	var (
		consumed int
		sum      int
	)
	g := worker.New(worker.Config{Name: "pipe", Logger: env.Logger})
	g.Go("consumer", func() {
		consumed = p.Consume(func(v int) {
			env.Logger.Debug("got an item", "item", v)
			sum += v
		})
	})
	for i := 0; i < items; i++ {
		p.Send(i)
	}
	p.Done()

	if err := g.WaitTimeout(env.Config.Timeout); err != nil {
		env.Logger.Error("consumer did not stop at the sentinel", "err", err)
		return Unexpected
	}
	fmt.Fprintf(env.Out, "  one-way: sent %d + sentinel, consumer processed %d (sum %d)\n", items, consumed, sum)
	if consumed != items {
		return Unexpected
	}
	if !env.Config.Symmetric {
		return OK
	}

	sideA, sideB := pipe.Symmetric()
	sym := worker.New(worker.Config{Name: "symmetric", Logger: env.Logger})
	sym.Go("a", sideA)
	sym.Go("b", sideB)

	err := sym.WaitTimeout(env.Config.Timeout)
	if !errors.Is(err, worker.ErrTimedOut) {
		fmt.Fprintln(env.Out, "  symmetric: both sides finished")
		return Unexpected
	}
	fmt.Fprintf(env.Out, "  symmetric: no progress after %s; parked workers:\n", env.Config.Timeout)
	dumpParked(env.Out, "pipe.Relay")
	return Deadlocked
}
