package scenario

import (
	"fmt"
	"slices"

	"github.com/marcodamonte/concurrency/sharedstate/barrier"
)

type barrierScenario struct{}

func (barrierScenario) Name() string { return "barrier" }

func (barrierScenario) Description() string {
	return "Condition variable: two-phase rendezvous"
}

func (barrierScenario) run(env Env) Outcome {
	tp := barrier.Demo()
	tp.Run()

	a, v := tp.A(), tp.V()
	fmt.Fprintf(env.Out, "  A = B + C   = %v\n", a)
	fmt.Fprintf(env.Out, "  V = M · A   = %v\n", v)
	if !slices.Equal(a, []int{2, 5}) || !slices.Equal(v, []int{12, 12}) {
		env.Logger.Error("phase 2 saw incomplete phase 1 data", "A", a, "V", v)
		return Unexpected
	}

	steps := env.Config.Steps
	counters := barrier.StepCount(steps)
	fmt.Fprintf(env.Out, "  cyclic barrier, %d steps: counters = %v\n", steps, counters)
	if counters != [2]int{steps, steps} {
		return Unexpected
	}
	return OK
}
