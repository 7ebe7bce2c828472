package scenario

import (
	"errors"
	"fmt"
	"io"

	"github.com/marcodamonte/concurrency/sharedstate/internal/detect"
	"github.com/marcodamonte/concurrency/sharedstate/internal/stackdump"
	"github.com/marcodamonte/concurrency/sharedstate/internal/worker"
	"github.com/marcodamonte/concurrency/sharedstate/lockpair"
)

const dumpFrames = 6

type deadlockScenario struct{}

func (deadlockScenario) Name() string { return "deadlock" }

func (deadlockScenario) Description() string {
	return "Two locks, opposite order: deadlock"
}

// run forces the interleaving in which each procedure owns its first lock,
// then waits out the time bound. Completing is the unexpected outcome.
func (deadlockScenario) run(env Env) Outcome {
	p := lockpair.New()
	if env.Config.Detect {
		restore := detect.Enable(detect.Options{
			Timeout: env.Config.Timeout / 2,
			Report:  env.Out,
			OnDeadlock: func() {
				env.Logger.Warn("potential deadlock reported by detector")
			},
		})
		defer restore()
		p = lockpair.NewWith(detect.NewLocker)
	}
	p.Hold = lockpair.Rendezvous()

	g := worker.New(worker.Config{Name: "lockpair", Logger: env.Logger})
	g.Go("compute", p.Compute)
	g.Go("anti_compute", p.AntiCompute)

	err := g.WaitTimeout(env.Config.Timeout)
	if err == nil {
		x, y := p.Values()
		fmt.Fprintf(env.Out, "  both finished: x=%d y=%d\n", x, y)
		return Unexpected
	}
	if !errors.Is(err, worker.ErrTimedOut) {
		return Unexpected
	}

	fmt.Fprintf(env.Out, "  no progress after %s; parked workers:\n", env.Config.Timeout)
	dumpParked(env.Out, "lockpair.(*Pair)")
	return Deadlocked
}

func dumpParked(w io.Writer, fn string) {
	stackdump.Write(w, stackdump.Parked(fn), dumpFrames)
}
