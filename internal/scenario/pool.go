package scenario

import (
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marcodamonte/concurrency/sharedstate/pool"
)

type poolScenario struct{}

func (poolScenario) Name() string { return "pool" }

func (poolScenario) Description() string {
	return "Counting semaphore: bounded inserts"
}

func (s poolScenario) run(env Env) Outcome {
	cfg := env.Config
	p := pool.New[int](cfg.Capacity)
	// Hold the permit briefly so inserters overlap and queue on Acquire.
	p.Hold = func(int) { time.Sleep(10 * time.Millisecond) }

	// Items start at 7 to match the database example: 7, 8, 9, ...
	want := make([]int, cfg.Items)
	for i := range want {
		want[i] = 7 + i
	}

	var g errgroup.Group
	for _, item := range want {
		g.Go(func() error {
			p.Insert(item)
			return nil
		})
	}
	_ = g.Wait()

	got := p.Items()
	env.Metrics.HighWater.WithLabelValues(s.Name()).Set(float64(p.HighWater()))
	fmt.Fprintf(env.Out, "  capacity: %d  inserts: %d  high-water: %d\n", p.Capacity(), len(want), p.HighWater())
	fmt.Fprintf(env.Out, "  database: %v\n", got)

	slices.Sort(got)
	if p.HighWater() > p.Capacity() || !slices.Equal(got, want) {
		env.Logger.Error("pool bound violated or items lost",
			"high_water", p.HighWater(), "capacity", p.Capacity(), "items", len(got))
		return Unexpected
	}
	return OK
}
