package scenario

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/marcodamonte/concurrency/sharedstate/internal/worker"
	"github.com/marcodamonte/concurrency/sharedstate/queue"
)

type queueScenario struct{}

func (queueScenario) Name() string { return "queue" }

func (queueScenario) Description() string {
	return "Blocking queue: producer, daemon consumer, join"
}

// run puts Items values and joins. The consumer is a daemon with an
// infinite loop: nothing waits for it and it stays parked in Get after the
// last item. Join is what keeps the run from returning early.
func (queueScenario) run(env Env) Outcome {
	q := queue.New[int]()
	var processed atomic.Int64

	g := worker.New(worker.Config{Name: "queue", Logger: env.Logger})
	g.Daemon("consumer", func() {
		for {
			item := q.Get()
			time.Sleep(time.Millisecond) // simulated work
			env.Logger.Debug("got an item", "item", item)
			processed.Add(1)
			q.TaskDone()
		}
	})

	items := env.Config.Items
	g.Go("producer", func() {
		for i := 0; i < items; i++ {
			q.Put(i)
		}
		q.Join()
	})

	if err := g.WaitTimeout(env.Config.Timeout); err != nil {
		env.Logger.Error("join did not return", "pending", q.Pending(), "err", err)
		return Unexpected
	}

	pending := q.Pending()
	env.Metrics.QueuePending.Set(float64(pending))
	fmt.Fprintf(env.Out, "  put: %d  processed: %d  pending after join: %d\n", items, processed.Load(), pending)
	if pending != 0 || processed.Load() != int64(items) {
		return Unexpected
	}
	return OK
}
