// Package worker starts and tracks the goroutines of a scenario.
//
// A Group distinguishes two kinds of worker:
//
//   - tracked workers (Go): Wait and WaitTimeout wait for them.
//   - daemon workers (Daemon): never waited for. A program may return while
//     they are still parked, the way an infinite consumer loop is left behind
//     once the queue has been joined.
//
// WaitTimeout is the external time bound for scenarios that are expected to
// hang: it gives up after the bound and returns ErrTimedOut. It does not
// cancel or unblock anything.
package worker

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrTimedOut is returned by WaitTimeout when tracked workers are still
// running after the bound.
var ErrTimedOut = errors.New("workers still running after the time bound")

// Config holds group construction parameters.
type Config struct {
	// Name labels log lines, e.g. the scenario name.
	Name string

	// Logger is used for lifecycle output. If nil, slog.Default() is used.
	Logger *slog.Logger
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	if out.Name != "" {
		out.Logger = out.Logger.With("group", out.Name)
	}
	return out
}

// Metrics is a snapshot of group counters.
type Metrics struct {
	Started  int64 // tracked workers started
	Finished int64 // tracked workers returned
	Daemons  int64 // daemon workers started
}

// Group is a set of workers. The zero value is not usable; call New.
type Group struct {
	cfg Config
	wg  sync.WaitGroup // tracked workers only

	started  atomic.Int64
	finished atomic.Int64
	daemons  atomic.Int64

	// done is closed once every tracked worker has returned. It is created
	// lazily by the first wait so that Go calls made before any wait are
	// all counted.
	doneOnce sync.Once
	done     chan struct{}
}

// New returns an empty group.
func New(cfg Config) *Group {
	return &Group{cfg: cfg.withDefaults()}
}

// Go starts fn as a tracked worker. All Go calls must happen before the
// first Wait or WaitTimeout.
func (g *Group) Go(name string, fn func()) {
	g.wg.Add(1)
	g.started.Add(1)
	go func() {
		defer g.wg.Done()
		defer g.finished.Add(1)

		g.cfg.Logger.Debug("worker started", "worker", name)
		fn()
		g.cfg.Logger.Debug("worker exited", "worker", name)
	}()
}

// Daemon starts fn as a worker nobody waits for.
func (g *Group) Daemon(name string, fn func()) {
	g.daemons.Add(1)
	go func() {
		g.cfg.Logger.Debug("daemon started", "worker", name)
		fn()
		g.cfg.Logger.Debug("daemon exited", "worker", name)
	}()
}

func (g *Group) doneCh() <-chan struct{} {
	g.doneOnce.Do(func() {
		g.done = make(chan struct{})
		go func() {
			g.wg.Wait()
			close(g.done)
		}()
	})
	return g.done
}

// Wait blocks until every tracked worker has returned.
func (g *Group) Wait() {
	<-g.doneCh()
}

// WaitTimeout waits up to d for every tracked worker. It returns ErrTimedOut
// if any are still running; they are left as they are.
func (g *Group) WaitTimeout(d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-g.doneCh():
		return nil
	case <-t.C:
		m := g.Metrics()
		g.cfg.Logger.Warn("time bound elapsed",
			"bound", d, "running", m.Started-m.Finished)
		return ErrTimedOut
	}
}

// Metrics returns a snapshot of the group counters.
func (g *Group) Metrics() Metrics {
	return Metrics{
		Started:  g.started.Load(),
		Finished: g.finished.Load(),
		Daemons:  g.daemons.Load(),
	}
}
