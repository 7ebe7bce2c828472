// Package scenario runs each concurrency hazard as a self-contained,
// printable demonstration. The CLI and the tests drive the same code.
package scenario

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/marcodamonte/concurrency/sharedstate/internal/config"
	"github.com/marcodamonte/concurrency/sharedstate/internal/metrics"
)

// Outcome classifies how a run ended.
type Outcome string

const (
	// OK means the primitive held its guarantee.
	OK Outcome = "ok"
	// LostUpdates means the racy counter dropped increments, as it should.
	LostUpdates Outcome = "lost_updates"
	// Deadlocked means the run hit its time bound, as a deadlock scenario should.
	Deadlocked Outcome = "deadlocked"
	// Unexpected means a guarantee failed or a deadlock scenario completed.
	Unexpected Outcome = "unexpected"
)

// ErrUnexpected is returned by Run when a scenario's outcome is Unexpected.
var ErrUnexpected = errors.New("scenario did not behave as expected")

// Env is what every scenario runs against.
type Env struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// Out receives the human-readable demonstration output.
	Out io.Writer
}

func (e *Env) withDefaults() Env {
	out := *e
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	if out.Metrics == nil {
		out.Metrics = metrics.New()
	}
	if out.Out == nil {
		out.Out = io.Discard
	}
	// Detector reports arrive from go-deadlock's watcher goroutines.
	out.Out = &lockedWriter{w: out.Out}
	return out
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// Result is what a scenario reports.
type Result struct {
	Scenario string
	Outcome  Outcome
	Duration time.Duration
}

// Scenario is one demonstration.
type Scenario interface {
	Name() string
	Description() string
	run(env Env) Outcome
}

var registry = []Scenario{
	counterScenario{},
	accountScenario{},
	poolScenario{},
	barrierScenario{},
	queueScenario{},
	deadlockScenario{},
	pipeScenario{},
}

// All returns every scenario in presentation order.
func All() []Scenario {
	return append([]Scenario(nil), registry...)
}

// Lookup finds a scenario by name.
func Lookup(name string) (Scenario, bool) {
	for _, s := range registry {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// Run executes s, records the outcome in env.Metrics and returns
// ErrUnexpected if the outcome is Unexpected.
func Run(env Env, s Scenario) (Result, error) {
	env = env.withDefaults()
	env.Logger = env.Logger.With("scenario", s.Name())

	section(env.Out, s.Description())
	env.Logger.Debug("scenario started")

	start := time.Now()
	outcome := s.run(env)
	res := Result{Scenario: s.Name(), Outcome: outcome, Duration: time.Since(start)}

	env.Metrics.ObserveRun(res.Scenario, string(res.Outcome), res.Duration)
	env.Logger.Info("scenario finished", "outcome", res.Outcome, "duration", res.Duration)

	if outcome == Unexpected {
		return res, fmt.Errorf("%s: %w", s.Name(), ErrUnexpected)
	}
	return res, nil
}

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n━━━ %s ━━━\n", title)
}
