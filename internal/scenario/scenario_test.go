package scenario_test

import (
	"bytes"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcodamonte/concurrency/sharedstate/internal/config"
	"github.com/marcodamonte/concurrency/sharedstate/internal/metrics"
	"github.com/marcodamonte/concurrency/sharedstate/internal/scenario"
)

// No goleak here: the queue consumer is a daemon and the deadlock scenarios
// leave their workers parked.

func testEnv(t *testing.T) (scenario.Env, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.Timeout = 500 * time.Millisecond
	cfg.Trials = 20

	var out bytes.Buffer
	return scenario.Env{
		Config:  cfg,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics: metrics.New(),
		Out:     &out,
	}, &out
}

func mustLookup(t *testing.T, name string) scenario.Scenario {
	t.Helper()
	s, ok := scenario.Lookup(name)
	require.True(t, ok, "scenario %q not registered", name)
	return s
}

// ── Registry ─────────────────────────────────────────────────────────────────

func TestRegistry(t *testing.T) {
	t.Parallel()

	names := map[string]bool{}
	for _, s := range scenario.All() {
		assert.False(t, names[s.Name()], "duplicate scenario %q", s.Name())
		names[s.Name()] = true
		assert.NotEmpty(t, s.Description())
	}
	for _, want := range []string{"counter", "account", "pool", "barrier", "queue", "deadlock", "pipe"} {
		assert.True(t, names[want], "missing %q", want)
	}

	_, ok := scenario.Lookup("nope")
	assert.False(t, ok)
}

// ── Safe scenarios ───────────────────────────────────────────────────────────

func TestCounterScenario(t *testing.T) {
	t.Parallel()

	env, out := testEnv(t)
	res, err := scenario.Run(env, mustLookup(t, "counter"))
	require.NoError(t, err)
	assert.Contains(t, []scenario.Outcome{scenario.LostUpdates, scenario.OK}, res.Outcome)
	assert.Contains(t, out.String(), "expected: 1000  got: 1000")
	assert.InDelta(t, 0, testutil.ToFloat64(env.Metrics.LostUpdates.WithLabelValues("mutex")), 0)
}

func TestAccountScenario(t *testing.T) {
	t.Parallel()

	env, _ := testEnv(t)
	res, err := scenario.Run(env, mustLookup(t, "account"))
	require.NoError(t, err)
	assert.Equal(t, scenario.OK, res.Outcome)
}

func TestPoolScenario(t *testing.T) {
	t.Parallel()

	env, out := testEnv(t)
	env.Config.Items = 3
	res, err := scenario.Run(env, mustLookup(t, "pool"))
	require.NoError(t, err)
	assert.Equal(t, scenario.OK, res.Outcome)
	assert.LessOrEqual(t, testutil.ToFloat64(env.Metrics.HighWater.WithLabelValues("pool")), 2.0)
	assert.Contains(t, out.String(), "capacity: 2  inserts: 3")
}

func TestBarrierScenario(t *testing.T) {
	t.Parallel()

	env, out := testEnv(t)
	res, err := scenario.Run(env, mustLookup(t, "barrier"))
	require.NoError(t, err)
	assert.Equal(t, scenario.OK, res.Outcome)
	assert.Contains(t, out.String(), "[12 12]")
	assert.Contains(t, out.String(), "counters = [10 10]")
}

func TestQueueScenario(t *testing.T) {
	t.Parallel()

	env, out := testEnv(t)
	res, err := scenario.Run(env, mustLookup(t, "queue"))
	require.NoError(t, err)
	assert.Equal(t, scenario.OK, res.Outcome)
	assert.Contains(t, out.String(), "put: 10  processed: 10  pending after join: 0")
	assert.InDelta(t, 0, testutil.ToFloat64(env.Metrics.QueuePending), 0)
}

// ── Deadlock scenarios ───────────────────────────────────────────────────────

func TestDeadlockScenario(t *testing.T) {
	t.Parallel()

	env, out := testEnv(t)
	res, err := scenario.Run(env, mustLookup(t, "deadlock"))
	require.NoError(t, err)
	assert.Equal(t, scenario.Deadlocked, res.Outcome)
	assert.GreaterOrEqual(t, res.Duration, env.Config.Timeout)
	assert.Contains(t, out.String(), "lockpair.(*Pair)")
	assert.InDelta(t, 1, testutil.ToFloat64(env.Metrics.Runs.WithLabelValues("deadlock", "deadlocked")), 0)
}

// Not parallel: detection options are process-wide.
func TestDeadlockScenarioDetect(t *testing.T) {
	env, _ := testEnv(t)
	env.Config.Detect = true

	var logs lockedBuffer
	env.Logger = slog.New(slog.NewTextHandler(&logs, nil))

	res, err := scenario.Run(env, mustLookup(t, "deadlock"))
	require.NoError(t, err)
	assert.Equal(t, scenario.Deadlocked, res.Outcome)
	assert.Contains(t, logs.String(), "potential deadlock reported by detector")
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestPipeScenario(t *testing.T) {
	t.Parallel()

	env, out := testEnv(t)
	res, err := scenario.Run(env, mustLookup(t, "pipe"))
	require.NoError(t, err)
	assert.Equal(t, scenario.OK, res.Outcome)
	assert.Contains(t, out.String(), "consumer processed 10 (sum 45)")
	assert.NotContains(t, out.String(), "symmetric:")
}

func TestPipeScenarioSymmetric(t *testing.T) {
	t.Parallel()

	env, out := testEnv(t)
	env.Config.Symmetric = true
	res, err := scenario.Run(env, mustLookup(t, "pipe"))
	require.NoError(t, err)
	assert.Equal(t, scenario.Deadlocked, res.Outcome)
	assert.Contains(t, out.String(), "consumer processed 10 (sum 45)")
	assert.Contains(t, out.String(), "pipe.Relay")
}
