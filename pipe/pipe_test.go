package pipe_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcodamonte/concurrency/sharedstate/internal/stackdump"
	"github.com/marcodamonte/concurrency/sharedstate/internal/worker"
	"github.com/marcodamonte/concurrency/sharedstate/pipe"
)

// No goleak here: the symmetric test leaves two goroutines parked for good.

const (
	bound    = 2 * time.Second
	sentinel = -1
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ── One-way pipe ─────────────────────────────────────────────────────────────

// TestSentinelTerminatesConsumer sends 0..9 and the sentinel; the consumer
// must process exactly ten items and exit.
func TestSentinelTerminatesConsumer(t *testing.T) {
	t.Parallel()

	p := pipe.New(sentinel, 4)

	var (
		got   []int
		count int
	)
	g := worker.New(worker.Config{Logger: quietLogger()})
	g.Go("consumer", func() {
		count = p.Consume(func(v int) { got = append(got, v) })
	})

	for i := 0; i < 10; i++ {
		p.Send(i)
	}
	p.Done()

	require.NoError(t, g.WaitTimeout(bound), "consumer hung after the sentinel")
	assert.Equal(t, 10, count)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestSendIsBuffered(t *testing.T) {
	t.Parallel()

	p := pipe.New("", 3)

	// Nobody is receiving yet; a buffered send of three values and the
	// sentinel must not block beyond the buffer.
	sent := make(chan struct{})
	go func() {
		defer close(sent)
		p.Send("a")
		p.Send("b")
		p.Send("c")
	}()
	select {
	case <-sent:
	case <-time.After(bound):
		t.Fatal("Send blocked with buffer space available")
	}

	go p.Done()

	var got []string
	n := p.Consume(func(s string) { got = append(got, s) })
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestSendingSentinelEndsStream(t *testing.T) {
	t.Parallel()

	p := pipe.New(sentinel, 8)
	p.Send(1)
	p.Send(sentinel)
	p.Send(2) // never read by the first Consume

	assert.Equal(t, 1, p.Consume(func(int) {}))
	v, ok := p.Recv()
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestProduce(t *testing.T) {
	t.Parallel()

	p := pipe.New(sentinel, 0)
	go p.Produce(5, 6, 7)

	sum := 0
	n := p.Consume(func(v int) { sum += v })
	assert.Equal(t, 3, n)
	assert.Equal(t, 18, sum)
}

// ── Duplex ───────────────────────────────────────────────────────────────────

func TestDuplexBothDirections(t *testing.T) {
	t.Parallel()

	a, b := pipe.NewDuplex[string](1)
	a.Send("ping")
	assert.Equal(t, "ping", b.Recv())
	b.Send("pong")
	assert.Equal(t, "pong", a.Recv())
}

// TestRelayCompletesWhenPrimed sends one item before either relay starts;
// the chain then runs to completion.
func TestRelayCompletesWhenPrimed(t *testing.T) {
	t.Parallel()

	a, b := pipe.NewDuplex[int](1)
	var gotA, gotB int

	g := worker.New(worker.Config{Logger: quietLogger()})
	g.Go("a", func() { gotA = pipe.Relay(a) })
	g.Go("b", func() { gotB = pipe.Relay(b) })

	a.Send(0)
	require.NoError(t, g.WaitTimeout(bound))
	assert.Equal(t, 0, gotB)
	assert.Equal(t, 1, gotA)
	assert.Equal(t, 2, b.Recv())
}

// TestSymmetricDeadlock runs both sides with nothing sent first and asserts
// neither finishes within the bound. Not parallel, so the stack scan only
// sees this test's goroutines.
func TestSymmetricDeadlock(t *testing.T) {
	sideA, sideB := pipe.Symmetric()

	g := worker.New(worker.Config{Name: "symmetric", Logger: quietLogger()})
	g.Go("a", sideA)
	g.Go("b", sideB)

	err := g.WaitTimeout(bound)
	require.ErrorIs(t, err, worker.ErrTimedOut, "symmetric relays completed")
	assert.EqualValues(t, 0, g.Metrics().Finished)

	parked := stackdump.Filter(stackdump.Parked("pipe.Relay"), func(gr stackdump.Goroutine) bool {
		return gr.State == "chan receive"
	})
	assert.GreaterOrEqual(t, len(parked), 2)
}
