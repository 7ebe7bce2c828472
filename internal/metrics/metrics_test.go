package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/marcodamonte/concurrency/sharedstate/internal/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestObserveRun(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	m.ObserveRun("pool", "ok", 10*time.Millisecond)
	m.ObserveRun("pool", "ok", 20*time.Millisecond)
	m.ObserveRun("deadlock", "deadlocked", 2*time.Second)

	assert.InDelta(t, 2, testutil.ToFloat64(m.Runs.WithLabelValues("pool", "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Runs.WithLabelValues("deadlock", "deadlocked")), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(m.Duration))
}

func TestHandlerExposesCollectors(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	m.HighWater.WithLabelValues("pool").Set(2)
	m.QueuePending.Set(0)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `sharedstate_pool_high_water{scenario="pool"} 2`)
	assert.Contains(t, string(body), "sharedstate_queue_pending 0")
	assert.Contains(t, string(body), "go_goroutines")
}
