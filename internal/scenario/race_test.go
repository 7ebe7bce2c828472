//go:build race

package scenario_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcodamonte/concurrency/sharedstate/internal/scenario"
)

// TestCounterScenarioUnderRace runs only with -race: the mutex half still
// runs and the racy trials are skipped.
func TestCounterScenarioUnderRace(t *testing.T) {
	t.Parallel()

	env, out := testEnv(t)
	res, err := scenario.Run(env, mustLookup(t, "counter"))
	require.NoError(t, err)
	assert.Equal(t, scenario.OK, res.Outcome)
	assert.Contains(t, out.String(), "expected: 1000  got: 1000")
	assert.Contains(t, out.String(), "racy:   skipped, built with -race")
}
