//go:build race

package scenario

// raceEnabled is true when built with -race. The detector aborts the test
// binary on the racy counter's unsynchronized writes, so its trials are
// skipped.
const raceEnabled = true
