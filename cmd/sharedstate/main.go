// Command sharedstate runs the shared-state concurrency demonstrations: a
// mutex-guarded counter and its racy sibling, a semaphore-bounded pool, a
// condition-variable rendezvous, a joinable blocking queue, a two-lock
// deadlock and sentinel-terminated message passing.
//
//	sharedstate counter --workers 8 --increments 1000
//	sharedstate deadlock --timeout 2s --detect
//	sharedstate all --metrics-addr localhost:6060
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// Ctrl+C stops between scenarios; a scenario in progress runs to its
	// own time bound.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
