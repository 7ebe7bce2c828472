// Package detect builds locks that report suspected deadlocks, backed by
// github.com/sasha-s/go-deadlock.
//
// Two things are reported: a lock acquisition that waits longer than the
// configured timeout, and a pair of locks taken in opposite orders by
// different call paths. Either way the stacks go to the configured writer
// and the callback fires. Detection is a harness concern. The primitives under
// test take a lock factory and never know which kind they got.
package detect

import (
	"io"
	"sync"
	"time"

	"github.com/sasha-s/go-deadlock"
)

// Options configures detection.
type Options struct {
	// Timeout is how long an acquisition may wait before it is reported.
	Timeout time.Duration

	// IgnoreLockOrder turns off go-deadlock's lock-order check, which
	// reports two locks taken in opposite orders even when the acquisitions
	// never overlap.
	IgnoreLockOrder bool

	// Report receives the lock-holder / waiter stacks. Defaults to io.Discard.
	Report io.Writer

	// OnDeadlock runs once per suspected deadlock. go-deadlock's default
	// would exit the process; a nil OnDeadlock is replaced by a no-op.
	OnDeadlock func()
}

var (
	mu         sync.Mutex // serializes Enable/restore of the global go-deadlock options
	onDeadlock = func() {}
	installed  sync.Once
)

// dispatch is the only callback go-deadlock ever sees once Enable has run.
// A watcher started under one Enable may fire after its restore; it then
// reaches whatever callback is current, never the library's os.Exit default.
func dispatch() {
	mu.Lock()
	fn := onDeadlock
	mu.Unlock()
	fn()
}

// Enable installs opts into go-deadlock's global options and returns a
// function that restores the previous timeout, writer and switches. The
// callback is not restored: after restore, late reports go to a no-op.
func Enable(opts Options) (restore func()) {
	if opts.Report == nil {
		opts.Report = io.Discard
	}
	if opts.OnDeadlock == nil {
		opts.OnDeadlock = func() {}
	}

	mu.Lock()
	defer mu.Unlock()

	installed.Do(func() {
		deadlock.Opts.OnPotentialDeadlock = dispatch
	})

	prevTimeout := deadlock.Opts.DeadlockTimeout
	prevLog := deadlock.Opts.LogBuf
	prevDisable := deadlock.Opts.Disable
	prevOrder := deadlock.Opts.DisableLockOrderDetection

	deadlock.Opts.Disable = false
	deadlock.Opts.DisableLockOrderDetection = opts.IgnoreLockOrder
	deadlock.Opts.DeadlockTimeout = opts.Timeout
	deadlock.Opts.LogBuf = opts.Report
	onDeadlock = opts.OnDeadlock

	return func() {
		mu.Lock()
		defer mu.Unlock()
		deadlock.Opts.DeadlockTimeout = prevTimeout
		deadlock.Opts.LogBuf = prevLog
		deadlock.Opts.Disable = prevDisable
		deadlock.Opts.DisableLockOrderDetection = prevOrder
		onDeadlock = func() {}
	}
}

// NewLocker returns a detecting mutex. Its signature fits
// lockpair.NewWith.
func NewLocker() sync.Locker {
	return new(deadlock.Mutex)
}
