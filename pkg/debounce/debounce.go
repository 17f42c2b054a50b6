// Package debounce coalesces rapid call bursts into a single invocation
// after a quiet period. Used to avoid issuing one provider request per
// keystroke while typing a search query.
package debounce

import (
	"sync"
	"time"
)

// Clock abstracts timer creation so debounce behavior can be tested with a
// controllable clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is the subset of time.Timer behavior the debouncer needs.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock returns a Clock backed by the runtime timers.
func SystemClock() Clock {
	return realClock{}
}

// Debouncer invokes the function passed to Call only after the quiet period
// has elapsed with no further Call. Each Call cancels any pending invocation
// and restarts the timer.
type Debouncer struct {
	quiet time.Duration
	clock Clock

	mu      sync.Mutex
	pending Timer
}

// New creates a Debouncer with the given quiet period. A nil clock defaults
// to the system clock.
func New(quiet time.Duration, clock Clock) *Debouncer {
	if clock == nil {
		clock = SystemClock()
	}
	return &Debouncer{
		quiet: quiet,
		clock: clock,
	}
}

// Call schedules fn to run after the quiet period, replacing any previously
// scheduled function that has not fired yet.
func (d *Debouncer) Call(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		d.pending.Stop()
	}
	d.pending = d.clock.AfterFunc(d.quiet, fn)
}

// Cancel drops any pending invocation.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
}
