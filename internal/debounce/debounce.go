// Package debounce delays propagation of a rapidly changing value until it
// has been stable for a fixed duration.
package debounce

import (
	"sync"
	"time"
)

// Debouncer delivers the most recent value passed to Set to fn once the
// value has stopped changing for the configured delay. Each Set restarts
// the timer; intermediate values are dropped, never queued. After Stop no
// delivery ever fires, including one already scheduled.
type Debouncer[T any] struct {
	delay time.Duration
	fn    func(T)

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	stopped bool
}

// New creates a debouncer that calls fn with the settled value. fn runs on
// the timer goroutine; it must not block for long.
func New[T any](delay time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{delay: delay, fn: fn}
}

// Set records v as the latest value and restarts the settle timer.
func (d *Debouncer[T]) Set(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// A later Set or Stop invalidates this firing. Timer.Stop cannot
		// guarantee the callback never runs, so the generation check is the
		// actual cancellation.
		if d.stopped || gen != d.gen {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		d.fn(v)
	})
}

// Cancel drops any pending delivery without disabling the debouncer.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

// Stop cancels any pending delivery and disables the debouncer permanently.
// Safe to call more than once.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
