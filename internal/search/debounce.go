// Package search implements the debounced remote selector used by the
// dashboard forms to look up entities while the user types.
package search

import (
	"sync"
	"time"
)

// Debouncer runs only the last of a burst of triggers, once the burst has
// been quiet for the configured delay.
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
	fn    func()
	// gen invalidates a timer whose callback already started waiting on mu
	// when it was stopped.
	gen     uint64
	running int
	idle    *sync.Cond
}

func NewDebouncer(delay time.Duration) *Debouncer {
	d := &Debouncer{delay: delay}
	d.idle = sync.NewCond(&d.mu)
	return d
}

// Trigger cancels any pending call and schedules fn.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	gen := d.gen
	d.fn = fn
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if gen != d.gen {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.fn = nil
		d.running++
		d.mu.Unlock()

		fn()

		d.mu.Lock()
		d.running--
		if d.running == 0 {
			d.idle.Broadcast()
		}
		d.mu.Unlock()
	})
}

// Flush runs the pending call right away instead of waiting for the delay,
// after any call already in progress has returned. It reports whether a
// call was pending.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	fn := d.fn
	pending := d.timer != nil
	if pending {
		d.stopLocked()
	}
	for d.running > 0 {
		d.idle.Wait()
	}
	d.mu.Unlock()

	if pending && fn != nil {
		fn()
	}
	return pending
}

// Cancel drops the pending call, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.fn = nil
	d.gen++
}
