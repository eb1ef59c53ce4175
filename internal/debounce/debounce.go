// Package debounce coalesces bursts of triggers into a single trailing-edge
// callback.
package debounce

import (
	"sync"
	"time"
)

// afterFunc is swapped by tests to drive scheduled callbacks by hand.
var afterFunc = time.AfterFunc

// Debouncer runs fn once the delay has elapsed without a newer Trigger.
// Safe for concurrent use; fn runs on the timer goroutine.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	fn    func()
	timer *time.Timer
	seq   uint64
}

func New(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger starts or restarts the delay. Only the latest Trigger's callback
// runs; earlier scheduled callbacks become stale and do nothing, even when
// the runtime has already fired their timers.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = afterFunc(d.delay, func() { d.fire(seq) })
}

// Stop discards any pending callback. The Debouncer stays usable; a later
// Trigger schedules anew.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
}

func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	stale := seq != d.seq
	if !stale {
		d.timer = nil
	}
	d.mu.Unlock()
	if !stale {
		d.fn()
	}
}
