// internal/service/debounce.go
package service

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of notifications per key into a single callback
// after a quiet period. Re-triggering a key before its timer fires resets
// the timer, so rapid consecutive changes produce one callback, not many.
type Debouncer struct {
	mu     sync.Mutex
	delay  time.Duration
	timers map[string]*time.Timer
	fn     func(key string)
}

// NewDebouncer creates a debouncer that invokes fn once per key after delay
// has elapsed without further triggers for that key.
func NewDebouncer(delay time.Duration, fn func(key string)) *Debouncer {
	return &Debouncer{
		delay:  delay,
		timers: make(map[string]*time.Timer),
		fn:     fn,
	}
}

// Trigger schedules (or reschedules) the callback for key.
func (d *Debouncer) Trigger(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, ok := d.timers[key]; ok {
		timer.Stop()
	}
	d.timers[key] = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		delete(d.timers, key)
		d.mu.Unlock()
		d.fn(key)
	})
}

// Stop cancels all pending callbacks. Keys triggered after Stop still fire.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, timer := range d.timers {
		timer.Stop()
		delete(d.timers, key)
	}
}
