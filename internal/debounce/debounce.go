// Package debounce provides a resettable single-shot timer.
package debounce

import (
	"sync"
	"time"
)

// Timer runs fn once the trigger stream has been quiet for the delay.
// Each Trigger resets the pending deadline instead of stacking another
// callback, so at most one fn call is ever outstanding.
type Timer struct {
	mu    sync.Mutex
	delay time.Duration
	fn    func()
	timer *time.Timer
	gen   uint64
}

// New returns a Timer. fn runs on its own goroutine.
func New(delay time.Duration, fn func()) *Timer {
	return &Timer{delay: delay, fn: fn}
}

// Trigger (re)arms the timer.
func (t *Timer) Trigger() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	gen := t.gen
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(t.delay, func() { t.fire(gen) })
}

// Stop cancels a pending call. It reports whether one was pending.
func (t *Timer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	if t.timer == nil {
		return false
	}
	stopped := t.timer.Stop()
	t.timer = nil
	return stopped
}

// fire drops callbacks from superseded arms whose Stop lost the race.
func (t *Timer) fire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	fn := t.fn
	t.mu.Unlock()
	if fn != nil {
		fn()
	}
}
