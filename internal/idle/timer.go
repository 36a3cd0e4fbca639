package idle

import (
	"sync"
	"time"
)

/*
LEARNING: RESTARTABLE IDLE TIMER (DEBOUNCE)

A Timer fires once after a period with no further Start calls.

  Start(3s) ──► pending(gen=1)
  Start(3s) ──► pending(gen=2)   gen=1 is cancelled and can no longer fire
  ...3s of silence...
  fire(gen=2) ──► onDone()

Each Start bumps a generation counter under the mutex. A callback that wakes
up with an old generation (its time.Timer could not be stopped in time) drops
itself, so there is never more than one live deadline.
*/

// Timer is a restartable countdown that delivers a single done notification
// per fire.
type Timer struct {
	mu       sync.Mutex
	clock    Clock
	onDone   func()
	pending  Stopper
	gen      uint64
	running  bool
	deadline time.Time
}

// NewTimer creates a stopped timer that calls onDone each time it fires.
// A nil clock uses the system clock.
func NewTimer(clock Clock, onDone func()) *Timer {
	if clock == nil {
		clock = SystemClock()
	}
	return &Timer{
		clock:  clock,
		onDone: onDone,
	}
}

// Start schedules a fire after d. Calling Start while running replaces the
// previous deadline.
func (t *Timer) Start(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cancelLocked()

	t.gen++
	gen := t.gen
	t.running = true
	t.deadline = t.clock.Now().Add(d)
	t.pending = t.clock.AfterFunc(d, func() { t.fire(gen) })
}

// Stop cancels any pending fire. Stopping a stopped timer is a no-op.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cancelLocked()
}

// Running reports whether a fire is pending.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.running
}

// Deadline returns the pending deadline, if any.
func (t *Timer) Deadline() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return time.Time{}, false
	}
	return t.deadline, true
}

func (t *Timer) cancelLocked() {
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
	// Invalidate any callback already in flight
	t.gen++
	t.running = false
	t.deadline = time.Time{}
}

func (t *Timer) fire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	t.pending = nil
	t.deadline = time.Time{}
	t.mu.Unlock()

	// Called without the lock so onDone may restart the timer
	if t.onDone != nil {
		t.onDone()
	}
}
