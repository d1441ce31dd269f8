// Package timer implements a one-second-resolution countdown with a single
// expiry callback.
package timer

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	ErrInvalidDuration = errors.New("timer duration must be positive")
	ErrAlreadyStarted  = errors.New("timer already running")
)

// Timer counts down whole seconds. The zero value is not usable; call New.
type Timer struct {
	clock Clock

	mu        sync.Mutex
	total     int
	remaining int
	running   bool
	gen       uint64
	stop      func()
	onExpire  func()
	onTick    func(remaining int)
}

// New returns an idle timer driven by clock. A nil clock means wall time.
func New(clock Clock) *Timer {
	if clock == nil {
		clock = RealClock()
	}
	return &Timer{clock: clock}
}

// OnTick registers fn to be called after every tick with the seconds left.
func (t *Timer) OnTick(fn func(remaining int)) {
	t.mu.Lock()
	t.onTick = fn
	t.mu.Unlock()
}

// Start begins a countdown of seconds. onExpire runs exactly once, on the
// tick that brings the remaining time to zero, unless Cancel is called first.
func (t *Timer) Start(seconds int, onExpire func()) error {
	if seconds <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDuration, seconds)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return ErrAlreadyStarted
	}
	t.gen++
	gen := t.gen
	t.total = seconds
	t.remaining = seconds
	t.running = true
	t.onExpire = onExpire
	t.stop = t.clock.Every(time.Second, func() { t.tick(gen) })
	return nil
}

// Cancel stops the countdown. It is safe to call at any time, any number of
// times, and never blocks on a tick in progress.
func (t *Timer) Cancel() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	t.gen++
	stop := t.stop
	t.stop = nil
	t.onExpire = nil
	t.mu.Unlock()

	if stop != nil {
		stop()
	}
}

// Running reports whether a countdown is in progress.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Remaining returns the seconds left on the current or last countdown.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Progress is the share of time left, 0 to 100.
func (t *Timer) Progress() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.total == 0 {
		return 0
	}
	return float64(t.remaining) / float64(t.total) * 100
}

func (t *Timer) tick(gen uint64) {
	t.mu.Lock()
	if !t.running || t.gen != gen {
		t.mu.Unlock()
		return
	}
	t.remaining--
	remaining := t.remaining
	onTick := t.onTick
	var stop, expire func()
	if remaining <= 0 {
		t.running = false
		stop, t.stop = t.stop, nil
		expire, t.onExpire = t.onExpire, nil
	}
	t.mu.Unlock()

	if stop != nil {
		stop()
	}
	if onTick != nil {
		onTick(remaining)
	}
	if expire != nil {
		expire()
	}
}

// FormatClock renders seconds as m:ss.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
