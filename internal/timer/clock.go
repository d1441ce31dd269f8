package timer

import (
	"sync"
	"time"
)

// Clock schedules periodic callbacks.
type Clock interface {
	// Every calls fn once per period until the returned stop function is called.
	// stop never blocks and may be called more than once.
	Every(period time.Duration, fn func()) (stop func())
}

// RealClock returns a Clock backed by time.Ticker.
func RealClock() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Every(period time.Duration, fn func()) func() {
	ticker := time.NewTicker(period)
	done := make(chan struct{})
	var once sync.Once
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				select {
				case <-done:
					return
				default:
				}
				fn()
			}
		}
	}()
	return func() { once.Do(func() { close(done) }) }
}

// ManualClock is a Clock that only moves when Advance is called. Callbacks
// run synchronously on the goroutine calling Advance, in time order.
type ManualClock struct {
	mu      sync.Mutex
	elapsed time.Duration
	nextID  int
	jobs    map[int]*job
}

type job struct {
	period time.Duration
	due    time.Duration
	fn     func()
}

// NewManualClock returns a stopped clock at elapsed time zero.
func NewManualClock() *ManualClock {
	return &ManualClock{jobs: make(map[int]*job)}
}

func (c *ManualClock) Every(period time.Duration, fn func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.jobs[id] = &job{period: period, due: c.elapsed + period, fn: fn}
	return func() {
		c.mu.Lock()
		delete(c.jobs, id)
		c.mu.Unlock()
	}
}

// Advance moves the clock forward by d, firing every callback that falls due.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.elapsed + d
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var (
			next   *job
			nextID int
		)
		for id, j := range c.jobs {
			if j.due > target {
				continue
			}
			if next == nil || j.due < next.due || (j.due == next.due && id < nextID) {
				next, nextID = j, id
			}
		}
		if next == nil {
			c.elapsed = target
			c.mu.Unlock()
			return
		}
		c.elapsed = next.due
		next.due += next.period
		fn := next.fn
		c.mu.Unlock()

		fn()
	}
}

// Elapsed reports how far the clock has been advanced.
func (c *ManualClock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

// Pending reports how many periodic callbacks are scheduled.
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.jobs)
}
