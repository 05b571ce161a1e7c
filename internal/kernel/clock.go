package kernel

import "time"

// Clock paces the scheduler between passes. Wait blocks until the next tick
// is due. The freestanding original burned cycles in a busy loop; here the
// delay is an explicit clock so tests can drive passes deterministically.
type Clock interface {
	Wait()
}

// TickerClock waits a fixed wall-clock interval between passes.
type TickerClock struct {
	interval time.Duration
}

// NewTickerClock returns a clock that paces passes at the given interval.
// Non-positive intervals fall back to DefaultTickInterval.
func NewTickerClock(interval time.Duration) *TickerClock {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &TickerClock{interval: interval}
}

// DefaultTickInterval approximates the original busy-wait delay between
// scheduler passes.
const DefaultTickInterval = 10 * time.Millisecond

// Wait sleeps until the next pass is due.
func (c *TickerClock) Wait() {
	time.Sleep(c.interval)
}

// ManualClock is a test clock: each call to Tick releases exactly one Wait.
type ManualClock struct {
	ch chan struct{}
}

// NewManualClock returns a manual clock with a small tick backlog.
func NewManualClock() *ManualClock {
	return &ManualClock{ch: make(chan struct{}, 64)}
}

// Tick allows one pending or future Wait to return.
func (c *ManualClock) Tick() {
	c.ch <- struct{}{}
}

// Wait blocks until Tick is called.
func (c *ManualClock) Wait() {
	<-c.ch
}
