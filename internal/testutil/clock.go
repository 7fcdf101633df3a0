package testutil

import "sync"

// ManualClock is a tick counter that only moves when a test moves it.
//
// It satisfies engine.Clock. Unlike engine.SystemClock it can be set to any
// value, including one just below the uint32 wrap point, and reset for test
// reuse so the same scenario runs with identical timing every time.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type ManualClock struct {
	mu  sync.Mutex
	now uint32
}

// NewManualClock creates a clock reading start.
func NewManualClock(start uint32) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the current tick.
func (c *ManualClock) Now() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by ticks and returns the new reading.
// The reading wraps at 2^32 like a hardware timer.
func (c *ManualClock) Advance(ticks uint32) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += ticks
	return c.now
}

// Set jumps the clock to an absolute reading.
func (c *ManualClock) Set(now uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Reset returns the clock to 0.
func (c *ManualClock) Reset() {
	c.Set(0)
}
