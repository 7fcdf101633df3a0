package engine

import "time"

// Clock is the timer source read once per scan cycle.
//
// Now returns a free-running tick counter (milliseconds for SystemClock).
// The value is unsigned and wraps; strategies only ever subtract two
// readings, so wraparound is harmless.
type Clock interface {
	Now() uint32
}

// SystemClock counts milliseconds since it was created.
//
// Thread-safety: SystemClock is immutable after construction and safe for
// concurrent use.
type SystemClock struct {
	start time.Time
}

// NewSystemClock creates a clock whose zero is the current instant.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

// Now returns elapsed milliseconds truncated to 32 bits.
func (c *SystemClock) Now() uint32 {
	return uint32(time.Since(c.start).Milliseconds())
}

// maxElapsed caps the per-cycle delta at what fits in a counter.
const maxElapsed = 255

// elapsedTimer converts clock readings into bounded per-cycle deltas.
//
// The first call after reset returns 1 and only records the baseline, so a
// stale or uninitialized baseline is never used. Later calls return the
// modular difference to the previous reading, clamped to maxElapsed.
type elapsedTimer struct {
	clock       Clock
	frames      bool
	last        uint32
	initialized bool
}

// reset forgets the baseline; the next call counts as one tick.
func (t *elapsedTimer) reset() {
	t.initialized = false
	t.last = 0
}

// elapsed returns whole ticks since the previous call.
func (t *elapsedTimer) elapsed() uint8 {
	if t.frames {
		return 1
	}
	if !t.initialized {
		t.initialized = true
		t.last = t.clock.Now()
		return 1
	}

	now := t.clock.Now()
	delta := now - t.last
	t.last = now
	if delta > maxElapsed {
		return maxElapsed
	}
	return uint8(delta)
}
