package testutil

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManualClock_StartsAtGivenValue(t *testing.T) {
	assert.Equal(t, uint32(0), NewManualClock(0).Now())
	assert.Equal(t, uint32(100), NewManualClock(100).Now())
}

func TestManualClock_Advance(t *testing.T) {
	clock := NewManualClock(10)

	assert.Equal(t, uint32(11), clock.Advance(1))
	assert.Equal(t, uint32(16), clock.Advance(5))
	assert.Equal(t, uint32(16), clock.Now())
}

func TestManualClock_AdvanceWraps(t *testing.T) {
	clock := NewManualClock(math.MaxUint32 - 1)

	assert.Equal(t, uint32(math.MaxUint32), clock.Advance(1))
	assert.Equal(t, uint32(0), clock.Advance(1))
	assert.Equal(t, uint32(3), clock.Advance(3))
}

func TestManualClock_SetAndReset(t *testing.T) {
	clock := NewManualClock(0)

	clock.Set(500)
	assert.Equal(t, uint32(500), clock.Now())

	clock.Reset()
	assert.Equal(t, uint32(0), clock.Now())
}

func TestManualClock_ThreadSafe(t *testing.T) {
	clock := NewManualClock(0)
	const numGoroutines = 50
	const callsPerGoroutine = 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				clock.Advance(1)
				_ = clock.Now()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, uint32(numGoroutines*callsPerGoroutine), clock.Now())
}
