package engine

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/keybounce/internal/matrix"
	"github.com/roach88/keybounce/internal/testutil"
)

func TestKeyState_String(t *testing.T) {
	assert.Equal(t, "idle", KeyIdle.String())
	assert.Equal(t, "counting", KeyCounting.String())
	assert.Equal(t, "settling", KeySettling.String())
	assert.Equal(t, "unknown", KeyState(9).String())
}

func TestQuiescing_StateMachine(t *testing.T) {
	clock := testutil.NewManualClock(0)
	deb := NewQuiescing(clock, WithQuiesce(10))
	require.NoError(t, deb.Init(1))

	key := matrix.Cell{Row: 0, Col: 3}
	raw, cooked := matrix.New(1), matrix.New(1)
	step := func(now uint32, changed bool) {
		clock.Set(now)
		deb.Filter(raw, cooked, 1, changed)
	}

	step(0, false)
	assert.Equal(t, KeyIdle, deb.State(key))

	raw.Set(key, true)
	step(1, true)
	assert.Equal(t, KeyCounting, deb.State(key))
	assert.Equal(t, uint8(5), deb.Remaining(key))

	step(6, false)
	assert.Equal(t, KeySettling, deb.State(key))
	assert.Equal(t, uint8(10), deb.Remaining(key))
	assert.True(t, cooked.Pressed(key), "cooked flips on Counting->Settling")

	step(15, false)
	assert.Equal(t, KeySettling, deb.State(key))
	assert.Equal(t, uint8(1), deb.Remaining(key))

	step(16, false)
	assert.Equal(t, KeyIdle, deb.State(key))
	assert.Zero(t, deb.rowActive[0])
}

func TestQuiescing_ChangesDuringSettlingAreDropped(t *testing.T) {
	clock := testutil.NewManualClock(0)
	deb := NewQuiescing(clock)
	require.NoError(t, deb.Init(1))

	key := matrix.Cell{Row: 0, Col: 0}
	raw, cooked := matrix.New(1), matrix.New(1)

	raw.Set(key, true)
	deb.Filter(raw, cooked, 1, true)
	for now := uint32(1); now <= 5; now++ {
		clock.Set(now)
		deb.Filter(raw, cooked, 1, false)
	}
	require.Equal(t, KeySettling, deb.State(key))

	// Release and re-press inside the blind window.
	clock.Set(10)
	raw.Set(key, false)
	deb.Filter(raw, cooked, 1, true)
	assert.Equal(t, KeySettling, deb.State(key))

	clock.Set(12)
	raw.Set(key, true)
	deb.Filter(raw, cooked, 1, true)
	assert.Equal(t, KeySettling, deb.State(key))

	clock.Set(35)
	deb.Filter(raw, cooked, 1, false)
	assert.Equal(t, KeyIdle, deb.State(key), "raw matches cooked when settling ends")
	assert.True(t, cooked.Pressed(key))
}

func TestQuiescing_ReleaseDuringSettlingIsDelayed(t *testing.T) {
	clock := testutil.NewManualClock(0)
	deb := NewQuiescing(clock)
	require.NoError(t, deb.Init(1))

	key := matrix.Cell{Row: 0, Col: 0}
	raw, cooked := matrix.New(1), matrix.New(1)

	raw.Set(key, true)
	deb.Filter(raw, cooked, 1, true)
	clock.Set(5)
	deb.Filter(raw, cooked, 1, false)
	require.True(t, cooked.Pressed(key))

	clock.Set(20)
	raw.Set(key, false)
	deb.Filter(raw, cooked, 1, true)

	clock.Set(35)
	deb.Filter(raw, cooked, 1, false)
	assert.Equal(t, KeyCounting, deb.State(key), "mismatch re-sampled when settling ends")
	assert.Equal(t, uint8(5), deb.Remaining(key))

	clock.Set(40)
	deb.Filter(raw, cooked, 1, false)
	assert.False(t, cooked.Pressed(key))
	assert.Equal(t, KeySettling, deb.State(key))
}

func TestQuiescing_StateOutOfRange(t *testing.T) {
	deb := NewQuiescing(testutil.NewManualClock(0))
	require.NoError(t, deb.Init(1))

	assert.Equal(t, KeyIdle, deb.State(matrix.Cell{Row: 3, Col: 0}))
	assert.Zero(t, deb.Remaining(matrix.Cell{Row: 0, Col: -1}))
}

func TestQuiescing_RowActiveMatchesStates(t *testing.T) {
	const rows = 2
	rng := rand.New(rand.NewPCG(3, 5))

	clock := testutil.NewManualClock(0)
	deb := NewQuiescing(clock, WithQuiesce(8))
	require.NoError(t, deb.Init(rows))

	raw, cooked := matrix.New(rows), matrix.New(rows)
	for now := uint32(0); now < 2000; now++ {
		clock.Set(now)
		changed := false
		if rng.IntN(2) == 0 {
			c := matrix.Cell{Row: rng.IntN(rows), Col: rng.IntN(4)}
			raw.Set(c, !raw.Pressed(c))
			changed = true
		}
		deb.Filter(raw, cooked, rows, changed)

		for r := 0; r < rows; r++ {
			active := 0
			for c := 0; c < matrix.Cols; c++ {
				cell := matrix.Cell{Row: r, Col: c}
				state := deb.State(cell)
				if state != KeyIdle {
					active++
					require.NotZero(t, deb.Remaining(cell), "tick %d %s", now, cell)
				}
			}
			require.Equal(t, active, int(deb.rowActive[r]), "tick %d row %d", now, r)
		}
	}
}
