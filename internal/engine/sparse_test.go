package engine

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/keybounce/internal/matrix"
	"github.com/roach88/keybounce/internal/testutil"
)

func TestSparse_InitRejectsTooManyCells(t *testing.T) {
	maxRows := MaxSparseCells / matrix.Cols

	deb := NewSparse(testutil.NewManualClock(0))
	require.NoError(t, deb.Init(maxRows))
	assert.Equal(t, uint16(maxRows*matrix.Cols), deb.null)

	err := NewSparse(testutil.NewManualClock(0)).Init(maxRows + 1)
	require.Error(t, err)
	assert.True(t, IsConfigError(err, ErrCodeTooManyCells))

	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, StrategySparse, ce.Strategy)
	assert.Equal(t, "65536", ce.Details["cells"])
	assert.Equal(t, "65535", ce.Details["max_cells"])
}

func TestSparse_InitEmptyList(t *testing.T) {
	deb := NewSparse(testutil.NewManualClock(0))
	require.NoError(t, deb.Init(3))

	assert.Equal(t, deb.null, deb.head)
	assert.Empty(t, deb.ActiveCells())
	for i, e := range deb.entries {
		assert.Equal(t, deb.null, e.next, "entry %d", i)
		assert.Zero(t, e.remaining)
	}
}

func TestSparse_PushesAtHead(t *testing.T) {
	clock := testutil.NewManualClock(0)
	deb := NewSparse(clock)
	require.NoError(t, deb.Init(2))

	raw, cooked := matrix.New(2), matrix.New(2)
	raw.Set(matrix.Cell{Row: 0, Col: 3}, true)
	deb.Filter(raw, cooked, 2, true)

	clock.Set(1)
	raw.Set(matrix.Cell{Row: 1, Col: 0}, true)
	deb.Filter(raw, cooked, 2, true)

	assert.Equal(t, []matrix.Cell{{Row: 1, Col: 0}, {Row: 0, Col: 3}}, deb.ActiveCells())
	assert.Equal(t, uint8(4), deb.Remaining(matrix.Cell{Row: 0, Col: 3}))
	assert.Equal(t, uint8(5), deb.Remaining(matrix.Cell{Row: 1, Col: 0}))
}

func TestSparse_UnlinksFromMiddle(t *testing.T) {
	clock := testutil.NewManualClock(0)
	deb := NewSparse(clock, WithWindow(10))
	require.NoError(t, deb.Init(1))

	raw, cooked := matrix.New(1), matrix.New(1)
	raw[0] = 1 << 0
	deb.Filter(raw, cooked, 1, true)

	clock.Set(5)
	raw[0] |= 1 << 1
	deb.Filter(raw, cooked, 1, true)

	clock.Set(8)
	raw[0] |= 1 << 2
	deb.Filter(raw, cooked, 1, true)
	require.Equal(t, []matrix.Cell{{Col: 2}, {Col: 1}, {Col: 0}}, deb.ActiveCells())

	// Cell 0 is at the tail, cell 1 in the middle. Advance so only cell 0
	// expires, then cell 1.
	clock.Set(10)
	deb.Filter(raw, cooked, 1, false)
	assert.Equal(t, matrix.Row(1), cooked[0])
	assert.Equal(t, []matrix.Cell{{Col: 2}, {Col: 1}}, deb.ActiveCells())

	clock.Set(15)
	deb.Filter(raw, cooked, 1, false)
	assert.Equal(t, matrix.Row(3), cooked[0])
	assert.Equal(t, []matrix.Cell{{Col: 2}}, deb.ActiveCells())

	clock.Set(18)
	deb.Filter(raw, cooked, 1, false)
	assert.Equal(t, matrix.Row(7), cooked[0])
	assert.Empty(t, deb.ActiveCells())
	assert.Equal(t, deb.null, deb.head)
}

func TestSparse_FlutterDefersDeadline(t *testing.T) {
	clock := testutil.NewManualClock(0)
	deb := NewSparse(clock)
	require.NoError(t, deb.Init(1))

	key := matrix.Cell{Row: 0, Col: 0}
	raw, cooked := matrix.New(1), matrix.New(1)
	raw.Set(key, true)
	deb.Filter(raw, cooked, 1, true)
	require.Equal(t, uint8(5), deb.Remaining(key))

	// Every flip while linked pushes the deadline out by the elapsed ticks,
	// so the counter holds steady instead of running down.
	for now := uint32(1); now <= 20; now++ {
		clock.Set(now)
		raw.Set(key, now%2 == 0)
		deb.Filter(raw, cooked, 1, true)
		assert.Equal(t, uint8(5), deb.Remaining(key), "tick %d", now)
	}
	assert.False(t, cooked.Pressed(key))
}

func TestSparse_FlipBackToCookedStillDefers(t *testing.T) {
	clock := testutil.NewManualClock(0)
	deb := NewSparse(clock)
	require.NoError(t, deb.Init(1))

	key := matrix.Cell{Row: 0, Col: 3}
	raw, cooked := matrix.New(1), matrix.New(1)

	// Chatter from t=0 to t=9, ending released. Half of the flips land on
	// the cooked value; if those did not extend, the press would commit at 8.
	for now := uint32(0); now <= 9; now++ {
		clock.Set(now)
		raw.Set(key, now%2 == 0)
		deb.Filter(raw, cooked, 1, true)
		assert.Equal(t, uint8(5), deb.Remaining(key), "tick %d", now)
		assert.False(t, cooked.Pressed(key), "tick %d", now)
	}

	for now := uint32(10); now <= 14; now++ {
		clock.Set(now)
		deb.Filter(raw, cooked, 1, false)
	}
	assert.Zero(t, deb.Remaining(key))
	assert.Empty(t, deb.ActiveCells())
	assert.False(t, cooked.Pressed(key))
}

func TestSparse_ExtensionSaturates(t *testing.T) {
	clock := testutil.NewManualClock(0)
	deb := NewSparse(clock, WithWindow(254))
	require.NoError(t, deb.Init(1))

	key := matrix.Cell{Row: 0, Col: 0}
	raw, cooked := matrix.New(1), matrix.New(1)
	raw.Set(key, true)
	deb.Filter(raw, cooked, 1, true)

	clock.Set(1)
	raw.Set(key, false)
	deb.Filter(raw, cooked, 1, true)
	assert.Equal(t, uint8(254), deb.Remaining(key))

	clock.Set(2)
	raw.Set(key, true)
	deb.Filter(raw, cooked, 1, true)
	assert.Equal(t, uint8(254), deb.Remaining(key))
	assert.LessOrEqual(t, deb.Remaining(key), uint8(255))
}

func TestSparse_IdleCycleTouchesOnlyList(t *testing.T) {
	clock := testutil.NewManualClock(0)
	deb := NewSparse(clock)
	require.NoError(t, deb.Init(64))

	raw, cooked := matrix.New(64), matrix.New(64)
	raw.Set(matrix.Cell{Row: 40, Col: 7}, true)
	deb.Filter(raw, cooked, 64, true)

	// With changed=false the arm pass is skipped, so even a raw mismatch
	// that was never announced is not picked up.
	raw.Set(matrix.Cell{Row: 2, Col: 2}, true)
	clock.Set(1)
	deb.Filter(raw, cooked, 64, false)
	assert.Equal(t, []matrix.Cell{{Row: 40, Col: 7}}, deb.ActiveCells())
}

// TestSparse_ListMatchesCounters drives random input and checks after every
// cycle that a cell is linked exactly when its counter is nonzero and that
// the list has no cycles or duplicates.
func TestSparse_ListMatchesCounters(t *testing.T) {
	const rows = 4
	rng := rand.New(rand.NewPCG(1, 2))

	clock := testutil.NewManualClock(0)
	deb := NewSparse(clock, WithDown(3), WithUp(6))
	require.NoError(t, deb.Init(rows))

	raw, cooked := matrix.New(rows), matrix.New(rows)
	for now := uint32(0); now < 2000; now++ {
		clock.Set(now)
		changed := false
		if rng.IntN(3) == 0 {
			c := matrix.Cell{Row: rng.IntN(rows), Col: rng.IntN(matrix.Cols)}
			raw.Set(c, !raw.Pressed(c))
			changed = true
		}
		deb.Filter(raw, cooked, rows, changed)

		linked := make(map[matrix.Cell]bool)
		for _, c := range deb.ActiveCells() {
			require.False(t, linked[c], "tick %d: %s linked twice", now, c)
			linked[c] = true
		}
		for idx := 0; idx < rows*matrix.Cols; idx++ {
			c := matrix.CellAt(idx)
			require.Equal(t, linked[c], deb.Remaining(c) != 0,
				"tick %d: %s linked=%v remaining=%d", now, c, linked[c], deb.Remaining(c))
		}
	}
}
