package engine

import "github.com/roach88/keybounce/internal/matrix"

// KeyState is the per-key state of the quiescing strategy.
type KeyState uint8

const (
	// KeyIdle means raw and cooked agree and nothing is being timed.
	KeyIdle KeyState = iota

	// KeyCounting means a mismatch is being timed against the direction's
	// window. The mismatch clearing before the window elapses is a false
	// start and returns the key to KeyIdle without a commit.
	KeyCounting

	// KeySettling means the key just committed and is blind to raw changes
	// until the quiesce period elapses.
	KeySettling
)

// String returns the lower-case state name.
func (s KeyState) String() string {
	switch s {
	case KeyIdle:
		return "idle"
	case KeyCounting:
		return "counting"
	case KeySettling:
		return "settling"
	default:
		return "unknown"
	}
}

type quiesceCell struct {
	state     KeyState
	remaining uint8
}

// Quiescing runs a three-state machine per key.
//
//	Idle     -> Counting  raw flips away from cooked
//	Counting -> Idle      raw returns to cooked before the window elapses
//	Counting -> Settling  window elapses; cooked flips, quiesce period armed
//	Settling -> Idle      quiesce period elapses
//
// Raw changes during Settling are not queued. When Settling ends the key is
// compared against raw once more: if raw still differs from cooked the key
// goes straight back to Counting in the same cycle, so a release that
// happened inside the blind window is delayed, never lost.
//
// INVARIANT: rowActive[r] equals the number of non-idle keys in row r.
type Quiescing struct {
	base
	cells     []quiesceCell
	rowActive []uint8
}

// NewQuiescing creates a quiescing strategy.
func NewQuiescing(clock Clock, opts ...Option) *Quiescing {
	return &Quiescing{base: newBase(StrategyQuiescing, clock, opts)}
}

// Init allocates one state record per key.
func (d *Quiescing) Init(rows int) error {
	if err := d.base.init(rows); err != nil {
		return err
	}
	d.cells = make([]quiesceCell, rows*matrix.Cols)
	d.rowActive = make([]uint8, rows)
	return nil
}

// Teardown releases the state records.
func (d *Quiescing) Teardown() {
	d.base.teardown()
	d.cells = nil
	d.rowActive = nil
}

// Filter runs one debounce cycle.
func (d *Quiescing) Filter(raw, cooked matrix.Matrix, rows int, changed bool) {
	rows = d.span(raw, cooked, rows)
	elapsed := d.timer.elapsed()

	for r := 0; r < rows; r++ {
		rawRow := raw[r]
		cookedRow := cooked[r]

		var flipped matrix.Row
		if changed {
			flipped = d.flips(r, rawRow)
		}
		if d.rowActive[r] == 0 && flipped == 0 {
			continue
		}

		cells := d.cells[r*matrix.Cols : (r+1)*matrix.Cols]
		for c := range cells {
			mask := matrix.Mask(c)
			k := &cells[c]

			switch k.state {
			case KeyIdle:
				if flipped&(rawRow^cookedRow)&mask != 0 {
					d.count(k, rawRow&mask != 0)
					d.rowActive[r]++
				}

			case KeyCounting:
				switch {
				case (rawRow^cookedRow)&mask == 0:
					*k = quiesceCell{}
					d.rowActive[r]--
				case k.remaining > elapsed:
					k.remaining -= elapsed
				default:
					cookedRow ^= mask
					d.committed(r, c, rawRow&mask != 0)
					k.state = KeySettling
					k.remaining = d.cfg.Quiesce
				}

			case KeySettling:
				if k.remaining > elapsed {
					k.remaining -= elapsed
					continue
				}
				if (rawRow^cookedRow)&mask != 0 {
					d.count(k, rawRow&mask != 0)
				} else {
					*k = quiesceCell{}
					d.rowActive[r]--
				}
			}
		}

		cooked[r] = cookedRow
	}
}

// count moves a key into Counting with its direction's window.
func (d *Quiescing) count(k *quiesceCell, pressed bool) {
	k.state = KeyCounting
	k.remaining = d.cfg.window(pressed)
}

// State returns the current state of a key. Cells outside the matrix read
// as idle.
func (d *Quiescing) State(c matrix.Cell) KeyState {
	if c.Row < 0 || c.Row >= d.rows || c.Col < 0 || c.Col >= matrix.Cols {
		return KeyIdle
	}
	return d.cells[matrix.Index(c)].state
}

// Remaining returns the ticks left in the key's current state.
func (d *Quiescing) Remaining(c matrix.Cell) uint8 {
	if c.Row < 0 || c.Row >= d.rows || c.Col < 0 || c.Col >= matrix.Cols {
		return 0
	}
	return d.cells[matrix.Index(c)].remaining
}
