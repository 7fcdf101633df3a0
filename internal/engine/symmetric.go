package engine

import "github.com/roach88/keybounce/internal/matrix"

// Symmetric debounces every key with one counter and one window.
//
// A key that flips while it differs from cooked (re)arms its counter to the
// full window, discarding any countdown in progress. The counter then runs
// down by the elapsed ticks of each cycle; when it reaches zero the raw bit
// is copied into cooked. Any bounce inside the window therefore restarts it,
// and a key commits only after holding still for the whole window.
type Symmetric struct {
	base

	// counters[row*Cols+col] is the number of ticks until the key commits;
	// zero means idle.
	counters []uint8
}

// NewSymmetric creates a symmetric strategy. WithUp is ignored.
func NewSymmetric(clock Clock, opts ...Option) *Symmetric {
	return &Symmetric{base: newBase(StrategySymmetric, clock, opts)}
}

// Init allocates one counter per key.
func (d *Symmetric) Init(rows int) error {
	if err := d.base.init(rows); err != nil {
		return err
	}
	d.counters = make([]uint8, rows*matrix.Cols)
	return nil
}

// Teardown releases the counters.
func (d *Symmetric) Teardown() {
	d.base.teardown()
	d.counters = nil
}

// Filter runs one debounce cycle.
func (d *Symmetric) Filter(raw, cooked matrix.Matrix, rows int, changed bool) {
	rows = d.span(raw, cooked, rows)
	elapsed := d.timer.elapsed()

	for r := 0; r < rows; r++ {
		rawRow := raw[r]
		cookedRow := cooked[r]

		var arm matrix.Row
		if changed {
			arm = d.flips(r, rawRow) & (rawRow ^ cookedRow)
		}

		counters := d.counters[r*matrix.Cols : (r+1)*matrix.Cols]
		for c := range counters {
			mask := matrix.Mask(c)
			switch {
			case arm&mask != 0:
				counters[c] = d.cfg.Down
			case counters[c] > elapsed:
				counters[c] -= elapsed
			case counters[c] != 0:
				counters[c] = 0
				if (cookedRow^rawRow)&mask != 0 {
					cookedRow ^= mask
					d.committed(r, c, rawRow&mask != 0)
				}
			}
		}

		cooked[r] = cookedRow
	}
}

// Remaining returns the ticks left before the key commits, zero when idle.
func (d *Symmetric) Remaining(c matrix.Cell) uint8 {
	return counterAt(d.counters, d.rows, c)
}

// counterAt reads a per-key counter, tolerating cells outside the matrix.
func counterAt(counters []uint8, rows int, c matrix.Cell) uint8 {
	if c.Row < 0 || c.Row >= rows || c.Col < 0 || c.Col >= matrix.Cols {
		return 0
	}
	return counters[matrix.Index(c)]
}
