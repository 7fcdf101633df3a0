package engine

import "github.com/roach88/keybounce/internal/matrix"

// Asymmetric is Symmetric with separate press and release windows.
//
// Switches often bounce differently on make and on break, so a key going
// down arms the Down window and a key going up arms the Up window.
//
// A per-row count of keys mid-debounce lets Filter skip a row entirely when
// nothing in it is counting and nothing in it flipped, so an idle cycle
// costs one comparison per row.
//
// INVARIANT: rowCounts[r] equals the number of nonzero counters in row r.
type Asymmetric struct {
	base
	counters  []uint8
	rowCounts []uint8
}

// NewAsymmetric creates an asymmetric strategy.
func NewAsymmetric(clock Clock, opts ...Option) *Asymmetric {
	return &Asymmetric{base: newBase(StrategyAsymmetric, clock, opts)}
}

// Init allocates one counter per key and one active count per row.
func (d *Asymmetric) Init(rows int) error {
	if err := d.base.init(rows); err != nil {
		return err
	}
	d.counters = make([]uint8, rows*matrix.Cols)
	d.rowCounts = make([]uint8, rows)
	return nil
}

// Teardown releases the counters.
func (d *Asymmetric) Teardown() {
	d.base.teardown()
	d.counters = nil
	d.rowCounts = nil
}

// Filter runs one debounce cycle.
func (d *Asymmetric) Filter(raw, cooked matrix.Matrix, rows int, changed bool) {
	rows = d.span(raw, cooked, rows)
	elapsed := d.timer.elapsed()

	for r := 0; r < rows; r++ {
		rawRow := raw[r]
		cookedRow := cooked[r]

		var arm matrix.Row
		if changed {
			arm = d.flips(r, rawRow) & (rawRow ^ cookedRow)
		}
		if d.rowCounts[r] == 0 && arm == 0 {
			continue
		}

		counters := d.counters[r*matrix.Cols : (r+1)*matrix.Cols]
		for c := range counters {
			mask := matrix.Mask(c)
			switch {
			case arm&mask != 0:
				if counters[c] == 0 {
					d.rowCounts[r]++
				}
				counters[c] = d.cfg.window(rawRow&mask != 0)
			case counters[c] > elapsed:
				counters[c] -= elapsed
			case counters[c] != 0:
				counters[c] = 0
				d.rowCounts[r]--
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
func (d *Asymmetric) Remaining(c matrix.Cell) uint8 {
	return counterAt(d.counters, d.rows, c)
}

// ActiveInRow returns how many keys of row r are mid-debounce.
func (d *Asymmetric) ActiveInRow(r int) int {
	if r < 0 || r >= len(d.rowCounts) {
		return 0
	}
	return int(d.rowCounts[r])
}
