package engine

import "github.com/roach88/keybounce/internal/matrix"

// sparseEntry is one key's slot in the active list.
type sparseEntry struct {
	remaining uint8
	next      uint16
}

// Sparse tracks only the keys that are mid-debounce.
//
// Active keys are threaded through a flat slice of entries as an intrusive
// singly-linked list. The list index is a uint16 and the cell count doubles
// as the "not linked" sentinel, so the matrix may hold at most
// MaxSparseCells keys.
//
// Per cycle:
//  1. Settle: walk the list, count each entry down and commit and unlink
//     the ones whose window elapsed. Cost is O(active keys).
//  2. Arm (changed cycles only): scan every key. A key that differs from
//     cooked and is idle is pushed onto the head of the list with its
//     direction's window. A linked key that flipped again has its deadline
//     pushed out by the elapsed ticks, so a key that never stops fluttering
//     never commits.
//
// INVARIANT: an entry is linked if and only if its remaining count is
// nonzero.
type Sparse struct {
	base
	entries []sparseEntry
	head    uint16
	null    uint16
}

// NewSparse creates a sparse active-list strategy.
func NewSparse(clock Clock, opts ...Option) *Sparse {
	return &Sparse{base: newBase(StrategySparse, clock, opts)}
}

// Init allocates one entry per key. It fails with TOO_MANY_CELLS when the
// matrix is too large for the list index.
func (d *Sparse) Init(rows int) error {
	if rows > 0 && rows*matrix.Cols > MaxSparseCells {
		return NewTooManyCellsError(d.name, rows*matrix.Cols, MaxSparseCells)
	}
	if err := d.base.init(rows); err != nil {
		return err
	}
	cells := rows * matrix.Cols
	d.entries = make([]sparseEntry, cells)
	d.null = uint16(cells)
	for i := range d.entries {
		d.entries[i].next = d.null
	}
	d.head = d.null
	return nil
}

// Teardown releases the list.
func (d *Sparse) Teardown() {
	d.base.teardown()
	d.entries = nil
	d.head = 0
	d.null = 0
}

// Filter runs one debounce cycle.
func (d *Sparse) Filter(raw, cooked matrix.Matrix, rows int, changed bool) {
	rows = d.span(raw, cooked, rows)
	elapsed := d.timer.elapsed()
	if d.entries == nil {
		return
	}

	d.settle(raw, cooked, rows, elapsed)
	if !changed {
		return
	}

	for r := 0; r < rows; r++ {
		rawRow := raw[r]
		flipped := d.flips(r, rawRow)
		delta := rawRow ^ cooked[r]
		if delta|flipped == 0 {
			continue
		}

		for c := 0; c < matrix.Cols; c++ {
			mask := matrix.Mask(c)
			idx := r*matrix.Cols + c
			e := &d.entries[idx]
			switch {
			case e.remaining == 0 && delta&mask != 0:
				e.remaining = d.cfg.window(rawRow&mask != 0)
				e.next = d.head
				d.head = uint16(idx)
			case e.remaining != 0 && flipped&mask != 0:
				e.remaining = saturatingAdd(e.remaining, elapsed)
			}
		}
	}
}

// settle counts down every linked entry and commits the expired ones.
func (d *Sparse) settle(raw, cooked matrix.Matrix, rows int, elapsed uint8) {
	prev := d.null
	p := d.head
	for p != d.null {
		e := &d.entries[p]
		next := e.next

		if e.remaining > elapsed {
			e.remaining -= elapsed
			prev = p
			p = next
			continue
		}

		cell := matrix.CellAt(int(p))
		if cell.Row < rows {
			mask := matrix.Mask(cell.Col)
			if delta := (raw[cell.Row] ^ cooked[cell.Row]) & mask; delta != 0 {
				cooked[cell.Row] ^= delta
				d.committed(cell.Row, cell.Col, raw[cell.Row]&mask != 0)
			}
		}

		if prev == d.null {
			d.head = next
		} else {
			d.entries[prev].next = next
		}
		e.remaining = 0
		e.next = d.null
		p = next
	}
}

// Remaining returns the ticks left before the key commits, zero when idle.
func (d *Sparse) Remaining(c matrix.Cell) uint8 {
	if c.Row < 0 || c.Row >= d.rows || c.Col < 0 || c.Col >= matrix.Cols {
		return 0
	}
	return d.entries[matrix.Index(c)].remaining
}

// ActiveCells returns the linked keys in list order, most recently armed
// first.
func (d *Sparse) ActiveCells() []matrix.Cell {
	var cells []matrix.Cell
	for p := d.head; p != d.null && d.entries != nil; p = d.entries[p].next {
		cells = append(cells, matrix.CellAt(int(p)))
	}
	return cells
}
