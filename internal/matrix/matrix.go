package matrix

import "fmt"

// Cols is the number of columns in every row.
const Cols = 32

// Row holds one bit per column; bit c set means column c is pressed.
type Row uint32

// Matrix is one snapshot of the switch matrix, indexed by row.
type Matrix []Row

// Cell addresses a single switch.
type Cell struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

// String renders the cell as "r<row>c<col>".
func (c Cell) String() string {
	return fmt.Sprintf("r%dc%d", c.Row, c.Col)
}

// Mask returns the bit for column col.
func Mask(col int) Row {
	return Row(1) << uint(col)
}

// Index converts a cell into its row-major linear index.
func Index(c Cell) int {
	return c.Row*Cols + c.Col
}

// CellAt converts a row-major linear index back into a cell.
// Panics on a negative index.
func CellAt(idx int) Cell {
	if idx < 0 {
		panic(fmt.Sprintf("matrix: negative cell index %d", idx))
	}
	return Cell{Row: idx / Cols, Col: idx % Cols}
}

// New allocates an all-released matrix with the given number of rows.
func New(rows int) Matrix {
	return make(Matrix, rows)
}

// Pressed reports whether the cell is set. Cells outside the matrix read as
// released.
func (m Matrix) Pressed(c Cell) bool {
	if c.Row < 0 || c.Row >= len(m) || c.Col < 0 || c.Col >= Cols {
		return false
	}
	return m[c.Row]&Mask(c.Col) != 0
}

// Set presses or releases a cell. Cells outside the matrix are ignored.
func (m Matrix) Set(c Cell, pressed bool) {
	if c.Row < 0 || c.Row >= len(m) || c.Col < 0 || c.Col >= Cols {
		return
	}
	if pressed {
		m[c.Row] |= Mask(c.Col)
	} else {
		m[c.Row] &^= Mask(c.Col)
	}
}

// Clone returns an independent copy.
func (m Matrix) Clone() Matrix {
	out := make(Matrix, len(m))
	copy(out, m)
	return out
}

// CopyFrom overwrites m with src without allocating. Rows beyond the shorter
// of the two are left untouched.
func (m Matrix) CopyFrom(src Matrix) {
	copy(m, src)
}

// Equal reports whether both matrices have the same rows.
func (m Matrix) Equal(other Matrix) bool {
	if len(m) != len(other) {
		return false
	}
	for i := range m {
		if m[i] != other[i] {
			return false
		}
	}
	return true
}

// Clear releases every cell.
func (m Matrix) Clear() {
	for i := range m {
		m[i] = 0
	}
}

// Transition is a change of a single cell between two snapshots.
type Transition struct {
	Cell    Cell
	Pressed bool
}

// String renders the transition as "r0c1 down" or "r0c1 up".
func (t Transition) String() string {
	if t.Pressed {
		return t.Cell.String() + " down"
	}
	return t.Cell.String() + " up"
}

// Diff appends to dst every cell that differs between before and after, in
// row-major order, and returns the extended slice. Only the rows present in
// both snapshots are compared. Passing a dst with spare capacity keeps the
// call allocation-free.
func Diff(dst []Transition, before, after Matrix) []Transition {
	rows := min(len(before), len(after))
	for r := 0; r < rows; r++ {
		dst = DiffRow(dst, r, before[r], after[r])
	}
	return dst
}

// DiffRow appends the transitions between two versions of row r.
func DiffRow(dst []Transition, r int, before, after Row) []Transition {
	delta := before ^ after
	for c := 0; delta != 0; c++ {
		mask := Mask(c)
		if delta&mask == 0 {
			continue
		}
		delta &^= mask
		dst = append(dst, Transition{
			Cell:    Cell{Row: r, Col: c},
			Pressed: after&mask != 0,
		})
	}
	return dst
}
