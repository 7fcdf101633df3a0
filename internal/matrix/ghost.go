package matrix

import "math/bits"

// HasGhostInRow reports whether row is electrically ambiguous. On a matrix
// without per-key diodes, three pressed corners of a rectangle make the
// fourth read as pressed, so a row is ambiguous when it shares a pressed
// column with another row and the two rows together span at least two
// columns.
func HasGhostInRow(m Matrix, row int) bool {
	if row < 0 || row >= len(m) {
		return false
	}
	data := m[row]
	if data == 0 {
		return false
	}
	for i, other := range m {
		if i == row || other&data == 0 {
			continue
		}
		if bits.OnesCount32(uint32(other|data)) > 1 {
			return true
		}
	}
	return false
}
