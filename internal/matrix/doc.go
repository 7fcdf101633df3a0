// Package matrix models one scan of a key-switch matrix.
//
// A matrix is a slice of rows, each row a fixed-width bit-set with one bit
// per column. The same type carries the raw scan produced by the scanning
// driver and the cooked (debounced) view maintained by the engine.
//
// # Addressing
//
// Cells are addressed by an explicit (row, column) pair. Strategies that keep
// per-cell state in one flat slice convert between the pair and a linear
// index with Index and CellAt:
//
//	idx := matrix.Index(matrix.Cell{Row: 2, Col: 5}) // 2*Cols + 5
//	cell := matrix.CellAt(idx)                       // {2, 5}
//
// # Ghosting
//
// HasGhostInRow reports the diode-less matrix ambiguity where two pressed
// keys in one row share two or more pressed columns with another row. The
// debounce core never consults it; it belongs to the dispatch boundary that
// decides which cooked changes are reported upward.
package matrix
