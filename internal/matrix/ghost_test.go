package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasGhostInRow(t *testing.T) {
	tests := []struct {
		name string
		m    Matrix
		row  int
		want bool
	}{
		{"empty", Matrix{0, 0}, 0, false},
		{"same column only", Matrix{0b01, 0b01}, 0, false},
		{"two keys, other row empty", Matrix{0b11, 0}, 0, false},
		{"no shared column", Matrix{0b01, 0b10}, 0, false},
		{"three corners, single-key row", Matrix{0b11, 0b01}, 1, true},
		{"three corners, two-key row", Matrix{0b11, 0b01}, 0, true},
		{"three corners down a column", Matrix{0b01, 0b11}, 0, true},
		{"rectangle", Matrix{0b11, 0b11}, 0, true},
		{"rectangle seen from other row", Matrix{0b11, 0b11}, 1, true},
		{"third row uninvolved", Matrix{0b11, 0b11, 0b100}, 2, false},
		{"column of three", Matrix{0b01, 0b01, 0b01}, 1, false},
		{"row out of range", Matrix{0b11}, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasGhostInRow(tt.m, tt.row))
		})
	}
}
