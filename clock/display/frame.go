// Package display composes the 20x4 character screen from the application
// state and pushes changed rows to the LCD.
package display

import "strings"

// Screen geometry.
const (
	Cols = 20
	Rows = 4
)

// Frame is one full screen of characters.
type Frame [Rows][Cols]byte

func blankFrame() Frame {
	var f Frame
	for r := range f {
		for c := range f[r] {
			f[r][c] = ' '
		}
	}
	return f
}

// put writes s at row, col and clips at the right edge.
func (f *Frame) put(row, col int, s string) {
	if row < 0 || row >= Rows {
		return
	}
	for i := 0; i < len(s) && col+i < Cols; i++ {
		if col+i >= 0 {
			f[row][col+i] = s[i]
		}
	}
}

func (f *Frame) putByte(row, col int, b byte) {
	if row >= 0 && row < Rows && col >= 0 && col < Cols {
		f[row][col] = b
	}
}

// Row returns one row as a string.
func (f Frame) Row(r int) string { return string(f[r][:]) }

func (f Frame) String() string {
	var b strings.Builder
	for r := range f {
		if r > 0 {
			b.WriteByte('\n')
		}
		b.Write(f[r][:])
	}
	return b.String()
}
