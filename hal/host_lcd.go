//go:build !tinygo

package hal

import (
	"fmt"
	"image/color"
	"sync"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"
)

// Glyph cell and border of the simulated LCD, in pixels.
const (
	lcdCellW = 11
	lcdCellH = 18
	lcdPad   = 8
	// lcdBaseline is the baseline offset of a glyph inside its cell.
	lcdBaseline = 13
)

var (
	lcdBackground = color.RGBA{R: 0x1c, G: 0x3c, B: 0xb4, A: 0xff}
	lcdForeground = color.RGBA{R: 0xf0, G: 0xf0, B: 0xff, A: 0xff}
)

// hostLCD simulates a character LCD: the text lives in a grid and is drawn
// with tinyfont into an RGB565 framebuffer that the window presents.
type hostLCD struct {
	mu   sync.Mutex
	cols int
	rows int
	text [][]byte
	fb   *hostFramebuffer

	// echo writes every changed row to the logger; used without a window.
	echo Logger
}

func newHostLCD(cols, rows int) *hostLCD {
	l := &hostLCD{
		cols: cols,
		rows: rows,
		text: make([][]byte, rows),
		fb:   newHostFramebuffer(cols*lcdCellW+2*lcdPad, rows*lcdCellH+2*lcdPad),
	}
	for r := range l.text {
		l.text[r] = make([]byte, cols)
		for c := range l.text[r] {
			l.text[r][c] = ' '
		}
	}
	l.fb.fill(lcdBackground)
	return l
}

func (l *hostLCD) Cols() int { return l.cols }
func (l *hostLCD) Rows() int { return l.rows }

func (l *hostLCD) WriteRow(row int, text []byte) error {
	if row < 0 || row >= l.rows {
		return fmt.Errorf("lcd: row %d out of range", row)
	}
	l.mu.Lock()
	line := l.text[row]
	for c := range line {
		line[c] = ' '
		if c < len(text) {
			line[c] = text[c]
		}
	}
	drawLCDRow(l.fb, row, line)
	echo := l.echo
	snapshot := string(line)
	l.mu.Unlock()

	if echo != nil {
		echo.WriteLineString(fmt.Sprintf("lcd %d |%s|", row, snapshot))
	}
	return nil
}

// Row returns the current text of row.
func (l *hostLCD) Row(row int) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return string(l.text[row])
}

func drawLCDRow(d drivers.Displayer, row int, line []byte) {
	y0 := int16(lcdPad + row*lcdCellH)
	w, _ := d.Size()
	for y := y0; y < y0+lcdCellH; y++ {
		for x := int16(lcdPad); x < w-lcdPad; x++ {
			d.SetPixel(x, y, lcdBackground)
		}
	}
	for c, b := range line {
		if b == ' ' {
			continue
		}
		if b < 0x20 || b > 0x7e {
			// Glyphs outside ASCII come from the controller ROM.
			b = '#'
		}
		x := int16(lcdPad + c*lcdCellW)
		tinyfont.DrawChar(d, &freemono.Regular9pt7b, x, y0+lcdBaseline, rune(b), lcdForeground)
	}
	_ = d.Display()
}

// hostFramebuffer is an RGB565 pixel buffer. It implements drivers.Displayer
// so tinyfont can draw into it.
type hostFramebuffer struct {
	mu     sync.Mutex
	width  int
	height int
	stride int
	buf    []byte
}

func newHostFramebuffer(width, height int) *hostFramebuffer {
	stride := width * 2
	return &hostFramebuffer{
		width:  width,
		height: height,
		stride: stride,
		buf:    make([]byte, stride*height),
	}
}

func (f *hostFramebuffer) Size() (x, y int16) { return int16(f.width), int16(f.height) }

func (f *hostFramebuffer) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || y < 0 || int(x) >= f.width || int(y) >= f.height {
		return
	}
	p := rgb565(c.R, c.G, c.B)
	i := int(y)*f.stride + int(x)*2
	f.mu.Lock()
	f.buf[i] = byte(p)
	f.buf[i+1] = byte(p >> 8)
	f.mu.Unlock()
}

func (f *hostFramebuffer) Display() error { return nil }

func (f *hostFramebuffer) fill(c color.RGBA) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pixel := rgb565(c.R, c.G, c.B)
	lo := byte(pixel)
	hi := byte(pixel >> 8)
	for i := 0; i < len(f.buf); i += 2 {
		f.buf[i] = lo
		f.buf[i+1] = hi
	}
}

func (f *hostFramebuffer) snapshotRGB565(dst []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copy(dst, f.buf)
}

func rgb565(r, g, b uint8) uint16 {
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}

func rgb888From565(p uint16) (r, g, b uint8) {
	r = uint8(((p >> 11) & 0x1F) * 255 / 31)
	g = uint8(((p >> 5) & 0x3F) * 255 / 63)
	b = uint8((p & 0x1F) * 255 / 31)
	return r, g, b
}
