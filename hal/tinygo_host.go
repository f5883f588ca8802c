//go:build tinygo && !baremetal

package hal

import (
	"strconv"
	"time"
)

type tinyGoHostHAL struct {
	logger *tinyGoHostLogger
	gpio   GPIO
	lcd    *tinyGoHostLCD
	t      *tinyGoHostTime
	flash  Flash
}

// New returns a TinyGo-on-host HAL implementation.
//
// This is used by `tinygo run` targets like linux/wasm where there is no MCU
// pin mapping: pins are virtual, the LCD prints to the console and there is
// no flash, so settings are not kept.
func New() HAL {
	l := &tinyGoHostLogger{}
	pins := make([]GPIOPin, LineCount)
	for line := range pins {
		pins[line] = newVirtualPin(line, "GP"+strconv.Itoa(line), GPIOCapInput|GPIOCapOutput|GPIOCapPullUp|GPIOCapEdge)
	}
	return &tinyGoHostHAL{
		logger: l,
		gpio:   newVirtualGPIO(pins),
		lcd:    &tinyGoHostLCD{logger: l},
		t:      newTinyGoHostTime(),
	}
}

func (h *tinyGoHostHAL) Logger() Logger       { return h.logger }
func (h *tinyGoHostHAL) GPIO() GPIO           { return h.gpio }
func (h *tinyGoHostHAL) Display() CharDisplay { return h.lcd }
func (h *tinyGoHostHAL) Pixel() Pixel         { return tinyGoHostPixel{logger: h.logger} }
func (h *tinyGoHostHAL) Flash() Flash         { return h.flash }
func (h *tinyGoHostHAL) Time() Time           { return h.t }
func (h *tinyGoHostHAL) Restart() error       { return ErrRestart }

type tinyGoHostTime struct {
	ch  chan uint64
	seq uint64
}

func newTinyGoHostTime() *tinyGoHostTime {
	t := &tinyGoHostTime{ch: make(chan uint64, 16)}
	go func() {
		ticker := time.NewTicker(1 * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			t.seq++
			select {
			case t.ch <- t.seq:
			default:
			}
		}
	}()
	return t
}

func (t *tinyGoHostTime) Ticks() <-chan uint64 { return t.ch }

type tinyGoHostLogger struct{}

func (l *tinyGoHostLogger) WriteLineString(s string) {
	println(s)
}

func (l *tinyGoHostLogger) WriteLineBytes(b []byte) {
	println(string(b))
}

type tinyGoHostLCD struct {
	logger *tinyGoHostLogger
}

func (d *tinyGoHostLCD) Cols() int { return 20 }
func (d *tinyGoHostLCD) Rows() int { return 4 }

func (d *tinyGoHostLCD) WriteRow(row int, text []byte) error {
	d.logger.WriteLineString("lcd " + strconv.Itoa(row) + " |" + string(text) + "|")
	return nil
}

type tinyGoHostPixel struct {
	logger *tinyGoHostLogger
}

func (p tinyGoHostPixel) SetRGB(r, g, b uint8) error {
	p.logger.WriteLineString("pixel: " + strconv.Itoa(int(r)) + "," + strconv.Itoa(int(g)) + "," + strconv.Itoa(int(b)))
	return nil
}
