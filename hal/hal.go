package hal

import "errors"

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

// LED is a minimal output pin abstraction.
type LED interface {
	High()
	Low()
}

var ErrNotImplemented = errors.New("not implemented")

// ErrRestart is returned by Restart on platforms that cannot reset the CPU.
// The runner restarts the application instead.
var ErrRestart = errors.New("restart requested")

// CharDisplay is a character LCD addressed by whole rows.
type CharDisplay interface {
	Cols() int
	Rows() int
	// WriteRow replaces row with text, padded or cut to Cols.
	WriteRow(row int, text []byte) error
}

// Pixel is a single RGB LED.
type Pixel interface {
	SetRGB(r, g, b uint8) error
}

// KeyCode is a host keyboard key that can drive a button line.
type KeyCode uint16

const (
	KeyUnknown KeyCode = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyEnter
	KeyEscape
	KeyTab
	KeySpace
)

// Keypad is implemented by platforms whose button lines can be driven from a
// keyboard. A bound key pulls its line low while held.
type Keypad interface {
	BindKey(k KeyCode, line int)
}

// Flash provides raw access to non-volatile memory.
//
// It is intentionally low-level: addresses and erase blocks only.
type Flash interface {
	SizeBytes() uint32
	EraseBlockBytes() uint32
	ReadAt(p []byte, off uint32) (int, error)
	WriteAt(p []byte, off uint32) (int, error)
	Erase(off, size uint32) error
}

// Time provides a base tick stream.
//
// The tick duration is one millisecond on every platform.
type Time interface {
	Ticks() <-chan uint64
}

// Board line assignments of the reference hardware.
const (
	LineI2CSDA     = 4
	LineI2CSCL     = 5
	LineFirstKey   = 6
	LineGreenLED   = 14
	LineRedLED     = 15
	LinePixel      = 16
	LineFirstPulse = 17
	LineCount      = 30
)

// HAL provides the only contact point between the firmware and the outside world.
type HAL interface {
	Logger() Logger
	GPIO() GPIO
	Display() CharDisplay
	Pixel() Pixel
	Flash() Flash
	Time() Time
	// Restart resets the device. It returns only on platforms that cannot
	// reset, with ErrRestart.
	Restart() error
}
