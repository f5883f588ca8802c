//go:build !tinygo

package hal

import (
	"fmt"
	"os"
	"sync"
)

// HostConfig selects the host backends.
type HostConfig struct {
	// FlashPath is the flash image file. Empty uses $FASTCLOCK_FLASH_PATH or
	// fastclock.flash.
	FlashPath string
	// Periph uses the machine's real GPIO lines instead of virtual pins.
	Periph bool
}

type hostHAL struct {
	logger *hostLogger
	gpio   GPIO
	lcd    *hostLCD
	pixel  *hostPixel
	t      *hostTime
	flash  *hostFlash

	mu   sync.Mutex
	keys map[KeyCode]int
}

func newHostHAL(cfg HostConfig) (*hostHAL, error) {
	logger := &hostLogger{w: os.Stdout}
	gpio := newHostGPIO(logger)
	if cfg.Periph {
		pg, err := newPeriphGPIO()
		if err != nil {
			return nil, err
		}
		gpio = pg
	}
	return &hostHAL{
		logger: logger,
		gpio:   gpio,
		lcd:    newHostLCD(20, 4),
		pixel:  &hostPixel{logger: logger},
		t:      newHostTime(),
		flash:  newHostFlash(cfg.FlashPath),
		keys:   make(map[KeyCode]int),
	}, nil
}

// newHostGPIO builds the simulated board: pulled-up button inputs with edge
// detection, the two status LEDs and plain pins everywhere else.
func newHostGPIO(logger *hostLogger) GPIO {
	pins := make([]GPIOPin, LineCount)
	for line := range pins {
		name := fmt.Sprintf("GP%d", line)
		switch line {
		case LineGreenLED:
			pins[line] = newLEDPin(name, &hostLED{name: "green", logger: logger})
		case LineRedLED:
			pins[line] = newLEDPin(name, &hostLED{name: "red", logger: logger})
		default:
			pins[line] = newVirtualPin(line, name, GPIOCapInput|GPIOCapOutput|GPIOCapPullUp|GPIOCapPullDown|GPIOCapEdge)
		}
	}
	return newVirtualGPIO(pins)
}

func (h *hostHAL) Logger() Logger       { return h.logger }
func (h *hostHAL) GPIO() GPIO           { return h.gpio }
func (h *hostHAL) Display() CharDisplay { return h.lcd }
func (h *hostHAL) Pixel() Pixel         { return h.pixel }
func (h *hostHAL) Flash() Flash         { return h.flash }
func (h *hostHAL) Time() Time           { return h.t }

// Restart cannot reset the host; the runner rebuilds the application.
func (h *hostHAL) Restart() error { return ErrRestart }

func (h *hostHAL) BindKey(k KeyCode, line int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.keys[k] = line
}

// press drives the button line bound to k. Buttons are active low.
func (h *hostHAL) press(k KeyCode, down bool) bool {
	h.mu.Lock()
	line, ok := h.keys[k]
	h.mu.Unlock()
	if !ok {
		return false
	}
	pin, ok := h.gpio.Pin(line).(*virtualPin)
	if !ok {
		return false
	}
	pin.Set(!down)
	return true
}

type hostLogger struct {
	mu sync.Mutex
	w  *os.File
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}

type hostLED struct {
	name   string
	logger *hostLogger
}

func (l *hostLED) High() { l.logger.WriteLineString("led " + l.name + ": HIGH") }
func (l *hostLED) Low()  { l.logger.WriteLineString("led " + l.name + ": LOW") }

type hostPixel struct {
	mu      sync.Mutex
	r, g, b uint8
	logger  *hostLogger
}

func (p *hostPixel) SetRGB(r, g, b uint8) error {
	p.mu.Lock()
	p.r, p.g, p.b = r, g, b
	p.mu.Unlock()
	p.logger.WriteLineString(fmt.Sprintf("pixel: #%02x%02x%02x", r, g, b))
	return nil
}

func (p *hostPixel) rgb() (r, g, b uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.r, p.g, p.b
}
