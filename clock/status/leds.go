// Package status drives the appliance's indicator outputs: the run/pause
// LEDs, the RGB status pixel and the minute pulse channels for slave clocks.
package status

import (
	"log/slog"

	"fastclock/clock/event"
	"fastclock/clock/logging"
)

// Pin is a digital output. hal.LED implements it.
type Pin interface {
	High()
	Low()
}

// Pixel is a single RGB status pixel.
type Pixel interface {
	SetRGB(r, g, b uint8) error
}

// Subscriber registers handlers. *event.Bus implements it.
type Subscriber interface {
	Subscribe(t event.Topic, h event.Handler) error
}

// Pixel colours for the two timer states.
var (
	RunningColor = [3]uint8{0, 16, 0}
	PausedColor  = [3]uint8{16, 0, 0}
)

// LEDs shows the timer state: green while the model clock runs, red while it
// is paused. Any output may be nil.
type LEDs struct {
	green, red Pin
	pixel      Pixel
	running    func() bool
	logger     *slog.Logger
}

// NewLEDs creates the indicator driver. running reports the model clock
// state.
func NewLEDs(green, red Pin, pixel Pixel, running func() bool, logger *slog.Logger) *LEDs {
	if logger == nil {
		logger = logging.Discard()
	}
	return &LEDs{green: green, red: red, pixel: pixel, running: running, logger: logger.With("component", "leds")}
}

// Subscribe updates the LEDs on every TimerStateChanged.
func (l *LEDs) Subscribe(bus Subscriber) error {
	return bus.Subscribe(event.TimerStateChanged, func(event.Event) { l.Sync() })
}

// Sync sets the outputs from the current timer state.
func (l *LEDs) Sync() {
	run := l.running()
	set(l.green, run)
	set(l.red, !run)
	if l.pixel == nil {
		return
	}
	c := PausedColor
	if run {
		c = RunningColor
	}
	if err := l.pixel.SetRGB(c[0], c[1], c[2]); err != nil {
		l.logger.Warn("pixel update failed", "err", err)
	}
}

func set(p Pin, on bool) {
	if p == nil {
		return
	}
	if on {
		p.High()
	} else {
		p.Low()
	}
}
