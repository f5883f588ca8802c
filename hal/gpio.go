package hal

import (
	"errors"
	"fmt"
	"sync"
)

// GPIOMode selects whether a pin is an input or output.
type GPIOMode uint8

const (
	GPIOModeInput GPIOMode = iota
	GPIOModeOutput
)

// GPIOPull selects the pull resistor configuration.
type GPIOPull uint8

const (
	GPIOPullNone GPIOPull = iota
	GPIOPullUp
	GPIOPullDown
)

// GPIOCaps declares what operations a pin supports.
type GPIOCaps uint8

const (
	GPIOCapInput GPIOCaps = 1 << iota
	GPIOCapOutput
	GPIOCapPullUp
	GPIOCapPullDown
	GPIOCapEdge
)

// ErrNoEdge is returned by SetFallingEdge on pins without edge detection.
var ErrNoEdge = errors.New("gpio: edge detection unsupported")

// GPIO provides access to general-purpose IO pins, indexed by line number.
//
// Pin returns nil for lines the board does not expose.
type GPIO interface {
	PinCount() int
	Pin(line int) GPIOPin
}

// GPIOPin is a single digital IO pin.
type GPIOPin interface {
	Name() string
	Caps() GPIOCaps
	Configure(mode GPIOMode, pull GPIOPull) error
	Read() (level bool, err error)
	Write(level bool) error
	// SetFallingEdge installs fn to run on every high-to-low transition of
	// an input. fn may run in interrupt context and must not block. A nil
	// fn disables the callback.
	SetFallingEdge(fn func(line int)) error
}

type nullGPIO struct{}

func (nullGPIO) PinCount() int        { return 0 }
func (nullGPIO) Pin(line int) GPIOPin { return nil }

type virtualGPIO struct {
	pins []GPIOPin
}

func newVirtualGPIO(pins []GPIOPin) GPIO {
	if len(pins) == 0 {
		return nullGPIO{}
	}
	return &virtualGPIO{pins: pins}
}

func (g *virtualGPIO) PinCount() int {
	if g == nil {
		return 0
	}
	return len(g.pins)
}

func (g *virtualGPIO) Pin(line int) GPIOPin {
	if g == nil || line < 0 || line >= len(g.pins) {
		return nil
	}
	return g.pins[line]
}

// virtualPin is a simulated pin. Set drives it from outside, the way a
// button or signal source would.
type virtualPin struct {
	mu    sync.Mutex
	line  int
	name  string
	caps  GPIOCaps
	mode  GPIOMode
	pull  GPIOPull
	level bool
	edge  func(line int)
}

func newVirtualPin(line int, name string, caps GPIOCaps) *virtualPin {
	return &virtualPin{
		line: line,
		name: name,
		caps: caps,
		mode: GPIOModeInput,
		pull: GPIOPullNone,
	}
}

func (p *virtualPin) Name() string   { return p.name }
func (p *virtualPin) Caps() GPIOCaps { return p.caps }

func (p *virtualPin) Configure(mode GPIOMode, pull GPIOPull) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch mode {
	case GPIOModeInput:
		if p.caps&GPIOCapInput == 0 {
			return fmt.Errorf("gpio: pin %s: input unsupported", p.name)
		}
	case GPIOModeOutput:
		if p.caps&GPIOCapOutput == 0 {
			return fmt.Errorf("gpio: pin %s: output unsupported", p.name)
		}
	default:
		return fmt.Errorf("gpio: pin %s: invalid mode", p.name)
	}

	switch pull {
	case GPIOPullNone:
	case GPIOPullUp:
		if p.caps&GPIOCapPullUp == 0 {
			return fmt.Errorf("gpio: pin %s: pull-up unsupported", p.name)
		}
	case GPIOPullDown:
		if p.caps&GPIOCapPullDown == 0 {
			return fmt.Errorf("gpio: pin %s: pull-down unsupported", p.name)
		}
	default:
		return fmt.Errorf("gpio: pin %s: invalid pull", p.name)
	}

	p.mode = mode
	p.pull = pull
	if mode == GPIOModeInput {
		// An idle input rests at its pull level.
		p.level = pull == GPIOPullUp
	}
	return nil
}

func (p *virtualPin) Read() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mode != GPIOModeInput && p.mode != GPIOModeOutput {
		return false, fmt.Errorf("gpio: pin %s: not configured", p.name)
	}
	return p.level, nil
}

func (p *virtualPin) Write(level bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mode != GPIOModeOutput {
		return fmt.Errorf("gpio: pin %s: not in output mode", p.name)
	}
	p.level = level
	return nil
}

func (p *virtualPin) SetFallingEdge(fn func(line int)) error {
	if p.caps&GPIOCapEdge == 0 {
		return fmt.Errorf("gpio: pin %s: %w", p.name, ErrNoEdge)
	}
	p.mu.Lock()
	p.edge = fn
	p.mu.Unlock()
	return nil
}

// Set drives the level of an input. A high-to-low transition runs the
// falling edge callback on the caller's goroutine.
func (p *virtualPin) Set(level bool) {
	p.mu.Lock()
	if p.mode != GPIOModeInput {
		p.mu.Unlock()
		return
	}
	fell := p.level && !level
	p.level = level
	fn := p.edge
	p.mu.Unlock()

	if fell && fn != nil {
		fn(p.line)
	}
}

// ledPin exposes an LED as an output-only pin.
type ledPin struct {
	mu    sync.Mutex
	led   LED
	name  string
	level bool
}

func newLEDPin(name string, led LED) GPIOPin {
	if led == nil {
		return nil
	}
	return &ledPin{led: led, name: name}
}

func (p *ledPin) Name() string   { return p.name }
func (p *ledPin) Caps() GPIOCaps { return GPIOCapOutput }

func (p *ledPin) Configure(mode GPIOMode, pull GPIOPull) error {
	if mode != GPIOModeOutput {
		return fmt.Errorf("gpio: pin %s: only output supported", p.name)
	}
	if pull != GPIOPullNone {
		return fmt.Errorf("gpio: pin %s: pull unsupported", p.name)
	}
	return nil
}

func (p *ledPin) Read() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level, nil
}

func (p *ledPin) Write(level bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.level == level {
		return nil
	}
	p.level = level
	if level {
		p.led.High()
	} else {
		p.led.Low()
	}
	return nil
}

func (p *ledPin) SetFallingEdge(func(int)) error {
	return fmt.Errorf("gpio: pin %s: %w", p.name, ErrNoEdge)
}

// OutputLED configures pin as an output and returns it as an LED.
// Write errors after configuration are ignored.
func OutputLED(pin GPIOPin) (LED, error) {
	if pin == nil {
		return nil, fmt.Errorf("gpio: %w", ErrNotImplemented)
	}
	if err := pin.Configure(GPIOModeOutput, GPIOPullNone); err != nil {
		return nil, err
	}
	_ = pin.Write(false)
	return pinLED{pin: pin}, nil
}

type pinLED struct {
	pin GPIOPin
}

func (l pinLED) High() { _ = l.pin.Write(true) }
func (l pinLED) Low()  { _ = l.pin.Write(false) }
