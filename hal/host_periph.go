//go:build linux && !tinygo

package hal

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// newPeriphGPIO exposes the host's real GPIO lines, such as a Raspberry Pi
// header, through periph.io. Lines the host lacks are nil.
func newPeriphGPIO() (GPIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph init: %w", err)
	}
	pins := make([]GPIOPin, LineCount)
	found := 0
	for line := range pins {
		p := gpioreg.ByName(fmt.Sprintf("GPIO%d", line))
		if p == nil {
			continue
		}
		pins[line] = &periphPin{line: line, pin: p}
		found++
	}
	if found == 0 {
		return nil, fmt.Errorf("periph: no gpio lines: %w", ErrNotImplemented)
	}
	return &virtualGPIO{pins: pins}, nil
}

type periphPin struct {
	line int
	pin  gpio.PinIO

	mu      sync.Mutex
	edge    func(line int)
	watched bool
}

func (p *periphPin) Name() string { return p.pin.Name() }

func (p *periphPin) Caps() GPIOCaps {
	return GPIOCapInput | GPIOCapOutput | GPIOCapPullUp | GPIOCapPullDown | GPIOCapEdge
}

func (p *periphPin) Configure(mode GPIOMode, pull GPIOPull) error {
	switch mode {
	case GPIOModeInput:
		pp := gpio.Float
		switch pull {
		case GPIOPullUp:
			pp = gpio.PullUp
		case GPIOPullDown:
			pp = gpio.PullDown
		}
		if err := p.pin.In(pp, gpio.BothEdges); err != nil {
			return fmt.Errorf("gpio: pin %s: %w", p.Name(), err)
		}
		return nil
	case GPIOModeOutput:
		if err := p.pin.Out(gpio.Low); err != nil {
			return fmt.Errorf("gpio: pin %s: %w", p.Name(), err)
		}
		return nil
	default:
		return fmt.Errorf("gpio: pin %s: invalid mode", p.Name())
	}
}

func (p *periphPin) Read() (bool, error) {
	return p.pin.Read() == gpio.High, nil
}

func (p *periphPin) Write(level bool) error {
	return p.pin.Out(gpio.Level(level))
}

func (p *periphPin) SetFallingEdge(fn func(line int)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.edge = fn
	if fn != nil && !p.watched {
		p.watched = true
		go p.watch()
	}
	return nil
}

// watch turns edge notifications into falling-edge callbacks. periph reports
// both edges, so the level is sampled after each one. It runs for the life of
// the process; button pins are never released.
func (p *periphPin) watch() {
	high := p.pin.Read() == gpio.High
	for {
		if !p.pin.WaitForEdge(-1) {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		now := p.pin.Read() == gpio.High
		fell := high && !now
		high = now
		if !fell {
			continue
		}
		p.mu.Lock()
		fn := p.edge
		p.mu.Unlock()
		if fn != nil {
			fn(p.line)
		}
	}
}
