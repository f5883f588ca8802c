// Package model keeps the two clocks of the appliance: the scaled model clock
// and the wall clock.
package model

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"fastclock/clock/event"
	"fastclock/clock/logging"
)

const (
	// DefaultTimescale is the model to real time ratio after a factory reset.
	DefaultTimescale = 2
	// MaxTimescale is the fastest supported ratio.
	MaxTimescale = 60
	// DefaultModelTime is 2025-01-01 00:00:00 UTC.
	DefaultModelTime int64 = 1735689600
)

// Publisher posts events. *event.Bus implements it.
type Publisher interface {
	Publish(e event.Event) error
}

// Subscriber registers handlers. *event.Bus implements it.
type Subscriber interface {
	Subscribe(t event.Topic, h event.Handler) error
}

// Clock is the model clock. While running it advances one model second every
// 1s/timescale of real time.
type Clock struct {
	pub    Publisher
	logger *slog.Logger
	wake   chan struct{}

	mu      sync.Mutex
	ts      int64
	scale   uint32
	running bool
}

// ClockOption configures a Clock.
type ClockOption func(*Clock)

// WithLogger sets the clock logger.
func WithLogger(l *slog.Logger) ClockOption {
	return func(c *Clock) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithStart sets the initial model time and timescale.
func WithStart(ts int64, scale uint32) ClockOption {
	return func(c *Clock) {
		c.ts = ts
		if validScale(scale) {
			c.scale = scale
		}
	}
}

// NewClock creates a paused model clock.
func NewClock(pub Publisher, opts ...ClockOption) *Clock {
	c := &Clock{
		pub:    pub,
		logger: logging.Discard(),
		wake:   make(chan struct{}, 1),
		ts:     DefaultModelTime,
		scale:  DefaultTimescale,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "model")
	return c
}

// Subscribe registers the clock for its control topics.
func (c *Clock) Subscribe(bus Subscriber) error {
	handlers := map[event.Topic]event.Handler{
		event.TimerResume:  func(event.Event) { c.Resume() },
		event.TimerPause:   func(event.Event) { c.Pause() },
		event.TimerScale:   func(e event.Event) { c.SetTimescale(e.Value) },
		event.SetModelTime: func(e event.Event) { c.Set(e.Value) },
	}
	for _, t := range []event.Topic{event.TimerResume, event.TimerPause, event.TimerScale, event.SetModelTime} {
		if err := bus.Subscribe(t, handlers[t]); err != nil {
			return err
		}
	}
	return nil
}

func validScale(s uint32) bool { return s >= 1 && s <= MaxTimescale }

// Now returns the model time in unix seconds.
func (c *Clock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ts
}

func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Clock) Timescale() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scale
}

// Period returns the real time between two model seconds.
func (c *Clock) Period() time.Duration {
	return time.Second / time.Duration(c.Timescale())
}

// Resume starts the clock. TimerStateChanged is published only when the
// clock was paused.
func (c *Clock) Resume() { c.setRunning(true) }

// Pause stops the clock. TimerStateChanged is published only when the clock
// was running.
func (c *Clock) Pause() { c.setRunning(false) }

func (c *Clock) setRunning(run bool) {
	c.mu.Lock()
	changed := c.running != run
	c.running = run
	scale := c.scale
	c.mu.Unlock()

	if !changed {
		return
	}
	if run {
		c.logger.Info("resumed", "scale", scale)
	} else {
		c.logger.Info("paused")
	}
	c.poke()
	if err := c.pub.Publish(event.Notify(event.TimerStateChanged)); err != nil {
		c.logger.Warn("state change not announced", "err", err)
	}
}

// SetTimescale changes the ratio. Values outside [1, MaxTimescale] are
// ignored.
func (c *Clock) SetTimescale(v int64) {
	if v < 1 || v > MaxTimescale {
		c.logger.Warn("timescale out of range", "scale", v)
		return
	}
	c.mu.Lock()
	c.scale = uint32(v)
	c.mu.Unlock()
	c.logger.Info("timescale set", "scale", v)
	c.poke()
	c.invalidate()
}

// Set jumps to ts.
func (c *Clock) Set(ts int64) {
	c.mu.Lock()
	c.ts = ts
	c.mu.Unlock()
	c.invalidate()
}

// Step advances one model second if the clock is running and publishes the
// tick events. It returns the new model time.
func (c *Clock) Step() int64 {
	c.mu.Lock()
	if !c.running {
		ts := c.ts
		c.mu.Unlock()
		return ts
	}
	c.ts++
	ts := c.ts
	c.mu.Unlock()

	if err := c.pub.Publish(event.Value(event.ModelTick, ts)); err != nil {
		c.logger.Debug("tick dropped", "err", err)
	}
	if ts%60 == 0 {
		if err := c.pub.Publish(event.Value(event.ModelMinuteTick, ts)); err != nil {
			c.logger.Warn("minute tick dropped", "ts", ts, "err", err)
		}
	}
	return ts
}

// Run steps the clock until ctx is done. A resume or timescale change
// restarts the current period.
func (c *Clock) Run(ctx context.Context) error {
	timer := time.NewTimer(c.Period())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.wake:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		case <-timer.C:
			c.Step()
		}
		timer.Reset(c.Period())
	}
}

func (c *Clock) poke() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Clock) invalidate() {
	_ = c.pub.Publish(event.Notify(event.RenderInvalidated))
}
