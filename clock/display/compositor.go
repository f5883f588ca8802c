package display

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"fastclock/clock/event"
	"fastclock/clock/logging"
	"fastclock/clock/state"
)

// DefaultRefresh is the periodic repaint interval (2 FPS).
const DefaultRefresh = 500 * time.Millisecond

// LCD is a character display. hal.CharDisplay implements it.
type LCD interface {
	WriteRow(row int, text []byte) error
}

// Subscriber registers handlers. *event.Bus implements it.
type Subscriber interface {
	Subscribe(t event.Topic, h event.Handler) error
}

// Source is everything the compositor reads. All functions must be safe to
// call from the render goroutine.
type Source struct {
	View      func() state.View
	WallNow   func() int64
	ModelNow  func() int64
	Running   func() bool
	Timescale func() uint32
	// Title and Version are shown on the splash and restart screens.
	Title   string
	Version string
}

// Compositor renders frames into an LCD, writing only the rows that changed
// since the previous frame.
type Compositor struct {
	out     LCD
	src     Source
	logger  *slog.Logger
	refresh time.Duration
	notify  chan struct{}

	mu     sync.Mutex
	front  Frame
	shown  bool
	writes int
}

// Option configures a Compositor.
type Option func(*Compositor)

// WithLogger sets the compositor logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compositor) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRefresh overrides DefaultRefresh.
func WithRefresh(d time.Duration) Option {
	return func(c *Compositor) {
		if d > 0 {
			c.refresh = d
		}
	}
}

// New creates a compositor drawing src into out.
func New(out LCD, src Source, opts ...Option) *Compositor {
	c := &Compositor{
		out:     out,
		src:     src,
		logger:  logging.Discard(),
		refresh: DefaultRefresh,
		notify:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "display")
	return c
}

// Subscribe repaints on RenderInvalidated.
func (c *Compositor) Subscribe(bus Subscriber) error {
	return bus.Subscribe(event.RenderInvalidated, func(event.Event) { c.Invalidate() })
}

// Invalidate requests a repaint. Requests made before the render goroutine
// wakes up collapse into one.
func (c *Compositor) Invalidate() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// Compose builds the frame for the current state.
func (c *Compositor) Compose() Frame {
	v := c.src.View()
	switch v.State {
	case state.StateInit:
		return splash(c.src.Title, c.src.Version, "Starting...")
	case state.StateRestart:
		return splash(c.src.Title, c.src.Version, "Restarting...")
	case state.StateMenu:
		return menuScreen(v)
	case state.StateEdit:
		return editScreen(v.Scratch)
	case state.StateDiagnostic:
		return diagnosticScreen(v.Diagnostic)
	default:
		return clockScreen(c.src.WallNow(), c.src.ModelNow(), c.src.Running(), c.src.Timescale())
	}
}

// Render composes a frame and writes the rows that differ from the last one.
func (c *Compositor) Render() error {
	next := c.Compose()

	c.mu.Lock()
	defer c.mu.Unlock()
	for r := 0; r < Rows; r++ {
		if c.shown && next[r] == c.front[r] {
			continue
		}
		if err := c.out.WriteRow(r, next[r][:]); err != nil {
			c.shown = false
			return err
		}
		c.front[r] = next[r]
		c.writes++
	}
	c.shown = true
	return nil
}

// Front returns the frame last written to the LCD.
func (c *Compositor) Front() Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.front
}

// RowWrites returns how many rows have been written so far.
func (c *Compositor) RowWrites() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

// Run repaints on every invalidation and at the refresh interval until ctx
// is done.
func (c *Compositor) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.refresh)
	defer ticker.Stop()
	c.render()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.notify:
		case <-ticker.C:
		}
		c.render()
	}
}

func (c *Compositor) render() {
	if err := c.Render(); err != nil {
		c.logger.Warn("render failed", "err", err)
	}
}
