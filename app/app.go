// Package app wires the clock firmware onto a HAL and runs it.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"fastclock/clock/button"
	"fastclock/clock/config"
	"fastclock/clock/display"
	"fastclock/clock/editor"
	"fastclock/clock/event"
	"fastclock/clock/input"
	"fastclock/clock/logging"
	"fastclock/clock/model"
	"fastclock/clock/state"
	"fastclock/clock/status"
	"fastclock/clock/storage"
	"fastclock/hal"
	"fastclock/internal/buildinfo"
	"fastclock/kernel"

	"golang.org/x/sync/errgroup"
)

// RestartDelay keeps the restart screen visible before the device resets.
const RestartDelay = time.Second

// Options adjusts how the firmware is built. The zero value uses the stock
// configuration and the HAL's flash.
type Options struct {
	// Config replaces config.Default. Ignored when ConfigPath is set.
	Config *config.Config
	// ConfigPath is a TOML or YAML file that is loaded and watched for
	// changes. Host only.
	ConfigPath string
	// Store replaces the backend selected by the configuration.
	Store storage.Store
	// Now is the wall clock source; time.Now when nil.
	Now func() time.Time
}

// System is the wired firmware.
type System struct {
	h       hal.HAL
	cfg     *config.Config
	level   *slog.LevelVar
	logger  *slog.Logger
	store   storage.Store
	runners []func(context.Context) error

	tb       *kernel.Timebase
	bus      *event.Bus
	buttons  *button.Map
	queue    *input.Queue
	debounce *input.Debouncer
	gesture  *input.Task
	model    *model.Clock
	wall     *model.Wall
	machine  *state.Machine
	comp     *display.Compositor
	leds     *status.LEDs
	pulser   *status.Pulser
	persist  *storage.Persister

	restart chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
}

// Build wires every component onto h without starting anything.
func Build(h hal.HAL, opts Options) (*System, error) {
	s := &System{
		h:       h,
		level:   new(slog.LevelVar),
		restart: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	s.logger = logging.New(h.Logger(), s.level)

	cfg := opts.Config
	if opts.ConfigPath != "" {
		c, run, err := watchConfig(opts.ConfigPath, s.logger, s.reconfigure)
		if err != nil {
			return nil, err
		}
		cfg = c
		s.runners = append(s.runners, run)
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s.cfg = cfg
	if lvl, err := logging.ParseLevel(cfg.LogLevel); err == nil {
		s.level.Set(lvl)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	s.store = opts.Store
	if s.store == nil {
		st, err := openStore(h, cfg.Storage)
		if err != nil {
			return nil, err
		}
		s.store = st
	}

	if err := s.wire(now); err != nil {
		s.closeStore()
		return nil, err
	}
	return s, nil
}

func (s *System) wire(now func() time.Time) error {
	cfg := s.cfg
	log := s.logger

	s.tb = kernel.NewTimebase()
	s.bus = event.New(event.WithQueueSize(cfg.QueueSize), event.WithLogger(log))

	bm, err := cfg.ButtonMap()
	if err != nil {
		return err
	}
	s.buttons = bm
	s.queue = new(input.Queue)
	s.debounce = input.NewDebouncer(bm, s.tb, s.queue, cfg.Buttons.Debounce.D())
	levels, err := s.attachButtons()
	if err != nil {
		return err
	}
	s.gesture = input.NewTask(s.queue, levels, s.bus, s.tb,
		input.WithTiming(cfg.Timing()),
		input.WithLogger(log),
	)

	s.model = model.NewClock(s.bus, model.WithLogger(log))
	s.wall = model.NewWall(now)

	s.machine = state.New(s.menu(), s.bus,
		state.WithLogger(log),
		state.WithRunning(s.model.Running),
		state.WithPageRows(s.h.Display().Rows()),
	)

	s.persist = storage.NewPersister(s.store, s.snapshot, s.bus,
		storage.WithSaveEvery(cfg.Storage.SaveEvery),
		storage.WithLogger(log),
	)

	s.comp = display.New(s.h.Display(), display.Source{
		View:      s.machine.View,
		WallNow:   s.wall.Now,
		ModelNow:  s.model.Now,
		Running:   s.model.Running,
		Timescale: s.model.Timescale,
		Title:     buildinfo.Title,
		Version:   buildinfo.Short(),
	}, display.WithLogger(log), display.WithRefresh(cfg.Display.Refresh.D()))

	gpio := s.h.GPIO()
	green := s.outputLED(gpio, hal.LineGreenLED)
	red := s.outputLED(gpio, hal.LineRedLED)
	s.leds = status.NewLEDs(green, red, s.h.Pixel(), s.model.Running, log)

	channels := make([]status.Channel, 0, len(cfg.Pulses))
	for _, p := range cfg.Pulses {
		pin := s.outputLED(gpio, p.Line)
		if pin == nil {
			continue
		}
		channels = append(channels, status.Channel{
			Name:  p.Name,
			Pin:   pin,
			Pulse: p.Pulse.D(),
			Gap:   p.Gap.D(),
			Count: p.Count,
		})
	}
	s.pulser = status.NewPulser(channels, s.tb, log)

	// Handlers run in subscription order: the clocks take an edit before
	// the persister saves it.
	for _, sub := range []func() error{
		func() error { return s.wall.Subscribe(s.bus) },
		func() error { return s.model.Subscribe(s.bus) },
		func() error { return s.machine.Subscribe(s.bus) },
		func() error { return s.persist.Subscribe(s.bus) },
		func() error { return s.comp.Subscribe(s.bus) },
		func() error { return s.leds.Subscribe(s.bus) },
		func() error { return s.pulser.Subscribe(s.bus) },
		func() error { return s.bus.Subscribe(event.RestartRequested, s.onRestart) },
	} {
		if err := sub(); err != nil {
			return fmt.Errorf("subscribe: %w", err)
		}
	}
	return nil
}

// attachButtons configures the button lines as pulled-up inputs whose
// falling edges feed the debouncer.
func (s *System) attachButtons() (input.LevelReader, error) {
	gpio := s.h.GPIO()
	kp, _ := s.h.(hal.Keypad)
	var levels pinLevels
	for _, id := range button.All() {
		line := int(s.buttons.Line(id))
		pin := gpio.Pin(line)
		if pin == nil {
			return nil, fmt.Errorf("button %s: line %d: %w", id, line, hal.ErrNotImplemented)
		}
		if err := pin.Configure(hal.GPIOModeInput, hal.GPIOPullUp); err != nil {
			return nil, fmt.Errorf("button %s: %w", id, err)
		}
		if err := pin.SetFallingEdge(s.debounce.OnEdge); err != nil {
			return nil, fmt.Errorf("button %s: %w", id, err)
		}
		levels[id] = pin
		if kp != nil {
			kp.BindKey(keyFor(id), line)
		}
	}
	return &levels, nil
}

func keyFor(id button.ID) hal.KeyCode {
	switch id {
	case button.Up:
		return hal.KeyUp
	case button.Down:
		return hal.KeyDown
	case button.Left:
		return hal.KeyLeft
	case button.Right:
		return hal.KeyRight
	case button.OK:
		return hal.KeyEnter
	case button.Cancel:
		return hal.KeyEscape
	case button.Menu:
		return hal.KeyTab
	case button.StartStop:
		return hal.KeySpace
	}
	return hal.KeyUnknown
}

// pinLevels reads button levels. Buttons pull their line low when pressed.
type pinLevels [button.Count]hal.GPIOPin

func (p *pinLevels) Pressed(id button.ID) bool {
	if !id.Valid() || p[id] == nil {
		return false
	}
	level, err := p[id].Read()
	return err == nil && !level
}

// outputLED returns nil for lines the board does not have.
func (s *System) outputLED(gpio hal.GPIO, line int) status.Pin {
	led, err := hal.OutputLED(gpio.Pin(line))
	if err != nil {
		s.logger.Warn("output unavailable", "line", line, "err", err)
		return nil
	}
	return led
}

func (s *System) menu() []state.Entry {
	return []state.Entry{
		{Label: "Set Real Time", Action: state.ActionEdit, Editor: editor.NewRealTime(s.wall.Now, s.bus)},
		{Label: "Set Model Time", Action: state.ActionEdit, Editor: editor.NewModelTime(s.model.Now, s.bus)},
		{Label: "Set Time Scale", Action: state.ActionEdit, Editor: editor.NewTimescale(s.model.Timescale, model.MaxTimescale, s.bus)},
		{
			Label:   "Reset Model Time",
			Action:  state.ActionFunc,
			Func:    s.resetModelTime,
			Visible: func() bool { return !s.model.Running() },
		},
		{Label: "Test LCD", Action: state.ActionFunc, Func: func(c state.Control) { c.EnterDiagnostic() }},
		{Label: "Restart", Action: state.ActionFunc, Func: func(c state.Control) { c.Restart() }},
	}
}

func (s *System) resetModelTime(c state.Control) {
	if err := c.Publish(event.Value(event.SetModelTime, model.DefaultModelTime)); err != nil {
		s.logger.Warn("model time reset lost", "err", err)
	}
}

func (s *System) snapshot() storage.Record {
	return storage.Record{
		ModelTS:   s.model.Now(),
		RealTS:    s.wall.Now(),
		Timescale: s.model.Timescale(),
	}
}

// onRestart runs after the persister saved; the reset itself happens on the
// restart runner so the bus keeps delivering meanwhile.
func (s *System) onRestart(event.Event) {
	select {
	case s.restart <- struct{}{}:
	default:
	}
}

// reconfigure applies a reloaded configuration. Only settings that can
// change at runtime are taken over; the rest waits for a restart.
func (s *System) reconfigure(c *config.Config) {
	if s.gesture == nil {
		return
	}
	if err := s.gesture.SetTiming(c.Timing()); err != nil {
		s.logger.Warn("gesture timing rejected", "err", err)
	}
	s.debounce.SetWindow(c.Buttons.Debounce.D())
	if lvl, err := logging.ParseLevel(c.LogLevel); err == nil {
		s.level.Set(lvl)
	}
	s.logger.Info("config applied", "debounce", c.Buttons.Debounce.String(), "level", c.LogLevel)
}

// Start restores the saved settings, shows the splash screen and starts
// every task. It returns at once; use Wait or Step to learn when the system
// stops.
func (s *System) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)

	if _, err := s.persist.Restore(); err != nil && !errors.Is(err, storage.ErrNoRecord) {
		s.logger.Warn("restore", "err", err)
	}
	s.leds.Sync()
	s.comp.Invalidate()

	run := func(name string, fn func(context.Context) error) {
		g.Go(s.guard(name, func() error { return fn(ctx) }))
	}
	run("ticks", s.feedTicks)
	run("bus", s.bus.Run)
	run("gesture", s.gesture.Run)
	run("model", s.model.Run)
	run("display", s.comp.Run)
	run("boot", s.boot)
	run("restart", s.waitRestart)
	for i, r := range s.runners {
		run(fmt.Sprintf("runner%d", i), r)
	}
	s.logger.Info("started", "version", buildinfo.Short(), "buttons", button.Count)

	go func() {
		err := g.Wait()
		s.pulser.Wait()
		s.closeStore()
		s.err = err
		close(s.done)
	}()
}

func (s *System) feedTicks(ctx context.Context) error {
	t := s.h.Time()
	var ticks <-chan uint64
	if t != nil {
		ticks = t.Ticks()
	}
	if ticks == nil {
		return s.tb.Run(ctx)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case seq := <-ticks:
			s.tb.TickTo(seq)
		}
	}
}

// boot leaves the splash screen after the configured delay.
func (s *System) boot(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	case <-time.After(s.cfg.Display.SplashDelay.D()):
	}
	return s.bus.Publish(event.Notify(event.ExitInit))
}

func (s *System) waitRestart(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	case <-s.restart:
	}
	s.logger.Info("restarting")
	select {
	case <-ctx.Done():
		return nil
	case <-time.After(RestartDelay):
	}
	s.comp.Invalidate()
	if err := s.comp.Render(); err != nil {
		s.logger.Warn("render before restart", "err", err)
	}
	return s.h.Restart()
}

func (s *System) closeStore() {
	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			s.logger.Warn("close store", "err", err)
		}
	}
}

// Stop cancels every task. Wait reports when they are gone.
func (s *System) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Wait blocks until the system stops and returns the reason; nil after Stop.
func (s *System) Wait() error {
	<-s.done
	return s.err
}

// Step reports the stop reason without blocking: nil while running.
func (s *System) Step() error {
	select {
	case <-s.done:
		if s.err == nil {
			return context.Canceled
		}
		return s.err
	default:
		return nil
	}
}

// New builds and starts the firmware and returns its step function for the
// host runners. A build error is returned by every step.
func New(h hal.HAL, opts Options) func() error {
	s, err := Build(h, opts)
	if err != nil {
		h.Logger().WriteLineString("app: " + err.Error())
		return func() error { return err }
	}
	s.Start(context.Background())
	return s.Step
}

// Run starts the firmware and blocks forever (TinyGo/native entrypoint).
func Run(h hal.HAL) {
	for {
		s, err := Build(h, Options{})
		if err != nil {
			h.Logger().WriteLineString("app: " + err.Error())
			select {}
		}
		s.Start(context.Background())
		err = s.Wait()
		var pe *PanicError
		if errors.As(err, &pe) {
			// Leave the panic on the screen.
			select {}
		}
		if err != nil && !errors.Is(err, hal.ErrRestart) {
			h.Logger().WriteLineString("app: " + err.Error())
		}
	}
}
