// Package state is the application state machine. It consumes button, timer
// and lifecycle events from the bus, owns the menu selection and the active
// editor, and exposes read-only accessors for the display and persistence.
package state

import (
	"log/slog"
	"sync"

	"fastclock/clock/button"
	"fastclock/clock/editor"
	"fastclock/clock/event"
	"fastclock/clock/logging"
)

// State is the top-level UI state.
type State uint8

const (
	StateInit State = iota
	StateClock
	StateMenu
	StateEdit
	StateDiagnostic
	StateRestart
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateClock:
		return "CLOCK"
	case StateMenu:
		return "MENU"
	case StateEdit:
		return "EDIT"
	case StateDiagnostic:
		return "DIAGNOSTIC"
	case StateRestart:
		return "RESTART"
	default:
		return "UNKNOWN"
	}
}

// DiagnosticPages is the number of preview offsets the display self-test
// cycles through.
const DiagnosticPages = 16

// Publisher posts events. *event.Bus implements it.
type Publisher interface {
	Publish(e event.Event) error
}

// Subscriber registers handlers. *event.Bus implements it.
type Subscriber interface {
	Subscribe(t event.Topic, h event.Handler) error
}

// Machine owns the application context. All mutation happens in HandleEvent
// on the bus delivery goroutine; accessors may be called from anywhere.
type Machine struct {
	pub      Publisher
	running  func() bool
	logger   *slog.Logger
	pageRows int

	mu       sync.RWMutex
	menu     []Entry
	state    State
	selected int
	scroll   int
	active   editor.Editor
	scratch  editor.Scratch
	diag     int
}

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the machine logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithRunning supplies the model clock's running flag, used by START_STOP to
// choose between pause and resume.
func WithRunning(f func() bool) Option {
	return func(m *Machine) { m.running = f }
}

// WithPageRows overrides PageRows.
func WithPageRows(n int) Option {
	return func(m *Machine) {
		if n > 0 {
			m.pageRows = n
		}
	}
}

// New creates a machine in StateInit. The menu table is copied and never
// changes afterwards.
func New(menu []Entry, pub Publisher, opts ...Option) *Machine {
	m := &Machine{
		pub:      pub,
		running:  func() bool { return false },
		logger:   logging.Discard(),
		pageRows: PageRows,
		menu:     append([]Entry(nil), menu...),
		state:    StateInit,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "state")
	return m
}

// Subscribe registers the machine for every topic it consumes.
func (m *Machine) Subscribe(bus Subscriber) error {
	for _, t := range []event.Topic{
		event.ButtonPress,
		event.ButtonLongPress,
		event.ButtonRepeat,
		event.ButtonRelease,
		event.ExitInit,
		event.RestartRequested,
		event.ModelTick,
		event.TimerStateChanged,
	} {
		if err := bus.Subscribe(t, m.HandleEvent); err != nil {
			return err
		}
	}
	return nil
}

// HandleEvent advances the machine by one event.
func (m *Machine) HandleEvent(e event.Event) {
	m.mu.Lock()
	fn := m.handle(e)
	m.mu.Unlock()

	if fn != nil {
		fn(m)
	}
}

func (m *Machine) handle(e event.Event) func(Control) {
	switch e.Topic {
	case event.ExitInit:
		if m.state == StateInit {
			m.enter(StateClock)
		}
	case event.RestartRequested:
		if m.state != StateRestart {
			m.deactivate(false)
			m.enter(StateRestart)
		}
	case event.ModelTick:
		if m.state == StateClock {
			m.invalidate()
		}
	case event.TimerStateChanged:
		if m.state == StateMenu {
			m.ensureVisible()
			m.clampScroll()
		}
		m.invalidate()
	default:
		if e.Topic.IsButton() {
			return m.handleButton(e.Topic, e.Button)
		}
	}
	return nil
}

func (m *Machine) handleButton(topic event.Topic, id button.ID) func(Control) {
	if m.state == StateInit || m.state == StateRestart {
		return nil
	}
	if !id.Valid() {
		m.logger.Debug("ignoring event for unmapped button", "topic", topic.String())
		return nil
	}
	press := topic == event.ButtonPress
	step := press || topic == event.ButtonRepeat

	if id == button.StartStop {
		if press {
			m.toggleTimer()
		}
		return nil
	}

	switch m.state {
	case StateClock:
		if press && id == button.Menu {
			m.enterMenu(true)
		}

	case StateMenu:
		switch {
		case press && (id == button.Menu || id == button.Cancel):
			m.scratch = editor.Scratch{}
			m.enter(StateClock)
		case step && id == button.Up:
			m.moveUp()
			m.invalidate()
		case step && id == button.Down:
			m.moveDown()
			m.invalidate()
		case press && id == button.OK:
			return m.selectEntry()
		}

	case StateEdit:
		switch {
		case press && id == button.OK:
			m.deactivate(true)
			m.enterMenu(false)
		case press && id == button.Cancel:
			m.deactivate(false)
			m.enterMenu(false)
		case press && id == button.Menu:
			m.deactivate(false)
			m.enter(StateClock)
		default:
			if m.active == nil {
				m.logger.Debug("no active editor", "topic", topic.String())
				return nil
			}
			if m.active.HandleEvent(&m.scratch, topic, id) {
				m.invalidate()
			}
		}

	case StateDiagnostic:
		switch {
		case press && id == button.Cancel:
			m.enterMenu(false)
		case step && id == button.Up:
			m.diag = (m.diag + 1) % DiagnosticPages
			m.invalidate()
		case step && id == button.Down:
			m.diag = (m.diag + DiagnosticPages - 1) % DiagnosticPages
			m.invalidate()
		}
	}
	return nil
}

func (m *Machine) toggleTimer() {
	topic := event.TimerResume
	if m.running() {
		topic = event.TimerPause
	}
	if err := m.pub.Publish(event.Notify(topic)); err != nil {
		m.logger.Warn("start/stop lost", "topic", topic.String(), "err", err)
	}
}

// deactivate ends the active edit session, committing it when apply is set.
func (m *Machine) deactivate(apply bool) {
	if m.active == nil {
		return
	}
	if apply {
		if err := m.active.Apply(&m.scratch); err != nil {
			m.logger.Error("apply failed", "mode", m.active.Mode().String(), "err", err)
		}
	} else {
		m.active.Cancel(&m.scratch)
	}
	m.active = nil
	m.scratch.Mode = editor.ModeNone
}

func (m *Machine) enterMenu(reset bool) {
	if reset {
		m.selected = 0
		m.scroll = 0
	}
	m.ensureVisible()
	m.clampScroll()
	m.enter(StateMenu)
}

func (m *Machine) enter(s State) {
	if m.state != s {
		m.logger.Debug("transition", "from", m.state.String(), "to", s.String())
	}
	m.state = s
	m.invalidate()
}

func (m *Machine) invalidate() {
	if err := m.pub.Publish(event.Notify(event.RenderInvalidated)); err != nil {
		m.logger.Debug("invalidate dropped", "err", err)
	}
}

// EnterDiagnostic switches from MENU to the display self-test.
func (m *Machine) EnterDiagnostic() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateMenu {
		return
	}
	m.diag = 0
	m.enter(StateDiagnostic)
}

// Restart asks every component to wind down; the machine itself moves to
// RESTART when the event is delivered.
func (m *Machine) Restart() {
	if err := m.pub.Publish(event.Notify(event.RestartRequested)); err != nil {
		m.logger.Error("restart request lost", "err", err)
	}
}

// Publish forwards e to the bus.
func (m *Machine) Publish(e event.Event) error { return m.pub.Publish(e) }
