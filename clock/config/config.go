// Package config holds the tunable settings of the clock. The host build
// reads them from a TOML or YAML file and can watch it for changes; the
// device build uses Default.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"fastclock/clock/button"
	"fastclock/clock/input"
	"fastclock/clock/logging"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid config")

// Duration is a time.Duration written as text ("50ms", "1.5s").
type Duration time.Duration

func (d Duration) D() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Storage backends.
const (
	StorageFlash  = "flash"
	StorageSQLite = "sqlite"
)

type Buttons struct {
	Debounce Duration `toml:"debounce" yaml:"debounce"`
	// Lines maps button names (see button.ParseID) to GPIO lines.
	Lines map[string]int `toml:"lines" yaml:"lines"`
}

type Gesture struct {
	Settle    Duration `toml:"settle" yaml:"settle"`
	Poll      Duration `toml:"poll" yaml:"poll"`
	LongPress Duration `toml:"long_press" yaml:"long_press"`
	Repeat    Duration `toml:"repeat" yaml:"repeat"`
}

type Display struct {
	Refresh     Duration `toml:"refresh" yaml:"refresh"`
	SplashDelay Duration `toml:"splash_delay" yaml:"splash_delay"`
}

type Storage struct {
	Backend   string `toml:"backend" yaml:"backend"`
	Path      string `toml:"path" yaml:"path"`
	SaveEvery int    `toml:"save_every" yaml:"save_every"`
}

// Pulse is one slave clock output channel.
type Pulse struct {
	Name  string   `toml:"name" yaml:"name"`
	Line  int      `toml:"line" yaml:"line"`
	Pulse Duration `toml:"pulse" yaml:"pulse"`
	Gap   Duration `toml:"gap" yaml:"gap"`
	Count int      `toml:"count" yaml:"count"`
}

// Config is the complete settings tree.
type Config struct {
	LogLevel  string  `toml:"log_level" yaml:"log_level"`
	QueueSize int     `toml:"queue_size" yaml:"queue_size"`
	Buttons   Buttons `toml:"buttons" yaml:"buttons"`
	Gesture   Gesture `toml:"gesture" yaml:"gesture"`
	Display   Display `toml:"display" yaml:"display"`
	Storage   Storage `toml:"storage" yaml:"storage"`
	Pulses    []Pulse `toml:"pulse" yaml:"pulses"`
}

// DefaultFirstLine is the GPIO of START_STOP on the reference board; the
// other buttons follow in enumeration order.
const DefaultFirstLine = 6

// Default returns the stock configuration.
func Default() *Config {
	t := input.DefaultTiming()
	lines := make(map[string]int, button.Count)
	for id, line := range button.Sequential(DefaultFirstLine) {
		lines[id.String()] = int(line)
	}
	return &Config{
		LogLevel:  "info",
		QueueSize: 64,
		Buttons: Buttons{
			Debounce: Duration(input.DefaultDebounceWindow),
			Lines:    lines,
		},
		Gesture: Gesture{
			Settle:    Duration(t.Settle),
			Poll:      Duration(t.Poll),
			LongPress: Duration(t.LongPress),
			Repeat:    Duration(t.Repeat),
		},
		Display: Display{
			Refresh:     Duration(500 * time.Millisecond),
			SplashDelay: Duration(2 * time.Second),
		},
		Storage: Storage{
			Backend:   StorageFlash,
			SaveEvery: 10,
		},
		Pulses: []Pulse{
			{Name: "minute", Line: 17, Pulse: Duration(200 * time.Millisecond), Gap: Duration(200 * time.Millisecond), Count: 1},
		},
	}
}

// Timing returns the gesture intervals.
func (c *Config) Timing() input.Timing {
	return input.Timing{
		Settle:    c.Gesture.Settle.D(),
		Poll:      c.Gesture.Poll.D(),
		LongPress: c.Gesture.LongPress.D(),
		Repeat:    c.Gesture.Repeat.D(),
	}
}

// ButtonMap resolves the configured lines.
func (c *Config) ButtonMap() (*button.Map, error) {
	m := make(map[button.ID]button.Line, len(c.Buttons.Lines))
	names := make([]string, 0, len(c.Buttons.Lines))
	for name := range c.Buttons.Lines {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		id, err := button.ParseID(name)
		if err != nil {
			return nil, err
		}
		line := c.Buttons.Lines[name]
		if line < 0 || line >= button.MaxLines {
			return nil, fmt.Errorf("button %s line %d: %w", id, line, button.ErrLineRange)
		}
		if _, dup := m[id]; dup {
			return nil, fmt.Errorf("button %s configured twice", id)
		}
		m[id] = button.Line(line)
	}
	return button.NewMap(m)
}

// Validate reports every problem found, wrapped in ErrInvalid.
func (c *Config) Validate() error {
	var errs []error
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.QueueSize < 1 {
		errs = append(errs, fmt.Errorf("queue_size %d must be positive", c.QueueSize))
	}
	if c.Buttons.Debounce <= 0 {
		errs = append(errs, fmt.Errorf("buttons.debounce %v must be positive", c.Buttons.Debounce))
	}
	if _, err := c.ButtonMap(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Timing().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Display.Refresh <= 0 {
		errs = append(errs, fmt.Errorf("display.refresh %v must be positive", c.Display.Refresh))
	}
	if c.Display.SplashDelay < 0 {
		errs = append(errs, fmt.Errorf("display.splash_delay %v is negative", c.Display.SplashDelay))
	}
	switch c.Storage.Backend {
	case StorageFlash, StorageSQLite:
	default:
		errs = append(errs, fmt.Errorf("storage.backend %q is not %q or %q", c.Storage.Backend, StorageFlash, StorageSQLite))
	}
	if c.Storage.SaveEvery < 1 {
		errs = append(errs, fmt.Errorf("storage.save_every %d must be positive", c.Storage.SaveEvery))
	}
	for i, p := range c.Pulses {
		if p.Count < 1 || p.Pulse <= 0 || p.Gap < 0 || p.Line < 0 {
			errs = append(errs, fmt.Errorf("pulse[%d] %q: needs a line, a positive count and pulse", i, p.Name))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}
