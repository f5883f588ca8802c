//go:build !tinygo

package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "fastclock.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fastclock.toml")
	write(t, path, `
log_level = "debug"

[buttons]
debounce = "30ms"

[buttons.lines]
START_STOP = 20
MENU = 21

[gesture]
long_press = "800ms"
repeat = "100ms"

[storage]
backend = "sqlite"
path = "state.db"

[[pulse]]
name = "a"
line = 18
pulse = "100ms"
gap = "50ms"
count = 2
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 30*time.Millisecond, cfg.Buttons.Debounce.D())
	assert.Equal(t, 20, cfg.Buttons.Lines["START_STOP"])
	assert.Equal(t, 11, cfg.Buttons.Lines["DOWN"], "unlisted buttons keep their default line")
	assert.Equal(t, 800*time.Millisecond, cfg.Timing().LongPress)
	assert.Equal(t, 20*time.Millisecond, cfg.Timing().Settle)
	assert.Equal(t, StorageSQLite, cfg.Storage.Backend)
	require.Len(t, cfg.Pulses, 1)
	assert.Equal(t, Pulse{Name: "a", Line: 18, Pulse: Duration(100 * time.Millisecond), Gap: Duration(50 * time.Millisecond), Count: 2}, cfg.Pulses[0])
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fastclock.yaml")
	write(t, path, `
queue_size: 128
gesture:
  settle: 15ms
display:
  refresh: 250ms
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 128, cfg.QueueSize)
	assert.Equal(t, 15*time.Millisecond, cfg.Timing().Settle)
	assert.Equal(t, 250*time.Millisecond, cfg.Display.Refresh.D())
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.toml")
	write(t, bad, "[gesture]\npoll = \"2s\"\n")
	_, err := Load(bad)
	assert.ErrorIs(t, err, ErrInvalid)

	broken := filepath.Join(dir, "broken.yaml")
	write(t, broken, "gesture: [")
	_, err = Load(broken)
	assert.Error(t, err)

	other := filepath.Join(dir, "fastclock.ini")
	write(t, other, "x=1")
	_, err = Load(other)
	assert.Error(t, err)
}

func TestWatcherReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fastclock.toml")
	write(t, path, "[buttons]\ndebounce = \"40ms\"\n")

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 40*time.Millisecond, w.Config().Buttons.Debounce.D())

	var mu sync.Mutex
	var seen []time.Duration
	w.OnChange(func(c *Config) {
		mu.Lock()
		seen = append(seen, c.Buttons.Debounce.D())
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	write(t, path, "[buttons]\ndebounce = \"70ms\"\n")
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0 && seen[len(seen)-1] == 70*time.Millisecond
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 70*time.Millisecond, w.Config().Buttons.Debounce.D())

	// An invalid edit keeps the previous config.
	write(t, path, "[buttons]\ndebounce = \"-1s\"\n")
	assert.ErrorIs(t, w.Reload(), ErrInvalid)
	assert.Equal(t, 70*time.Millisecond, w.Config().Buttons.Debounce.D())
}

func TestReloadRunsEveryCallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fastclock.toml")
	write(t, path, "log_level = \"info\"\n")

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)

	var calls []string
	w.OnChange(func(c *Config) { calls = append(calls, "first:"+c.LogLevel) })
	w.OnChange(func(c *Config) { calls = append(calls, "second:"+c.LogLevel) })

	write(t, path, "log_level = \"debug\"\n")
	require.NoError(t, w.Reload())
	assert.Equal(t, []string{"first:debug", "second:debug"}, calls)
}
