//go:build !tinygo

package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"fastclock/clock/logging"
)

// Load reads path over Default and validates the result. A missing file
// yields Default. The format follows the extension: .toml, .yaml or .yml.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("config %s: unsupported format", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UnmarshalYAML accepts durations written as plain scalars.
func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	return d.UnmarshalText([]byte(n.Value))
}

// MarshalYAML writes durations in their text form.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// WatchDelay is how long the watcher waits for writes to settle.
const WatchDelay = 100 * time.Millisecond

// Watcher reloads a config file when it changes. Invalid edits are logged
// and leave the current config in place.
type Watcher struct {
	path   string
	fs     *fsnotify.Watcher
	logger *slog.Logger

	mu       sync.RWMutex
	cfg      *Config
	onChange []func(*Config)
}

// NewWatcher loads path and starts watching its directory.
func NewWatcher(path string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fs.Add(filepath.Dir(path)); err != nil {
		fs.Close()
		return nil, fmt.Errorf("watch directory: %w", err)
	}
	return &Watcher{
		path:   path,
		fs:     fs,
		logger: logger.With("component", "config"),
		cfg:    cfg,
	}, nil
}

// Config returns the current configuration.
func (w *Watcher) Config() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cfg
}

// OnChange registers cb for every successful reload. Register before Run.
func (w *Watcher) OnChange(cb func(*Config)) {
	w.mu.Lock()
	w.onChange = append(w.onChange, cb)
	w.mu.Unlock()
}

// Reload re-reads the file now.
func (w *Watcher) Reload() error {
	cfg, err := Load(w.path)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.cfg = cfg
	cbs := slices.Clone(w.onChange)
	w.mu.Unlock()

	for _, cb := range cbs {
		cb(cfg)
	}
	return nil
}

// Run processes file events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != filepath.Base(w.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(WatchDelay, func() {
				if err := w.Reload(); err != nil {
					w.logger.Warn("reload rejected", "path", w.path, "err", err)
					return
				}
				w.logger.Info("reloaded", "path", w.path)
			})

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "err", err)
		}
	}
}
