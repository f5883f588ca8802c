//go:build !tinygo

package hal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Enabled bool
	Hz      int
	Ticks   uint64
	Host    HostConfig
	// Console reads key presses from stdin, one per line.
	Console bool
}

// RunHeadless runs the firmware without opening a window. LCD rows are
// echoed to the log as they change.
func RunHeadless(ctx context.Context, newApp func(HAL) func() error, cfg HeadlessConfig) error {
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}

	h, err := newHostHAL(cfg.Host)
	if err != nil {
		return err
	}
	h.lcd.echo = h.logger
	step := newApp(h)

	if cfg.Console {
		go h.runConsole(ctx, os.Stdin)
	}

	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}
	t := time.NewTicker(d)
	defer t.Stop()

	var tick uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			h.t.step(1)
			if step != nil {
				err := step()
				if errors.Is(err, ErrRestart) {
					h.logger.WriteLineString("host: restarting")
					step = newApp(h)
				} else if err != nil {
					return err
				}
			}
			tick++
			if cfg.Ticks > 0 && tick >= cfg.Ticks {
				return nil
			}
		}
	}
}
