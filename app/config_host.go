//go:build !tinygo

package app

import (
	"context"
	"log/slog"

	"fastclock/clock/config"
)

// watchConfig loads path and returns a runner that applies later edits
// through apply.
func watchConfig(path string, logger *slog.Logger, apply func(*config.Config)) (*config.Config, func(context.Context) error, error) {
	w, err := config.NewWatcher(path, logger)
	if err != nil {
		return nil, nil, err
	}
	w.OnChange(apply)
	return w.Config(), w.Run, nil
}
