//go:build tinygo

package app

import (
	"context"
	"errors"
	"log/slog"

	"fastclock/clock/config"
)

func watchConfig(string, *slog.Logger, func(*config.Config)) (*config.Config, func(context.Context) error, error) {
	return nil, nil, errors.New("config files are not supported on this target")
}
