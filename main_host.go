//go:build !tinygo

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"fastclock/app"
	"fastclock/clock/config"
	"fastclock/hal"
)

func main() {
	var cfg hal.HeadlessConfig
	var configPath, gpio, store, db string
	flag.BoolVar(&cfg.Enabled, "headless", false, "Run without a window.")
	flag.IntVar(&cfg.Hz, "hz", 60, "Tick rate in headless mode.")
	flag.Uint64Var(&cfg.Ticks, "ticks", 0, "Stop after N ticks in headless mode (0 = run forever).")
	flag.BoolVar(&cfg.Console, "console", true, "Read button presses from stdin in headless mode.")
	flag.StringVar(&configPath, "config", "", "TOML or YAML settings file, reloaded on change.")
	flag.StringVar(&gpio, "gpio", "virtual", "Button lines: virtual or periph.")
	flag.StringVar(&store, "store", "", "Storage backend: flash or sqlite (default from config).")
	flag.StringVar(&db, "db", "", "SQLite database path for -store sqlite.")
	flag.StringVar(&cfg.Host.FlashPath, "flash", "", "Flash image path.")
	flag.Parse()

	switch gpio {
	case "virtual":
	case "periph":
		cfg.Host.Periph = true
	default:
		fmt.Fprintf(os.Stderr, "unknown -gpio %q\n", gpio)
		os.Exit(2)
	}

	opts, err := appOptions(configPath, store, db)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	newApp := func(h hal.HAL) func() error { return app.New(h, opts) }

	if cfg.Enabled {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := hal.RunHeadless(ctx, newApp, cfg); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := hal.RunWindow(cfg.Host, newApp); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// appOptions applies the storage flags on top of the settings file. Flags
// only take effect without a watched file, since a reload would drop them.
func appOptions(configPath, store, db string) (app.Options, error) {
	if store == "" && db == "" {
		return app.Options{ConfigPath: configPath}, nil
	}
	cfg := config.Default()
	if configPath != "" {
		c, err := config.Load(configPath)
		if err != nil {
			return app.Options{}, err
		}
		cfg = c
	}
	if store != "" {
		cfg.Storage.Backend = store
	}
	if db != "" {
		cfg.Storage.Path = db
	}
	return app.Options{Config: cfg}, nil
}
