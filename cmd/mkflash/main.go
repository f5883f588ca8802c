//go:build !tinygo

// Command mkflash writes the clock settings into a flash image for the host
// simulator, or prints the settings stored in an existing image.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"fastclock/clock/model"
	"fastclock/clock/storage"
	"fastclock/hal"
)

const defaultFlashPath = "fastclock.flash"

func main() {
	var outPath, modelTime, realTime string
	var scale uint
	var dump, fresh bool
	flag.StringVar(&outPath, "out", defaultFlashPath, "Flash image path.")
	flag.StringVar(&modelTime, "model", "", "Model time: unix seconds or RFC 3339 (default 2025-01-01T00:00:00Z).")
	flag.StringVar(&realTime, "real", "", "Wall time: unix seconds or RFC 3339 (default now).")
	flag.UintVar(&scale, "scale", model.DefaultTimescale, "Timescale, 1 to 60.")
	flag.BoolVar(&dump, "dump", false, "Print the stored record instead of writing one.")
	flag.BoolVar(&fresh, "fresh", false, "Start from a blank image.")
	flag.Parse()

	if outPath == "" {
		fmt.Fprintln(os.Stderr, "error: -out is required")
		os.Exit(2)
	}

	var err error
	if dump {
		err = runDump(os.Stdout, outPath)
	} else {
		err = runWrite(outPath, modelTime, realTime, scale, fresh, time.Now())
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runWrite(path, modelTime, realTime string, scale uint, fresh bool, now time.Time) error {
	rec := storage.Defaults()
	rec.RealTS = now.Unix()
	if modelTime != "" {
		ts, err := parseTime(modelTime)
		if err != nil {
			return fmt.Errorf("-model: %w", err)
		}
		rec.ModelTS = ts
	}
	if realTime != "" {
		ts, err := parseTime(realTime)
		if err != nil {
			return fmt.Errorf("-real: %w", err)
		}
		rec.RealTS = ts
	}
	if scale < 1 || scale > model.MaxTimescale {
		return fmt.Errorf("-scale %d: want 1 to %d", scale, model.MaxTimescale)
	}
	rec.Timescale = uint32(scale)

	if fresh {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	fl, err := hal.OpenFlashFile(path)
	if err != nil {
		return err
	}
	defer closeFlash(fl)

	return storage.NewFlashStore(fl).Save(rec)
}

func runDump(w io.Writer, path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	fl, err := hal.OpenFlashFile(path)
	if err != nil {
		return err
	}
	defer closeFlash(fl)

	rec, err := storage.NewFlashStore(fl).Load()
	if errors.Is(err, storage.ErrNoRecord) {
		fmt.Fprintln(w, "no record")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "model_ts  %d (%s)\n", rec.ModelTS, time.Unix(rec.ModelTS, 0).UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "real_ts   %d (%s)\n", rec.RealTS, time.Unix(rec.RealTS, 0).UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "timescale %d\n", rec.Timescale)
	return nil
}

func parseTime(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}

func closeFlash(fl hal.Flash) {
	if c, ok := fl.(io.Closer); ok {
		_ = c.Close()
	}
}
