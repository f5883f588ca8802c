// Package storage persists the clock settings across restarts: model time,
// wall time and timescale.
package storage

import (
	"errors"

	"fastclock/clock/model"
)

// ErrNoRecord is returned by Load when nothing has been saved yet or the
// saved data is unreadable. The returned record then holds Defaults.
var ErrNoRecord = errors.New("no stored record")

// DefaultRealTime is the wall time assumed when none was saved
// (2025-01-01 00:00:00 UTC).
const DefaultRealTime int64 = 1735689600

// Record is the persisted state.
type Record struct {
	ModelTS   int64
	RealTS    int64
	Timescale uint32
}

// Defaults returns the factory record.
func Defaults() Record {
	return Record{
		ModelTS:   model.DefaultModelTime,
		RealTS:    DefaultRealTime,
		Timescale: model.DefaultTimescale,
	}
}

// Sanitize replaces an out of range timescale with the default.
func (r Record) Sanitize() Record {
	if r.Timescale < 1 || r.Timescale > model.MaxTimescale {
		r.Timescale = model.DefaultTimescale
	}
	return r
}

// Store loads and saves records.
type Store interface {
	Load() (Record, error)
	Save(r Record) error
}
