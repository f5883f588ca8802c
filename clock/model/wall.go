package model

import (
	"sync"
	"time"

	"fastclock/clock/event"
)

// Wall is the real time clock, kept as an offset over the platform clock so
// it can be set without privileges on the host.
type Wall struct {
	now func() time.Time

	mu     sync.Mutex
	offset time.Duration
}

// NewWall creates a wall clock. A nil now means time.Now.
func NewWall(now func() time.Time) *Wall {
	if now == nil {
		now = time.Now
	}
	return &Wall{now: now}
}

// Subscribe registers the wall clock for SetRealTime.
func (w *Wall) Subscribe(bus Subscriber) error {
	return bus.Subscribe(event.SetRealTime, func(e event.Event) { w.Set(e.Value) })
}

// Now returns the wall time in unix seconds.
func (w *Wall) Now() int64 {
	return w.Time().Unix()
}

// Time returns the wall time.
func (w *Wall) Time() time.Time {
	w.mu.Lock()
	off := w.offset
	w.mu.Unlock()
	return w.now().Add(off).UTC()
}

// Set makes the wall clock read unix from now on.
func (w *Wall) Set(unix int64) {
	w.mu.Lock()
	w.offset = time.Unix(unix, 0).Sub(w.now())
	w.mu.Unlock()
}
