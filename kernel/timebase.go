package kernel

import (
	"context"
	"sync/atomic"
	"time"
)

// TickDuration is the length of one Timebase tick.
const TickDuration = time.Millisecond

// Timebase is a monotonic millisecond counter.
//
// It is advanced either by the platform tick stream (TickTo) or by Run.
// Reads are lock-free so the counter can be sampled from interrupt context.
type Timebase struct {
	ticks atomic.Uint64
}

// NewTimebase creates a timebase at tick zero.
func NewTimebase() *Timebase {
	return &Timebase{}
}

// Run increments the counter every TickDuration until ctx is done.
// Use it only when the platform has no tick stream of its own.
func (t *Timebase) Run(ctx context.Context) error {
	tk := time.NewTicker(TickDuration)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tk.C:
			t.ticks.Add(1)
		}
	}
}

// TickTo advances the counter to seq. Older sequence numbers are ignored.
func (t *Timebase) TickTo(seq uint64) {
	for {
		cur := t.ticks.Load()
		if seq <= cur {
			return
		}
		if t.ticks.CompareAndSwap(cur, seq) {
			return
		}
	}
}

// Ticks returns the current tick count.
func (t *Timebase) Ticks() uint64 {
	return t.ticks.Load()
}

// Now returns the time elapsed since tick zero.
func (t *Timebase) Now() time.Duration {
	return time.Duration(t.ticks.Load()) * TickDuration
}

// Sleep suspends the calling goroutine for d of wall time. It does not
// follow the tick counter: when the tick stream stalls (a host frame loop
// that stops stepping), Now advances less than d across a Sleep.
func (t *Timebase) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	time.Sleep(d)
}
