// Package input turns raw falling edges on the button lines into semantic
// gesture events. The Debouncer runs in interrupt context and hands candidate
// buttons to the single gesture Task through a lock-free mailbox.
package input

import (
	"sync/atomic"
	"time"

	"fastclock/clock/button"
	"fastclock/kernel"
)

// Clock is the monotonic time source shared by the debouncer and the gesture
// task. kernel.Timebase implements it.
type Clock interface {
	Now() time.Duration
	Sleep(d time.Duration)
}

// Queue carries candidate buttons from the debouncer to the gesture task.
type Queue = kernel.Mailbox[button.ID]

// DefaultDebounceWindow is the minimum spacing of accepted edges per button.
const DefaultDebounceWindow = 50 * time.Millisecond

// DebounceStats is a snapshot of the debouncer counters.
type DebounceStats struct {
	Accepted   uint32
	Bounced    uint32
	Overflowed uint32
	Unknown    uint32
}

// Debouncer filters contact bounce on falling edges. OnEdge is O(1) and never
// blocks, allocates or logs, so it may be called from an interrupt handler.
type Debouncer struct {
	buttons *button.Map
	clock   Clock
	queue   *Queue

	window atomic.Int64

	// last holds the accepted edge time plus one nanosecond; zero means the
	// button has never been accepted.
	last [button.Count]atomic.Int64

	accepted   atomic.Uint32
	bounced    atomic.Uint32
	overflowed atomic.Uint32
	unknown    atomic.Uint32
}

// NewDebouncer creates a debouncer feeding queue. A non-positive window means
// DefaultDebounceWindow.
func NewDebouncer(buttons *button.Map, clock Clock, queue *Queue, window time.Duration) *Debouncer {
	d := &Debouncer{buttons: buttons, clock: clock, queue: queue}
	d.SetWindow(window)
	return d
}

// SetWindow changes the debounce window. Safe to call while edges arrive.
func (d *Debouncer) SetWindow(w time.Duration) {
	if w <= 0 {
		w = DefaultDebounceWindow
	}
	d.window.Store(int64(w))
}

// Window returns the current debounce window.
func (d *Debouncer) Window() time.Duration { return time.Duration(d.window.Load()) }

// OnEdge handles a falling edge on line.
func (d *Debouncer) OnEdge(line int) {
	if line < 0 || line >= button.MaxLines {
		d.unknown.Add(1)
		return
	}
	id, ok := d.buttons.Lookup(button.Line(line))
	if !ok {
		d.unknown.Add(1)
		return
	}

	now := int64(d.clock.Now()) + 1
	slot := &d.last[id]
	prev := slot.Load()
	if prev != 0 && now-prev < d.window.Load() {
		d.bounced.Add(1)
		return
	}
	// A concurrent edge on the same line that won the swap counts as the
	// accepted one.
	if !slot.CompareAndSwap(prev, now) {
		d.bounced.Add(1)
		return
	}

	if !d.queue.TrySend(id) {
		d.overflowed.Add(1)
		return
	}
	d.accepted.Add(1)
}

// LastAccepted returns the time of the last accepted edge of id.
func (d *Debouncer) LastAccepted(id button.ID) (time.Duration, bool) {
	if !id.Valid() {
		return 0, false
	}
	v := d.last[id].Load()
	if v == 0 {
		return 0, false
	}
	return time.Duration(v - 1), true
}

// Stats returns a snapshot of the counters.
func (d *Debouncer) Stats() DebounceStats {
	return DebounceStats{
		Accepted:   d.accepted.Load(),
		Bounced:    d.bounced.Load(),
		Overflowed: d.overflowed.Load(),
		Unknown:    d.unknown.Load(),
	}
}
