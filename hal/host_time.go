//go:build !tinygo

package hal

import "time"

const hostTickDuration = time.Millisecond

// hostTime turns runner frames into millisecond ticks, catching up on the
// wall time that passed since the previous frame.
type hostTime struct {
	ch  chan uint64
	seq uint64

	last time.Time
	acc  time.Duration
}

func newHostTime() *hostTime {
	return &hostTime{ch: make(chan uint64, 64)}
}

func (t *hostTime) Ticks() <-chan uint64 { return t.ch }

func (t *hostTime) step(n uint64) {
	now := time.Now()
	if t.last.IsZero() {
		t.last = now
		t.acc = 0
		t.stepN(n)
		return
	}

	t.acc += now.Sub(t.last)
	t.last = now

	ticks := uint64(t.acc / hostTickDuration)
	if ticks == 0 {
		return
	}
	t.acc = t.acc % hostTickDuration
	t.stepN(ticks)
}

// stepN advances by n ticks. Only the newest sequence number is sent; the
// consumer jumps straight to it.
func (t *hostTime) stepN(n uint64) {
	t.seq += n
	select {
	case t.ch <- t.seq:
	default:
	}
}
