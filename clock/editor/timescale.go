package editor

import (
	"fastclock/clock/button"
	"fastclock/clock/event"
)

// MaxTimescale is the fastest supported model clock ratio.
const MaxTimescale = 60

// Timescale edits the model clock ratio in steps of one.
type Timescale struct {
	current func() uint32
	limit   uint32
	pub     Publisher
}

// NewTimescale creates the editor. current returns the ratio in effect; a
// limit of zero means MaxTimescale.
func NewTimescale(current func() uint32, limit uint32, pub Publisher) *Timescale {
	if limit == 0 {
		limit = MaxTimescale
	}
	return &Timescale{current: current, limit: limit, pub: pub}
}

func (t *Timescale) Mode() Mode { return ModeTimescale }

func (t *Timescale) Begin(s *Scratch) {
	*s = Scratch{Mode: ModeTimescale, Timescale: t.clamp(int64(t.current()))}
}

func (t *Timescale) HandleEvent(s *Scratch, topic event.Topic, id button.ID) bool {
	if topic != event.ButtonPress && topic != event.ButtonRepeat {
		return false
	}
	var v int64
	switch id {
	case button.Up:
		v = int64(s.Timescale) + 1
	case button.Down:
		v = int64(s.Timescale) - 1
	default:
		return false
	}
	n := t.clamp(v)
	if n == s.Timescale {
		return false
	}
	s.Timescale = n
	return true
}

func (t *Timescale) Apply(s *Scratch) error {
	return t.pub.Publish(event.Value(event.TimerScale, int64(t.clamp(int64(s.Timescale)))))
}

func (t *Timescale) Cancel(s *Scratch) { discard(s) }

func (t *Timescale) clamp(v int64) uint32 {
	if v < 1 {
		return 1
	}
	if v > int64(t.limit) {
		return t.limit
	}
	return uint32(v)
}
