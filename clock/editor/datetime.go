package editor

import (
	"time"

	"fastclock/clock/button"
	"fastclock/clock/event"
)

// Date and time fields, in cursor order.
const (
	FieldYear = iota
	FieldMonth
	FieldDay
	FieldHour
	FieldMinute
	FieldSecond

	FieldCount
)

// DateTimeLayout is how the LCD shows an edited timestamp. FieldSpan indexes
// into it.
const DateTimeLayout = "2006-01-02  15:04:05"

var spans = [FieldCount][2]int{
	FieldYear:   {0, 4},
	FieldMonth:  {5, 2},
	FieldDay:    {8, 2},
	FieldHour:   {12, 2},
	FieldMinute: {15, 2},
	FieldSecond: {18, 2},
}

// FieldSpan returns the column and width of the field under cursor within
// DateTimeLayout.
func FieldSpan(cursor int) (col, width int) {
	if cursor < 0 || cursor >= FieldCount {
		return 0, 0
	}
	return spans[cursor][0], spans[cursor][1]
}

// Year bounds keep the layout four digits wide and the timestamp
// non-negative.
const (
	minYear = 1970
	maxYear = 9999
)

// DateTime edits a unix timestamp field by field in UTC.
type DateTime struct {
	mode  Mode
	topic event.Topic
	now   func() int64
	pub   Publisher
}

// NewRealTime edits the wall clock. now returns the current wall time in unix
// seconds; Apply publishes SetRealTime.
func NewRealTime(now func() int64, pub Publisher) *DateTime {
	return &DateTime{mode: ModeRealTime, topic: event.SetRealTime, now: now, pub: pub}
}

// NewModelTime edits the model clock. now returns the current model time;
// Apply publishes SetModelTime.
func NewModelTime(now func() int64, pub Publisher) *DateTime {
	return &DateTime{mode: ModeModelTime, topic: event.SetModelTime, now: now, pub: pub}
}

func (d *DateTime) Mode() Mode { return d.mode }

func (d *DateTime) Begin(s *Scratch) {
	*s = Scratch{Mode: d.mode, Timestamp: d.now()}
}

func (d *DateTime) HandleEvent(s *Scratch, topic event.Topic, id button.ID) bool {
	switch {
	case topic == event.ButtonPress && (id == button.Left || id == button.Right):
		c := s.Cursor
		if id == button.Left {
			c--
		} else {
			c++
		}
		c = clamp(c, 0, FieldCount-1)
		if c == s.Cursor {
			return false
		}
		s.Cursor = c
		return true

	case (topic == event.ButtonPress || topic == event.ButtonRepeat) && (id == button.Up || id == button.Down):
		dir := 1
		if id == button.Down {
			dir = -1
		}
		ts, ok := StepField(s.Timestamp, s.Cursor, dir)
		if !ok || ts == s.Timestamp {
			return false
		}
		s.Timestamp = ts
		return true
	}
	return false
}

func (d *DateTime) Apply(s *Scratch) error {
	return d.pub.Publish(event.Value(d.topic, s.Timestamp))
}

func (d *DateTime) Cancel(s *Scratch) { discard(s) }

// StepField adds dir to one calendar field of ts and normalizes the result
// the way time.Date does (month 13 is January of the next year, April 31 is
// May 1). It reports false when the result leaves the supported year range.
func StepField(ts int64, field, dir int) (int64, bool) {
	t := time.Unix(ts, 0).UTC()
	y, mo, day := t.Date()
	h, mi, sec := t.Clock()
	m := int(mo)

	switch field {
	case FieldYear:
		y += dir
	case FieldMonth:
		m += dir
	case FieldDay:
		day += dir
	case FieldHour:
		h += dir
	case FieldMinute:
		mi += dir
	case FieldSecond:
		sec += dir
	default:
		return ts, false
	}

	n := time.Date(y, time.Month(m), day, h, mi, sec, 0, time.UTC)
	if n.Year() < minYear || n.Year() > maxYear {
		return ts, false
	}
	return n.Unix(), true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
