package editor

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastclock/clock/button"
	"fastclock/clock/event"
)

type published struct {
	events []event.Event
	err    error
}

func (p *published) Publish(e event.Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func unix(y int, m time.Month, d, h, mi, s int) int64 {
	return time.Date(y, m, d, h, mi, s, 0, time.UTC).Unix()
}

func TestDateTimeBeginResetsScratch(t *testing.T) {
	ed := NewModelTime(func() int64 { return 1735689600 }, &published{})
	s := Scratch{Mode: ModeTimescale, Timescale: 9, Cursor: 4, Timestamp: 1}

	ed.Begin(&s)

	assert.Equal(t, Scratch{Mode: ModeModelTime, Timestamp: 1735689600}, s)
}

func TestDateTimeCursorClamps(t *testing.T) {
	ed := NewRealTime(func() int64 { return 0 }, &published{})
	var s Scratch
	ed.Begin(&s)

	assert.False(t, ed.HandleEvent(&s, event.ButtonPress, button.Left))
	for i := 0; i < 10; i++ {
		ed.HandleEvent(&s, event.ButtonPress, button.Right)
	}
	assert.Equal(t, FieldSecond, s.Cursor)

	// LEFT and RIGHT only act on the initial press.
	assert.False(t, ed.HandleEvent(&s, event.ButtonRepeat, button.Left))
	assert.Equal(t, FieldSecond, s.Cursor)
}

func TestDateTimeMonthWrapsIntoNextYear(t *testing.T) {
	ed := NewModelTime(func() int64 { return unix(2024, time.December, 15, 10, 0, 0) }, &published{})
	var s Scratch
	ed.Begin(&s)
	ed.HandleEvent(&s, event.ButtonPress, button.Right)
	require.Equal(t, FieldMonth, s.Cursor)

	require.True(t, ed.HandleEvent(&s, event.ButtonPress, button.Up))

	assert.Equal(t, unix(2025, time.January, 15, 10, 0, 0), s.Timestamp)
}

func TestDateTimeRepeatedPressSteps(t *testing.T) {
	ed := NewModelTime(func() int64 { return unix(2025, time.January, 1, 0, 0, 0) }, &published{})
	var s Scratch
	ed.Begin(&s)
	s.Cursor = FieldMinute

	ed.HandleEvent(&s, event.ButtonRepeat, button.Down)
	assert.Equal(t, unix(2024, time.December, 31, 23, 59, 0), s.Timestamp)

	// Long-press and release carry no step.
	assert.False(t, ed.HandleEvent(&s, event.ButtonLongPress, button.Down))
	assert.False(t, ed.HandleEvent(&s, event.ButtonRelease, button.Down))
}

func TestStepFieldNormalizes(t *testing.T) {
	tests := []struct {
		name  string
		from  int64
		field int
		dir   int
		want  int64
	}{
		{"day past month end", unix(2024, time.February, 29, 0, 0, 0), FieldDay, 1, unix(2024, time.March, 1, 0, 0, 0)},
		{"month into short month", unix(2025, time.January, 31, 0, 0, 0), FieldMonth, 1, unix(2025, time.March, 3, 0, 0, 0)},
		{"leap day minus year", unix(2024, time.February, 29, 12, 0, 0), FieldYear, -1, unix(2023, time.March, 1, 12, 0, 0)},
		{"second wraps minute", unix(2025, time.June, 1, 8, 30, 59), FieldSecond, 1, unix(2025, time.June, 1, 8, 31, 0)},
		{"hour back over midnight", unix(2025, time.June, 1, 0, 15, 0), FieldHour, -1, unix(2025, time.May, 31, 23, 15, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := StepField(tt.from, tt.field, tt.dir)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStepFieldRejectsOutOfRange(t *testing.T) {
	_, ok := StepField(0, FieldSecond, -1)
	assert.False(t, ok)

	_, ok = StepField(0, FieldCount, 1)
	assert.False(t, ok)
}

func TestDateTimeApplyPublishes(t *testing.T) {
	pub := &published{}
	rt := NewRealTime(func() int64 { return 100 }, pub)
	model := NewModelTime(func() int64 { return 200 }, pub)

	var s Scratch
	rt.Begin(&s)
	require.NoError(t, rt.Apply(&s))
	model.Begin(&s)
	require.NoError(t, model.Apply(&s))

	assert.Equal(t, []event.Event{
		event.Value(event.SetRealTime, 100),
		event.Value(event.SetModelTime, 200),
	}, pub.events)
}

func TestCancelPublishesNothing(t *testing.T) {
	pub := &published{}
	ed := NewModelTime(func() int64 { return 200 }, pub)
	var s Scratch
	ed.Begin(&s)
	ed.HandleEvent(&s, event.ButtonPress, button.Up)

	ed.Cancel(&s)

	assert.Empty(t, pub.events)
	assert.Equal(t, Scratch{}, s)
}

func TestTimescaleClamps(t *testing.T) {
	pub := &published{}
	ed := NewTimescale(func() uint32 { return 2 }, 0, pub)
	var s Scratch
	ed.Begin(&s)
	assert.Equal(t, uint32(2), s.Timescale)

	assert.True(t, ed.HandleEvent(&s, event.ButtonPress, button.Down))
	assert.False(t, ed.HandleEvent(&s, event.ButtonRepeat, button.Down))
	assert.Equal(t, uint32(1), s.Timescale)

	for i := 0; i < 100; i++ {
		ed.HandleEvent(&s, event.ButtonRepeat, button.Up)
	}
	assert.Equal(t, uint32(MaxTimescale), s.Timescale)
	assert.False(t, ed.HandleEvent(&s, event.ButtonPress, button.Left))

	require.NoError(t, ed.Apply(&s))
	assert.Equal(t, []event.Event{event.Value(event.TimerScale, MaxTimescale)}, pub.events)
}

func TestTimescaleBeginClampsCurrent(t *testing.T) {
	ed := NewTimescale(func() uint32 { return 0 }, 10, &published{})
	var s Scratch
	ed.Begin(&s)
	assert.Equal(t, uint32(1), s.Timescale)
}

func TestApplyReturnsPublishError(t *testing.T) {
	boom := errors.New("queue full")
	ed := NewTimescale(func() uint32 { return 3 }, 0, &published{err: boom})
	var s Scratch
	ed.Begin(&s)
	assert.ErrorIs(t, ed.Apply(&s), boom)
}

func TestFieldSpanMatchesLayout(t *testing.T) {
	text := time.Unix(unix(2025, time.March, 4, 5, 6, 7), 0).UTC().Format(DateTimeLayout)
	want := []string{"2025", "03", "04", "05", "06", "07"}
	for field := 0; field < FieldCount; field++ {
		col, width := FieldSpan(field)
		assert.Equal(t, want[field], text[col:col+width])
	}
	col, width := FieldSpan(-1)
	assert.Zero(t, col+width)
}
