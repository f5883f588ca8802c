package input

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastclock/clock/button"
	"fastclock/clock/event"
)

// fakeClock is a virtual clock whose Sleep advances time instantly.
type fakeClock struct {
	mu  sync.Mutex
	now time.Duration
}

func (c *fakeClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	c.now += d
	c.mu.Unlock()
}

func (c *fakeClock) Set(d time.Duration) {
	c.mu.Lock()
	c.now = d
	c.mu.Unlock()
}

// heldUntil reports a button as pressed until its release time.
type heldUntil struct {
	clock   *fakeClock
	release map[button.ID]time.Duration
}

func (h heldUntil) Pressed(id button.ID) bool {
	at, ok := h.release[id]
	return ok && h.clock.Now() < at
}

type recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recorder) Publish(e event.Event) error {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	return nil
}

func (r *recorder) topics(id button.ID) []event.Topic {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []event.Topic
	for _, e := range r.events {
		if e.Button == id {
			out = append(out, e.Topic)
		}
	}
	return out
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func testMap(t *testing.T) *button.Map {
	t.Helper()
	m, err := button.NewMap(button.Sequential(6))
	require.NoError(t, err)
	return m
}

func TestDebounceOneCandidatePerWindow(t *testing.T) {
	clk := &fakeClock{}
	var q Queue
	m := testMap(t)
	d := NewDebouncer(m, clk, &q, 50*time.Millisecond)
	line := int(m.Line(button.Up))

	for at := time.Duration(0); at <= 200*time.Millisecond; at += 10 * time.Millisecond {
		clk.Set(at)
		d.OnEdge(line)
	}

	st := d.Stats()
	assert.Equal(t, uint32(5), st.Accepted)
	assert.Equal(t, uint32(16), st.Bounced)
	assert.Equal(t, 5, q.Len())

	last, ok := d.LastAccepted(button.Up)
	require.True(t, ok)
	assert.Equal(t, 200*time.Millisecond, last)
}

func TestDebounceFirstEdgeAtTimeZero(t *testing.T) {
	clk := &fakeClock{}
	var q Queue
	m := testMap(t)
	d := NewDebouncer(m, clk, &q, 0)
	assert.Equal(t, DefaultDebounceWindow, d.Window())

	d.OnEdge(int(m.Line(button.OK)))

	id, ok := q.TryRecv()
	require.True(t, ok)
	assert.Equal(t, button.OK, id)
}

func TestDebounceIgnoresUnknownLines(t *testing.T) {
	clk := &fakeClock{}
	var q Queue
	d := NewDebouncer(testMap(t), clk, &q, 0)

	d.OnEdge(0)
	d.OnEdge(-1)
	d.OnEdge(button.MaxLines)

	assert.Equal(t, 0, q.Len())
	assert.Equal(t, uint32(3), d.Stats().Unknown)
}

func TestDebounceQueueFullDrops(t *testing.T) {
	clk := &fakeClock{}
	var q Queue
	m := testMap(t)
	d := NewDebouncer(m, clk, &q, 50*time.Millisecond)

	for round := 0; round < 3; round++ {
		clk.Set(time.Duration(round) * time.Second)
		for _, id := range button.All() {
			d.OnEdge(int(m.Line(id)))
		}
	}

	st := d.Stats()
	assert.Equal(t, uint32(16), st.Accepted)
	assert.Equal(t, uint32(8), st.Overflowed)
	assert.Equal(t, 16, q.Len())
}

func newTestTask(clk *fakeClock, release map[button.ID]time.Duration) (*Task, *recorder) {
	var q Queue
	rec := &recorder{}
	task := NewTask(&q, heldUntil{clock: clk, release: release}, rec, clk)
	return task, rec
}

func TestShortTapOnRepeatableButton(t *testing.T) {
	clk := &fakeClock{}
	task, rec := newTestTask(clk, map[button.ID]time.Duration{button.Up: 300 * time.Millisecond})

	task.Handle(button.Up)

	assert.Equal(t, []event.Topic{event.ButtonPress}, rec.topics(button.Up))
}

func TestHeldRepeatableButton(t *testing.T) {
	clk := &fakeClock{}
	task, rec := newTestTask(clk, map[button.ID]time.Duration{button.Down: 1100 * time.Millisecond})

	task.Handle(button.Down)

	assert.Equal(t, []event.Topic{
		event.ButtonPress,
		event.ButtonLongPress,
		event.ButtonRepeat,
		event.ButtonRepeat,
		event.ButtonRepeat,
		event.ButtonRelease,
	}, rec.topics(button.Down))
	assert.Equal(t, uint32(6), task.Stats().Emitted)
}

func TestNonRepeatableButtonOnlyPresses(t *testing.T) {
	clk := &fakeClock{}
	task, rec := newTestTask(clk, map[button.ID]time.Duration{button.OK: time.Hour})

	task.Handle(button.OK)

	assert.Equal(t, []event.Topic{event.ButtonPress}, rec.topics(button.OK))
	assert.Less(t, clk.Now(), time.Second)
}

func TestReleaseDuringSettleIsSpurious(t *testing.T) {
	clk := &fakeClock{}
	task, rec := newTestTask(clk, map[button.ID]time.Duration{button.Menu: 10 * time.Millisecond})

	task.Handle(button.Menu)

	assert.Empty(t, rec.topics(button.Menu))
	assert.Equal(t, uint32(1), task.Stats().Spurious)
}

func TestHandleIgnoresInvalidButton(t *testing.T) {
	clk := &fakeClock{}
	task, rec := newTestTask(clk, nil)

	task.Handle(button.None)
	assert.Equal(t, 0, rec.len())

	strict := NewTask(&Queue{}, heldUntil{clock: clk}, rec, clk, WithStrict())
	assert.Panics(t, func() { strict.Handle(button.None) })
}

func TestTimingValidation(t *testing.T) {
	require.NoError(t, DefaultTiming().Validate())

	bad := DefaultTiming()
	bad.Poll = time.Second
	assert.ErrorIs(t, bad.Validate(), ErrInvalidTiming)

	bad = DefaultTiming()
	bad.Repeat = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidTiming)

	clk := &fakeClock{}
	task, _ := newTestTask(clk, nil)
	assert.Error(t, task.SetTiming(bad))

	faster := DefaultTiming()
	faster.Repeat = 50 * time.Millisecond
	require.NoError(t, task.SetTiming(faster))
	assert.Equal(t, faster, task.Timing())
}

func TestRunSerializesButtonsInQueueOrder(t *testing.T) {
	clk := &fakeClock{}
	var q Queue
	rec := &recorder{}
	levels := heldUntil{clock: clk, release: map[button.ID]time.Duration{
		button.Up: 800 * time.Millisecond,
		button.OK: time.Hour,
	}}
	task := NewTask(&q, levels, rec, clk)

	require.True(t, q.TrySend(button.Up))
	require.True(t, q.TrySend(button.OK))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = task.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return rec.len() == 5 }, 2*time.Second, time.Millisecond)
	cancel()
	<-done

	rec.mu.Lock()
	defer rec.mu.Unlock()
	want := []event.Event{
		event.ButtonEvent(event.ButtonPress, button.Up),
		event.ButtonEvent(event.ButtonLongPress, button.Up),
		event.ButtonEvent(event.ButtonRepeat, button.Up),
		event.ButtonEvent(event.ButtonRelease, button.Up),
		event.ButtonEvent(event.ButtonPress, button.OK),
	}
	assert.Equal(t, want, rec.events)
}
