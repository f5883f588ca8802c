package model

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastclock/clock/event"
)

type sink struct {
	mu     sync.Mutex
	events []event.Event
}

func (s *sink) Publish(e event.Event) error {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
	return nil
}

func (s *sink) count(t event.Topic) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e.Topic == t {
			n++
		}
	}
	return n
}

func TestClockDefaults(t *testing.T) {
	c := NewClock(&sink{})
	assert.Equal(t, DefaultModelTime, c.Now())
	assert.Equal(t, uint32(DefaultTimescale), c.Timescale())
	assert.False(t, c.Running())
	assert.Equal(t, 500*time.Millisecond, c.Period())
}

func TestStepOnlyWhileRunning(t *testing.T) {
	out := &sink{}
	c := NewClock(out, WithStart(100, 4))

	assert.Equal(t, int64(100), c.Step())
	assert.Zero(t, out.count(event.ModelTick))

	c.Resume()
	assert.Equal(t, int64(101), c.Step())
	assert.Equal(t, 1, out.count(event.ModelTick))
}

func TestMinuteTickOnWholeMinute(t *testing.T) {
	out := &sink{}
	c := NewClock(out, WithStart(DefaultModelTime-2, 0))
	c.Resume()

	c.Step()
	c.Step()
	c.Step()

	assert.Equal(t, 3, out.count(event.ModelTick))
	require.Equal(t, 1, out.count(event.ModelMinuteTick))
	for _, e := range out.events {
		if e.Topic == event.ModelMinuteTick {
			assert.Equal(t, DefaultModelTime, e.Value)
		}
	}
}

func TestStateChangePublishedOnlyOnChange(t *testing.T) {
	out := &sink{}
	c := NewClock(out)

	c.Pause()
	assert.Zero(t, out.count(event.TimerStateChanged))
	c.Resume()
	c.Resume()
	assert.Equal(t, 1, out.count(event.TimerStateChanged))
	c.Pause()
	assert.Equal(t, 2, out.count(event.TimerStateChanged))
}

func TestSetTimescaleRange(t *testing.T) {
	c := NewClock(&sink{})
	c.SetTimescale(0)
	c.SetTimescale(MaxTimescale + 1)
	assert.Equal(t, uint32(DefaultTimescale), c.Timescale())

	c.SetTimescale(MaxTimescale)
	assert.Equal(t, uint32(MaxTimescale), c.Timescale())
}

func TestClockFollowsBus(t *testing.T) {
	bus := event.New()
	c := NewClock(bus)
	require.NoError(t, c.Subscribe(bus))

	require.NoError(t, bus.Publish(event.Value(event.TimerScale, 10)))
	require.NoError(t, bus.Publish(event.Value(event.SetModelTime, 5000)))
	require.NoError(t, bus.Publish(event.Notify(event.TimerResume)))
	bus.Flush()

	assert.Equal(t, uint32(10), c.Timescale())
	assert.Equal(t, int64(5000), c.Now())
	assert.True(t, c.Running())

	require.NoError(t, bus.Publish(event.Notify(event.TimerPause)))
	bus.Flush()
	assert.False(t, c.Running())
}

func TestRunAdvances(t *testing.T) {
	out := &sink{}
	c := NewClock(out, WithStart(0, MaxTimescale))
	c.Resume()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = c.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return c.Now() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestWallSet(t *testing.T) {
	base := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	now := base
	w := NewWall(func() time.Time { return now })
	assert.Equal(t, base.Unix(), w.Now())

	w.Set(DefaultModelTime)
	assert.Equal(t, DefaultModelTime, w.Now())

	now = now.Add(90 * time.Second)
	assert.Equal(t, DefaultModelTime+90, w.Now())
}

func TestWallFollowsBus(t *testing.T) {
	bus := event.New()
	w := NewWall(nil)
	require.NoError(t, w.Subscribe(bus))

	require.NoError(t, bus.Publish(event.Value(event.SetRealTime, 1000)))
	bus.Flush()

	assert.InDelta(t, 1000, w.Now(), 2)
}
