package status

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastclock/clock/event"
)

type pin struct {
	mu    sync.Mutex
	level bool
	highs int
}

func (p *pin) High() {
	p.mu.Lock()
	p.level = true
	p.highs++
	p.mu.Unlock()
}

func (p *pin) Low() {
	p.mu.Lock()
	p.level = false
	p.mu.Unlock()
}

func (p *pin) state() (bool, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level, p.highs
}

type pixel struct {
	rgb [3]uint8
	err error
}

func (p *pixel) SetRGB(r, g, b uint8) error {
	p.rgb = [3]uint8{r, g, b}
	return p.err
}

func TestLEDsFollowTimerState(t *testing.T) {
	var green, red pin
	px := &pixel{}
	running := false
	leds := NewLEDs(&green, &red, px, func() bool { return running }, nil)

	bus := event.New()
	require.NoError(t, leds.Subscribe(bus))

	leds.Sync()
	g, _ := green.state()
	r, _ := red.state()
	assert.False(t, g)
	assert.True(t, r)
	assert.Equal(t, PausedColor, px.rgb)

	running = true
	require.NoError(t, bus.Publish(event.Notify(event.TimerStateChanged)))
	bus.Flush()

	g, _ = green.state()
	r, _ = red.state()
	assert.True(t, g)
	assert.False(t, r)
	assert.Equal(t, RunningColor, px.rgb)
}

func TestLEDsToleratesMissingOutputs(t *testing.T) {
	leds := NewLEDs(nil, nil, &pixel{err: errors.New("bus error")}, func() bool { return true }, nil)
	leds.Sync()
}

// gate blocks every Sleep until released.
type gate struct {
	release chan struct{}
}

func (g gate) Sleep(time.Duration) { <-g.release }

type noSleep struct{}

func (noSleep) Sleep(time.Duration) {}

func TestPulserEmitsTrainPerChannel(t *testing.T) {
	var a, b pin
	p := NewPulser([]Channel{
		{Name: "a", Pin: &a, Pulse: 100 * time.Millisecond, Gap: 100 * time.Millisecond, Count: 3},
		{Name: "b", Pin: &b, Pulse: 50 * time.Millisecond, Count: 1},
		{Name: "disabled", Count: 2},
	}, noSleep{}, nil)

	bus := event.New()
	require.NoError(t, p.Subscribe(bus))
	require.NoError(t, bus.Publish(event.Value(event.ModelMinuteTick, 60)))
	bus.Flush()
	p.Wait()

	level, highs := a.state()
	assert.False(t, level)
	assert.Equal(t, 3, highs)
	level, highs = b.state()
	assert.False(t, level)
	assert.Equal(t, 1, highs)
}

func TestPulserSkipsBusyChannel(t *testing.T) {
	var a pin
	g := gate{release: make(chan struct{})}
	p := NewPulser([]Channel{{Name: "a", Pin: &a, Pulse: time.Millisecond, Count: 1}}, g, nil)

	p.Minute()
	require.Eventually(t, func() bool { _, n := a.state(); return n == 1 }, time.Second, time.Millisecond)
	p.Minute()
	assert.Equal(t, uint32(1), p.Skipped())

	close(g.release)
	p.Wait()
	level, highs := a.state()
	assert.False(t, level)
	assert.Equal(t, 1, highs)
}
