package status

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"fastclock/clock/event"
	"fastclock/clock/logging"
)

// Sleeper suspends the caller. kernel.Timebase implements it.
type Sleeper interface {
	Sleep(d time.Duration)
}

// Channel is one slave clock output. Every model minute it emits Count
// pulses of Pulse length separated by Gap.
type Channel struct {
	Name  string
	Pin   Pin
	Pulse time.Duration
	Gap   time.Duration
	Count int
}

type channelState struct {
	Channel
	busy atomic.Bool
}

// Pulser runs the pulse trains. Channels pulse in parallel, one goroutine
// per channel per minute; a minute that arrives while the previous train of
// a channel is still running is skipped for that channel.
type Pulser struct {
	channels []*channelState
	sleep    Sleeper
	logger   *slog.Logger
	wg       sync.WaitGroup

	skipped atomic.Uint32
}

// NewPulser creates a pulser. Channels without a pin or with a zero count are
// ignored.
func NewPulser(channels []Channel, sleep Sleeper, logger *slog.Logger) *Pulser {
	if logger == nil {
		logger = logging.Discard()
	}
	p := &Pulser{sleep: sleep, logger: logger.With("component", "pulse")}
	for _, ch := range channels {
		if ch.Pin == nil || ch.Count <= 0 {
			continue
		}
		ch.Pin.Low()
		p.channels = append(p.channels, &channelState{Channel: ch})
	}
	return p
}

// Subscribe starts a train on every ModelMinuteTick.
func (p *Pulser) Subscribe(bus Subscriber) error {
	return bus.Subscribe(event.ModelMinuteTick, func(event.Event) { p.Minute() })
}

// Minute starts one pulse train per channel and returns immediately.
func (p *Pulser) Minute() {
	for _, ch := range p.channels {
		if !ch.busy.CompareAndSwap(false, true) {
			p.skipped.Add(1)
			p.logger.Warn("pulse train still running", "channel", ch.Name)
			continue
		}
		p.wg.Add(1)
		go p.train(ch)
	}
}

func (p *Pulser) train(ch *channelState) {
	defer p.wg.Done()
	defer ch.busy.Store(false)

	for i := 0; i < ch.Count; i++ {
		ch.Pin.High()
		p.sleep.Sleep(ch.Pulse)
		ch.Pin.Low()
		if i+1 < ch.Count {
			p.sleep.Sleep(ch.Gap)
		}
	}
}

// Wait blocks until every running train has finished.
func (p *Pulser) Wait() { p.wg.Wait() }

// Skipped returns how many trains were skipped because the channel was busy.
func (p *Pulser) Skipped() uint32 { return p.skipped.Load() }
