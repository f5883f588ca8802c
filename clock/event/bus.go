package event

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"fastclock/clock/logging"
)

// DefaultQueueSize is the number of events the bus buffers between
// publishers and the delivery goroutine.
const DefaultQueueSize = 64

// Handler receives events on the delivery goroutine. Handlers must not block
// for long: every other subscriber waits behind them.
type Handler func(Event)

// Stats is a snapshot of the bus counters.
type Stats struct {
	Published uint64
	Delivered uint64
	Dropped   uint64
	Coalesced uint64
	Panics    uint64
	Queued    int
}

// Bus is a bounded, non-blocking publish/subscribe channel with a single
// delivery goroutine. The zero value is not usable; Publish on it reports
// ErrNotInitialized.
type Bus struct {
	queue  chan Event
	logger *slog.Logger

	mu       sync.RWMutex
	handlers [topicCount][]Handler

	running atomic.Bool
	pending [topicCount]atomic.Bool

	published atomic.Uint64
	delivered atomic.Uint64
	dropped   atomic.Uint64
	coalesced atomic.Uint64
	panics    atomic.Uint64
}

// Option configures a Bus.
type Option func(*Bus)

// WithQueueSize overrides DefaultQueueSize. Values below 1 are ignored.
func WithQueueSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.queue = make(chan Event, n)
		}
	}
}

// WithLogger sets the logger used for drops and handler panics.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// New creates a bus. Call Run to start delivery.
func New(opts ...Option) *Bus {
	b := &Bus{
		queue:  make(chan Event, DefaultQueueSize),
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With("component", "bus")
	return b
}

// Subscribe registers h for topic t. Handlers of one topic run in
// subscription order.
func (b *Bus) Subscribe(t Topic, h Handler) error {
	if b == nil || b.queue == nil {
		return ErrNotInitialized
	}
	if !t.Valid() {
		return fmt.Errorf("subscribe %s: %w", t, ErrUnknownTopic)
	}
	if h == nil {
		return fmt.Errorf("subscribe %s: %w", t, ErrNilHandler)
	}
	b.mu.Lock()
	b.handlers[t] = append(b.handlers[t], h)
	b.mu.Unlock()
	return nil
}

// Publish enqueues e without blocking. It is safe from any goroutine.
func (b *Bus) Publish(e Event) error {
	if b == nil || b.queue == nil {
		return ErrNotInitialized
	}
	e, err := e.normalize()
	if err != nil {
		return err
	}
	info := topics[e.Topic]

	if info.Class == ClassHint && b.pending[e.Topic].Swap(true) {
		b.coalesced.Add(1)
		return nil
	}

	if b.enqueue(e) {
		b.published.Add(1)
		return nil
	}
	if info.Class == ClassCritical {
		runtime.Gosched()
		if b.enqueue(e) {
			b.published.Add(1)
			return nil
		}
	}
	if info.Class == ClassHint {
		b.pending[e.Topic].Store(false)
	}

	b.dropped.Add(1)
	b.logger.Warn("event dropped", "event", e.String(), "queue", cap(b.queue))
	return fmt.Errorf("publish %s: %w", e.Topic, ErrQueueFull)
}

func (b *Bus) enqueue(e Event) bool {
	select {
	case b.queue <- e:
		return true
	default:
		return false
	}
}

// Run delivers events until ctx is done. Only one Run may be active.
func (b *Bus) Run(ctx context.Context) error {
	if b == nil || b.queue == nil {
		return ErrNotInitialized
	}
	if !b.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer b.running.Store(false)

	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-b.queue:
			b.dispatch(e)
		}
	}
}

// Flush delivers every queued event on the calling goroutine, including
// events published by the handlers themselves, and returns the number
// delivered. It must not be used while Run is active.
func (b *Bus) Flush() int {
	if b == nil || b.queue == nil {
		return 0
	}
	n := 0
	for {
		select {
		case e := <-b.queue:
			b.dispatch(e)
			n++
		default:
			return n
		}
	}
}

func (b *Bus) dispatch(e Event) {
	if topics[e.Topic].Class == ClassHint {
		b.pending[e.Topic].Store(false)
	}

	b.mu.RLock()
	hs := b.handlers[e.Topic]
	b.mu.RUnlock()

	for _, h := range hs {
		b.call(h, e)
	}
	b.delivered.Add(1)
}

func (b *Bus) call(h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.panics.Add(1)
			b.logger.Error("handler panic", "event", e.String(), "panic", fmt.Sprint(r))
		}
	}()
	h(e)
}

// Stats returns a snapshot of the counters.
func (b *Bus) Stats() Stats {
	if b == nil || b.queue == nil {
		return Stats{}
	}
	return Stats{
		Published: b.published.Load(),
		Delivered: b.delivered.Load(),
		Dropped:   b.dropped.Load(),
		Coalesced: b.coalesced.Load(),
		Panics:    b.panics.Load(),
		Queued:    len(b.queue),
	}
}
