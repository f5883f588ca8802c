package storage

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"fastclock/clock/event"
	"fastclock/clock/logging"
)

// DefaultSaveEvery is how many model minutes pass between periodic saves.
const DefaultSaveEvery = 10

// Publisher posts events. *event.Bus implements it.
type Publisher interface {
	Publish(e event.Event) error
}

// Subscriber registers handlers. *event.Bus implements it.
type Subscriber interface {
	Subscribe(t event.Topic, h event.Handler) error
}

// Persister restores the clocks at boot and saves them when they change.
type Persister struct {
	store    Store
	snapshot func() Record
	pub      Publisher
	logger   *slog.Logger
	every    int

	// echo counts restore events still in flight; their deliveries must not
	// trigger a save.
	echo atomic.Int32

	mu      sync.Mutex
	minutes int
	saves   int
}

// PersisterOption configures a Persister.
type PersisterOption func(*Persister)

// WithSaveEvery sets the periodic save interval in model minutes.
func WithSaveEvery(n int) PersisterOption {
	return func(p *Persister) {
		if n > 0 {
			p.every = n
		}
	}
}

// WithLogger sets the persister logger.
func WithLogger(l *slog.Logger) PersisterOption {
	return func(p *Persister) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPersister saves what snapshot returns into store.
func NewPersister(store Store, snapshot func() Record, pub Publisher, opts ...PersisterOption) *Persister {
	p := &Persister{
		store:    store,
		snapshot: snapshot,
		pub:      pub,
		logger:   logging.Discard(),
		every:    DefaultSaveEvery,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "storage")
	return p
}

// Restore loads the stored record and publishes it so the clocks pick it up.
// A missing or unreadable record restores Defaults.
func (p *Persister) Restore() (Record, error) {
	rec, err := p.store.Load()
	switch {
	case errors.Is(err, ErrNoRecord):
		p.logger.Info("no saved settings, using defaults")
	case err != nil:
		p.logger.Error("load failed, using defaults", "err", err)
		rec = Defaults()
	default:
		p.logger.Info("loaded", "model_ts", rec.ModelTS, "real_ts", rec.RealTS, "timescale", rec.Timescale)
	}

	for _, e := range []event.Event{
		event.Value(event.TimerScale, int64(rec.Timescale)),
		event.Value(event.SetModelTime, rec.ModelTS),
		event.Value(event.SetRealTime, rec.RealTS),
	} {
		p.echo.Add(1)
		if perr := p.pub.Publish(e); perr != nil {
			p.echo.Add(-1)
			p.logger.Error("restore event lost", "event", e.String(), "err", perr)
		}
	}
	return rec, err
}

// Subscribe registers the save triggers.
func (p *Persister) Subscribe(bus Subscriber) error {
	subs := []struct {
		topic event.Topic
		h     event.Handler
	}{
		{event.TimerStateChanged, func(event.Event) { p.Save() }},
		{event.RestartRequested, func(event.Event) { p.Save() }},
		{event.ModelMinuteTick, func(event.Event) { p.minuteTick() }},
		{event.TimerScale, p.edited},
		{event.SetModelTime, p.edited},
		{event.SetRealTime, p.edited},
	}
	for _, s := range subs {
		if err := bus.Subscribe(s.topic, s.h); err != nil {
			return err
		}
	}
	return nil
}

func (p *Persister) edited(event.Event) {
	for {
		n := p.echo.Load()
		if n <= 0 {
			break
		}
		if p.echo.CompareAndSwap(n, n-1) {
			return
		}
	}
	p.Save()
}

func (p *Persister) minuteTick() {
	p.mu.Lock()
	p.minutes++
	due := p.minutes >= p.every
	if due {
		p.minutes = 0
	}
	p.mu.Unlock()
	if due {
		p.Save()
	}
}

// Save writes the current snapshot and announces it with StorageSaved.
func (p *Persister) Save() error {
	rec := p.snapshot()
	if err := p.store.Save(rec); err != nil {
		p.logger.Error("save failed", "err", err)
		return err
	}
	p.mu.Lock()
	p.saves++
	p.mu.Unlock()
	p.logger.Debug("saved", "model_ts", rec.ModelTS, "real_ts", rec.RealTS, "timescale", rec.Timescale)
	_ = p.pub.Publish(event.Value(event.StorageSaved, rec.ModelTS))
	return nil
}

// Saves returns how many saves succeeded.
func (p *Persister) Saves() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves
}
