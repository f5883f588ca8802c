package input

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"fastclock/clock/button"
	"fastclock/clock/event"
	"fastclock/clock/logging"
)

// ErrInvalidTiming is returned for gesture timings that are zero, negative or
// inconsistent.
var ErrInvalidTiming = errors.New("invalid gesture timing")

// LevelReader reports the current physical level of a button line.
type LevelReader interface {
	Pressed(id button.ID) bool
}

// Emitter receives gesture events. *event.Bus implements it.
type Emitter interface {
	Publish(e event.Event) error
}

// Timing holds the gesture intervals.
type Timing struct {
	// Settle is the software debounce applied before the level is confirmed.
	Settle time.Duration
	// Poll is the level sampling interval while waiting for long-press.
	Poll time.Duration
	// LongPress is how long UP/DOWN must be held before auto-repeat starts.
	LongPress time.Duration
	// Repeat is the auto-repeat period.
	Repeat time.Duration
}

// DefaultTiming returns the stock gesture intervals.
func DefaultTiming() Timing {
	return Timing{
		Settle:    20 * time.Millisecond,
		Poll:      10 * time.Millisecond,
		LongPress: 600 * time.Millisecond,
		Repeat:    150 * time.Millisecond,
	}
}

// Validate checks that every interval is positive and that polling is finer
// than the long-press threshold.
func (t Timing) Validate() error {
	switch {
	case t.Settle <= 0:
		return fmt.Errorf("%w: settle %v", ErrInvalidTiming, t.Settle)
	case t.Poll <= 0:
		return fmt.Errorf("%w: poll %v", ErrInvalidTiming, t.Poll)
	case t.LongPress <= 0:
		return fmt.Errorf("%w: long press %v", ErrInvalidTiming, t.LongPress)
	case t.Repeat <= 0:
		return fmt.Errorf("%w: repeat %v", ErrInvalidTiming, t.Repeat)
	case t.Poll > t.LongPress:
		return fmt.Errorf("%w: poll %v exceeds long press %v", ErrInvalidTiming, t.Poll, t.LongPress)
	}
	return nil
}

// Task is the gesture state machine. Exactly one Task drains a queue; gestures
// of different buttons are therefore handled one after another in queue
// order, and a press that arrives while another button is held waits until
// that gesture finishes.
type Task struct {
	queue  *Queue
	levels LevelReader
	out    Emitter
	clock  Clock
	logger *slog.Logger
	strict bool

	mu     sync.Mutex
	timing Timing

	emitted   atomic.Uint32
	spurious  atomic.Uint32
	pubErrors atomic.Uint32
}

// TaskOption configures a Task.
type TaskOption func(*Task)

// WithTiming sets the gesture intervals. Invalid timings are ignored.
func WithTiming(t Timing) TaskOption {
	return func(task *Task) {
		if t.Validate() == nil {
			task.timing = t
		}
	}
}

// WithLogger sets the task logger.
func WithLogger(l *slog.Logger) TaskOption {
	return func(task *Task) {
		if l != nil {
			task.logger = l
		}
	}
}

// WithStrict makes Handle panic on identities that are not mapped to a line.
// Development builds use it to surface wiring mistakes.
func WithStrict() TaskOption {
	return func(task *Task) { task.strict = true }
}

// NewTask creates the gesture task.
func NewTask(queue *Queue, levels LevelReader, out Emitter, clock Clock, opts ...TaskOption) *Task {
	t := &Task{
		queue:  queue,
		levels: levels,
		out:    out,
		clock:  clock,
		logger: logging.Discard(),
		timing: DefaultTiming(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With("component", "gesture")
	return t
}

// SetTiming replaces the intervals. It takes effect at the next gesture.
func (t *Task) SetTiming(tm Timing) error {
	if err := tm.Validate(); err != nil {
		return err
	}
	t.mu.Lock()
	t.timing = tm
	t.mu.Unlock()
	return nil
}

// Timing returns the current intervals.
func (t *Task) Timing() Timing {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timing
}

// Run drains the queue until ctx is done.
func (t *Task) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		id, ok := t.queue.TryRecv()
		if !ok {
			t.clock.Sleep(t.Timing().Poll)
			continue
		}
		t.Handle(id)
	}
}

// Handle runs one complete gesture for id. It returns when the gesture is
// over, which for a held UP/DOWN is after the release.
func (t *Task) Handle(id button.ID) {
	if !id.Valid() {
		if t.strict {
			panic(fmt.Sprintf("gesture: unmapped button %s", id))
		}
		t.logger.Debug("ignoring unmapped button", "button", id.String())
		return
	}
	tm := t.Timing()

	t.clock.Sleep(tm.Settle)
	if !t.levels.Pressed(id) {
		t.spurious.Add(1)
		return
	}
	t.emit(event.ButtonPress, id)

	if !id.IsRepeatable() {
		return
	}

	start := t.clock.Now()
	for t.clock.Now()-start < tm.LongPress {
		t.clock.Sleep(tm.Poll)
		if !t.levels.Pressed(id) {
			return
		}
	}
	t.emit(event.ButtonLongPress, id)

	for {
		t.clock.Sleep(tm.Repeat)
		if !t.levels.Pressed(id) {
			t.emit(event.ButtonRelease, id)
			return
		}
		t.emit(event.ButtonRepeat, id)
	}
}

func (t *Task) emit(topic event.Topic, id button.ID) {
	if err := t.out.Publish(event.ButtonEvent(topic, id)); err != nil {
		t.pubErrors.Add(1)
		t.logger.Warn("publish failed", "topic", topic.String(), "button", id.String(), "err", err)
		return
	}
	t.emitted.Add(1)
}

// GestureStats is a snapshot of the task counters.
type GestureStats struct {
	Emitted       uint32
	Spurious      uint32
	PublishErrors uint32
}

// Stats returns a snapshot of the counters.
func (t *Task) Stats() GestureStats {
	return GestureStats{
		Emitted:       t.emitted.Load(),
		Spurious:      t.spurious.Load(),
		PublishErrors: t.pubErrors.Load(),
	}
}
