// Package editor holds the field editors the menu can activate. An editor
// never touches the value it edits directly: Apply publishes the new value and
// the owning component applies it.
package editor

import (
	"fastclock/clock/button"
	"fastclock/clock/event"
)

// Mode identifies the quantity being edited.
type Mode uint8

const (
	ModeNone Mode = iota
	ModeTimescale
	ModeRealTime
	ModeModelTime
)

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeTimescale:
		return "timescale"
	case ModeRealTime:
		return "real_time"
	case ModeModelTime:
		return "model_time"
	default:
		return "unknown"
	}
}

// Scratch is the per-edit working copy. Begin fully re-initializes it.
type Scratch struct {
	Mode      Mode
	Timestamp int64
	Timescale uint32
	Cursor    int
}

// Publisher receives the committed value. *event.Bus implements it.
type Publisher interface {
	Publish(e event.Event) error
}

// Editor is the contract between the state machine and a field editor.
type Editor interface {
	// Mode reports what the editor edits.
	Mode() Mode
	// Begin captures the current value into s and resets the cursor.
	Begin(s *Scratch)
	// HandleEvent applies a forwarded gesture and reports whether s changed.
	HandleEvent(s *Scratch, topic event.Topic, id button.ID) bool
	// Apply commits s.
	Apply(s *Scratch) error
	// Cancel discards s without any externally visible effect.
	Cancel(s *Scratch)
}

func discard(s *Scratch) { *s = Scratch{} }
