package event

import (
	"fmt"

	"fastclock/clock/button"
)

// Event is a topic plus its payload. It is a value type: publishing copies it
// into the bus queue.
type Event struct {
	Topic  Topic
	Button button.ID
	Value  int64
}

// Notify builds a payload-less event.
func Notify(t Topic) Event {
	return Event{Topic: t, Button: button.None}
}

// Button builds a gesture event for id.
func ButtonEvent(t Topic, id button.ID) Event {
	return Event{Topic: t, Button: id}
}

// Value builds an event carrying one number.
func Value(t Topic, v int64) Event {
	return Event{Topic: t, Button: button.None, Value: v}
}

// normalize checks the payload against the topic's declared kind and clears
// the button field of topics that do not carry one.
func (e Event) normalize() (Event, error) {
	if !e.Topic.Valid() {
		return e, fmt.Errorf("publish %s: %w", e.Topic, ErrUnknownTopic)
	}
	switch topics[e.Topic].Payload {
	case PayloadButton:
		if !e.Button.Valid() {
			return e, fmt.Errorf("publish %s: %w: want button, got %s", e.Topic, ErrPayloadMismatch, e.Button)
		}
		if e.Value != 0 {
			return e, fmt.Errorf("publish %s: %w: unexpected value %d", e.Topic, ErrPayloadMismatch, e.Value)
		}
	case PayloadNone:
		if e.Value != 0 {
			return e, fmt.Errorf("publish %s: %w: unexpected value %d", e.Topic, ErrPayloadMismatch, e.Value)
		}
		e.Button = button.None
	default:
		e.Button = button.None
	}
	return e, nil
}

func (e Event) String() string {
	switch e.Topic.Info().Payload {
	case PayloadButton:
		return e.Topic.String() + "(" + e.Button.String() + ")"
	case PayloadValue:
		return fmt.Sprintf("%s(%d)", e.Topic, e.Value)
	default:
		return e.Topic.String()
	}
}
