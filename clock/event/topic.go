// Package event is the clock's publish/subscribe channel. Producers (gesture
// task, model clock, persistence) publish fixed-size events; a single delivery
// goroutine hands them to the subscribed handlers in publish order.
package event

import "fmt"

// Topic identifies an event channel.
type Topic uint8

const (
	TopicNone Topic = iota
	ModelTick
	ModelMinuteTick
	ButtonPress
	ButtonLongPress
	ButtonRepeat
	ButtonRelease
	RestartRequested
	TimerResume
	TimerPause
	TimerScale
	TimerStateChanged
	RenderInvalidated
	ExitInit
	SetModelTime
	SetRealTime
	StorageSaved

	topicCount
)

// Payload is the payload kind a topic carries.
type Payload uint8

const (
	PayloadNone Payload = iota
	PayloadButton
	PayloadValue
)

func (p Payload) String() string {
	switch p {
	case PayloadNone:
		return "none"
	case PayloadButton:
		return "button"
	case PayloadValue:
		return "value"
	default:
		return "unknown"
	}
}

// Class selects the overflow policy of a topic.
type Class uint8

const (
	// ClassNormal events are dropped and reported when the queue is full.
	ClassNormal Class = iota
	// ClassHint events are coalesced: at most one is queued at a time.
	ClassHint
	// ClassCritical events change persistent state; the enqueue is retried
	// once before the drop is reported.
	ClassCritical
)

// TopicInfo is the static description of a topic.
type TopicInfo struct {
	Name    string
	Payload Payload
	Class   Class
}

var topics = [topicCount]TopicInfo{
	TopicNone:         {Name: "none"},
	ModelTick:         {Name: "model_tick", Payload: PayloadValue},
	ModelMinuteTick:   {Name: "model_minute_tick", Payload: PayloadValue},
	ButtonPress:       {Name: "button_press", Payload: PayloadButton},
	ButtonLongPress:   {Name: "button_long_press", Payload: PayloadButton},
	ButtonRepeat:      {Name: "button_repeated_press", Payload: PayloadButton},
	ButtonRelease:     {Name: "button_release", Payload: PayloadButton},
	RestartRequested:  {Name: "restart_requested", Class: ClassCritical},
	TimerResume:       {Name: "timer_resume", Class: ClassCritical},
	TimerPause:        {Name: "timer_pause", Class: ClassCritical},
	TimerScale:        {Name: "timer_scale", Payload: PayloadValue, Class: ClassCritical},
	TimerStateChanged: {Name: "timer_state_changed"},
	RenderInvalidated: {Name: "render_invalidated", Class: ClassHint},
	ExitInit:          {Name: "exit_init", Class: ClassCritical},
	SetModelTime:      {Name: "set_model_time", Payload: PayloadValue, Class: ClassCritical},
	SetRealTime:       {Name: "set_real_time", Payload: PayloadValue, Class: ClassCritical},
	StorageSaved:      {Name: "storage_saved", Payload: PayloadValue},
}

// Valid reports whether t is a defined topic.
func (t Topic) Valid() bool { return t > TopicNone && t < topicCount }

// Info returns the static description of t.
func (t Topic) Info() TopicInfo {
	if !t.Valid() {
		return TopicInfo{Name: fmt.Sprintf("topic(%d)", uint8(t))}
	}
	return topics[t]
}

func (t Topic) String() string { return t.Info().Name }

// IsButton reports whether t is one of the four gesture topics.
func (t Topic) IsButton() bool {
	return t == ButtonPress || t == ButtonLongPress || t == ButtonRepeat || t == ButtonRelease
}
