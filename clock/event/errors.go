package event

import "errors"

var (
	// ErrNotInitialized is returned when publishing on a bus that was never created.
	ErrNotInitialized = errors.New("event bus not initialized")

	// ErrQueueFull is returned when the delivery queue cannot take the event.
	ErrQueueFull = errors.New("event queue is full")

	// ErrUnknownTopic is returned for events or subscriptions on an undefined topic.
	ErrUnknownTopic = errors.New("unknown topic")

	// ErrPayloadMismatch is returned when the payload does not match the topic.
	ErrPayloadMismatch = errors.New("payload does not match topic")

	// ErrNilHandler is returned when subscribing a nil handler.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrAlreadyRunning is returned when Run is called twice.
	ErrAlreadyRunning = errors.New("event bus is already running")
)
