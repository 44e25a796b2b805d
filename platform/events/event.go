// Package events carries the in-process event bus the modules talk over.
// Event type definitions live with the domain; only the plumbing is here.
package events

import (
	"context"
	"time"
)

// Event is implemented by every domain event put on the bus.
type Event interface {
	// EventName identifies the event type for subscription routing.
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent supplies the timestamp common to all events. Embed it and set
// it with NewBaseEvent at publish time.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler processes events of a specific type.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus publishes domain events to subscribed handlers.
type Bus interface {
	// Publish dispatches the event asynchronously. Handler errors are
	// logged by the bus, never returned to the publisher.
	Publish(ctx context.Context, event Event)

	// PublishSync runs the handlers inline and returns their combined
	// errors. For flows that must observe delivery.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler for events whose EventName matches.
	Subscribe(eventName string, handler Handler)
}
