package events

import (
	"context"
	"time"
)

const (
	TypeSessionCreated = "session.created"
	TypeSessionDeleted = "session.deleted"
	TypeSessionEvicted = "session.evicted"
	TypeQueryProcessed = "query.processed"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "session.created").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the plain Event implementation used across the service.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Publisher delivers events to a bus.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event Event) error { return nil }

func SessionEvent(eventType, sessionID string, at time.Time) BaseEvent {
	return BaseEvent{
		Type:       eventType,
		Data:       map[string]interface{}{"session_id": sessionID},
		OccurredAt: at,
	}
}
