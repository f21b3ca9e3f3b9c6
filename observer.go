package modhost

import (
	"context"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// CloudEvent is an alias for the CloudEvents Event type for convenience.
type CloudEvent = cloudevents.Event

// Observer is notified of mod lifecycle events. Observers register with a
// Subject (the ModHost) and should handle events quickly to avoid delaying
// other observers.
type Observer interface {
	// OnEvent is called when an event the observer subscribed to occurs.
	OnEvent(ctx context.Context, event CloudEvent) error

	// ObserverID returns a unique identifier used for registration
	// tracking and debugging.
	ObserverID() string
}

// Subject emits mod lifecycle events to registered observers.
type Subject interface {
	// RegisterObserver adds an observer, optionally filtered by event
	// type. An empty filter receives all events.
	RegisterObserver(observer Observer, eventTypes ...string) error

	// UnregisterObserver removes an observer. Idempotent.
	UnregisterObserver(observer Observer) error

	// NotifyObservers delivers an event to all interested observers.
	// Observer errors are logged, not propagated.
	NotifyObservers(ctx context.Context, event CloudEvent) error
}

// Event type constants for mod lifecycle events, in reverse-domain form
// per the CloudEvents convention.
const (
	EventTypeModLoaded   = "com.modhost.mod.loaded"
	EventTypeModFailed   = "com.modhost.mod.failed"
	EventTypeModDisabled = "com.modhost.mod.disabled"
	EventTypeModRetried  = "com.modhost.mod.retried"

	EventTypeBatchStarted = "com.modhost.batch.started"
	EventTypeBatchSettled = "com.modhost.batch.settled"
	EventTypeBatchForced  = "com.modhost.batch.forceskip"

	EventTypeReloadStarted   = "com.modhost.reload.started"
	EventTypeReloadCompleted = "com.modhost.reload.completed"
	EventTypeReloadFailed    = "com.modhost.reload.failed"
)

// eventSource identifies the engine as the CloudEvents source.
const eventSource = "modhost"

// NewModEvent creates a CloudEvent for a mod lifecycle edge. IDs are
// UUIDv7 so events sort by time.
func NewModEvent(eventType string, data any) CloudEvent {
	event := cloudevents.NewEvent()
	event.SetID(newEventID())
	event.SetSource(eventSource)
	event.SetType(eventType)
	event.SetTime(time.Now())
	event.SetSpecVersion(cloudevents.VersionV1)
	if data != nil {
		_ = event.SetData(cloudevents.ApplicationJSON, data)
	}
	return event
}

func newEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}

// FuncObserver adapts a function to the Observer interface for quick
// observer creation without a dedicated type.
type FuncObserver struct {
	id      string
	handler func(ctx context.Context, event CloudEvent) error
}

// NewFuncObserver creates an observer that delegates to handler.
func NewFuncObserver(id string, handler func(ctx context.Context, event CloudEvent) error) *FuncObserver {
	return &FuncObserver{id: id, handler: handler}
}

// OnEvent implements Observer.
func (o *FuncObserver) OnEvent(ctx context.Context, event CloudEvent) error {
	return o.handler(ctx, event)
}

// ObserverID implements Observer.
func (o *FuncObserver) ObserverID() string {
	return o.id
}
