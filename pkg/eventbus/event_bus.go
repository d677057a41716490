// Package eventbus publishes and consumes notiair events over watermill.
package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dukex/notiair/pkg/events"
)

var (
	ErrUnknownEventType = errors.New("unknown event type")
	ErrNilHandler       = errors.New("event handler is nil")
)

// Event is anything carrying one of the notiair event types.
type Event interface {
	GetType() events.EventType
}

// EventPublisher sends events. key is the task id for queue and dispatch
// events and the workflow id otherwise; the Kafka channel partitions by it so
// the events of one task stay ordered.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

type EventSubscriber interface {
	// Handle registers the handler of one event type, replacing any earlier one.
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

// EventHandler receives a pointer to the decoded event, e.g.
// *events.QueueItemReported. A returned error nacks the message.
type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}

func newEvent(eventType events.EventType) (any, error) {
	switch eventType {
	case events.DispatchRequestedEvent:
		return &events.DispatchRequested{}, nil
	case events.QueueItemReportedEvent:
		return &events.QueueItemReported{}, nil
	case events.QueueItemAdvancedEvent:
		return &events.QueueItemAdvanced{}, nil
	case events.WorkflowActivatedEvent:
		return &events.WorkflowActivated{}, nil
	case events.WorkflowDeactivatedEvent:
		return &events.WorkflowDeactivated{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, eventType)
	}
}

// DecodeEvent decodes a JSON payload into the struct of eventType.
func DecodeEvent(eventType events.EventType, payload []byte) (any, error) {
	event, err := newEvent(eventType)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(payload, event); err != nil {
		return nil, fmt.Errorf("failed to decode %s event: %w", eventType, err)
	}

	return event, nil
}
