// Package events defines the messages exchanged over the event bus.
package events

import (
	"time"

	"github.com/dukex/notiair/pkg/models"
)

type EventType string

// Topic carries every notiair event.
const Topic = "notiair.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	DispatchRequestedEvent   EventType = "dispatch.requested"
	QueueItemReportedEvent   EventType = "queue.item.reported"
	QueueItemAdvancedEvent   EventType = "queue.item.advanced"
	WorkflowActivatedEvent   EventType = "workflow.activated"
	WorkflowDeactivatedEvent EventType = "workflow.deactivated"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// NewBase fills the common fields of an event.
func NewBase(id string, eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         id,
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
	}
}

// DispatchRequested hands a rendered notification to the delivery backend.
// TaskID identifies the queue item tracking its delivery.
type DispatchRequested struct {
	BaseEvent

	TaskID      string            `json:"task_id"`
	NodeID      string            `json:"node_id"`
	TemplateID  string            `json:"template_id"`
	ChannelID   string            `json:"channel_id"`
	ConnectorID string            `json:"connector_id,omitempty"`
	Body        string            `json:"body"`
	Variables   map[string]string `json:"variables,omitempty"`
	Payload     map[string]any    `json:"payload,omitempty"`
}

func (e DispatchRequested) GetType() EventType {
	return DispatchRequestedEvent
}

// QueueItemReported is sent by the delivery backend for every delivery event.
type QueueItemReported struct {
	BaseEvent

	TaskID string `json:"task_id"`
	Event  string `json:"event"`
	Error  string `json:"error,omitempty"`
}

func (e QueueItemReported) GetType() EventType {
	return QueueItemReportedEvent
}

// QueueItemAdvanced announces an applied queue transition.
type QueueItemAdvanced struct {
	BaseEvent

	TaskID   string             `json:"task_id"`
	Event    string             `json:"event"`
	From     models.QueueStatus `json:"from"`
	To       models.QueueStatus `json:"to"`
	Attempts int                `json:"attempts"`
}

func (e QueueItemAdvanced) GetType() EventType {
	return QueueItemAdvancedEvent
}

type WorkflowActivated struct {
	BaseEvent
}

func (e WorkflowActivated) GetType() EventType {
	return WorkflowActivatedEvent
}

type WorkflowDeactivated struct {
	BaseEvent
}

func (e WorkflowDeactivated) GetType() EventType {
	return WorkflowDeactivatedEvent
}
