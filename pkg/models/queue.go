package models

import "time"

// QueueStatus is the delivery state of a queue item.
type QueueStatus string

const (
	QueueStatusPending    QueueStatus = "pending"
	QueueStatusProcessing QueueStatus = "processing"
	QueueStatusFailed     QueueStatus = "failed"
	QueueStatusCompleted  QueueStatus = "completed"
)

// Valid reports whether s is one of the four known statuses.
func (s QueueStatus) Valid() bool {
	switch s {
	case QueueStatusPending, QueueStatusProcessing, QueueStatusFailed, QueueStatusCompleted:
		return true
	default:
		return false
	}
}

// QueueItem tracks delivery attempts for one (workflow, channel) dispatch.
// WorkflowID and ChannelID are lookup keys only.
type QueueItem struct {
	TaskID     string      `json:"taskId"`
	WorkflowID string      `json:"workflowId"`
	ChannelID  string      `json:"channelId"`
	TemplateID string      `json:"templateId,omitempty"`
	Attempts   int         `json:"attempts"`
	Status     QueueStatus `json:"status"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}
