// Package queue implements the delivery state machine of queue items and the
// stores that apply it atomically per task.
package queue

import (
	"fmt"
	"time"

	"github.com/dukex/notiair/pkg/models"
)

// Event is an externally reported delivery event.
type Event string

const (
	EventStarted        Event = "started"
	EventSucceeded      Event = "succeeded"
	EventFailed         Event = "failed"
	EventRetryRequested Event = "retryRequested"
)

// Valid reports whether e is a known event.
func (e Event) Valid() bool {
	switch e {
	case EventStarted, EventSucceeded, EventFailed, EventRetryRequested:
		return true
	default:
		return false
	}
}

// Terminal reports whether item reached a final state: completed, or failed
// at the attempts ceiling. A terminal failed item only accepts retryRequested.
func Terminal(item models.QueueItem, maxAttempts int) bool {
	switch item.Status {
	case models.QueueStatusCompleted:
		return true
	case models.QueueStatusFailed:
		return item.Attempts >= maxAttempts
	default:
		return false
	}
}

// Advance applies event to item and returns the resulting item. The input is
// never modified; on error it is returned unchanged.
//
//	pending    --started-->        processing
//	processing --succeeded-->      completed
//	processing --failed-->         pending (attempts+1 < max) | failed
//	failed     --retryRequested--> pending (attempts kept, only when terminal)
func Advance(item models.QueueItem, event Event, maxAttempts int) (models.QueueItem, error) {
	if maxAttempts < 1 {
		return item, fmt.Errorf("%w: %d", ErrInvalidMaxAttempts, maxAttempts)
	}

	next := item

	switch {
	case item.Status == models.QueueStatusPending && event == EventStarted:
		next.Status = models.QueueStatusProcessing
	case item.Status == models.QueueStatusProcessing && event == EventSucceeded:
		next.Status = models.QueueStatusCompleted
	case item.Status == models.QueueStatusProcessing && event == EventFailed:
		next.Attempts++
		if next.Attempts < maxAttempts {
			next.Status = models.QueueStatusPending
		} else {
			next.Status = models.QueueStatusFailed
		}
	case event == EventRetryRequested && item.Status == models.QueueStatusFailed && Terminal(item, maxAttempts):
		next.Status = models.QueueStatusPending
	default:
		return item, &TransitionError{Status: item.Status, Event: event}
	}

	next.UpdatedAt = time.Now().UTC()

	return next, nil
}
