package queue

import (
	"errors"
	"fmt"

	"github.com/dukex/notiair/pkg/models"
)

var (
	ErrIllegalTransition  = errors.New("illegal queue transition")
	ErrInvalidMaxAttempts = errors.New("max attempts must be at least 1")
	ErrQueueItemNotFound  = errors.New("queue item not found")
	ErrQueueItemExists    = errors.New("queue item already exists")
)

// TransitionError names the rejected (status, event) pair.
type TransitionError struct {
	Status models.QueueStatus
	Event  Event
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%v: %q on %q", ErrIllegalTransition, e.Event, e.Status)
}

func (e *TransitionError) Unwrap() error {
	return ErrIllegalTransition
}
