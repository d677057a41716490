package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence errors that all implementations return.
var (
	ErrWorkflowNotFound  = errors.New("workflow not found")
	ErrTemplateNotFound  = errors.New("template not found")
	ErrConnectorNotFound = errors.New("connector not found")
	ErrChannelNotFound   = errors.New("channel not found")
)

// EntityError wraps a repository failure with the operation and entity id.
type EntityError struct {
	Op     string // Operation being performed (e.g. "GetByID", "Save", "Delete")
	Entity string
	ID     string
	Err    error
}

func (e *EntityError) Error() string {
	return fmt.Sprintf("%s operation failed for %s %s: %v", e.Op, e.Entity, e.ID, e.Err)
}

func (e *EntityError) Unwrap() error {
	return e.Err
}

func (e *EntityError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewEntityError creates an EntityError.
func NewEntityError(op, entity, id string, err error) *EntityError {
	return &EntityError{Op: op, Entity: entity, ID: id, Err: err}
}

// IsNotFound reports whether err is any of the not found errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound) ||
		errors.Is(err, ErrTemplateNotFound) ||
		errors.Is(err, ErrConnectorNotFound) ||
		errors.Is(err, ErrChannelNotFound)
}
