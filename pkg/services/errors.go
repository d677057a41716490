// Package services provides standardized error types for service layer operations.
package services

import (
	"errors"
	"fmt"

	"github.com/dukex/notiair/pkg/dispatch"
	"github.com/dukex/notiair/pkg/persistence"
	"github.com/dukex/notiair/pkg/queue"
	"github.com/dukex/notiair/pkg/template"
	"github.com/dukex/notiair/pkg/workflow"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest        = errors.New("invalid request")
	ErrWorkflowNameRequired  = errors.New("workflow name is required")
	ErrTemplateNameRequired  = errors.New("template name is required")
	ErrTemplateBodyRequired  = errors.New("template body is required")
	ErrConnectorNameRequired = errors.New("connector name is required")
	ErrConnectorSecret       = errors.New("connector secret is required")
	ErrChannelNameRequired   = errors.New("channel name is required")
	ErrNoDispatchTargets     = errors.New("workflow has no action node to dispatch")
	ErrInvalidQueueEvent     = errors.New("invalid queue event")

	// Business Logic Conflicts (409 Conflict).
	ErrWorkflowInactive  = errors.New("workflow is not active")
	ErrChannelMuted      = errors.New("channel is muted")
	ErrConnectorInactive = errors.New("connector is not active")

	// ErrTransport marks failures of a collaborator (storage, event bus).
	ErrTransport = errors.New("transport failure")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// TransportError reports a failed call to a collaborator. It matches
// ErrTransport and the underlying error.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrTransport, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// transport wraps err as a TransportError unless it is a not found error,
// which callers handle as a regular outcome.
func transport(op string, err error) error {
	if err == nil {
		return nil
	}

	if IsNotFound(err) {
		return err
	}

	return &TransportError{Op: op, Err: err}
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrWorkflowNameRequired) ||
		errors.Is(err, ErrTemplateNameRequired) ||
		errors.Is(err, ErrTemplateBodyRequired) ||
		errors.Is(err, ErrConnectorNameRequired) ||
		errors.Is(err, ErrConnectorSecret) ||
		errors.Is(err, ErrChannelNameRequired) ||
		errors.Is(err, ErrNoDispatchTargets) ||
		errors.Is(err, ErrInvalidQueueEvent) ||
		errors.Is(err, template.ErrMissingVariable) ||
		errors.Is(err, template.ErrMalformedPlaceholder) ||
		errors.Is(err, template.ErrUndeclaredVariable) ||
		errors.Is(err, workflow.ErrUnknownNode) ||
		errors.Is(err, workflow.ErrUnknownEdge) ||
		errors.Is(err, workflow.ErrSelfLoop) ||
		errors.Is(err, workflow.ErrDuplicateEdge) ||
		errors.Is(err, workflow.ErrDuplicateNode) ||
		errors.Is(err, workflow.ErrInvalidGraph) ||
		errors.Is(err, workflow.ErrInvalidNodeConfig) ||
		errors.Is(err, dispatch.ErrConfigMismatch) ||
		errors.Is(err, dispatch.ErrNotActionNode) ||
		errors.Is(err, dispatch.ErrNoWorkflow) ||
		errors.Is(err, queue.ErrIllegalTransition)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrWorkflowInactive) ||
		errors.Is(err, ErrChannelMuted) ||
		errors.Is(err, ErrConnectorInactive) ||
		errors.Is(err, queue.ErrQueueItemExists)
}

// IsNotFound checks if an error names a missing entity (HTTP 404).
func IsNotFound(err error) bool {
	return persistence.IsNotFound(err) || errors.Is(err, queue.ErrQueueItemNotFound)
}

// IsTransportError checks if an error is a collaborator failure (HTTP 503).
func IsTransportError(err error) bool {
	return errors.Is(err, ErrTransport)
}
