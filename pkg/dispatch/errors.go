package dispatch

import (
	"errors"
	"fmt"

	"github.com/dukex/notiair/pkg/models"
)

var (
	ErrConfigMismatch = errors.New("action config mismatch")
	ErrNotActionNode  = errors.New("node is not an action node")
	ErrNoWorkflow     = errors.New("workflow is required")
)

// MismatchError names the action config field that does not match the
// resolved resource.
type MismatchError struct {
	NodeID string
	Field  string
	Want   string
	Got    string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%v: node %q %s is %q, got %q", ErrConfigMismatch, e.NodeID, e.Field, e.Want, e.Got)
}

func (e *MismatchError) Unwrap() error {
	return ErrConfigMismatch
}

func notAction(node *models.WorkflowNode) error {
	if node == nil {
		return ErrNotActionNode
	}

	return fmt.Errorf("%w: %q has type %q", ErrNotActionNode, node.ID, node.Type)
}
