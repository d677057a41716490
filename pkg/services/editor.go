package services

import (
	"sync"

	"github.com/dukex/notiair/pkg/workflow"
)

// Editor keeps the node focused in each workflow's editing session. The focus
// is presentation state and is never persisted.
type Editor struct {
	mu     sync.RWMutex
	active map[string]string
}

func NewEditor() *Editor {
	return &Editor{active: make(map[string]string)}
}

// Apply puts the session's focused node on layout, dropping it when the node
// is no longer part of g.
func (e *Editor) Apply(workflowID string, g *workflow.Graph, layout *workflow.Layout) {
	e.mu.RLock()
	nodeID := e.active[workflowID]
	e.mu.RUnlock()

	if nodeID == "" {
		return
	}

	if err := layout.SetActiveNode(g, nodeID); err != nil {
		e.Forget(workflowID)
	}
}

// Store records the focus currently set on layout.
func (e *Editor) Store(workflowID string, layout *workflow.Layout) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if nodeID, ok := layout.ActiveNode(); ok {
		e.active[workflowID] = nodeID

		return
	}

	delete(e.active, workflowID)
}

// Active returns the focused node of a workflow's session.
func (e *Editor) Active(workflowID string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	nodeID, ok := e.active[workflowID]

	return nodeID, ok
}

// Forget ends the session of a workflow.
func (e *Editor) Forget(workflowID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.active, workflowID)
}
