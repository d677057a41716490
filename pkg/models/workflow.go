// Package models defines the core domain models for notification workflows.
package models

import "time"

// Workflow is the canonical trigger -> filter -> action graph.
//
// Nodes keep insertion order; it is not an execution order. Presentation state
// (positions, the focused node) is kept out of this value, see WorkflowDocument.
type Workflow struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"                  validate:"required"`
	Description string            `json:"description,omitempty"`
	Nodes       []*WorkflowNode   `json:"nodes"`
	Edges       []WorkflowEdge    `json:"edges"`
	Filters     map[string]string `json:"filters"`
	IsActive    bool              `json:"isActive"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// WorkflowEdge is a directed connection between two nodes of the same workflow.
type WorkflowEdge struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to"   validate:"required"`
}

// Node returns the node with the given id, or nil.
func (w *Workflow) Node(id string) *WorkflowNode {
	for _, node := range w.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}

// NodesOfType returns the nodes of type t in insertion order.
func (w *Workflow) NodesOfType(t NodeType) []*WorkflowNode {
	out := make([]*WorkflowNode, 0)

	for _, node := range w.Nodes {
		if node.Type == t {
			out = append(out, node)
		}
	}

	return out
}

// Clone returns a deep copy of the workflow.
func (w *Workflow) Clone() *Workflow {
	if w == nil {
		return nil
	}

	clone := *w

	clone.Nodes = make([]*WorkflowNode, len(w.Nodes))
	for i, node := range w.Nodes {
		clone.Nodes[i] = node.Clone()
	}

	clone.Edges = append([]WorkflowEdge(nil), w.Edges...)
	if clone.Edges == nil {
		clone.Edges = []WorkflowEdge{}
	}

	clone.Filters = make(map[string]string, len(w.Filters))
	for k, v := range w.Filters {
		clone.Filters[k] = v
	}

	return &clone
}
