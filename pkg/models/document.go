package models

import "time"

// Position is the editor coordinate of a node. It has no semantic effect.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// WorkflowDocument is the persisted and wire shape of a workflow. Node
// configuration is an open mapping here; workflow.FromDocument turns it into
// typed NodeConfig values.
type WorkflowDocument struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"                  validate:"required"`
	Description string            `json:"description,omitempty"`
	Nodes       []NodeDocument    `json:"nodes"                 validate:"dive"`
	Edges       []WorkflowEdge    `json:"edges"                 validate:"dive"`
	Filters     map[string]string `json:"filters"`
	IsActive    bool              `json:"isActive"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// NodeDocument is the persisted and wire shape of a node.
type NodeDocument struct {
	ID       string         `json:"id"       validate:"required"`
	Type     NodeType       `json:"type"     validate:"required,oneof=trigger filter action"`
	Position Position       `json:"position"`
	Config   map[string]any `json:"config"`
}
