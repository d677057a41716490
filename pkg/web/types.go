// Package web provides HTTP request and response types for the notification API.
package web

import "github.com/dukex/notiair/pkg/models"

// SaveTemplateRequest creates or replaces a template.
type SaveTemplateRequest struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"        validate:"required"`
	Description string            `json:"description"`
	Body        string            `json:"body"        validate:"required"`
	Variables   map[string]string `json:"variables"`
}

type PreviewTemplateRequest struct {
	Variables map[string]string `json:"variables"`
}

type PreviewTemplateResponse struct {
	Body string `json:"body"`
}

// AddNodeRequest appends a node to a workflow. Config is validated against
// the schema of Type.
type AddNodeRequest struct {
	Type     models.NodeType `json:"type"     validate:"required,oneof=trigger filter action"`
	Config   map[string]any  `json:"config"`
	Position models.Position `json:"position"`
}

type AddNodeResponse struct {
	Workflow *models.WorkflowDocument `json:"workflow"`
	NodeID   string                   `json:"nodeId"`
}

type UpdateNodeRequest struct {
	Config map[string]any `json:"config" validate:"required"`
}

type EdgeRequest struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to"   validate:"required"`
}

// ActiveNodeRequest focuses a node; an empty NodeID clears the focus.
type ActiveNodeRequest struct {
	NodeID string `json:"nodeId"`
}

type ActiveNodeResponse struct {
	NodeID *string `json:"nodeId"`
}

type QueueEventRequest struct {
	Event string `json:"event" validate:"required,oneof=started succeeded failed retryRequested"`
}

// SaveConnectorRequest creates or replaces a telegram connector. IsActive
// defaults to true.
type SaveConnectorRequest struct {
	Name     string `json:"name"     validate:"required"`
	Secret   string `json:"secret"   validate:"required"`
	Comment  string `json:"comment"`
	IsActive *bool  `json:"isActive"`
}

type SetActiveRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

type SaveChannelRequest struct {
	Name        string `json:"name"        validate:"required"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
	Muted       bool   `json:"muted"`
}
