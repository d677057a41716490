// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"time"

	"github.com/dukex/notiair/pkg/models"
	"github.com/google/uuid"
)

// Fixed ids used by the default builders so that they reference each other.
const (
	TriggerNodeID = "trigger"
	ActionNodeID  = "action"
	TemplateID    = "tpl-1"
	ConnectorID   = "conn-1"
	ChannelID     = "ch-1"
)

// CreateTestWorkflowDocument creates a trigger -> action workflow that sends
// TemplateID to ChannelID. Overrides are applied in order.
func CreateTestWorkflowDocument(overrides ...func(*models.WorkflowDocument)) *models.WorkflowDocument {
	now := time.Now().UTC()

	doc := &models.WorkflowDocument{
		ID:   uuid.New().String(),
		Name: "Test Workflow",
		Nodes: []models.NodeDocument{
			{
				ID:       TriggerNodeID,
				Type:     models.NodeTypeTrigger,
				Position: models.Position{X: 100, Y: 200},
				Config: map[string]any{
					"variant":    models.TriggerVariantStream,
					"eventTypes": []any{"order.created"},
				},
			},
			{
				ID:       ActionNodeID,
				Type:     models.NodeTypeAction,
				Position: models.Position{X: 400, Y: 200},
				Config: map[string]any{
					"templateId": TemplateID,
					"channelId":  ChannelID,
				},
			},
		},
		Edges:     []models.WorkflowEdge{{From: TriggerNodeID, To: ActionNodeID}},
		Filters:   map[string]string{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, override := range overrides {
		override(doc)
	}

	return doc
}

// WithActive marks the workflow active.
func WithActive() func(*models.WorkflowDocument) {
	return func(d *models.WorkflowDocument) {
		d.IsActive = true
	}
}

// WithFilters sets the workflow level filters.
func WithFilters(filters map[string]string) func(*models.WorkflowDocument) {
	return func(d *models.WorkflowDocument) {
		d.Filters = filters
	}
}

// WithFilterNode routes trigger -> filter -> action through a new filter node
// binding variables.
func WithFilterNode(id string, variables map[string]string) func(*models.WorkflowDocument) {
	return func(d *models.WorkflowDocument) {
		vars := make(map[string]any, len(variables))
		for k, v := range variables {
			vars[k] = v
		}

		d.Nodes = append(d.Nodes, models.NodeDocument{
			ID:     id,
			Type:   models.NodeTypeFilter,
			Config: map[string]any{"variables": vars},
		})

		edges := make([]models.WorkflowEdge, 0, len(d.Edges)+1)
		for _, e := range d.Edges {
			if e.From == TriggerNodeID && e.To == ActionNodeID {
				continue
			}

			edges = append(edges, e)
		}

		d.Edges = append(edges,
			models.WorkflowEdge{From: TriggerNodeID, To: id},
			models.WorkflowEdge{From: id, To: ActionNodeID},
		)
	}
}

// WithoutEdges disconnects every node.
func WithoutEdges() func(*models.WorkflowDocument) {
	return func(d *models.WorkflowDocument) {
		d.Edges = []models.WorkflowEdge{}
	}
}

// CreateTestTemplate creates the template referenced by the default workflow.
func CreateTestTemplate(overrides ...func(*models.Template)) *models.Template {
	now := time.Now().UTC()

	tpl := &models.Template{
		ID:        TemplateID,
		Name:      "Greeting",
		Body:      "Hi {{name}}",
		Variables: map[string]string{"name": "Recipient name"},
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, override := range overrides {
		override(tpl)
	}

	return tpl
}

// CreateTestConnector creates an active telegram connector.
func CreateTestConnector(overrides ...func(*models.Connector)) *models.Connector {
	now := time.Now().UTC()

	connector := &models.Connector{
		ID:        ConnectorID,
		Type:      models.ConnectorTypeTelegram,
		Name:      "Test Bot",
		Secret:    "123456:ABC",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, override := range overrides {
		override(connector)
	}

	return connector
}

// CreateTestChannel creates the channel referenced by the default workflow.
func CreateTestChannel(overrides ...func(*models.Channel)) *models.Channel {
	now := time.Now().UTC()

	channel := &models.Channel{
		ID:          ChannelID,
		ConnectorID: ConnectorID,
		Name:        "@alerts",
		Description: "Alerts channel",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for _, override := range overrides {
		override(channel)
	}

	return channel
}
