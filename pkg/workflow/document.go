package workflow

import (
	"github.com/dukex/notiair/pkg/models"
)

// FromDocument splits a stored document into the canonical workflow and its
// layout overlay.
func FromDocument(doc *models.WorkflowDocument) (*models.Workflow, *Layout, error) {
	wf := &models.Workflow{
		ID:          doc.ID,
		Name:        doc.Name,
		Description: doc.Description,
		Nodes:       make([]*models.WorkflowNode, 0, len(doc.Nodes)),
		Edges:       append([]models.WorkflowEdge{}, doc.Edges...),
		Filters:     make(map[string]string, len(doc.Filters)),
		IsActive:    doc.IsActive,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}

	for k, v := range doc.Filters {
		wf.Filters[k] = v
	}

	layout := NewLayout()

	for _, nd := range doc.Nodes {
		config, err := DecodeConfig(nd.ID, nd.Type, nd.Config)
		if err != nil {
			return nil, nil, err
		}

		wf.Nodes = append(wf.Nodes, &models.WorkflowNode{
			ID:     nd.ID,
			Type:   nd.Type,
			Config: config,
		})

		layout.positions[nd.ID] = nd.Position
	}

	return wf, layout, nil
}

// ToDocument joins a workflow and its layout into the stored document shape.
// A nil layout places every node at the origin. The focused node is never
// written.
func ToDocument(wf *models.Workflow, layout *Layout) (*models.WorkflowDocument, error) {
	doc := &models.WorkflowDocument{
		ID:          wf.ID,
		Name:        wf.Name,
		Description: wf.Description,
		Nodes:       make([]models.NodeDocument, 0, len(wf.Nodes)),
		Edges:       append([]models.WorkflowEdge{}, wf.Edges...),
		Filters:     make(map[string]string, len(wf.Filters)),
		IsActive:    wf.IsActive,
		CreatedAt:   wf.CreatedAt,
		UpdatedAt:   wf.UpdatedAt,
	}

	for k, v := range wf.Filters {
		doc.Filters[k] = v
	}

	for _, node := range wf.Nodes {
		raw, err := EncodeConfig(node.Config)
		if err != nil {
			return nil, &NodeError{NodeID: node.ID, Err: err}
		}

		doc.Nodes = append(doc.Nodes, models.NodeDocument{
			ID:       node.ID,
			Type:     node.Type,
			Position: layout.Position(node.ID),
			Config:   raw,
		})
	}

	return doc, nil
}
