package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/notiair/pkg/eventbus"
	"github.com/dukex/notiair/pkg/events"
	"github.com/dukex/notiair/pkg/metrics"
	"github.com/dukex/notiair/pkg/models"
	"github.com/dukex/notiair/pkg/persistence"
	"github.com/dukex/notiair/pkg/workflow"
	"github.com/google/uuid"
)

// Workflow manages workflow documents and applies graph edits to them.
type Workflow struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	metrics     *metrics.Collector
	editor      *Editor
	logger      *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewWorkflow creates a new workflow service. publisher and collector may be nil.
func NewWorkflow(
	persistence persistence.Persistence,
	publisher eventbus.EventPublisher,
	collector *metrics.Collector,
	logger *slog.Logger,
) *Workflow {
	return &Workflow{
		persistence: persistence,
		publisher:   publisher,
		metrics:     collector,
		editor:      NewEditor(),
		logger:      logger.With("module", "workflow_service"),
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

func (w *Workflow) List(ctx context.Context) ([]*models.WorkflowDocument, error) {
	docs, err := w.persistence.WorkflowRepository().GetAll(ctx)
	if err != nil {
		return nil, transport("list workflows", err)
	}

	return docs, nil
}

func (w *Workflow) Get(ctx context.Context, id string) (*models.WorkflowDocument, error) {
	doc, err := w.persistence.WorkflowRepository().GetByID(ctx, id)
	if err != nil {
		return nil, transport("get workflow", err)
	}

	return doc, nil
}

// Load returns the canonical workflow stored under id.
func (w *Workflow) Load(ctx context.Context, id string) (*models.Workflow, error) {
	g, _, err := w.load(ctx, id)
	if err != nil {
		return nil, err
	}

	return g.Workflow(), nil
}

// Active returns every active workflow. Documents that no longer decode are
// logged and skipped.
func (w *Workflow) Active(ctx context.Context) ([]*models.Workflow, error) {
	docs, err := w.List(ctx)
	if err != nil {
		return nil, err
	}

	active := make([]*models.Workflow, 0, len(docs))

	for _, doc := range docs {
		if !doc.IsActive {
			continue
		}

		wf, _, err := workflow.FromDocument(doc)
		if err != nil {
			w.logger.WarnContext(ctx, "Skipping undecodable workflow", "workflow_id", doc.ID, "error", err)

			continue
		}

		active = append(active, wf)
	}

	return active, nil
}

// Save creates or replaces a whole workflow document. A missing id is
// generated and the creation time of an existing document is kept. A new
// workflow without nodes is seeded with a manual trigger. Documents saved as
// active must pass validation.
func (w *Workflow) Save(ctx context.Context, doc *models.WorkflowDocument) (*models.WorkflowDocument, error) {
	if strings.TrimSpace(doc.Name) == "" {
		return nil, ErrWorkflowNameRequired
	}

	now := w.now()

	// doc belongs to the caller and stays untouched on every path
	input := *doc
	doc = &input

	var previous *models.WorkflowDocument

	if doc.ID == "" {
		doc.ID = w.newID()
	} else {
		existing, err := w.persistence.WorkflowRepository().GetByID(ctx, doc.ID)
		if err != nil && !persistence.IsNotFound(err) {
			return nil, transport("load workflow", err)
		}

		previous = existing
	}

	wf, layout, err := workflow.FromDocument(doc)
	if err != nil {
		return nil, err
	}

	g, err := workflow.New(wf, workflow.WithIDGenerator(w.newID))
	if err != nil {
		return nil, err
	}

	if previous == nil && len(doc.Nodes) == 0 {
		if _, err := g.AddNode(&models.TriggerConfig{Label: "Trigger", Variant: models.TriggerVariantManual}); err != nil {
			return nil, err
		}
	}

	if doc.IsActive {
		if err := w.canActivate(g); err != nil {
			return nil, err
		}
	}

	saved := g.Workflow()
	saved.CreatedAt = now

	if previous != nil {
		saved.CreatedAt = previous.CreatedAt
	}

	saved.UpdatedAt = now

	out, err := w.store(ctx, saved, layout)
	if err != nil {
		return nil, err
	}

	wasActive := previous != nil && previous.IsActive
	if out.IsActive != wasActive {
		w.publishActivation(ctx, out.ID, out.IsActive)
	}

	w.editor.Apply(out.ID, g, layout)

	return out, nil
}

func (w *Workflow) Delete(ctx context.Context, id string) error {
	err := w.persistence.WorkflowRepository().Delete(ctx, id)
	if err != nil {
		return transport("delete workflow", err)
	}

	w.editor.Forget(id)

	return nil
}

// Activate marks the workflow active. It fails with a *workflow.GraphError
// when the graph is invalid.
func (w *Workflow) Activate(ctx context.Context, id string) (*models.WorkflowDocument, error) {
	return w.setActive(ctx, id, true)
}

func (w *Workflow) Deactivate(ctx context.Context, id string) (*models.WorkflowDocument, error) {
	return w.setActive(ctx, id, false)
}

func (w *Workflow) setActive(ctx context.Context, id string, active bool) (*models.WorkflowDocument, error) {
	g, layout, err := w.load(ctx, id)
	if err != nil {
		return nil, err
	}

	wf := g.Workflow()
	if wf.IsActive == active {
		return workflow.ToDocument(wf, layout)
	}

	if active {
		if err := w.canActivate(g); err != nil {
			return nil, err
		}
	}

	wf.IsActive = active
	wf.UpdatedAt = w.now()

	doc, err := w.store(ctx, wf, layout)
	if err != nil {
		return nil, err
	}

	w.publishActivation(ctx, id, active)

	return doc, nil
}

// Validate returns the structural report of the stored workflow.
func (w *Workflow) Validate(ctx context.Context, id string) (workflow.Report, error) {
	g, _, err := w.load(ctx, id)
	if err != nil {
		return workflow.Report{}, err
	}

	return g.Validate(), nil
}

// AddNode appends a node built from an open config mapping.
func (w *Workflow) AddNode(
	ctx context.Context,
	id string,
	nodeType models.NodeType,
	config map[string]any,
	position models.Position,
) (*models.WorkflowDocument, *models.WorkflowNode, error) {
	typed, err := workflow.DecodeConfig("", nodeType, config)
	if err != nil {
		return nil, nil, err
	}

	var node *models.WorkflowNode

	doc, err := w.edit(ctx, id, func(g *workflow.Graph, layout *workflow.Layout) error {
		added, err := g.AddNode(typed)
		if err != nil {
			return err
		}

		node = added

		return layout.SetPosition(g, added.ID, position)
	})
	if err != nil {
		return nil, nil, err
	}

	return doc, node, nil
}

// RemoveNode deletes a node together with every edge touching it.
func (w *Workflow) RemoveNode(ctx context.Context, id, nodeID string) (*models.WorkflowDocument, error) {
	return w.edit(ctx, id, func(g *workflow.Graph, _ *workflow.Layout) error {
		return g.RemoveNode(nodeID)
	})
}

// UpdateNode replaces the configuration of a node.
func (w *Workflow) UpdateNode(ctx context.Context, id, nodeID string, config map[string]any) (*models.WorkflowDocument, error) {
	return w.edit(ctx, id, func(g *workflow.Graph, _ *workflow.Layout) error {
		node, ok := g.Node(nodeID)
		if !ok {
			return &workflow.NodeError{NodeID: nodeID, Err: workflow.ErrUnknownNode}
		}

		typed, err := workflow.DecodeConfig(nodeID, node.Type, config)
		if err != nil {
			return err
		}

		return g.UpdateNodeConfig(nodeID, typed)
	})
}

// MoveNode changes the editor position of a node.
func (w *Workflow) MoveNode(ctx context.Context, id, nodeID string, position models.Position) (*models.WorkflowDocument, error) {
	return w.edit(ctx, id, func(g *workflow.Graph, layout *workflow.Layout) error {
		return layout.SetPosition(g, nodeID, position)
	})
}

func (w *Workflow) AddEdge(ctx context.Context, id, from, to string) (*models.WorkflowDocument, error) {
	return w.edit(ctx, id, func(g *workflow.Graph, _ *workflow.Layout) error {
		return g.AddEdge(from, to)
	})
}

func (w *Workflow) RemoveEdge(ctx context.Context, id, from, to string) (*models.WorkflowDocument, error) {
	return w.edit(ctx, id, func(g *workflow.Graph, _ *workflow.Layout) error {
		return g.RemoveEdge(from, to)
	})
}

// SetActiveNode focuses a node in the workflow's editing session; an empty
// nodeID clears the focus. Nothing is written to storage.
func (w *Workflow) SetActiveNode(ctx context.Context, id, nodeID string) error {
	g, layout, err := w.load(ctx, id)
	if err != nil {
		return err
	}

	if err := layout.SetActiveNode(g, nodeID); err != nil {
		return err
	}

	w.editor.Store(id, layout)

	return nil
}

// ActiveNode returns the focused node of the workflow's editing session.
func (w *Workflow) ActiveNode(ctx context.Context, id string) (string, bool, error) {
	if _, _, err := w.load(ctx, id); err != nil {
		return "", false, err
	}

	nodeID, ok := w.editor.Active(id)

	return nodeID, ok, nil
}

// edit applies fn to the stored workflow and saves the result. Nothing is
// written when fn fails or when an active workflow would become invalid.
func (w *Workflow) edit(
	ctx context.Context,
	id string,
	fn func(g *workflow.Graph, layout *workflow.Layout) error,
) (*models.WorkflowDocument, error) {
	g, layout, err := w.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := fn(g, layout); err != nil {
		return nil, err
	}

	wf := g.Workflow()
	if wf.IsActive {
		if err := w.canActivate(g); err != nil {
			return nil, err
		}
	}

	layout.Prune(g)
	wf.UpdatedAt = w.now()

	doc, err := w.store(ctx, wf, layout)
	if err != nil {
		return nil, err
	}

	w.editor.Store(id, layout)

	return doc, nil
}

func (w *Workflow) load(ctx context.Context, id string) (*workflow.Graph, *workflow.Layout, error) {
	doc, err := w.persistence.WorkflowRepository().GetByID(ctx, id)
	if err != nil {
		return nil, nil, transport("load workflow", err)
	}

	wf, layout, err := workflow.FromDocument(doc)
	if err != nil {
		return nil, nil, err
	}

	g, err := workflow.New(wf, workflow.WithIDGenerator(w.newID))
	if err != nil {
		return nil, nil, err
	}

	w.editor.Apply(id, g, layout)

	return g, layout, nil
}

func (w *Workflow) store(ctx context.Context, wf *models.Workflow, layout *workflow.Layout) (*models.WorkflowDocument, error) {
	doc, err := workflow.ToDocument(wf, layout)
	if err != nil {
		return nil, err
	}

	if err := w.persistence.WorkflowRepository().Save(ctx, doc); err != nil {
		return nil, transport("save workflow", err)
	}

	return doc, nil
}

func (w *Workflow) canActivate(g *workflow.Graph) error {
	err := g.CanActivate()
	if err != nil {
		w.metrics.ActivationRejected()
	}

	return err
}

func (w *Workflow) publishActivation(ctx context.Context, id string, active bool) {
	if w.publisher == nil {
		return
	}

	var event eventbus.Event
	if active {
		event = events.WorkflowActivated{BaseEvent: events.NewBase(uuid.NewString(), events.WorkflowActivatedEvent, id)}
	} else {
		event = events.WorkflowDeactivated{BaseEvent: events.NewBase(uuid.NewString(), events.WorkflowDeactivatedEvent, id)}
	}

	if err := w.publisher.Publish(ctx, id, event); err != nil {
		w.logger.WarnContext(ctx, "Failed to publish workflow activation", "workflow_id", id, "active", active, "error", err)
	}
}
