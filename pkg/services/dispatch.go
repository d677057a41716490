package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/notiair/pkg/dispatch"
	"github.com/dukex/notiair/pkg/eventbus"
	"github.com/dukex/notiair/pkg/events"
	"github.com/dukex/notiair/pkg/metrics"
	"github.com/dukex/notiair/pkg/models"
	"github.com/dukex/notiair/pkg/otelhelper"
	"github.com/dukex/notiair/pkg/queue"
	"github.com/dukex/notiair/pkg/workflow"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DispatchRequest triggers a workflow. TemplateID, when set, restricts the
// dispatch to action nodes using that template.
type DispatchRequest struct {
	WorkflowID string            `json:"workflowId" validate:"required"`
	TemplateID string            `json:"templateId"`
	Variables  map[string]string `json:"variables"`
	Payload    map[string]any    `json:"payload"`
}

// SkippedTarget is an action node that was not dispatched.
type SkippedTarget struct {
	NodeID    string `json:"nodeId"`
	ChannelID string `json:"channelId"`
	Reason    string `json:"reason"`
}

// DispatchResult lists the queued items. Unsent is only filled when Dispatch
// fails part way: those targets were rolled back and never published.
type DispatchResult struct {
	Items   []models.QueueItem `json:"items"`
	Skipped []SkippedTarget    `json:"skipped"`
	Unsent  []SkippedTarget    `json:"unsent,omitempty"`
}

// Dispatcher renders the action nodes of a triggered workflow and hands them
// to the delivery backend as queue items.
type Dispatcher struct {
	workflows  *Workflow
	templates  *Template
	connectors *Connector
	store      queue.Store
	publisher  eventbus.EventPublisher
	tracer     trace.Tracer
	metrics    *metrics.Collector
	logger     *slog.Logger

	now   func() time.Time
	newID func() string
}

func NewDispatcher(
	workflows *Workflow,
	templates *Template,
	connectors *Connector,
	store queue.Store,
	publisher eventbus.EventPublisher,
	tracer trace.Tracer,
	collector *metrics.Collector,
	logger *slog.Logger,
) *Dispatcher {
	if tracer == nil {
		tracer = otelhelper.NoopTracer()
	}

	return &Dispatcher{
		workflows:  workflows,
		templates:  templates,
		connectors: connectors,
		store:      store,
		publisher:  publisher,
		tracer:     tracer,
		metrics:    collector,
		logger:     logger.With("module", "dispatcher"),
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
}

// Dispatch assembles every target action node of the workflow before any
// queue item is written; an assembly error leaves nothing behind. Targets
// behind a muted channel or an inactive connector are skipped. When every
// target is skipped the first skip reason is returned as the error.
//
// Every queue item is created before the first one is published. A failed
// create removes the items created so far. A failed publish removes the
// items not yet published and returns the partial result with the error, so
// callers can see which notifications already went out.
func (d *Dispatcher) Dispatch(ctx context.Context, req DispatchRequest) (result *DispatchResult, err error) {
	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "dispatch",
		attribute.String(otelhelper.WorkflowIDKey, req.WorkflowID),
		attribute.String(otelhelper.TemplateIDKey, req.TemplateID),
	)
	defer span.End()

	defer func() {
		if err != nil {
			otelhelper.SetError(span, err)
			d.metrics.Dispatch("failed")
		}
	}()

	wf, err := d.workflows.Load(ctx, req.WorkflowID)
	if err != nil {
		return nil, err
	}

	if !wf.IsActive {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowInactive, wf.ID)
	}

	g, err := workflow.New(wf)
	if err != nil {
		return nil, err
	}

	targets := make([]*models.WorkflowNode, 0)

	for _, node := range wf.NodesOfType(models.NodeTypeAction) {
		cfg, ok := node.Action()
		if !ok {
			continue
		}

		if req.TemplateID != "" && cfg.TemplateID != req.TemplateID {
			continue
		}

		targets = append(targets, node)
	}

	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoDispatchTargets, wf.ID)
	}

	templates := make(map[string]models.Template)
	requests := make([]dispatch.Request, 0, len(targets))
	skipped := make([]SkippedTarget, 0)

	var skipErr error

	for _, node := range targets {
		cfg, _ := node.Action()

		channel, connector, err := d.connectors.ResolveChannel(ctx, cfg.ChannelID)
		if err != nil {
			return nil, err
		}

		if reason := unavailable(channel, connector); reason != nil {
			skipped = append(skipped, SkippedTarget{NodeID: node.ID, ChannelID: channel.ID, Reason: reason.Error()})
			if skipErr == nil {
				skipErr = fmt.Errorf("%w: node %s", reason, node.ID)
			}

			continue
		}

		tpl, ok := templates[cfg.TemplateID]
		if !ok {
			stored, err := d.templates.Get(ctx, cfg.TemplateID)
			if err != nil {
				return nil, err
			}

			tpl = *stored
			templates[tpl.ID] = tpl
		}

		request, err := dispatch.Assemble(wf, node, tpl, *channel, req.Variables, upstreamFilterVariables(g, wf, node.ID)...)
		if err != nil {
			return nil, err
		}

		requests = append(requests, request)
	}

	if len(requests) == 0 {
		return nil, skipErr
	}

	items, err := d.createItems(ctx, requests)
	if err != nil {
		return nil, err
	}

	result = &DispatchResult{Items: make([]models.QueueItem, 0, len(items)), Skipped: skipped}

	for i, item := range items {
		if err := d.publish(ctx, item, requests[i], req.Payload); err != nil {
			d.rollback(ctx, items[i:])

			for j := i; j < len(items); j++ {
				result.Unsent = append(result.Unsent, SkippedTarget{
					NodeID:    requests[j].NodeID(),
					ChannelID: requests[j].ChannelID(),
					Reason:    err.Error(),
				})
			}

			return result, err
		}

		result.Items = append(result.Items, item)
		d.metrics.Dispatch("queued")
	}

	for range skipped {
		d.metrics.Dispatch("skipped")
	}

	d.logger.InfoContext(ctx, "Workflow dispatched",
		"workflow_id", wf.ID,
		"queued", len(result.Items),
		"skipped", len(result.Skipped),
	)

	return result, nil
}

func (d *Dispatcher) createItems(ctx context.Context, requests []dispatch.Request) ([]models.QueueItem, error) {
	now := d.now()
	items := make([]models.QueueItem, 0, len(requests))

	for _, request := range requests {
		item := models.QueueItem{
			TaskID:     d.newID(),
			WorkflowID: request.WorkflowID(),
			ChannelID:  request.ChannelID(),
			TemplateID: request.TemplateID(),
			Status:     models.QueueStatusPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		if err := d.store.Create(ctx, item); err != nil {
			d.rollback(ctx, items)

			return nil, transport("enqueue dispatch", err)
		}

		items = append(items, item)
	}

	return items, nil
}

func (d *Dispatcher) publish(ctx context.Context, item models.QueueItem, request dispatch.Request, payload map[string]any) error {
	if d.publisher == nil {
		return nil
	}

	event := events.DispatchRequested{
		BaseEvent:   events.NewBase(d.newID(), events.DispatchRequestedEvent, request.WorkflowID()),
		TaskID:      item.TaskID,
		NodeID:      request.NodeID(),
		TemplateID:  request.TemplateID(),
		ChannelID:   request.ChannelID(),
		ConnectorID: request.ConnectorID(),
		Body:        request.RenderedBody(),
		Variables:   request.Variables(),
		Payload:     payload,
	}

	if err := d.publisher.Publish(ctx, item.TaskID, event); err != nil {
		return transport("publish dispatch", err)
	}

	return nil
}

// rollback removes items that were stored but never published. Failures are
// logged; the caller already reports the original error.
func (d *Dispatcher) rollback(ctx context.Context, items []models.QueueItem) {
	for _, item := range items {
		if err := d.store.Delete(ctx, item.TaskID); err != nil {
			d.logger.ErrorContext(ctx, "Failed to remove unsent queue item", "task_id", item.TaskID, "error", err)

			continue
		}

		d.metrics.Dispatch("rolled_back")
	}
}

func unavailable(channel *models.Channel, connector *models.Connector) error {
	switch {
	case channel.Muted:
		return ErrChannelMuted
	case !connector.IsActive:
		return ErrConnectorInactive
	default:
		return nil
	}
}

// upstreamFilterVariables returns the variables of every filter node with a
// path to nodeID, in workflow node order.
func upstreamFilterVariables(g *workflow.Graph, wf *models.Workflow, nodeID string) []map[string]string {
	seen := map[string]bool{nodeID: true}
	pending := []string{nodeID}

	for len(pending) > 0 {
		current := pending[0]
		pending = pending[1:]

		for _, pred := range g.Predecessors(current) {
			if !seen[pred] {
				seen[pred] = true
				pending = append(pending, pred)
			}
		}
	}

	out := make([]map[string]string, 0)

	for _, node := range wf.Nodes {
		if node.ID == nodeID || !seen[node.ID] {
			continue
		}

		if cfg, ok := node.Filter(); ok && len(cfg.Variables) > 0 {
			out = append(out, cfg.Variables)
		}
	}

	return out
}
