package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dukex/notiair/pkg/metrics"
	"github.com/dukex/notiair/pkg/models"
	"github.com/dukex/notiair/pkg/services"
)

// WorkflowSource lists the workflows that may be triggered.
type WorkflowSource interface {
	Active(ctx context.Context) ([]*models.Workflow, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, req services.DispatchRequest) (*services.DispatchResult, error)
}

// Processor turns a raw stream message into workflow dispatches.
type Processor struct {
	workflows  WorkflowSource
	dispatcher Dispatcher
	recent     RecentStore
	metrics    *metrics.Collector
	logger     *slog.Logger
}

// NewProcessor creates a processor. recent and collector may be nil.
func NewProcessor(
	workflows WorkflowSource,
	dispatcher Dispatcher,
	recent RecentStore,
	collector *metrics.Collector,
	logger *slog.Logger,
) *Processor {
	return &Processor{
		workflows:  workflows,
		dispatcher: dispatcher,
		recent:     recent,
		metrics:    collector,
		logger:     logger.With("module", "stream_processor"),
	}
}

// Process handles one message. Undecodable messages are dropped. An error is
// returned only when the workflows could not be listed, so that the message is
// consumed again; failed dispatches of single workflows are logged.
func (p *Processor) Process(ctx context.Context, data []byte) error {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		p.logger.WarnContext(ctx, "Dropping undecodable stream message", "error", err)

		return nil
	}

	if event.EventType == "" {
		p.logger.WarnContext(ctx, "Dropping stream message without event type", "event_id", event.EventID)

		return nil
	}

	if p.recent != nil {
		if err := p.recent.Save(ctx, event); err != nil {
			p.logger.WarnContext(ctx, "Failed to store recent stream event", "event_id", event.EventID, "error", err)
		}
	}

	workflows, err := p.workflows.Active(ctx)
	if err != nil {
		return fmt.Errorf("failed to list workflows: %w", err)
	}

	matched := 0

	for _, wf := range workflows {
		if !Matches(wf, event.EventType) {
			continue
		}

		matched++

		result, err := p.dispatcher.Dispatch(ctx, services.DispatchRequest{
			WorkflowID: wf.ID,
			Variables:  event.Variables(),
			Payload:    event.Payload(),
		})
		if err != nil {
			p.logger.ErrorContext(ctx, "Failed to dispatch workflow for stream event",
				"workflow_id", wf.ID,
				"event_id", event.EventID,
				"event_type", event.EventType,
				"error", err,
			)

			continue
		}

		p.logger.InfoContext(ctx, "Dispatched workflow for stream event",
			"workflow_id", wf.ID,
			"event_id", event.EventID,
			"event_type", event.EventType,
			"queued", len(result.Items),
		)
	}

	p.metrics.StreamEvent(event.EventType, matched)

	return nil
}
