package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/notiair/pkg/eventbus"
	"github.com/dukex/notiair/pkg/events"
	"github.com/dukex/notiair/pkg/metrics"
	"github.com/dukex/notiair/pkg/models"
	"github.com/dukex/notiair/pkg/otelhelper"
	"github.com/dukex/notiair/pkg/queue"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Queue applies delivery events reported by the backend to queue items.
type Queue struct {
	store       queue.Store
	publisher   eventbus.EventPublisher
	maxAttempts int
	tracer      trace.Tracer
	metrics     *metrics.Collector
	logger      *slog.Logger
}

// NewQueue fails with queue.ErrInvalidMaxAttempts when maxAttempts < 1.
func NewQueue(
	store queue.Store,
	publisher eventbus.EventPublisher,
	maxAttempts int,
	tracer trace.Tracer,
	collector *metrics.Collector,
	logger *slog.Logger,
) (*Queue, error) {
	if maxAttempts < 1 {
		return nil, fmt.Errorf("%w: %d", queue.ErrInvalidMaxAttempts, maxAttempts)
	}

	if tracer == nil {
		tracer = otelhelper.NoopTracer()
	}

	return &Queue{
		store:       store,
		publisher:   publisher,
		maxAttempts: maxAttempts,
		tracer:      tracer,
		metrics:     collector,
		logger:      logger.With("module", "queue_service"),
	}, nil
}

func (q *Queue) MaxAttempts() int {
	return q.maxAttempts
}

func (q *Queue) Get(ctx context.Context, taskID string) (models.QueueItem, error) {
	item, err := q.store.Get(ctx, taskID)
	if err != nil {
		return models.QueueItem{}, transport("get queue item", err)
	}

	return item, nil
}

// ListPending returns the items still waiting for or under delivery.
func (q *Queue) ListPending(ctx context.Context) ([]models.QueueItem, error) {
	items, err := q.store.List(ctx, models.QueueStatusPending, models.QueueStatusProcessing)
	if err != nil {
		return nil, transport("list queue", err)
	}

	return items, nil
}

// Report applies event to the item atomically. An illegal transition leaves
// the item unchanged.
func (q *Queue) Report(ctx context.Context, taskID string, event queue.Event) (item models.QueueItem, err error) {
	ctx, span := otelhelper.StartSpan(ctx, q.tracer, "queue.advance",
		attribute.String(otelhelper.TaskIDKey, taskID),
		attribute.String(otelhelper.QueueEventKey, string(event)),
	)
	defer span.End()

	defer func() {
		if err != nil {
			otelhelper.SetError(span, err)
		}
	}()

	if !event.Valid() {
		return models.QueueItem{}, fmt.Errorf("%w: %q", ErrInvalidQueueEvent, event)
	}

	var from models.QueueStatus

	item, err = q.store.Update(ctx, taskID, func(current models.QueueItem) (models.QueueItem, error) {
		from = current.Status

		return queue.Advance(current, event, q.maxAttempts)
	})
	if err != nil {
		if errors.Is(err, queue.ErrIllegalTransition) {
			return models.QueueItem{}, err
		}

		return models.QueueItem{}, transport("advance queue item", err)
	}

	span.SetAttributes(attribute.String(otelhelper.QueueStatusKey, string(item.Status)))
	q.metrics.QueueTransition(string(from), string(item.Status), string(event))

	q.logger.DebugContext(ctx, "Queue item advanced",
		"task_id", taskID,
		"event", event,
		"from", from,
		"to", item.Status,
		"attempts", item.Attempts,
	)

	q.publishAdvanced(ctx, item, event, from)

	return item, nil
}

// HandleReported consumes queue.item.reported events from the bus. Events
// that can never apply are logged and acknowledged.
func (q *Queue) HandleReported(ctx context.Context, event any) error {
	reported, ok := event.(*events.QueueItemReported)
	if !ok {
		return fmt.Errorf("%w: unexpected event %T", ErrInvalidRequest, event)
	}

	_, err := q.Report(ctx, reported.TaskID, queue.Event(reported.Event))
	if err == nil {
		return nil
	}

	if IsValidationError(err) || IsNotFound(err) {
		q.logger.WarnContext(ctx, "Dropping queue report",
			"task_id", reported.TaskID,
			"event", reported.Event,
			"error", err,
		)

		return nil
	}

	return err
}

func (q *Queue) publishAdvanced(ctx context.Context, item models.QueueItem, event queue.Event, from models.QueueStatus) {
	if q.publisher == nil {
		return
	}

	advanced := events.QueueItemAdvanced{
		BaseEvent: events.NewBase(uuid.NewString(), events.QueueItemAdvancedEvent, item.WorkflowID),
		TaskID:    item.TaskID,
		Event:     string(event),
		From:      from,
		To:        item.Status,
		Attempts:  item.Attempts,
	}

	if err := q.publisher.Publish(ctx, item.TaskID, advanced); err != nil {
		q.logger.WarnContext(ctx, "Failed to publish queue transition", "task_id", item.TaskID, "error", err)
	}
}
