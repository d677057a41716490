package services

import (
	"errors"
	"testing"
	"time"

	"github.com/dukex/notiair/pkg/events"
	"github.com/dukex/notiair/pkg/mocks"
	"github.com/dukex/notiair/pkg/models"
	"github.com/dukex/notiair/pkg/queue"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func createItem(t *testing.T, f *fixture, taskID string, status models.QueueStatus, attempts int) {
	t.Helper()

	now := time.Now().UTC()
	require.NoError(t, f.store.Create(t.Context(), models.QueueItem{
		TaskID:     taskID,
		WorkflowID: "wf-1",
		ChannelID:  "ch-1",
		Status:     status,
		Attempts:   attempts,
		CreatedAt:  now,
		UpdatedAt:  now,
	}))
}

func TestNewQueue_InvalidMaxAttempts(t *testing.T) {
	_, err := NewQueue(queue.NewMemoryStore(), nil, 0, nil, nil, discardLogger())
	require.ErrorIs(t, err, queue.ErrInvalidMaxAttempts)
}

func TestQueue_ReportFailedRetries(t *testing.T) {
	f := newFixture(t)
	createItem(t, f, "task-1", models.QueueStatusProcessing, 0)

	item, err := f.queue.Report(t.Context(), "task-1", queue.EventFailed)
	require.NoError(t, err)
	assert.Equal(t, models.QueueStatusPending, item.Status)
	assert.Equal(t, 1, item.Attempts)

	published := f.published()
	require.Len(t, published, 1)

	advanced, ok := published[0].(events.QueueItemAdvanced)
	require.True(t, ok)
	assert.Equal(t, models.QueueStatusProcessing, advanced.From)
	assert.Equal(t, models.QueueStatusPending, advanced.To)
	assert.Equal(t, 1, advanced.Attempts)

	assert.InDelta(t, 1, promtest.ToFloat64(f.metrics.QueueTransitions.WithLabelValues("processing", "pending", "failed")), 0)
}

func TestQueue_ReportReachesCeiling(t *testing.T) {
	f := newFixture(t)
	createItem(t, f, "task-1", models.QueueStatusProcessing, 2)

	item, err := f.queue.Report(t.Context(), "task-1", queue.EventFailed)
	require.NoError(t, err)
	assert.Equal(t, models.QueueStatusFailed, item.Status)
	assert.Equal(t, 3, item.Attempts)

	_, err = f.queue.Report(t.Context(), "task-1", queue.EventStarted)
	require.ErrorIs(t, err, queue.ErrIllegalTransition)
	assert.True(t, IsValidationError(err))

	stored, err := f.queue.Get(t.Context(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, models.QueueStatusFailed, stored.Status)
	assert.Equal(t, 3, stored.Attempts)

	item, err = f.queue.Report(t.Context(), "task-1", queue.EventRetryRequested)
	require.NoError(t, err)
	assert.Equal(t, models.QueueStatusPending, item.Status)
	assert.Equal(t, 3, item.Attempts)
}

func TestQueue_ReportRejectsUnknownEventAndTask(t *testing.T) {
	f := newFixture(t)
	createItem(t, f, "task-1", models.QueueStatusPending, 0)

	_, err := f.queue.Report(t.Context(), "task-1", queue.Event("exploded"))
	require.ErrorIs(t, err, ErrInvalidQueueEvent)
	assert.True(t, IsValidationError(err))

	_, err = f.queue.Report(t.Context(), "missing", queue.EventStarted)
	require.ErrorIs(t, err, queue.ErrQueueItemNotFound)
	assert.True(t, IsNotFound(err))
}

func TestQueue_ListPending(t *testing.T) {
	f := newFixture(t)
	createItem(t, f, "a", models.QueueStatusPending, 0)
	createItem(t, f, "b", models.QueueStatusProcessing, 0)
	createItem(t, f, "c", models.QueueStatusCompleted, 0)
	createItem(t, f, "d", models.QueueStatusFailed, 3)

	items, err := f.queue.ListPending(t.Context())
	require.NoError(t, err)

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.TaskID)
	}

	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}

func TestQueue_HandleReported(t *testing.T) {
	f := newFixture(t)
	createItem(t, f, "task-1", models.QueueStatusPending, 0)

	err := f.queue.HandleReported(t.Context(), &events.QueueItemReported{TaskID: "task-1", Event: "started"})
	require.NoError(t, err)

	item, err := f.queue.Get(t.Context(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, models.QueueStatusProcessing, item.Status)

	err = f.queue.HandleReported(t.Context(), &events.QueueItemReported{TaskID: "task-1", Event: "started"})
	require.NoError(t, err, "illegal reports are acknowledged")

	err = f.queue.HandleReported(t.Context(), &events.QueueItemReported{TaskID: "missing", Event: "started"})
	require.NoError(t, err)

	err = f.queue.HandleReported(t.Context(), "not an event")
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestQueue_StoreFailures(t *testing.T) {
	store := &mocks.MockQueueStore{}
	down := errors.New("connection refused")

	store.On("List", mock.Anything, []models.QueueStatus{models.QueueStatusPending, models.QueueStatusProcessing}).
		Return(nil, down)
	store.On("Update", mock.Anything, "task-1", mock.Anything).
		Return(models.QueueItem{}, down)

	q, err := NewQueue(store, nil, 3, nil, nil, discardLogger())
	require.NoError(t, err)

	_, err = q.ListPending(t.Context())
	require.Error(t, err)
	assert.True(t, IsTransportError(err))
	require.ErrorIs(t, err, down)

	_, err = q.Report(t.Context(), "task-1", queue.EventStarted)
	assert.True(t, IsTransportError(err))

	// transport failures are handed back to the bus for redelivery
	err = q.HandleReported(t.Context(), &events.QueueItemReported{TaskID: "task-1", Event: string(queue.EventStarted)})
	assert.True(t, IsTransportError(err))

	store.AssertExpectations(t)
}
