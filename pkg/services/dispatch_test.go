package services

import (
	"errors"
	"testing"

	"github.com/dukex/notiair/pkg/dispatch"
	"github.com/dukex/notiair/pkg/events"
	"github.com/dukex/notiair/pkg/mocks"
	"github.com/dukex/notiair/pkg/models"
	"github.com/dukex/notiair/pkg/template"
	"github.com/dukex/notiair/pkg/testutil"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func seedDispatch(t *testing.T, f *fixture, doc *models.WorkflowDocument) {
	t.Helper()

	ctx := t.Context()

	_, err := f.templates.Save(ctx, testutil.CreateTestTemplate(func(tpl *models.Template) {
		tpl.Body = "{{greeting}} {{name}} ({{region}})"
		tpl.Variables = map[string]string{"greeting": "", "name": "", "region": ""}
	}))
	require.NoError(t, err)

	_, err = f.connectors.Save(ctx, testutil.CreateTestConnector())
	require.NoError(t, err)

	_, err = f.connectors.SaveChannel(ctx, testutil.CreateTestChannel())
	require.NoError(t, err)

	f.saveDocument(t, doc)
}

func TestDispatcher_Dispatch(t *testing.T) {
	f := newFixture(t)

	doc := testutil.CreateTestWorkflowDocument(
		testutil.WithActive(),
		testutil.WithFilters(map[string]string{"greeting": "Hello", "region": "eu"}),
		testutil.WithFilterNode("filter", map[string]string{"region": "us"}),
	)
	seedDispatch(t, f, doc)

	result, err := f.dispatcher.Dispatch(t.Context(), DispatchRequest{
		WorkflowID: doc.ID,
		Variables:  map[string]string{"name": "Alice"},
		Payload:    map[string]any{"order": 7},
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Empty(t, result.Skipped)

	item := result.Items[0]
	assert.Equal(t, models.QueueStatusPending, item.Status)
	assert.Equal(t, 0, item.Attempts)
	assert.Equal(t, doc.ID, item.WorkflowID)
	assert.Equal(t, testutil.ChannelID, item.ChannelID)

	stored, err := f.store.Get(t.Context(), item.TaskID)
	require.NoError(t, err)
	assert.Equal(t, item.TaskID, stored.TaskID)

	published := f.published()
	require.Len(t, published, 1)

	event, ok := published[0].(events.DispatchRequested)
	require.True(t, ok)
	assert.Equal(t, item.TaskID, event.TaskID)
	assert.Equal(t, "Hello Alice (us)", event.Body)
	assert.Equal(t, testutil.ConnectorID, event.ConnectorID)
	assert.Equal(t, map[string]any{"order": 7}, event.Payload)

	assert.InDelta(t, 1, promtest.ToFloat64(f.metrics.DispatchRequests.WithLabelValues("queued")), 0)
}

func TestDispatcher_ContextVariablesWin(t *testing.T) {
	f := newFixture(t)

	doc := testutil.CreateTestWorkflowDocument(
		testutil.WithActive(),
		testutil.WithFilters(map[string]string{"greeting": "Hello", "region": "eu"}),
	)
	seedDispatch(t, f, doc)

	_, err := f.dispatcher.Dispatch(t.Context(), DispatchRequest{
		WorkflowID: doc.ID,
		Variables:  map[string]string{"name": "Bob", "greeting": "Hey"},
	})
	require.NoError(t, err)

	event := f.published()[0].(events.DispatchRequested)
	assert.Equal(t, "Hey Bob (eu)", event.Body)
}

func TestDispatcher_InactiveWorkflow(t *testing.T) {
	f := newFixture(t)

	doc := testutil.CreateTestWorkflowDocument()
	seedDispatch(t, f, doc)

	_, err := f.dispatcher.Dispatch(t.Context(), DispatchRequest{WorkflowID: doc.ID})
	require.ErrorIs(t, err, ErrWorkflowInactive)
	assert.True(t, IsConflictError(err))

	items, err := f.store.List(t.Context())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDispatcher_AllOrNothing(t *testing.T) {
	f := newFixture(t)

	doc := testutil.CreateTestWorkflowDocument(
		testutil.WithActive(),
		testutil.WithFilters(map[string]string{"greeting": "Hello", "region": "eu"}),
		func(d *models.WorkflowDocument) {
			d.Nodes = append(d.Nodes, models.NodeDocument{
				ID:     "second",
				Type:   models.NodeTypeAction,
				Config: map[string]any{"templateId": "tpl-code", "channelId": testutil.ChannelID},
			})
			d.Edges = append(d.Edges, models.WorkflowEdge{From: testutil.TriggerNodeID, To: "second"})
		},
	)
	seedDispatch(t, f, doc)

	_, err := f.templates.Save(t.Context(), &models.Template{
		ID:        "tpl-code",
		Name:      "Code",
		Body:      "Your code is {{code}}",
		Variables: map[string]string{"code": "One time code"},
	})
	require.NoError(t, err)

	_, err = f.dispatcher.Dispatch(t.Context(), DispatchRequest{
		WorkflowID: doc.ID,
		Variables:  map[string]string{"name": "Alice"},
	})
	require.ErrorIs(t, err, template.ErrMissingVariable)
	assert.True(t, IsValidationError(err))

	items, err := f.store.List(t.Context())
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Empty(t, f.published())
}

func TestDispatcher_TemplateFilter(t *testing.T) {
	f := newFixture(t)

	doc := testutil.CreateTestWorkflowDocument(testutil.WithActive())
	seedDispatch(t, f, doc)

	_, err := f.dispatcher.Dispatch(t.Context(), DispatchRequest{WorkflowID: doc.ID, TemplateID: "other"})
	require.ErrorIs(t, err, ErrNoDispatchTargets)
}

func TestDispatcher_MutedChannelIsSkipped(t *testing.T) {
	f := newFixture(t)

	doc := testutil.CreateTestWorkflowDocument(testutil.WithActive())
	seedDispatch(t, f, doc)

	_, err := f.connectors.SaveChannel(t.Context(), testutil.CreateTestChannel(func(c *models.Channel) {
		c.Muted = true
	}))
	require.NoError(t, err)

	_, err = f.dispatcher.Dispatch(t.Context(), DispatchRequest{WorkflowID: doc.ID})
	require.ErrorIs(t, err, ErrChannelMuted)
	assert.True(t, IsConflictError(err))

	items, err := f.store.List(t.Context())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDispatcher_InactiveConnectorSkipsOnlyItsChannels(t *testing.T) {
	f := newFixture(t)

	doc := testutil.CreateTestWorkflowDocument(
		testutil.WithActive(),
		testutil.WithFilters(map[string]string{"greeting": "Hi", "region": "eu"}),
		func(d *models.WorkflowDocument) {
			d.Nodes = append(d.Nodes, models.NodeDocument{
				ID:     "second",
				Type:   models.NodeTypeAction,
				Config: map[string]any{"templateId": testutil.TemplateID, "channelId": "ch-2"},
			})
			d.Edges = append(d.Edges, models.WorkflowEdge{From: testutil.TriggerNodeID, To: "second"})
		},
	)
	seedDispatch(t, f, doc)

	_, err := f.connectors.Save(t.Context(), testutil.CreateTestConnector(func(c *models.Connector) {
		c.ID = "conn-2"
		c.IsActive = false
	}))
	require.NoError(t, err)

	_, err = f.connectors.SaveChannel(t.Context(), testutil.CreateTestChannel(func(c *models.Channel) {
		c.ID = "ch-2"
		c.ConnectorID = "conn-2"
	}))
	require.NoError(t, err)

	result, err := f.dispatcher.Dispatch(t.Context(), DispatchRequest{
		WorkflowID: doc.ID,
		Variables:  map[string]string{"name": "Alice"},
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, testutil.ChannelID, result.Items[0].ChannelID)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "second", result.Skipped[0].NodeID)
	assert.Equal(t, ErrConnectorInactive.Error(), result.Skipped[0].Reason)
}

func TestDispatcher_ConfigMismatchIsValidation(t *testing.T) {
	assert.True(t, IsValidationError(&dispatch.MismatchError{NodeID: "a", Field: "channelId", Want: "x", Got: "y"}))
}

// seedTwoActions stores an active workflow with two action nodes sharing the
// test channel.
func seedTwoActions(t *testing.T, f *fixture) *models.WorkflowDocument {
	t.Helper()

	doc := testutil.CreateTestWorkflowDocument(
		testutil.WithActive(),
		testutil.WithFilters(map[string]string{"greeting": "Hello", "region": "eu"}),
		func(d *models.WorkflowDocument) {
			d.Nodes = append(d.Nodes, models.NodeDocument{
				ID:     "second",
				Type:   models.NodeTypeAction,
				Config: map[string]any{"templateId": "tpl-code", "channelId": testutil.ChannelID},
			})
			d.Edges = append(d.Edges, models.WorkflowEdge{From: testutil.TriggerNodeID, To: "second"})
		},
	)
	seedDispatch(t, f, doc)

	_, err := f.templates.Save(t.Context(), &models.Template{
		ID:        "tpl-code",
		Name:      "Code",
		Body:      "Your code is {{code}}",
		Variables: map[string]string{"code": "One time code"},
	})
	require.NoError(t, err)

	return doc
}

func TestDispatcher_PublishFailureRollsBackUnsentItems(t *testing.T) {
	f := newFixture(t)
	doc := seedTwoActions(t, f)

	f.bus.ExpectedCalls = nil
	f.bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	f.bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	result, err := f.dispatcher.Dispatch(t.Context(), DispatchRequest{
		WorkflowID: doc.ID,
		Variables:  map[string]string{"name": "Alice", "code": "1234"},
	})
	require.Error(t, err)
	assert.True(t, IsTransportError(err))

	require.NotNil(t, result)
	require.Len(t, result.Items, 1)
	require.Len(t, result.Unsent, 1)
	assert.Equal(t, "second", result.Unsent[0].NodeID)
	assert.Contains(t, result.Unsent[0].Reason, "broker down")

	stored, err := f.store.List(t.Context())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, result.Items[0].TaskID, stored[0].TaskID)

	assert.InDelta(t, 1, promtest.ToFloat64(f.metrics.DispatchRequests.WithLabelValues("queued")), 0)
	assert.InDelta(t, 1, promtest.ToFloat64(f.metrics.DispatchRequests.WithLabelValues("rolled_back")), 0)
	f.bus.AssertNumberOfCalls(t, "Publish", 2)
}

func TestDispatcher_CreateFailurePublishesNothing(t *testing.T) {
	f := newFixture(t)
	doc := seedTwoActions(t, f)

	store := &mocks.MockQueueStore{}
	store.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	store.On("Create", mock.Anything, mock.Anything).Return(errors.New("disk full")).Once()
	store.On("Delete", mock.Anything, mock.Anything).Return(nil).Once()

	dispatcher := NewDispatcher(f.workflows, f.templates, f.connectors, store, f.bus, nil, nil, discardLogger())

	result, err := dispatcher.Dispatch(t.Context(), DispatchRequest{
		WorkflowID: doc.ID,
		Variables:  map[string]string{"name": "Alice", "code": "1234"},
	})
	require.Error(t, err)
	assert.True(t, IsTransportError(err))
	assert.Nil(t, result)

	created := store.Calls[0].Arguments.Get(1).(models.QueueItem)
	store.AssertCalled(t, "Delete", mock.Anything, created.TaskID)
	store.AssertExpectations(t)
	assert.Empty(t, f.published())
}
