package services

import (
	"io"
	"log/slog"
	"testing"

	"github.com/dukex/notiair/pkg/metrics"
	"github.com/dukex/notiair/pkg/mocks"
	"github.com/dukex/notiair/pkg/models"
	"github.com/dukex/notiair/pkg/persistence"
	"github.com/dukex/notiair/pkg/persistence/file"
	"github.com/dukex/notiair/pkg/queue"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	persistence persistence.Persistence
	bus         *mocks.MockEventBus
	store       *queue.MemoryStore
	metrics     *metrics.Collector

	workflows  *Workflow
	templates  *Template
	connectors *Connector
	dispatcher *Dispatcher
	queue      *Queue
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		persistence: file.NewPersistence(t.TempDir()),
		bus:         &mocks.MockEventBus{},
		store:       queue.NewMemoryStore(),
		metrics:     metrics.NewCollector("notiair_test"),
	}

	f.bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	logger := discardLogger()

	f.workflows = NewWorkflow(f.persistence, f.bus, f.metrics, logger)
	f.templates = NewTemplate(f.persistence)
	f.connectors = NewConnector(f.persistence)
	f.dispatcher = NewDispatcher(f.workflows, f.templates, f.connectors, f.store, f.bus, nil, f.metrics, logger)

	q, err := NewQueue(f.store, f.bus, 3, nil, f.metrics, logger)
	require.NoError(t, err)

	f.queue = q

	return f
}

func (f *fixture) saveDocument(t *testing.T, doc *models.WorkflowDocument) {
	t.Helper()

	require.NoError(t, f.persistence.WorkflowRepository().Save(t.Context(), doc))
}

// published returns the events passed to Publish, in order.
func (f *fixture) published() []any {
	out := make([]any, 0)

	for _, call := range f.bus.Calls {
		if call.Method == "Publish" {
			out = append(out, call.Arguments.Get(2))
		}
	}

	return out
}
