package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dukex/notiair/pkg/cmd"
	"github.com/dukex/notiair/pkg/eventbus"
	"github.com/dukex/notiair/pkg/events"
	"github.com/dukex/notiair/pkg/metrics"
	"github.com/dukex/notiair/pkg/models"
	"github.com/dukex/notiair/pkg/persistence/file"
	"github.com/dukex/notiair/pkg/queue"
	"github.com/dukex/notiair/pkg/stream"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestAPI(t *testing.T, bus eventbus.EventBus, store queue.Store) *API {
	t.Helper()

	api, err := NewAPI(Config{
		Logger:      discardLogger(),
		Persistence: file.NewPersistence(t.TempDir()),
		EventBus:    bus,
		QueueStore:  store,
		Recent:      stream.NewMemoryRecentStore(),
		Metrics:     metrics.NewCollector("notiair_test"),
		MaxAttempts: 3,
	})
	require.NoError(t, err)

	return api
}

func get(t *testing.T, app *fiber.App, path string) (int, string) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(body)
}

func TestAPI_RootEndpoint(t *testing.T) {
	app := setupTestAPI(t, nil, queue.NewMemoryStore()).App()

	status, body := get(t, app, "/")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "NotiAir API", body)
}

func TestAPI_HealthCheck(t *testing.T) {
	app := setupTestAPI(t, nil, queue.NewMemoryStore()).App()

	status, body := get(t, app, "/livez")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", body)

	status, body = get(t, app, "/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "healthy")
}

func TestAPI_Metrics(t *testing.T) {
	app := setupTestAPI(t, nil, queue.NewMemoryStore()).App()

	status, _ := get(t, app, "/api/v1/workflows")
	require.Equal(t, http.StatusOK, status)

	status, body := get(t, app, "/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "notiair_test_http_requests_total")
	assert.Contains(t, body, "go_goroutines")
}

func TestAPI_GetWorkflows_Empty(t *testing.T) {
	app := setupTestAPI(t, nil, queue.NewMemoryStore()).App()

	status, body := get(t, app, "/api/v1/workflows")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, "[]", strings.TrimSpace(body))
}

func TestAPI_InvalidMaxAttempts(t *testing.T) {
	_, err := NewAPI(Config{
		Logger:      discardLogger(),
		Persistence: file.NewPersistence(t.TempDir()),
		QueueStore:  queue.NewMemoryStore(),
		MaxAttempts: 0,
	})
	require.ErrorIs(t, err, queue.ErrInvalidMaxAttempts)
}

func TestAPI_ConsumesQueueReports(t *testing.T) {
	bus := cmd.NewEventBus("memory", "test", discardLogger())
	t.Cleanup(func() { _ = bus.Close() })

	store := queue.NewMemoryStore()
	now := time.Now().UTC()
	require.NoError(t, store.Create(t.Context(), models.QueueItem{
		TaskID:     "task-1",
		WorkflowID: "wf-1",
		ChannelID:  "ch-1",
		Status:     models.QueueStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}))

	api := setupTestAPI(t, bus, store)
	require.NoError(t, api.Subscribe(t.Context()))

	require.NoError(t, bus.Publish(t.Context(), "task-1", events.QueueItemReported{
		BaseEvent: events.NewBase(bus.GenerateID(), events.QueueItemReportedEvent, "wf-1"),
		TaskID:    "task-1",
		Event:     string(queue.EventStarted),
	}))

	assert.Eventually(t, func() bool {
		item, err := store.Get(t.Context(), "task-1")

		return err == nil && item.Status == models.QueueStatusProcessing
	}, 5*time.Second, 20*time.Millisecond)
}

func TestAPI_CORS_Headers(t *testing.T) {
	app := setupTestAPI(t, nil, queue.NewMemoryStore()).App()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/workflows", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
