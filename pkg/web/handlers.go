// Package web provides HTTP handlers and REST API endpoints for notification
// workflows, templates, connectors and the delivery queue.
package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dukex/notiair/pkg/queue"
	"github.com/dukex/notiair/pkg/services"
	"github.com/dukex/notiair/pkg/stream"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	workflows  *services.Workflow
	templates  *services.Template
	connectors *services.Connector
	dispatcher *services.Dispatcher
	queue      *services.Queue
	recent     stream.RecentStore
	validator  *validator.Validate
}

func NewAPIHandlers(
	workflows *services.Workflow,
	templates *services.Template,
	connectors *services.Connector,
	dispatcher *services.Dispatcher,
	queue *services.Queue,
	recent stream.RecentStore,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		workflows:  workflows,
		templates:  templates,
		connectors: connectors,
		dispatcher: dispatcher,
		queue:      queue,
		recent:     recent,
		validator:  validator,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, ok := h.workflows.HealthCheck(c.Context())

	status := "unhealthy"
	message := "NotiAir API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if ok {
		status = "healthy"
		message = "NotiAir API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

// bind decodes the JSON body into req and validates it.
func (h *APIHandlers) bind(c fiber.Ctx, req any) error {
	if err := c.Bind().JSON(req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	return nil
}

func (h *APIHandlers) Dispatch(c fiber.Ctx) error {
	var req services.DispatchRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	result, err := h.dispatcher.Dispatch(c.Context(), req)
	if err != nil && result != nil && len(result.Items) > 0 {
		return problem(c, fiber.StatusServiceUnavailable, "partial_dispatch", partialDispatchDetail(result, err))
	}

	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(result)
}

func (h *APIHandlers) ListPendingQueue(c fiber.Ctx) error {
	items, err := h.queue.ListPending(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(items)
}

// ReportQueueEvent applies a delivery event reported by the backend.
func (h *APIHandlers) ReportQueueEvent(c fiber.Ctx) error {
	var req QueueEventRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	item, err := h.queue.Report(c.Context(), c.Params("taskId"), queue.Event(req.Event))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(item)
}

// RecentStreamEvents lists the last stream events, optionally restricted to a
// comma separated eventTypes list.
func (h *APIHandlers) RecentStreamEvents(c fiber.Ctx) error {
	eventTypes := make([]string, 0)

	for _, eventType := range strings.Split(c.Query("eventTypes"), ",") {
		if eventType = strings.TrimSpace(eventType); eventType != "" {
			eventTypes = append(eventTypes, eventType)
		}
	}

	limit := 0

	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return badRequest(c, "Invalid limit: "+err.Error())
		}

		limit = parsed
	}

	events, err := h.recent.Recent(c.Context(), eventTypes, limit)
	if err != nil {
		return problem(c, fiber.StatusServiceUnavailable, "transport_error", err.Error())
	}

	return c.JSON(events)
}

func partialDispatchDetail(result *services.DispatchResult, err error) string {
	queued := make([]string, 0, len(result.Items))
	for _, item := range result.Items {
		queued = append(queued, item.TaskID)
	}

	return fmt.Sprintf("%v; queued before the failure: %s", err, strings.Join(queued, ", "))
}
