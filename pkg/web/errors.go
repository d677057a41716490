package web

import (
	"errors"

	"github.com/dukex/notiair/pkg/persistence"
	"github.com/dukex/notiair/pkg/queue"
	"github.com/dukex/notiair/pkg/services"
	"github.com/dukex/notiair/pkg/workflow"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

func problem(c fiber.Ctx, status int, kind, detail string) error {
	p := problems.NewStatusProblem(status).
		WithInstance(c.Path()).
		WithType(kind).
		WithDetail(detail)

	return c.Status(status).JSON(p)
}

func badRequest(c fiber.Ctx, detail string) error {
	return problem(c, fiber.StatusBadRequest, "validation_error", detail)
}

func internalError(c fiber.Ctx, err error) error {
	p := problems.NewStatusProblem(fiber.StatusInternalServerError).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(p)
}

// handleServiceError maps service layer errors to problem responses.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, workflow.ErrUnknownNode):
		return problem(c, fiber.StatusNotFound, "node_not_found", err.Error())

	case errors.Is(err, workflow.ErrUnknownEdge):
		return problem(c, fiber.StatusNotFound, "edge_not_found", err.Error())

	case services.IsValidationError(err):
		return badRequest(c, err.Error())

	case services.IsConflictError(err):
		return problem(c, fiber.StatusConflict, "conflict", err.Error())

	case errors.Is(err, persistence.ErrWorkflowNotFound):
		return problem(c, fiber.StatusNotFound, "workflow_not_found", "workflow not found")

	case errors.Is(err, persistence.ErrTemplateNotFound):
		return problem(c, fiber.StatusNotFound, "template_not_found", "template not found")

	case errors.Is(err, persistence.ErrConnectorNotFound):
		return problem(c, fiber.StatusNotFound, "connector_not_found", "connector not found")

	case errors.Is(err, persistence.ErrChannelNotFound):
		return problem(c, fiber.StatusNotFound, "channel_not_found", "channel not found")

	case errors.Is(err, queue.ErrQueueItemNotFound):
		return problem(c, fiber.StatusNotFound, "queue_item_not_found", "queue item not found")

	case services.IsNotFound(err):
		return problem(c, fiber.StatusNotFound, "not_found", err.Error())

	case services.IsTransportError(err):
		return problem(c, fiber.StatusServiceUnavailable, "transport_error", err.Error())

	default:
		return internalError(c, err)
	}
}
