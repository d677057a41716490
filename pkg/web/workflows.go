package web

import (
	"github.com/dukex/notiair/pkg/models"
	"github.com/gofiber/fiber/v3"
)

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	docs, err := h.workflows.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(docs)
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	doc, err := h.workflows.Get(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(doc)
}

// SaveWorkflow creates or replaces a whole workflow document.
func (h *APIHandlers) SaveWorkflow(c fiber.Ctx) error {
	var doc models.WorkflowDocument
	if err := h.bind(c, &doc); err != nil {
		return err
	}

	saved, err := h.workflows.Save(c.Context(), &doc)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(saved)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	if err := h.workflows.Delete(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ActivateWorkflow(c fiber.Ctx) error {
	doc, err := h.workflows.Activate(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(doc)
}

func (h *APIHandlers) DeactivateWorkflow(c fiber.Ctx) error {
	doc, err := h.workflows.Deactivate(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(doc)
}

// ValidateWorkflow returns the validation report; an invalid graph is not an
// error here.
func (h *APIHandlers) ValidateWorkflow(c fiber.Ctx) error {
	report, err := h.workflows.Validate(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"valid":    report.Valid(),
		"errors":   report.Errors,
		"warnings": report.Warnings,
	})
}

func (h *APIHandlers) AddWorkflowNode(c fiber.Ctx) error {
	var req AddNodeRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	doc, node, err := h.workflows.AddNode(c.Context(), c.Params("id"), req.Type, req.Config, req.Position)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(AddNodeResponse{Workflow: doc, NodeID: node.ID})
}

func (h *APIHandlers) UpdateWorkflowNode(c fiber.Ctx) error {
	var req UpdateNodeRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	doc, err := h.workflows.UpdateNode(c.Context(), c.Params("id"), c.Params("nodeId"), req.Config)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(doc)
}

func (h *APIHandlers) DeleteWorkflowNode(c fiber.Ctx) error {
	doc, err := h.workflows.RemoveNode(c.Context(), c.Params("id"), c.Params("nodeId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(doc)
}

func (h *APIHandlers) MoveWorkflowNode(c fiber.Ctx) error {
	var position models.Position
	if err := c.Bind().JSON(&position); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	doc, err := h.workflows.MoveNode(c.Context(), c.Params("id"), c.Params("nodeId"), position)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(doc)
}

func (h *APIHandlers) AddWorkflowEdge(c fiber.Ctx) error {
	var req EdgeRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	doc, err := h.workflows.AddEdge(c.Context(), c.Params("id"), req.From, req.To)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(doc)
}

func (h *APIHandlers) DeleteWorkflowEdge(c fiber.Ctx) error {
	doc, err := h.workflows.RemoveEdge(c.Context(), c.Params("id"), c.Params("from"), c.Params("to"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(doc)
}

func (h *APIHandlers) GetActiveNode(c fiber.Ctx) error {
	nodeID, ok, err := h.workflows.ActiveNode(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	resp := ActiveNodeResponse{}
	if ok {
		resp.NodeID = &nodeID
	}

	return c.JSON(resp)
}

func (h *APIHandlers) SetActiveNode(c fiber.Ctx) error {
	var req ActiveNodeRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	if err := h.workflows.SetActiveNode(c.Context(), c.Params("id"), req.NodeID); err != nil {
		return handleServiceError(c, err)
	}

	return h.GetActiveNode(c)
}
