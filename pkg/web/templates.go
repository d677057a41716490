package web

import (
	"github.com/dukex/notiair/pkg/models"
	"github.com/gofiber/fiber/v3"
)

func (h *APIHandlers) GetTemplates(c fiber.Ctx) error {
	templates, err := h.templates.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(templates)
}

func (h *APIHandlers) GetTemplate(c fiber.Ctx) error {
	tpl, err := h.templates.Get(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(tpl)
}

func (h *APIHandlers) SaveTemplate(c fiber.Ctx) error {
	var req SaveTemplateRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	saved, err := h.templates.Save(c.Context(), &models.Template{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Body:        req.Body,
		Variables:   req.Variables,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(saved)
}

func (h *APIHandlers) DeleteTemplate(c fiber.Ctx) error {
	if err := h.templates.Delete(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) PreviewTemplate(c fiber.Ctx) error {
	var req PreviewTemplateRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	body, err := h.templates.Preview(c.Context(), c.Params("id"), req.Variables)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(PreviewTemplateResponse{Body: body})
}
