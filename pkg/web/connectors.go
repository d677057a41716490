package web

import (
	"github.com/dukex/notiair/pkg/models"
	"github.com/gofiber/fiber/v3"
)

func (h *APIHandlers) GetTelegramConnectors(c fiber.Ctx) error {
	connectors, err := h.connectors.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	telegram := make([]*models.Connector, 0, len(connectors))

	for _, connector := range connectors {
		if connector.Type == models.ConnectorTypeTelegram {
			telegram = append(telegram, connector)
		}
	}

	return c.JSON(telegram)
}

func (h *APIHandlers) CreateTelegramConnector(c fiber.Ctx) error {
	var req SaveConnectorRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	saved, err := h.connectors.Save(c.Context(), connectorFromRequest("", req))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(saved)
}

// UpdateTelegramConnector replaces an existing connector.
func (h *APIHandlers) UpdateTelegramConnector(c fiber.Ctx) error {
	var req SaveConnectorRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	id := c.Params("id")

	existing, err := h.connectors.Get(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	connector := connectorFromRequest(id, req)
	if req.IsActive == nil {
		connector.IsActive = existing.IsActive
	}

	saved, err := h.connectors.Save(c.Context(), connector)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(saved)
}

func (h *APIHandlers) DeleteTelegramConnector(c fiber.Ctx) error {
	if err := h.connectors.Delete(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) SetTelegramConnectorActive(c fiber.Ctx) error {
	var req SetActiveRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	connector, err := h.connectors.SetActive(c.Context(), c.Params("id"), *req.IsActive)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(connector)
}

func (h *APIHandlers) GetChannels(c fiber.Ctx) error {
	channels, err := h.connectors.Channels(c.Context(), c.Params("connectorId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(channels)
}

func (h *APIHandlers) CreateChannel(c fiber.Ctx) error {
	var req SaveChannelRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	channel := channelFromRequest("", req)
	channel.ConnectorID = c.Params("connectorId")

	saved, err := h.connectors.SaveChannel(c.Context(), channel)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(saved)
}

// UpdateChannel replaces an existing channel; its connector is kept.
func (h *APIHandlers) UpdateChannel(c fiber.Ctx) error {
	var req SaveChannelRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	id := c.Params("id")

	if _, err := h.connectors.Channel(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	saved, err := h.connectors.SaveChannel(c.Context(), channelFromRequest(id, req))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(saved)
}

func (h *APIHandlers) DeleteChannel(c fiber.Ctx) error {
	if err := h.connectors.DeleteChannel(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func connectorFromRequest(id string, req SaveConnectorRequest) *models.Connector {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	return &models.Connector{
		ID:       id,
		Type:     models.ConnectorTypeTelegram,
		Name:     req.Name,
		Secret:   req.Secret,
		Comment:  req.Comment,
		IsActive: active,
	}
}

func channelFromRequest(id string, req SaveChannelRequest) *models.Channel {
	return &models.Channel{
		ID:          id,
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Description: req.Description,
		Muted:       req.Muted,
	}
}
