package web

import "github.com/gofiber/fiber/v3"

// Register mounts every API route on router, usually the /api/v1 group.
func (h *APIHandlers) Register(router fiber.Router) {
	router.Post("/notifications/dispatch", h.Dispatch)

	t := router.Group("/templates")
	t.Get("/", h.GetTemplates)
	t.Post("/", h.SaveTemplate)
	t.Get("/:id", h.GetTemplate)
	t.Delete("/:id", h.DeleteTemplate)
	t.Post("/:id/preview", h.PreviewTemplate)

	w := router.Group("/workflows")
	w.Get("/", h.GetWorkflows)
	w.Post("/", h.SaveWorkflow)
	w.Get("/:id", h.GetWorkflow)
	w.Delete("/:id", h.DeleteWorkflow)
	w.Post("/:id/activate", h.ActivateWorkflow)
	w.Post("/:id/deactivate", h.DeactivateWorkflow)
	w.Get("/:id/validation", h.ValidateWorkflow)

	w.Post("/:id/nodes", h.AddWorkflowNode)
	w.Put("/:id/nodes/:nodeId", h.UpdateWorkflowNode)
	w.Delete("/:id/nodes/:nodeId", h.DeleteWorkflowNode)
	w.Put("/:id/nodes/:nodeId/position", h.MoveWorkflowNode)
	w.Post("/:id/edges", h.AddWorkflowEdge)
	w.Delete("/:id/edges/:from/:to", h.DeleteWorkflowEdge)
	w.Get("/:id/active-node", h.GetActiveNode)
	w.Put("/:id/active-node", h.SetActiveNode)

	q := router.Group("/queues")
	q.Get("/pending", h.ListPendingQueue)
	q.Post("/:taskId/events", h.ReportQueueEvent)

	tg := router.Group("/connectors/telegram")
	tg.Get("/", h.GetTelegramConnectors)
	tg.Post("/", h.CreateTelegramConnector)
	tg.Put("/:id", h.UpdateTelegramConnector)
	tg.Delete("/:id", h.DeleteTelegramConnector)
	tg.Patch("/:id/active", h.SetTelegramConnectorActive)

	router.Get("/connectors/:connectorId/channels", h.GetChannels)
	router.Post("/connectors/:connectorId/channels", h.CreateChannel)
	router.Put("/channels/:id", h.UpdateChannel)
	router.Delete("/channels/:id", h.DeleteChannel)

	router.Get("/stream/events", h.RecentStreamEvents)
}
