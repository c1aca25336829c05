package bulk_webhook

import (
	"bulk-webhook/internal/config"
	"bulk-webhook/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type BulkWebhookApi struct {
	controller *BulkWebhookController
	config     *config.Config
}

func NewBulkWebhookApi(controller *BulkWebhookController, config *config.Config) *BulkWebhookApi {
	return &BulkWebhookApi{
		controller: controller,
		config:     config,
	}
}

func (h *BulkWebhookApi) Setup(app *fiber.App) {
	skip := h.config.SkipAuth
	read := middleware.RequireRole(skip, middleware.RoleWebhookManager, middleware.RoleViewer)
	write := middleware.RequireRole(skip, middleware.RoleWebhookManager)

	webhooks := app.Group("/api/bulk-webhooks", middleware.AuthMiddleware(skip))
	webhooks.Post("/", write, h.controller.CreateBulkWebhook)
	webhooks.Get("/", read, h.controller.ListBulkWebhooks)
	webhooks.Get("/:id", read, h.controller.GetBulkWebhook)
	webhooks.Put("/:id", write, h.controller.UpdateBulkWebhook)
	webhooks.Delete("/:id", write, h.controller.DeleteBulkWebhook)
	webhooks.Post("/:id/send", write, h.controller.SendNow)
	webhooks.Get("/:id/logs", read, h.controller.ListWebhookLogs)

	logs := app.Group("/api/request-logs", middleware.AuthMiddleware(skip))
	logs.Get("/", read, h.controller.ListRequestLogs)
	logs.Get("/:id", read, h.controller.GetRequestLog)
}
