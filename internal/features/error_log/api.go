package error_log

import (
	"bulk-webhook/internal/config"
	"bulk-webhook/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ErrorLogApi struct {
	controller *ErrorLogController
	config     *config.Config
}

func NewErrorLogApi(controller *ErrorLogController, config *config.Config) *ErrorLogApi {
	return &ErrorLogApi{
		controller: controller,
		config:     config,
	}
}

func (h *ErrorLogApi) Setup(app *fiber.App) {
	group := app.Group("/api/error-logs", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Get("/", middleware.RequireRole(h.config.SkipAuth, middleware.RoleWebhookManager, middleware.RoleViewer), h.controller.ListErrorLogs)
}
