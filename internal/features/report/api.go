package report

import (
	"bulk-webhook/internal/config"
	"bulk-webhook/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ReportApi struct {
	ReportController *ReportController
	Config           *config.Config
}

func NewReportApi(reportController *ReportController, config *config.Config) *ReportApi {
	return &ReportApi{
		ReportController: reportController,
		Config:           config,
	}
}

func (api *ReportApi) Setup(app *fiber.App) {
	skip := api.Config.SkipAuth
	group := app.Group("/api/reports", middleware.AuthMiddleware(skip))

	read := middleware.RequireRole(skip, middleware.RoleWebhookManager, middleware.RoleViewer)
	write := middleware.RequireRole(skip, middleware.RoleWebhookManager)

	group.Post("/", write, api.ReportController.Create)
	group.Get("/", read, api.ReportController.List)
	group.Get("/:id", read, api.ReportController.Get)
	group.Put("/:id", write, api.ReportController.Update)
	group.Delete("/:id", write, api.ReportController.Delete)
	group.Post("/:id/run", read, api.ReportController.Run)
	group.Get("/:id/export", read, api.ReportController.Export)
}
