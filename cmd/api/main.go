package main

import (
	"context"
	"fmt"
	"log"
	"time"

	common_api "bulk-webhook/internal/api"
	"bulk-webhook/internal/config"
	"bulk-webhook/internal/connectors"
	"bulk-webhook/internal/database"
	"bulk-webhook/internal/features/audit"
	"bulk-webhook/internal/features/bulk_webhook"
	"bulk-webhook/internal/features/error_log"
	"bulk-webhook/internal/features/report"
	"bulk-webhook/internal/logger"
	"bulk-webhook/internal/middleware"
	"bulk-webhook/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware())

	return app
}

// AsRoute tags the constructor so Fx adds it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes sets up every route collected in the group
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	for _, route := range routes {
		route.Setup(app)
	}
	log.Println("All routes registered successfully")
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer starts Fiber in a goroutine and shuts it down when the app exits
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// StartScheduler binds the cron loop to the app lifecycle
func StartScheduler(lc fx.Lifecycle, scheduler *bulk_webhook.Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return scheduler.Start()
		},
		OnStop: func(ctx context.Context) error {
			return scheduler.Stop(ctx)
		},
	})
}

// InitializeIndexes ensures that necessary database indexes are created
func InitializeIndexes(
	lc fx.Lifecycle,
	webhookRepo bulk_webhook.BulkWebhookRepository,
	requestLogRepo bulk_webhook.RequestLogRepository,
	errorLogRepo error_log.ErrorLogRepository,
	logger *zap.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := webhookRepo.EnsureIndexes(ctx); err != nil {
					logger.Warn("Failed to ensure bulk webhook indexes", zap.Error(err))
				}
				if err := requestLogRepo.EnsureIndexes(ctx); err != nil {
					logger.Warn("Failed to ensure request log indexes", zap.Error(err))
				}
				if err := errorLogRepo.EnsureIndexes(ctx); err != nil {
					logger.Warn("Failed to ensure error log indexes", zap.Error(err))
				}
			}()
			return nil
		},
	})
}

// NewReportRepository fronts the mongo report store with the definition cache
func NewReportRepository(repo *report.ReportRepositoryImpl, cfg *config.Config) report.ReportRepository {
	return report.NewCachedReportRepository(repo, cfg.ReportCacheTTL)
}

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			NewFiberServer,
			database.NewDatabase,
			fx.Annotate(
				connectors.NewManager,
				fx.As(new(report.ConnectorProvider)),
			),

			// Audit
			audit.NewAuditRepository,
			audit.NewAuditService,
			audit.NewAuditController,

			// Error Log
			error_log.NewErrorLogRepository,
			error_log.NewErrorLogService,
			error_log.NewErrorLogController,

			// Report
			report.NewReportRepository,
			NewReportRepository,
			fx.Annotate(
				func(r *report.ReportRepositoryImpl) *report.ReportRepositoryImpl { return r },
				fx.As(new(report.RecordFinder)),
			),
			report.NewReportService,
			report.NewReportController,

			// Bulk Webhook
			bulk_webhook.NewBulkWebhookRepository,
			bulk_webhook.NewRequestLogRepository,
			fx.Annotate(
				bulk_webhook.NewDispatcher,
				fx.As(new(bulk_webhook.Deliverer)),
			),
			fx.Annotate(
				func(s report.ReportService) report.ReportService { return s },
				fx.As(new(bulk_webhook.ReportRunner)),
			),
			fx.Annotate(
				func(s error_log.ErrorLogService) error_log.ErrorLogService { return s },
				fx.As(new(bulk_webhook.ErrorRecorder)),
			),
			bulk_webhook.NewBulkWebhookService,
			bulk_webhook.NewBulkWebhookController,
			bulk_webhook.NewScheduler,

			// Routes
			AsRoute(common_api.NewHealthApi),
			AsRoute(audit.NewAuditApi),
			AsRoute(error_log.NewErrorLogApi),
			AsRoute(report.NewReportApi),
			AsRoute(bulk_webhook.NewBulkWebhookApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			func(cfg *config.Config) {
				utils.SetSecret(cfg.JWTSecret)
			},
			RegisterAllRoutesWithAnnotation,
			StartServer,
			StartScheduler,
			InitializeIndexes,
		),
	)

	app.Run()
}
