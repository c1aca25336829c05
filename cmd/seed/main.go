package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"bulk-webhook/internal/config"
	"bulk-webhook/internal/connectors"
	"bulk-webhook/internal/database"
	"bulk-webhook/internal/features/audit"
	"bulk-webhook/internal/features/bulk_webhook"
	"bulk-webhook/internal/features/error_log"
	"bulk-webhook/internal/features/report"
	"bulk-webhook/internal/logger"
	"bulk-webhook/pkg/utils"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const (
	reportsPath  = "cmd/seed/data/reports.json"
	webhooksPath = "cmd/seed/data/webhooks.json"
)

// webhookSeed points at its report by name since ids differ per database
type webhookSeed struct {
	bulk_webhook.BulkWebhook
	ReportName string `json:"report_name"`
}

func readJSON(path string, v interface{}) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// Seed loads the sample reports and webhooks, skipping any that already exist
func Seed(
	lc fx.Lifecycle,
	reportService report.ReportService,
	webhookService bulk_webhook.BulkWebhookService,
	logger *zap.Logger,
	shutdowner fx.Shutdowner,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				defer func() {
					if err := shutdowner.Shutdown(); err != nil {
						logger.Error("Failed to shutdown", zap.Error(err))
					}
				}()

				ctx := utils.WithUser(context.Background(), &utils.UserClaims{UserID: "seed"})
				logger.Info("🌱 Starting Database Seeding from JSON...")

				reportIDs, err := seedReports(ctx, reportService, logger)
				if err != nil {
					logger.Error("Failed to seed reports", zap.Error(err))
					return
				}
				if err := seedWebhooks(ctx, webhookService, reportIDs, logger); err != nil {
					logger.Error("Failed to seed bulk webhooks", zap.Error(err))
					return
				}

				logger.Info("✅ Seeding completed")
			}()
			return nil
		},
	})
}

func seedReports(ctx context.Context, svc report.ReportService, logger *zap.Logger) (map[string]string, error) {
	var reports []report.Report
	if err := readJSON(reportsPath, &reports); err != nil {
		return nil, err
	}

	existing, err := svc.ListReports(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]string, len(existing))
	for _, r := range existing {
		ids[r.Name] = r.ID.Hex()
	}

	for i := range reports {
		rep := &reports[i]
		if _, ok := ids[rep.Name]; ok {
			logger.Info("Report exists, skipping", zap.String("report", rep.Name))
			continue
		}
		if err := svc.CreateReport(ctx, rep); err != nil {
			logger.Error("Failed to create report", zap.String("report", rep.Name), zap.Error(err))
			continue
		}
		ids[rep.Name] = rep.ID.Hex()
		logger.Info("Report created", zap.String("report", rep.Name))
	}
	return ids, nil
}

func seedWebhooks(ctx context.Context, svc bulk_webhook.BulkWebhookService, reportIDs map[string]string, logger *zap.Logger) error {
	var seeds []webhookSeed
	if err := readJSON(webhooksPath, &seeds); err != nil {
		return err
	}

	existing, err := svc.List(ctx)
	if err != nil {
		return err
	}
	names := make(map[string]bool, len(existing))
	for _, w := range existing {
		names[w.Name] = true
	}

	for _, seed := range seeds {
		webhook := seed.BulkWebhook
		if names[webhook.Name] {
			logger.Info("Bulk webhook exists, skipping", zap.String("webhook", webhook.Name))
			continue
		}
		id, ok := reportIDs[seed.ReportName]
		if !ok {
			logger.Warn("Report not found for bulk webhook",
				zap.String("webhook", webhook.Name),
				zap.String("report", seed.ReportName))
			continue
		}
		webhook.Report = id
		if err := svc.Create(ctx, &webhook); err != nil {
			logger.Error("Failed to create bulk webhook", zap.String("webhook", webhook.Name), zap.Error(err))
			continue
		}
		logger.Info("Bulk webhook created", zap.String("webhook", webhook.Name))
	}
	return nil
}

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			database.NewDatabase,
			audit.NewAuditRepository,
			audit.NewAuditService,
			error_log.NewErrorLogRepository,
			fx.Annotate(
				error_log.NewErrorLogService,
				fx.As(new(bulk_webhook.ErrorRecorder)),
			),
			fx.Annotate(
				report.NewReportRepository,
				fx.As(new(report.ReportRepository)),
				fx.As(new(report.RecordFinder)),
			),
			fx.Annotate(
				connectors.NewManager,
				fx.As(new(report.ConnectorProvider)),
			),
			report.NewReportService,
			fx.Annotate(
				func(s report.ReportService) report.ReportService { return s },
				fx.As(new(bulk_webhook.ReportRunner)),
			),
			bulk_webhook.NewBulkWebhookRepository,
			bulk_webhook.NewRequestLogRepository,
			fx.Annotate(
				bulk_webhook.NewDispatcher,
				fx.As(new(bulk_webhook.Deliverer)),
			),
			bulk_webhook.NewBulkWebhookService,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(Seed),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal(err)
	}

	<-app.Done()
}
