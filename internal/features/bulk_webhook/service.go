package bulk_webhook

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	common_models "bulk-webhook/internal/common/models"
	"bulk-webhook/internal/config"
	"bulk-webhook/internal/features/audit"
	"bulk-webhook/internal/features/report"
	"bulk-webhook/pkg/utils"

	"go.uber.org/zap"
)

// ReportRunner loads and executes the report a webhook points at
type ReportRunner interface {
	GetReport(ctx context.Context, id string) (*report.Report, error)
	Execute(ctx context.Context, rep *report.Report, filters map[string]any) (*report.Result, error)
}

// ErrorRecorder persists job failures for operators
type ErrorRecorder interface {
	Record(ctx context.Context, title string, cause error) error
}

type BulkWebhookService interface {
	Create(ctx context.Context, webhook *BulkWebhook) error
	Get(ctx context.Context, id string) (*BulkWebhook, error)
	List(ctx context.Context) ([]BulkWebhook, error)
	Update(ctx context.Context, id string, webhook *BulkWebhook) error
	Delete(ctx context.Context, id string) error
	SendNow(ctx context.Context, id string) (*SendResult, error)
	Send(ctx context.Context, webhook *BulkWebhook) (*SendResult, error)
	GetReportData(ctx context.Context, webhook *BulkWebhook, now time.Time) (*report.Result, error)
	SendDaily(ctx context.Context, now time.Time) JobSummary
	SendMonthly(ctx context.Context, now time.Time) JobSummary
	ListRequestLogs(ctx context.Context, webhookID string, limit int64) ([]RequestLog, error)
	GetRequestLog(ctx context.Context, id string) (*RequestLog, error)
}

type BulkWebhookServiceImpl struct {
	repo      BulkWebhookRepository
	logs      RequestLogRepository
	reports   ReportRunner
	deliverer Deliverer
	audit     audit.AuditService
	errorLog  ErrorRecorder
	logger    *zap.Logger
	location  *time.Location
	now       func() time.Time
}

func NewBulkWebhookService(
	cfg *config.Config,
	repo BulkWebhookRepository,
	logs RequestLogRepository,
	reports ReportRunner,
	deliverer Deliverer,
	auditService audit.AuditService,
	errorLog ErrorRecorder,
	logger *zap.Logger,
) BulkWebhookService {
	return &BulkWebhookServiceImpl{
		repo:      repo,
		logs:      logs,
		reports:   reports,
		deliverer: deliverer,
		audit:     auditService,
		errorLog:  errorLog,
		logger:    logger,
		location:  cfg.Location(),
		now:       time.Now,
	}
}

func (s *BulkWebhookServiceImpl) Create(ctx context.Context, webhook *BulkWebhook) error {
	if err := s.prepare(ctx, webhook); err != nil {
		return err
	}
	webhook.CreatedBy = utils.UserFromContext(ctx)
	if webhook.User == "" {
		webhook.User = webhook.CreatedBy
	}

	if err := s.repo.Create(ctx, webhook); err != nil {
		return fmt.Errorf("create bulk webhook: %w", err)
	}

	_ = s.audit.LogChange(ctx, common_models.AuditActionCreate, "bulk_webhooks", webhook.ID.Hex(), map[string]common_models.Change{
		"bulk_webhook": {New: webhook.Redacted()},
	})
	return nil
}

func (s *BulkWebhookServiceImpl) Get(ctx context.Context, id string) (*BulkWebhook, error) {
	return s.repo.Get(ctx, id)
}

func (s *BulkWebhookServiceImpl) List(ctx context.Context) ([]BulkWebhook, error) {
	return s.repo.List(ctx)
}

func (s *BulkWebhookServiceImpl) Update(ctx context.Context, id string, webhook *BulkWebhook) error {
	old, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if webhook.WebhookSecret == redactedSecret {
		webhook.WebhookSecret = old.WebhookSecret
	}
	if err := s.prepare(ctx, webhook); err != nil {
		return err
	}
	webhook.CreatedBy = old.CreatedBy
	webhook.CreatedAt = old.CreatedAt
	webhook.LastSentAt = old.LastSentAt
	if webhook.User == "" {
		webhook.User = old.User
	}

	if err := s.repo.Update(ctx, id, webhook); err != nil {
		return fmt.Errorf("update bulk webhook: %w", err)
	}

	_ = s.audit.LogChange(ctx, common_models.AuditActionUpdate, "bulk_webhooks", id, map[string]common_models.Change{
		"bulk_webhook": {Old: old.Redacted(), New: webhook.Redacted()},
	})
	return nil
}

func (s *BulkWebhookServiceImpl) Delete(ctx context.Context, id string) error {
	old, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete bulk webhook: %w", err)
	}

	_ = s.audit.LogChange(ctx, common_models.AuditActionDelete, "bulk_webhooks", id, map[string]common_models.Change{
		"bulk_webhook": {Old: old.Redacted(), New: "DELETED"},
	})
	return nil
}

// prepare fills defaults, copies report metadata and validates
func (s *BulkWebhookServiceImpl) prepare(ctx context.Context, webhook *BulkWebhook) error {
	webhook.RequestMethod = strings.ToUpper(strings.TrimSpace(webhook.RequestMethod))
	if webhook.RequestMethod == "" {
		webhook.RequestMethod = http.MethodPost
	}
	if webhook.RequestStructure == "" {
		webhook.RequestStructure = RequestStructureJSON
	}
	if webhook.Frequency == "" {
		webhook.Frequency = FrequencyDaily
	}
	if strings.TrimSpace(webhook.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidWebhook)
	}
	if webhook.Report == "" {
		return fmt.Errorf("%w: report is required", ErrInvalidWebhook)
	}

	rep, err := s.reports.GetReport(ctx, webhook.Report)
	if err != nil {
		if report.IsNotFound(err) {
			return fmt.Errorf("%w: report %s does not exist", ErrInvalidWebhook, webhook.Report)
		}
		return err
	}
	webhook.ReportType = rep.ReportType
	if len(webhook.FilterMeta) == 0 {
		webhook.FilterMeta = rep.Filters
	}

	return Validate(webhook)
}

func (s *BulkWebhookServiceImpl) SendNow(ctx context.Context, id string) (*SendResult, error) {
	webhook, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.send(ctx, webhook, s.now().In(s.location))
}

func (s *BulkWebhookServiceImpl) Send(ctx context.Context, webhook *BulkWebhook) (*SendResult, error) {
	return s.send(ctx, webhook, s.now().In(s.location))
}

func (s *BulkWebhookServiceImpl) send(ctx context.Context, webhook *BulkWebhook, now time.Time) (*SendResult, error) {
	if len(webhook.FilterMeta) > 0 && len(webhook.Filters) == 0 {
		return nil, ErrFiltersNotSet
	}

	data, err := s.GetReportData(ctx, webhook, now)
	if err != nil {
		return nil, err
	}

	result := &SendResult{Rows: len(data.Data)}
	if len(data.Data) == 0 {
		s.logger.Info("No report data, skipping send", zap.String("webhook", webhook.Name))
		result.Skipped = true
		return result, nil
	}

	payload, err := BuildPayload(webhook, data.Data, func() time.Time { return now })
	if err != nil {
		return nil, err
	}

	delivery, err := s.deliverer.Deliver(ctx, webhook, payload)
	if delivery != nil {
		result.DeliveryID = delivery.DeliveryID
		result.Attempts = delivery.Attempts
		result.StatusCode = delivery.StatusCode
	}

	_ = s.audit.LogChange(ctx, common_models.AuditActionSend, "bulk_webhooks", webhook.ID.Hex(), map[string]common_models.Change{
		"delivery": {New: result},
	})

	if err != nil {
		return result, err
	}

	if err := s.repo.UpdateLastSent(ctx, webhook.ID.Hex(), now.UTC()); err != nil {
		s.logger.Warn("Failed to stamp last_sent_at", zap.String("webhook", webhook.Name), zap.Error(err))
	}
	sentAt := now.UTC()
	webhook.LastSentAt = &sentAt

	s.logger.Info("Bulk webhook sent",
		zap.String("webhook", webhook.Name),
		zap.String("delivery_id", result.DeliveryID),
		zap.Int("rows", result.Rows),
		zap.Int("attempts", result.Attempts),
		zap.String("user", utils.UserFromContext(ctx)))
	return result, nil
}

// GetReportData runs the webhook's report with its filters, applying the
// modified-since window for report builder reports and the dynamic date
// range for the others. Rows get a 1-based idx column.
func (s *BulkWebhookServiceImpl) GetReportData(ctx context.Context, webhook *BulkWebhook, now time.Time) (*report.Result, error) {
	rep, err := s.reports.GetReport(ctx, webhook.Report)
	if err != nil {
		return nil, err
	}

	filters := make(map[string]any, len(webhook.Filters)+2)
	for k, v := range webhook.Filters {
		filters[k] = v
	}

	if rep.ReportType == report.ReportTypeBuilder {
		if webhook.DataModifiedTill > 0 {
			filters["updated_at__gt"] = now.Add(-time.Duration(webhook.DataModifiedTill) * time.Hour)
		}
	} else if webhook.dynamicDateFiltersSet() {
		from, to, err := DateRange(webhook.DynamicDatePeriod, now)
		if err != nil {
			return nil, err
		}
		filters[webhook.FromDateField] = from
		filters[webhook.ToDateField] = to
	}

	result, err := s.reports.Execute(ctx, rep, filters)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]any, len(result.Data))
	for i, row := range result.Data {
		numbered := make(map[string]any, len(row)+1)
		for k, v := range row {
			numbered[k] = v
		}
		numbered["idx"] = i + 1
		rows[i] = numbered
	}

	return &report.Result{
		Columns: append([]string{"idx"}, result.Columns...),
		Data:    rows,
	}, nil
}

// SendDaily sends every enabled Daily, Weekdays and Weekly webhook due today.
// A failing webhook is written to the error log and the rest still run.
func (s *BulkWebhookServiceImpl) SendDaily(ctx context.Context, now time.Time) JobSummary {
	webhooks, err := s.repo.ListEnabled(ctx, FrequencyDaily, FrequencyWeekdays, FrequencyWeekly)
	if err != nil {
		_ = s.errorLog.Record(ctx, "Failed to load daily Bulk Webhooks", err)
		return JobSummary{}
	}

	today := now.Weekday()
	return s.runScheduled(ctx, webhooks, now, func(w *BulkWebhook) bool {
		switch w.Frequency {
		case FrequencyWeekdays:
			return today != time.Saturday && today != time.Sunday
		case FrequencyWeekly:
			return w.DayOfWeek == today.String()
		}
		return true
	})
}

// SendMonthly sends every enabled Monthly webhook
func (s *BulkWebhookServiceImpl) SendMonthly(ctx context.Context, now time.Time) JobSummary {
	webhooks, err := s.repo.ListEnabled(ctx, FrequencyMonthly)
	if err != nil {
		_ = s.errorLog.Record(ctx, "Failed to load monthly Bulk Webhooks", err)
		return JobSummary{}
	}
	return s.runScheduled(ctx, webhooks, now, func(*BulkWebhook) bool { return true })
}

func (s *BulkWebhookServiceImpl) runScheduled(ctx context.Context, webhooks []BulkWebhook, now time.Time, due func(*BulkWebhook) bool) JobSummary {
	var summary JobSummary
	for i := range webhooks {
		w := &webhooks[i]
		summary.Considered++

		if !due(w) {
			summary.Skipped++
			continue
		}

		runCtx := ctx
		if w.User != "" {
			runCtx = utils.WithUser(ctx, &utils.UserClaims{UserID: w.User})
		}

		result, err := s.send(runCtx, w, now)
		if err != nil {
			summary.Failed++
			_ = s.errorLog.Record(runCtx, fmt.Sprintf("Failed to send %s Bulk Webhook", w.Name), err)
			continue
		}
		if result.Skipped {
			summary.Skipped++
			continue
		}
		summary.Sent++
	}
	return summary
}

func (s *BulkWebhookServiceImpl) ListRequestLogs(ctx context.Context, webhookID string, limit int64) ([]RequestLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.logs.List(ctx, webhookID, limit)
}

func (s *BulkWebhookServiceImpl) GetRequestLog(ctx context.Context, id string) (*RequestLog, error) {
	return s.logs.Get(ctx, id)
}
