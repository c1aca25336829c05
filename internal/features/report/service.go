package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	common_models "bulk-webhook/internal/common/models"
	"bulk-webhook/internal/connectors"
	"bulk-webhook/internal/features/audit"
	"bulk-webhook/pkg/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const defaultRowLimit = 10000

// ConnectorProvider hands out SQL connectors for query reports
type ConnectorProvider interface {
	Get(ctx context.Context, source connectors.DataSource) (connectors.Connector, error)
}

type ReportService interface {
	CreateReport(ctx context.Context, report *Report) error
	GetReport(ctx context.Context, id string) (*Report, error)
	ListReports(ctx context.Context) ([]Report, error)
	UpdateReport(ctx context.Context, id string, report *Report) error
	DeleteReport(ctx context.Context, id string) error
	Execute(ctx context.Context, report *Report, filters map[string]any) (*Result, error)
	RunReport(ctx context.Context, id string, filters map[string]any) (*Result, error)
	ExportReport(ctx context.Context, id string, format string, filters map[string]any) ([]byte, string, error)
}

type ReportServiceImpl struct {
	ReportRepo   ReportRepository
	Records      RecordFinder
	Connectors   ConnectorProvider
	AuditService audit.AuditService
	logger       *zap.Logger
	now          func() time.Time
}

func NewReportService(reportRepo ReportRepository, records RecordFinder, conns ConnectorProvider, auditService audit.AuditService, logger *zap.Logger) ReportService {
	return &ReportServiceImpl{
		ReportRepo:   reportRepo,
		Records:      records,
		Connectors:   conns,
		AuditService: auditService,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *ReportServiceImpl) CreateReport(ctx context.Context, report *Report) error {
	if err := report.Validate(); err != nil {
		return err
	}
	report.CreatedBy = utils.UserFromContext(ctx)
	report.UpdatedBy = report.CreatedBy

	if err := s.ReportRepo.Create(ctx, report); err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, "reports", report.ID.Hex(), map[string]common_models.Change{
		"report": {New: report.Redacted()},
	})
	return nil
}

func (s *ReportServiceImpl) GetReport(ctx context.Context, id string) (*Report, error) {
	return s.ReportRepo.Get(ctx, id)
}

func (s *ReportServiceImpl) ListReports(ctx context.Context) ([]Report, error) {
	return s.ReportRepo.List(ctx)
}

func (s *ReportServiceImpl) UpdateReport(ctx context.Context, id string, report *Report) error {
	if err := report.Validate(); err != nil {
		return err
	}
	oldReport, err := s.ReportRepo.Get(ctx, id)
	if err != nil {
		return err
	}

	// keep the stored password when the client echoes back a redacted one
	if report.DataSource != nil && oldReport.DataSource != nil && report.DataSource.Password == "********" {
		report.DataSource.Password = oldReport.DataSource.Password
	}
	report.UpdatedBy = utils.UserFromContext(ctx)

	if err := s.ReportRepo.Update(ctx, id, report); err != nil {
		return fmt.Errorf("update report: %w", err)
	}
	report.ID = oldReport.ID
	report.CreatedAt = oldReport.CreatedAt
	report.CreatedBy = oldReport.CreatedBy

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, "reports", id, map[string]common_models.Change{
		"report": {Old: oldReport.Redacted(), New: report.Redacted()},
	})
	return nil
}

func (s *ReportServiceImpl) DeleteReport(ctx context.Context, id string) error {
	oldReport, err := s.ReportRepo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.ReportRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, "reports", id, map[string]common_models.Change{
		"report": {Old: oldReport.Redacted(), New: "DELETED"},
	})
	return nil
}

func (s *ReportServiceImpl) RunReport(ctx context.Context, id string, filters map[string]any) (*Result, error) {
	rep, err := s.ReportRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Execute(ctx, rep, filters)
}

// Execute runs report with filters merged over the declared defaults
func (s *ReportServiceImpl) Execute(ctx context.Context, rep *Report, filters map[string]any) (*Result, error) {
	merged := withDefaults(rep.Filters, filters)
	if missing := MissingFilters(rep.Filters, merged); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingFilters, strings.Join(missing, ", "))
	}

	var (
		result *Result
		err    error
	)
	started := s.now()
	switch rep.ReportType {
	case ReportTypeBuilder:
		result, err = s.runBuilder(ctx, rep, merged)
	case ReportTypeQuery:
		result, err = s.runQuery(ctx, rep, merged)
	default:
		err = fmt.Errorf("%w: unknown report_type %q", ErrInvalidReport, rep.ReportType)
	}
	if err != nil {
		return nil, fmt.Errorf("run report %s: %w", rep.Name, err)
	}

	s.logger.Debug("Report executed",
		zap.String("report", rep.Name),
		zap.Int("rows", len(result.Data)),
		zap.Duration("took", s.now().Sub(started)),
		zap.String("user", utils.UserFromContext(ctx)))
	return result, nil
}

func (s *ReportServiceImpl) runBuilder(ctx context.Context, rep *Report, filters map[string]any) (*Result, error) {
	query, err := BuildQuery(filters)
	if err != nil {
		return nil, err
	}

	var sortDoc bson.D
	if rep.SortField != "" {
		dir := 1
		if strings.EqualFold(rep.SortOrder, "desc") {
			dir = -1
		}
		sortDoc = bson.D{{Key: rep.SortField, Value: dir}}
	}

	limit := rep.Limit
	if limit <= 0 {
		limit = defaultRowLimit
	}

	records, err := s.Records.Find(ctx, rep.Collection, query, sortDoc, limit)
	if err != nil {
		return nil, err
	}

	if len(rep.Columns) > 0 {
		projected := make([]map[string]any, 0, len(records))
		for _, rec := range records {
			row := make(map[string]any, len(rep.Columns))
			for _, col := range rep.Columns {
				row[col] = rec[col]
			}
			projected = append(projected, row)
		}
		return &Result{Columns: append([]string(nil), rep.Columns...), Data: projected}, nil
	}

	return &Result{Columns: columnsOf(records), Data: records}, nil
}

func (s *ReportServiceImpl) runQuery(ctx context.Context, rep *Report, filters map[string]any) (*Result, error) {
	if rep.DataSource == nil {
		return nil, fmt.Errorf("%w: missing data_source", ErrInvalidReport)
	}
	conn, err := s.Connectors.Get(ctx, *rep.DataSource)
	if err != nil {
		return nil, err
	}

	params := make(map[string]any, len(filters)+len(rep.Filters))
	for _, def := range rep.Filters {
		params[def.Fieldname] = nil
	}
	for k, v := range filters {
		params[k] = v
	}

	resp, err := conn.Query(ctx, rep.Query, params)
	if err != nil {
		return nil, err
	}

	columns := resp.Columns
	if len(rep.Columns) > 0 {
		columns = append([]string(nil), rep.Columns...)
	}
	return &Result{Columns: columns, Data: resp.Data}, nil
}

func (s *ReportServiceImpl) ExportReport(ctx context.Context, id string, format string, filters map[string]any) ([]byte, string, error) {
	rep, err := s.ReportRepo.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}

	var write func(*Result) ([]byte, error)
	switch format {
	case "csv":
		write = ExportCSV
	case "xlsx":
		write = func(r *Result) ([]byte, error) { return ExportXLSX(r, rep.Name) }
	default:
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	result, err := s.Execute(ctx, rep, filters)
	if err != nil {
		return nil, "", err
	}
	data, err := write(result)
	if err != nil {
		return nil, "", err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionReport, "reports", id, map[string]common_models.Change{
		"export": {New: format},
	})
	return data, utils.ExportFileName(rep.Name, s.now(), format), nil
}

// IsNotFound reports whether err means the report does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrReportNotFound)
}

func withDefaults(defs []FilterField, filters map[string]any) map[string]any {
	merged := make(map[string]any, len(filters)+len(defs))
	for _, def := range defs {
		if def.Default != nil {
			merged[def.Fieldname] = def.Default
		}
	}
	for k, v := range filters {
		merged[k] = v
	}
	return merged
}

// columnsOf returns the sorted union of keys, with _id first when present
func columnsOf(rows []map[string]any) []string {
	seen := map[string]bool{}
	for _, row := range rows {
		for k := range row {
			seen[k] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		if k != "_id" {
			cols = append(cols, k)
		}
	}
	sort.Strings(cols)
	if seen["_id"] {
		cols = append([]string{"_id"}, cols...)
	}
	return cols
}
