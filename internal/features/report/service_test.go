package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	common_models "bulk-webhook/internal/common/models"
	"bulk-webhook/internal/connectors"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type MockRecordFinder struct {
	rows       []map[string]any
	collection string
	query      bson.M
	sort       bson.D
	limit      int64
}

func (m *MockRecordFinder) Find(ctx context.Context, collection string, query bson.M, sort bson.D, limit int64) ([]map[string]any, error) {
	m.collection, m.query, m.sort, m.limit = collection, query, sort, limit
	return m.rows, nil
}

type MockConnector struct {
	query  string
	params map[string]interface{}
	resp   *connectors.QueryResponse
}

func (m *MockConnector) Query(ctx context.Context, query string, params map[string]interface{}) (*connectors.QueryResponse, error) {
	m.query, m.params = query, params
	return m.resp, nil
}
func (m *MockConnector) TestConnection(ctx context.Context) error { return nil }
func (m *MockConnector) Disconnect(ctx context.Context) error     { return nil }
func (m *MockConnector) GetType() string                          { return connectors.TypePostgres }

type MockConnectorProvider struct {
	conn   *MockConnector
	source connectors.DataSource
}

func (m *MockConnectorProvider) Get(ctx context.Context, source connectors.DataSource) (connectors.Connector, error) {
	m.source = source
	return m.conn, nil
}

type MockAuditService struct {
	actions []common_models.AuditAction
}

func (m *MockAuditService) LogChange(ctx context.Context, action common_models.AuditAction, module string, recordID string, changes map[string]common_models.Change) error {
	m.actions = append(m.actions, action)
	return nil
}

func (m *MockAuditService) ListLogs(ctx context.Context, filters map[string]interface{}, page, limit int64) ([]common_models.AuditLog, error) {
	return nil, nil
}

func sampleBuilderReport() *Report {
	return &Report{
		ID:         primitive.NewObjectID(),
		Name:       "Open Deals",
		ReportType: ReportTypeBuilder,
		Collection: "deals",
		Columns:    []string{"name", "amount"},
		Filters: []FilterField{
			{Fieldname: "status", Label: "Status", Reqd: true, Default: "open"},
			{Fieldname: "owner", Label: "Owner"},
		},
		SortField: "amount",
		SortOrder: "desc",
	}
}

func sampleQueryReport() *Report {
	return &Report{
		ID:         primitive.NewObjectID(),
		Name:       "Sales Summary",
		ReportType: ReportTypeQuery,
		Query:      "SELECT region, total FROM sales WHERE day BETWEEN :from_date AND :to_date",
		DataSource: &connectors.DataSource{Type: connectors.TypePostgres, Host: "db", Database: "erp", Username: "u", Password: "secret"},
		Filters: []FilterField{
			{Fieldname: "from_date", Label: "From Date", Reqd: true},
			{Fieldname: "to_date", Label: "To Date", Reqd: true},
			{Fieldname: "region", Label: "Region"},
		},
	}
}

func newTestService(repo ReportRepository, finder RecordFinder, conns ConnectorProvider) (*ReportServiceImpl, *MockAuditService) {
	auditSvc := &MockAuditService{}
	svc := NewReportService(repo, finder, conns, auditSvc, zap.NewNop()).(*ReportServiceImpl)
	svc.now = func() time.Time { return time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC) }
	return svc, auditSvc
}

func TestExecuteBuilderReport(t *testing.T) {
	finder := &MockRecordFinder{rows: []map[string]any{
		{"_id": "1", "name": "Acme", "amount": 10.0, "secret": "x"},
	}}
	svc, _ := newTestService(newMockReportRepository(), finder, nil)

	result, err := svc.Execute(context.Background(), sampleBuilderReport(), map[string]any{"owner": "alice"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if finder.collection != "deals" {
		t.Errorf("Expected collection deals, got %q", finder.collection)
	}
	wantQuery := bson.M{"status": "open", "owner": "alice"}
	if !reflect.DeepEqual(finder.query, wantQuery) {
		t.Errorf("Expected query %v, got %v", wantQuery, finder.query)
	}
	if !reflect.DeepEqual(finder.sort, bson.D{{Key: "amount", Value: -1}}) {
		t.Errorf("Unexpected sort %v", finder.sort)
	}
	if finder.limit != defaultRowLimit {
		t.Errorf("Expected default limit, got %d", finder.limit)
	}

	if !reflect.DeepEqual(result.Columns, []string{"name", "amount"}) {
		t.Errorf("Unexpected columns %v", result.Columns)
	}
	if _, ok := result.Data[0]["secret"]; ok {
		t.Error("Expected projection to drop columns outside the report")
	}
}

func TestExecuteRejectsMissingMandatoryFilters(t *testing.T) {
	svc, _ := newTestService(newMockReportRepository(), &MockRecordFinder{}, nil)

	_, err := svc.Execute(context.Background(), sampleQueryReport(), map[string]any{"from_date": "2024-01-01"})
	if !errors.Is(err, ErrMissingFilters) {
		t.Fatalf("Expected ErrMissingFilters, got %v", err)
	}
	if !strings.Contains(err.Error(), "To Date") {
		t.Errorf("Expected missing label in error, got %v", err)
	}
}

func TestExecuteQueryReport(t *testing.T) {
	conn := &MockConnector{resp: &connectors.QueryResponse{
		Columns: []string{"region", "total"},
		Data:    []map[string]interface{}{{"region": "north", "total": 42}},
	}}
	provider := &MockConnectorProvider{conn: conn}
	svc, _ := newTestService(newMockReportRepository(), nil, provider)

	rep := sampleQueryReport()
	result, err := svc.Execute(context.Background(), rep, map[string]any{"from_date": "2024-01-01", "to_date": "2024-01-31"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if provider.source.Host != "db" {
		t.Errorf("Expected data source to be passed through, got %+v", provider.source)
	}
	if conn.query != rep.Query {
		t.Errorf("Expected report query to run, got %q", conn.query)
	}
	if v, ok := conn.params["region"]; !ok || v != nil {
		t.Errorf("Expected declared but unset filter bound as nil, got %v (present=%v)", v, ok)
	}
	if !reflect.DeepEqual(result.Columns, []string{"region", "total"}) {
		t.Errorf("Unexpected columns %v", result.Columns)
	}
	if len(result.Data) != 1 {
		t.Errorf("Expected 1 row, got %d", len(result.Data))
	}
}

func TestCreateReportValidatesAndAudits(t *testing.T) {
	repo := newMockReportRepository()
	svc, auditSvc := newTestService(repo, nil, nil)

	bad := &Report{Name: "No source", ReportType: ReportTypeBuilder}
	if err := svc.CreateReport(context.Background(), bad); !errors.Is(err, ErrInvalidReport) {
		t.Errorf("Expected ErrInvalidReport, got %v", err)
	}

	good := sampleBuilderReport()
	if err := svc.CreateReport(context.Background(), good); err != nil {
		t.Fatalf("CreateReport() error = %v", err)
	}
	if good.CreatedBy != "system" {
		t.Errorf("Expected system creator without claims, got %q", good.CreatedBy)
	}
	if len(auditSvc.actions) != 1 || auditSvc.actions[0] != common_models.AuditActionCreate {
		t.Errorf("Expected one CREATE audit entry, got %v", auditSvc.actions)
	}
}

func TestUpdateReportKeepsRedactedPassword(t *testing.T) {
	rep := sampleQueryReport()
	repo := newMockReportRepository(rep)
	svc, _ := newTestService(repo, nil, nil)

	update := rep.Redacted()
	update.Name = "Renamed"
	if err := svc.UpdateReport(context.Background(), rep.ID.Hex(), &update); err != nil {
		t.Fatalf("UpdateReport() error = %v", err)
	}
	if repo.reports[rep.ID.Hex()].DataSource.Password != "secret" {
		t.Errorf("Expected stored password to survive a redacted update")
	}
}

func TestExportReport(t *testing.T) {
	rep := sampleBuilderReport()
	finder := &MockRecordFinder{rows: []map[string]any{
		{"name": "Acme, Inc", "amount": 10.5},
		{"name": "Globex", "amount": nil},
	}}
	svc, _ := newTestService(newMockReportRepository(rep), finder, nil)
	ctx := context.Background()

	data, filename, err := svc.ExportReport(ctx, rep.ID.Hex(), "csv", nil)
	if err != nil {
		t.Fatalf("ExportReport(csv) error = %v", err)
	}
	if filename != "open-deals_20240201_093000.csv" {
		t.Errorf("Unexpected filename %q", filename)
	}
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("Invalid CSV: %v", err)
	}
	want := [][]string{{"name", "amount"}, {"Acme, Inc", "10.5"}, {"Globex", ""}}
	if !reflect.DeepEqual(records, want) {
		t.Errorf("CSV = %v, want %v", records, want)
	}

	data, filename, err = svc.ExportReport(ctx, rep.ID.Hex(), "xlsx", nil)
	if err != nil {
		t.Fatalf("ExportReport(xlsx) error = %v", err)
	}
	if !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("Unexpected filename %q", filename)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Invalid workbook: %v", err)
	}
	defer f.Close()
	if v, _ := f.GetCellValue(sheetName, "A2"); v != "Acme, Inc" {
		t.Errorf("Expected A2 Acme, Inc, got %q", v)
	}

	if _, _, err := svc.ExportReport(ctx, rep.ID.Hex(), "pdf", nil); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestFormatCell(t *testing.T) {
	oid := primitive.NewObjectID()
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"text", "text"},
		{time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), "2024-01-02 03:04:05"},
		{oid, oid.Hex()},
		{map[string]any{"name": "Acme"}, "Acme"},
		{42, "42"},
	}
	for _, tt := range tests {
		if got := FormatCell(tt.in); got != tt.want {
			t.Errorf("FormatCell(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
