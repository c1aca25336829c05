package report

import (
	"errors"
	"time"

	"bulk-webhook/internal/connectors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReportType string

const (
	// ReportTypeBuilder reads documents from a collection in the service database
	ReportTypeBuilder ReportType = "report_builder"
	// ReportTypeQuery runs SQL against an external data source
	ReportTypeQuery ReportType = "query_report"
)

var (
	ErrReportNotFound    = errors.New("report not found")
	ErrInvalidReport     = errors.New("invalid report definition")
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrMissingFilters    = errors.New("mandatory filters not set")
)

// FilterField declares a filter the report accepts
type FilterField struct {
	Fieldname string `json:"fieldname" bson:"fieldname"`
	Label     string `json:"label" bson:"label"`
	Fieldtype string `json:"fieldtype" bson:"fieldtype"` // Data, Date, Int, Select, Link...
	Reqd      bool   `json:"reqd" bson:"reqd"`
	Default   any    `json:"default,omitempty" bson:"default,omitempty"`
}

// Report represents a saved report configuration
type Report struct {
	ID          primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	Name        string                 `json:"name" bson:"name"`
	Description string                 `json:"description" bson:"description"`
	ReportType  ReportType             `json:"report_type" bson:"report_type"`
	Collection  string                 `json:"collection,omitempty" bson:"collection,omitempty"` // report_builder source
	Query       string                 `json:"query,omitempty" bson:"query,omitempty"`           // query_report SQL with :name params
	DataSource  *connectors.DataSource `json:"data_source,omitempty" bson:"data_source,omitempty"`
	Columns     []string               `json:"columns" bson:"columns"`
	Filters     []FilterField          `json:"filters" bson:"filters"`
	SortField   string                 `json:"sort_field,omitempty" bson:"sort_field,omitempty"`
	SortOrder   string                 `json:"sort_order,omitempty" bson:"sort_order,omitempty"` // asc, desc
	Limit       int64                  `json:"limit,omitempty" bson:"limit,omitempty"`
	CreatedBy   string                 `json:"created_by,omitempty" bson:"created_by,omitempty"`
	UpdatedBy   string                 `json:"updated_by,omitempty" bson:"updated_by,omitempty"`
	CreatedAt   time.Time              `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at" bson:"updated_at"`
}

// Result is the tabular output of one report run
type Result struct {
	Columns []string         `json:"columns"`
	Data    []map[string]any `json:"data"`
}

// Redacted returns a copy safe to return over the API
func (r Report) Redacted() Report {
	if r.DataSource != nil {
		ds := *r.DataSource
		if ds.Password != "" {
			ds.Password = "********"
		}
		r.DataSource = &ds
	}
	return r
}

func (r *Report) Validate() error {
	if r.Name == "" {
		return errors.Join(ErrInvalidReport, errors.New("name is required"))
	}
	switch r.ReportType {
	case ReportTypeBuilder:
		if r.Collection == "" {
			return errors.Join(ErrInvalidReport, errors.New("collection is required for report_builder"))
		}
	case ReportTypeQuery:
		if r.Query == "" || r.DataSource == nil {
			return errors.Join(ErrInvalidReport, errors.New("query and data_source are required for query_report"))
		}
	default:
		return errors.Join(ErrInvalidReport, errors.New("unknown report_type "+string(r.ReportType)))
	}
	return nil
}

// MissingFilters returns the labels of mandatory filters without a usable
// value. Zero numbers and false count as unset here, unlike in queries.
func MissingFilters(defs []FilterField, filters map[string]any) []string {
	var missing []string
	for _, def := range defs {
		if !def.Reqd {
			continue
		}
		if v := filters[def.Fieldname]; IsEmptyValue(v) || isFalsy(v) {
			label := def.Label
			if label == "" {
				label = def.Fieldname
			}
			missing = append(missing, label)
		}
	}
	return missing
}

func isFalsy(v any) bool {
	switch val := v.(type) {
	case bool:
		return !val
	case int:
		return val == 0
	case int32:
		return val == 0
	case int64:
		return val == 0
	case float64:
		return val == 0
	}
	return false
}

// IsEmptyValue treats nil, blank strings and empty lists as unset
func IsEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []any:
		return len(val) == 0
	case primitive.A:
		return len(val) == 0
	case []string:
		return len(val) == 0
	}
	return false
}
