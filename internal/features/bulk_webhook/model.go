package bulk_webhook

import (
	"time"

	"bulk-webhook/internal/features/report"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Frequency string

const (
	FrequencyDaily    Frequency = "Daily"
	FrequencyWeekdays Frequency = "Weekdays"
	FrequencyWeekly   Frequency = "Weekly"
	FrequencyMonthly  Frequency = "Monthly"
)

type RequestStructure string

const (
	RequestStructureJSON RequestStructure = "JSON"
	RequestStructureForm RequestStructure = "Form URL-Encoded"
)

// DynamicDatePeriod selects how far back the from-date filter reaches
type DynamicDatePeriod string

const (
	PeriodDaily      DynamicDatePeriod = "Daily"
	PeriodWeekly     DynamicDatePeriod = "Weekly"
	PeriodMonthly    DynamicDatePeriod = "Monthly"
	PeriodQuarterly  DynamicDatePeriod = "Quarterly"
	PeriodHalfYearly DynamicDatePeriod = "Half Yearly"
	PeriodYearly     DynamicDatePeriod = "Yearly"
)

const redactedSecret = "********"

type WebhookHeader struct {
	Key   string `json:"key" bson:"key"`
	Value string `json:"value" bson:"value"`
}

// BulkWebhook is a scheduled delivery of report rows to an external URL
type BulkWebhook struct {
	ID                primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Name              string               `json:"name" bson:"name"`
	Enabled           bool                 `json:"enabled" bson:"enabled"`
	RequestURL        string               `json:"request_url" bson:"request_url"`
	RequestMethod     string               `json:"request_method" bson:"request_method"`
	RequestStructure  RequestStructure     `json:"request_structure" bson:"request_structure"`
	Frequency         Frequency            `json:"frequency" bson:"frequency"`
	DayOfWeek         string               `json:"day_of_week,omitempty" bson:"day_of_week,omitempty"`
	Report            string               `json:"report" bson:"report"`
	ReportType        report.ReportType    `json:"report_type" bson:"report_type"`
	Filters           map[string]any       `json:"filters,omitempty" bson:"filters,omitempty"`
	FilterMeta        []report.FilterField `json:"filter_meta,omitempty" bson:"filter_meta,omitempty"`
	WebhookJSON       string               `json:"webhook_json,omitempty" bson:"webhook_json,omitempty"`
	EnableSecurity    bool                 `json:"enable_security" bson:"enable_security"`
	WebhookSecret     string               `json:"webhook_secret,omitempty" bson:"webhook_secret,omitempty"`
	Headers           []WebhookHeader      `json:"webhook_headers,omitempty" bson:"webhook_headers,omitempty"`
	SendIfData        bool                 `json:"send_if_data" bson:"send_if_data"`
	DynamicDatePeriod DynamicDatePeriod    `json:"dynamic_date_period,omitempty" bson:"dynamic_date_period,omitempty"`
	FromDateField     string               `json:"from_date_field,omitempty" bson:"from_date_field,omitempty"`
	ToDateField       string               `json:"to_date_field,omitempty" bson:"to_date_field,omitempty"`
	DataModifiedTill  int                  `json:"data_modified_till,omitempty" bson:"data_modified_till,omitempty"` // hours
	User              string               `json:"user,omitempty" bson:"user,omitempty"`
	LastSentAt        *time.Time           `json:"last_sent_at,omitempty" bson:"last_sent_at,omitempty"`
	CreatedBy         string               `json:"created_by,omitempty" bson:"created_by,omitempty"`
	CreatedAt         time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at" bson:"updated_at"`
}

// Redacted returns a copy with the signing secret masked
func (w BulkWebhook) Redacted() BulkWebhook {
	if w.WebhookSecret != "" {
		w.WebhookSecret = redactedSecret
	}
	return w
}

func (w *BulkWebhook) dynamicDateFiltersSet() bool {
	return w.DynamicDatePeriod != "" && w.FromDateField != "" && w.ToDateField != ""
}

// RequestLog records one delivery attempt; entries are never updated
type RequestLog struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	WebhookID   string             `json:"webhook_id" bson:"webhook_id"`
	WebhookName string             `json:"webhook_name" bson:"webhook_name"`
	DeliveryID  string             `json:"delivery_id" bson:"delivery_id"`
	Attempt     int                `json:"attempt" bson:"attempt"`
	Method      string             `json:"method" bson:"method"`
	URL         string             `json:"url" bson:"url"`
	Headers     map[string]string  `json:"headers,omitempty" bson:"headers,omitempty"`
	Data        string             `json:"data,omitempty" bson:"data,omitempty"`
	StatusCode  int                `json:"status_code,omitempty" bson:"status_code,omitempty"`
	Response    string             `json:"response,omitempty" bson:"response,omitempty"`
	Success     bool               `json:"success" bson:"success"`
	Error       string             `json:"error,omitempty" bson:"error,omitempty"`
	DurationMs  int64              `json:"duration_ms" bson:"duration_ms"`
	User        string             `json:"user,omitempty" bson:"user,omitempty"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
}

// SendResult summarises one Send call
type SendResult struct {
	Skipped    bool   `json:"skipped"`
	Rows       int    `json:"rows"`
	DeliveryID string `json:"delivery_id,omitempty"`
	Attempts   int    `json:"attempts,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
}

// JobSummary counts what a scheduled job did
type JobSummary struct {
	Considered int `json:"considered"`
	Sent       int `json:"sent"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}
