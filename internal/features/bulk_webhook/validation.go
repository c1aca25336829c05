package bulk_webhook

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bulk-webhook/internal/features/report"
)

var allowedMethods = map[string]bool{
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

var weekdays = map[string]bool{
	"Monday": true, "Tuesday": true, "Wednesday": true, "Thursday": true,
	"Friday": true, "Saturday": true, "Sunday": true,
}

// Validate checks mandatory report filters, the request URL and the request
// body. A Form URL-Encoded webhook has its JSON template cleared.
func Validate(w *BulkWebhook) error {
	if missing := report.MissingFilters(w.FilterMeta, w.Filters); len(missing) > 0 {
		return &ValidationError{Title: "Missing Filters Required", Fields: missing}
	}

	if err := validateRequestURL(w.RequestURL); err != nil {
		return err
	}

	if err := validateRequestBody(w); err != nil {
		return err
	}

	return validateSchedule(w)
}

func validateRequestURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: %q has no host", ErrInvalidURL, raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	return nil
}

func validateRequestBody(w *BulkWebhook) error {
	switch w.RequestStructure {
	case RequestStructureForm:
		w.WebhookJSON = ""
	case RequestStructureJSON:
		if strings.TrimSpace(w.WebhookJSON) != "" {
			if _, err := ParseTemplate(w.WebhookJSON, time.Now); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: unknown request structure %q", ErrInvalidWebhook, w.RequestStructure)
	}
	return nil
}

func validateSchedule(w *BulkWebhook) error {
	if !allowedMethods[w.RequestMethod] {
		return fmt.Errorf("%w: unsupported request method %q", ErrInvalidWebhook, w.RequestMethod)
	}

	switch w.Frequency {
	case FrequencyDaily, FrequencyWeekdays, FrequencyMonthly:
	case FrequencyWeekly:
		if !weekdays[w.DayOfWeek] {
			return fmt.Errorf("%w: weekly webhooks need a day_of_week, got %q", ErrInvalidWebhook, w.DayOfWeek)
		}
	default:
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidWebhook, w.Frequency)
	}

	if w.DynamicDatePeriod != "" {
		if w.FromDateField == "" || w.ToDateField == "" {
			return fmt.Errorf("%w: dynamic date period needs from_date_field and to_date_field", ErrInvalidWebhook)
		}
		if _, _, err := DateRange(w.DynamicDatePeriod, time.Now()); err != nil {
			return err
		}
	}

	if w.DataModifiedTill < 0 {
		return fmt.Errorf("%w: data_modified_till must not be negative", ErrInvalidWebhook)
	}
	if w.EnableSecurity && w.WebhookSecret == "" {
		return fmt.Errorf("%w: enable_security requires a webhook_secret", ErrInvalidWebhook)
	}
	return nil
}
