package bulk_webhook

import (
	"errors"
	"strings"
)

var (
	ErrWebhookNotFound = errors.New("bulk webhook not found")
	ErrLogNotFound     = errors.New("request log not found")
	ErrInvalidWebhook  = errors.New("invalid bulk webhook")
	ErrDuplicateName   = errors.New("bulk webhook name already exists")
	ErrFiltersNotSet   = errors.New("please set filters value in report filter table")
	ErrInvalidURL      = errors.New("invalid request url")
	ErrInvalidTemplate = errors.New("invalid webhook json template")
	ErrDeliveryFailed  = errors.New("webhook delivery failed")
)

// ValidationError lists report filters that are mandatory but unset
type ValidationError struct {
	Title  string   `json:"title"`
	Fields []string `json:"fields"`
}

func (e *ValidationError) Error() string {
	return e.Title + ": " + strings.Join(e.Fields, ", ")
}

// IsValidation reports whether err should surface as a client error
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, ErrInvalidWebhook) ||
		errors.Is(err, ErrInvalidURL) ||
		errors.Is(err, ErrInvalidTemplate) ||
		errors.Is(err, ErrFiltersNotSet)
}
