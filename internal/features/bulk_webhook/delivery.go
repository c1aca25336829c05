package bulk_webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bulk-webhook/internal/config"
	"bulk-webhook/pkg/utils"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const userAgent = "Bulk-Webhook/1.0"

// Deliverer sends an encoded payload to a webhook's endpoint
type Deliverer interface {
	Deliver(ctx context.Context, w *BulkWebhook, payload *Payload) (*DeliveryResult, error)
}

type DeliveryResult struct {
	DeliveryID string
	Attempts   int
	StatusCode int
	Response   string
}

// Dispatcher makes a fixed number of attempts with linear backoff and
// writes one request log per attempt.
type Dispatcher struct {
	client      *resty.Client
	logs        RequestLogRepository
	logger      *zap.Logger
	maxAttempts int

	backoff func(attempt int) time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
	newID   func() string
	now     func() time.Time
}

func NewDispatcher(cfg *config.Config, logs RequestLogRepository, logger *zap.Logger) *Dispatcher {
	client := resty.New()
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))
	client.SetTimeout(cfg.WebhookTimeout)
	client.SetRetryCount(0)
	client.SetHeader("User-Agent", userAgent)

	attempts := cfg.WebhookMaxAttempts
	if attempts <= 0 {
		attempts = 3
	}

	return &Dispatcher{
		client:      client,
		logs:        logs,
		logger:      logger,
		maxAttempts: attempts,
		backoff:     linearBackoff,
		sleep:       sleepContext,
		newID:       uuid.NewString,
		now:         time.Now,
	}
}

// linearBackoff waits 3*i+1 seconds after the i-th failed attempt (0 based)
func linearBackoff(attempt int) time.Duration {
	return time.Duration(3*attempt+1) * time.Second
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (d *Dispatcher) Deliver(ctx context.Context, w *BulkWebhook, payload *Payload) (*DeliveryResult, error) {
	result := &DeliveryResult{DeliveryID: d.newID()}
	headers := BuildHeaders(w, payload, result.DeliveryID)
	user := utils.UserFromContext(ctx)
	log := d.logger.With(zap.String("webhook", w.Name), zap.String("delivery_id", result.DeliveryID))

	var lastErr error
	for i := 0; i < d.maxAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
		}

		result.Attempts = i + 1
		started := d.now()
		status, body, err := d.attempt(ctx, w, headers, payload)
		result.StatusCode = status
		result.Response = body

		entry := &RequestLog{
			WebhookID:   w.ID.Hex(),
			WebhookName: w.Name,
			DeliveryID:  result.DeliveryID,
			Attempt:     i + 1,
			Method:      w.RequestMethod,
			URL:         w.RequestURL,
			Headers:     headers,
			Data:        string(payload.Body),
			StatusCode:  status,
			Response:    body,
			Success:     err == nil,
			DurationMs:  d.now().Sub(started).Milliseconds(),
			User:        user,
			CreatedAt:   d.now().UTC(),
		}
		if err != nil {
			entry.Error = err.Error()
		}
		if logErr := d.logs.Create(ctx, entry); logErr != nil {
			log.Warn("Failed to write request log", zap.Error(logErr))
		}

		if err == nil {
			log.Debug("Webhook delivered", zap.Int("attempt", i+1), zap.Int("status", status), zap.String("user", user))
			return result, nil
		}

		lastErr = err
		log.Debug("Webhook attempt failed", zap.Int("attempt", i+1), zap.Error(err))

		if i < d.maxAttempts-1 {
			if err := d.sleep(ctx, d.backoff(i)); err != nil {
				return result, fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
			}
		}
	}

	return result, fmt.Errorf("%w after %d attempts: %w", ErrDeliveryFailed, result.Attempts, lastErr)
}

func (d *Dispatcher) attempt(ctx context.Context, w *BulkWebhook, headers map[string]string, payload *Payload) (int, string, error) {
	resp, err := d.client.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(payload.Body).
		Execute(w.RequestMethod, w.RequestURL)
	if err != nil {
		return 0, "", err
	}

	body := formatResponse(resp.Body())
	if !resp.IsSuccess() {
		return resp.StatusCode(), body, fmt.Errorf("unexpected status %d", resp.StatusCode())
	}
	return resp.StatusCode(), body, nil
}

// BuildHeaders assembles content type, delivery id, signature and the
// webhook's custom headers. Custom headers with an empty key or value are
// skipped.
func BuildHeaders(w *BulkWebhook, payload *Payload, deliveryID string) map[string]string {
	headers := map[string]string{
		"Content-Type": payload.ContentType,
		DeliveryHeader: deliveryID,
	}

	if w.EnableSecurity && w.WebhookSecret != "" {
		headers[SignatureHeader] = Sign(w.WebhookSecret, payload.Body)
	}

	for _, h := range w.Headers {
		if h.Key == "" || h.Value == "" {
			continue
		}
		headers[h.Key] = h.Value
	}
	return headers
}

// formatResponse pretty prints JSON bodies and keeps anything else verbatim
func formatResponse(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var out bytes.Buffer
	if json.Valid(body) && json.Indent(&out, body, "", "    ") == nil {
		return out.String()
	}
	return string(body)
}
