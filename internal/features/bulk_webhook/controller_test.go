package bulk_webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"bulk-webhook/internal/config"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/mongo"
)

// stubService implements only what the routes under test call
type stubService struct {
	BulkWebhookService
	webhook   *BulkWebhook
	sendErr   error
	createErr error
	created   *BulkWebhook
}

func (s *stubService) Get(ctx context.Context, id string) (*BulkWebhook, error) {
	if s.webhook == nil || id != "known" {
		return nil, ErrWebhookNotFound
	}
	cp := *s.webhook
	return &cp, nil
}

func (s *stubService) Create(ctx context.Context, w *BulkWebhook) error {
	s.created = w
	if s.createErr != nil {
		return s.createErr
	}
	if w.Filters == nil {
		return &ValidationError{Title: "Missing Filters Required", Fields: []string{"Company"}}
	}
	return nil
}

func (s *stubService) SendNow(ctx context.Context, id string) (*SendResult, error) {
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	return &SendResult{Rows: 3, DeliveryID: "d-1", Attempts: 1, StatusCode: 200}, nil
}

func newTestApi(svc BulkWebhookService) *fiber.App {
	app := fiber.New()
	NewBulkWebhookApi(NewBulkWebhookController(svc), &config.Config{SkipAuth: true}).Setup(app)
	return app
}

func TestGetBulkWebhookRedactsSecret(t *testing.T) {
	app := newTestApi(&stubService{webhook: &BulkWebhook{Name: "hook", WebhookSecret: "s3cret"}})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/bulk-webhooks/known", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if strings.Contains(string(body), "s3cret") {
		t.Errorf("Secret leaked in response: %s", body)
	}
}

func TestBulkWebhookErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		sendErr error
		want    int
	}{
		{name: "Unknown webhook", method: "GET", path: "/api/bulk-webhooks/missing", want: fiber.StatusNotFound},
		{name: "Missing filters", method: "POST", path: "/api/bulk-webhooks", body: `{"name":"x"}`, want: fiber.StatusBadRequest},
		{name: "Malformed body", method: "POST", path: "/api/bulk-webhooks", body: `{`, want: fiber.StatusBadRequest},
		{name: "Filters not set", method: "POST", path: "/api/bulk-webhooks/known/send", sendErr: ErrFiltersNotSet, want: fiber.StatusBadRequest},
		{name: "Delivery failed", method: "POST", path: "/api/bulk-webhooks/known/send", sendErr: fmt.Errorf("%w after 3 attempts", ErrDeliveryFailed), want: fiber.StatusBadGateway},
		{name: "Store failure", method: "POST", path: "/api/bulk-webhooks/known/send", sendErr: fmt.Errorf("mongo down"), want: fiber.StatusInternalServerError},
		{name: "Send ok", method: "POST", path: "/api/bulk-webhooks/known/send", want: fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApi(&stubService{sendErr: tt.sendErr})

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
}

func TestCreateValidationErrorListsFields(t *testing.T) {
	app := newTestApi(&stubService{})

	req := httptest.NewRequest("POST", "/api/bulk-webhooks", strings.NewReader(`{"name":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}

	var body struct {
		Title  string   `json:"title"`
		Fields []string `json:"fields"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Invalid JSON body: %v", err)
	}
	if body.Title != "Missing Filters Required" || len(body.Fields) != 1 || body.Fields[0] != "Company" {
		t.Errorf("Unexpected body %+v", body)
	}
}

func TestCreateDuplicateNameConflict(t *testing.T) {
	dup := writeError(mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key error"}}}, "daily-sales")
	app := newTestApi(&stubService{createErr: dup})

	req := httptest.NewRequest("POST", "/api/bulk-webhooks", strings.NewReader(`{"name":"daily-sales","filters":{"company":"Acme"}}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusConflict {
		t.Errorf("Expected status %d, got %d", fiber.StatusConflict, resp.StatusCode)
	}
}
