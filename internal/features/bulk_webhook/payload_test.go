package bulk_webhook

import (
	"encoding/json"
	"errors"
	"net/url"
	"testing"
	"time"
)

var fixedNow = func() time.Time { return time.Date(2024, 4, 2, 7, 30, 0, 0, time.UTC) }

func sampleRows() []map[string]any {
	return []map[string]any{
		{"idx": 1, "customer": "Acme", "amount": 120.5},
		{"idx": 2, "customer": "Globex", "amount": 80.0},
	}
}

func TestBuildPayloadRawRows(t *testing.T) {
	w := validWebhook()

	p, err := BuildPayload(w, sampleRows(), fixedNow)
	if err != nil {
		t.Fatalf("BuildPayload() error = %v", err)
	}
	if p.ContentType != contentTypeJSON {
		t.Errorf("Expected JSON content type, got %q", p.ContentType)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(p.Body, &decoded); err != nil {
		t.Fatalf("Body is not JSON: %v", err)
	}
	if len(decoded) != 2 || decoded[0]["customer"] != "Acme" {
		t.Errorf("Unexpected rows %v", decoded)
	}
}

func TestBuildPayloadTemplate(t *testing.T) {
	w := validWebhook()
	w.WebhookJSON = `{
  "sent_on": "{{ today }}",
  "count": {{ len .data }},
  "first": {{ (index .data 0).customer | json }},
  "customers": [{{ range $i, $row := .data }}{{ if $i }},{{ end }}{{ $row.customer | quote }}{{ end }}],
  "month": "{{ formatDate "Jan 2006" "2024-03-15" }}"
}`

	p, err := BuildPayload(w, sampleRows(), fixedNow)
	if err != nil {
		t.Fatalf("BuildPayload() error = %v", err)
	}

	var decoded struct {
		SentOn    string   `json:"sent_on"`
		Count     int      `json:"count"`
		First     string   `json:"first"`
		Customers []string `json:"customers"`
		Month     string   `json:"month"`
	}
	if err := json.Unmarshal(p.Body, &decoded); err != nil {
		t.Fatalf("Rendered body is not JSON: %v\n%s", err, p.Body)
	}
	if decoded.SentOn != "2024-04-02" {
		t.Errorf("Expected today 2024-04-02, got %q", decoded.SentOn)
	}
	if decoded.Count != 2 || decoded.First != "Acme" {
		t.Errorf("Unexpected render %+v", decoded)
	}
	if len(decoded.Customers) != 2 || decoded.Customers[1] != "Globex" {
		t.Errorf("Unexpected customers %v", decoded.Customers)
	}
	if decoded.Month != "Mar 2024" {
		t.Errorf("Expected Mar 2024, got %q", decoded.Month)
	}
}

func TestBuildPayloadRejectsInvalidJSON(t *testing.T) {
	w := validWebhook()
	w.WebhookJSON = `{"count": {{ len .data }},}`

	_, err := BuildPayload(w, sampleRows(), fixedNow)
	if !errors.Is(err, ErrInvalidTemplate) {
		t.Errorf("Expected ErrInvalidTemplate, got %v", err)
	}
}

func TestBuildPayloadForm(t *testing.T) {
	w := validWebhook()
	w.RequestStructure = RequestStructureForm

	p, err := BuildPayload(w, sampleRows(), fixedNow)
	if err != nil {
		t.Fatalf("BuildPayload() error = %v", err)
	}
	if p.ContentType != contentTypeForm {
		t.Errorf("Expected form content type, got %q", p.ContentType)
	}

	values, err := url.ParseQuery(string(p.Body))
	if err != nil {
		t.Fatalf("Body is not form encoded: %v", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal([]byte(values.Get("data")), &rows); err != nil {
		t.Fatalf("data field is not JSON: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("Expected 2 rows, got %d", len(rows))
	}
}

func TestSignAndVerify(t *testing.T) {
	body := []byte(`[{"idx":1}]`)

	// echo -n '[{"idx":1}]' | openssl dgst -sha256 -hmac s3cret -binary | base64
	sig := Sign("s3cret", body)
	if sig != "E984MaZYNcxvnXByjC11vfcd85d3c4KZLwYAAFFuS2c=" {
		t.Errorf("Sign() = %q", sig)
	}
	if !VerifySignature("s3cret", body, sig) {
		t.Error("Expected signature to verify")
	}
	if VerifySignature("other", body, sig) {
		t.Error("Expected signature under another secret to fail")
	}
	if VerifySignature("s3cret", []byte(`[{"idx":2}]`), sig) {
		t.Error("Expected signature over other body to fail")
	}
	if VerifySignature("s3cret", body, "%%%") {
		t.Error("Expected malformed signature to fail")
	}
}

func TestBuildHeaders(t *testing.T) {
	w := validWebhook()
	w.EnableSecurity = true
	w.WebhookSecret = "s3cret"
	w.Headers = []WebhookHeader{
		{Key: "Authorization", Value: "Bearer abc"},
		{Key: "", Value: "dropped"},
		{Key: "X-Empty", Value: ""},
	}
	p := &Payload{Body: []byte(`[]`), ContentType: contentTypeJSON}

	headers := BuildHeaders(w, p, "delivery-1")

	if headers["Authorization"] != "Bearer abc" {
		t.Errorf("Expected custom header, got %v", headers)
	}
	if _, ok := headers["X-Empty"]; ok {
		t.Error("Expected empty-valued header to be skipped")
	}
	if len(headers) != 4 {
		t.Errorf("Expected 4 headers, got %d: %v", len(headers), headers)
	}
	if headers[SignatureHeader] != Sign("s3cret", p.Body) {
		t.Errorf("Unexpected signature %q", headers[SignatureHeader])
	}
	if headers[DeliveryHeader] != "delivery-1" {
		t.Errorf("Unexpected delivery id %q", headers[DeliveryHeader])
	}
}
