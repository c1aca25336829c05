package bulk_webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
)

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
)

// Payload is the encoded request body for one send
type Payload struct {
	Body        []byte
	ContentType string
}

// ParseTemplate compiles a webhook_json template. Templates get the sprig
// functions plus json, today, now and formatDate.
func ParseTemplate(text string, now func() time.Time) (*template.Template, error) {
	tmpl, err := template.New("webhook_json").
		Funcs(templateFuncs(now)).
		Option("missingkey=zero").
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	return tmpl, nil
}

func templateFuncs(now func() time.Time) template.FuncMap {
	funcs := sprig.TxtFuncMap()
	funcs["json"] = func(v any) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	}
	funcs["now"] = now
	funcs["today"] = func() string { return now().Format(dateLayout) }
	funcs["formatDate"] = formatDate
	return funcs
}

// formatDate accepts a time or a YYYY-MM-DD / RFC3339 string
func formatDate(layout string, v any) (string, error) {
	switch val := v.(type) {
	case time.Time:
		return val.Format(layout), nil
	case string:
		for _, in := range []string{time.RFC3339, dateLayout, "2006-01-02 15:04:05"} {
			if t, err := time.Parse(in, val); err == nil {
				return t.Format(layout), nil
			}
		}
		return "", fmt.Errorf("formatDate: cannot parse %q", val)
	default:
		return "", fmt.Errorf("formatDate: unsupported value %T", v)
	}
}

// BuildPayload encodes rows according to the webhook's request structure
func BuildPayload(w *BulkWebhook, rows []map[string]any, now func() time.Time) (*Payload, error) {
	if w.RequestStructure == RequestStructureForm {
		raw, err := json.Marshal(rows)
		if err != nil {
			return nil, fmt.Errorf("encode rows: %w", err)
		}
		form := url.Values{"data": {string(raw)}}
		return &Payload{Body: []byte(form.Encode()), ContentType: contentTypeForm}, nil
	}

	if strings.TrimSpace(w.WebhookJSON) == "" {
		raw, err := json.Marshal(rows)
		if err != nil {
			return nil, fmt.Errorf("encode rows: %w", err)
		}
		return &Payload{Body: raw, ContentType: contentTypeJSON}, nil
	}

	tmpl, err := ParseTemplate(w.WebhookJSON, now)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	ctx := map[string]any{
		"data":    rows,
		"webhook": w.Name,
		"filters": w.Filters,
	}
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}

	body := bytes.TrimSpace(buf.Bytes())
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: rendered output is not valid JSON", ErrInvalidTemplate)
	}
	return &Payload{Body: body, ContentType: contentTypeJSON}, nil
}
