package gql

import (
	"time"

	"github.com/LeventeLantos/sms-faas/internal/model"
)

// isoMillis matches the timestamps previously emitted by the API.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

type templateView struct {
	ID         string   `json:"id"`
	TemplateID string   `json:"templateId"`
	Name       string   `json:"name"`
	Body       string   `json:"body"`
	Variables  []string `json:"variables"`
	CreatedAt  string   `json:"createdAt"`
	UpdatedAt  *string  `json:"updatedAt"`
}

type logView struct {
	ID               string           `json:"id"`
	Phone            string           `json:"phone"`
	Message          string           `json:"message"`
	TemplateID       *string          `json:"templateId"`
	Variables        []model.KeyValue `json:"variables"`
	Status           string           `json:"status"`
	CreatedAt        string           `json:"createdAt"`
	ProviderResponse *string          `json:"providerResponse"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(isoMillis)
}

func optionalTime(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := formatTime(t)
	return &s
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func newTemplateView(t model.Template) templateView {
	vars := t.Variables
	if vars == nil {
		vars = []string{}
	}
	return templateView{
		ID:         t.ID.Hex(),
		TemplateID: t.TemplateID,
		Name:       t.Name,
		Body:       t.Body,
		Variables:  vars,
		CreatedAt:  formatTime(t.CreatedAt),
		UpdatedAt:  optionalTime(t.UpdatedAt),
	}
}

func newTemplateViews(list []model.Template) []templateView {
	out := make([]templateView, 0, len(list))
	for _, t := range list {
		out = append(out, newTemplateView(t))
	}
	return out
}

func newLogView(l model.SmsLog) logView {
	status := l.Status
	if status == "" {
		status = model.Unknown
	}
	createdAt := l.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return logView{
		ID:               l.ID.Hex(),
		Phone:            l.Phone,
		Message:          l.Message,
		TemplateID:       optionalString(l.TemplateID),
		Variables:        model.ToList(l.Variables),
		Status:           string(status),
		CreatedAt:        formatTime(createdAt),
		ProviderResponse: optionalString(l.ProviderResponse),
	}
}

func newLogViews(list []model.SmsLog) []logView {
	out := make([]logView, 0, len(list))
	for _, l := range list {
		out = append(out, newLogView(l))
	}
	return out
}
