package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nyaruka/phonenumbers"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/LeventeLantos/sms-faas/internal/client"
	"github.com/LeventeLantos/sms-faas/internal/model"
	"github.com/LeventeLantos/sms-faas/internal/render"
	"github.com/LeventeLantos/sms-faas/internal/repo"
)

type SendClient interface {
	Send(ctx context.Context, to, text, senderID string) (client.SendResult, error)
}

// SendInput is a validated sendSms request. TemplateID, when set, wins over Message.
type SendInput struct {
	Phone      string
	TemplateID string
	Message    string
	Variables  []model.KeyValue
	SenderID   string
}

type Options struct {
	DefaultSenderID string
	// PhoneRegion enables phone normalization to E.164 when set (e.g. "HU").
	PhoneRegion string
}

type SmsService struct {
	templates repo.TemplateRepository
	logs      repo.LogRepository
	client    SendClient
	opts      Options
	now       func() time.Time

	onLogged []func(ctx context.Context, l model.SmsLog) error
}

func NewSmsService(templates repo.TemplateRepository, logs repo.LogRepository, client SendClient, opts Options) *SmsService {
	return &SmsService{
		templates: templates,
		logs:      logs,
		client:    client,
		opts:      opts,
		now:       time.Now,
	}
}

// WithHooks registers callbacks that run after a log has been written. Hook
// errors are logged and never change the result of the send.
func (s *SmsService) WithHooks(hooks ...func(ctx context.Context, l model.SmsLog) error) *SmsService {
	s.onLogged = append(s.onLogged, hooks...)
	return s
}

func (s *SmsService) Templates(ctx context.Context, search string) ([]model.Template, error) {
	return s.templates.ListTemplates(ctx, search)
}

// TemplateByID returns nil for malformed and for unknown ids alike.
func (s *SmsService) TemplateByID(ctx context.Context, id string) (*model.Template, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		slog.Debug("templateById: malformed id", "id", id)
		return nil, nil
	}
	return s.templates.GetTemplateByID(ctx, oid)
}

func (s *SmsService) TemplateByTemplateID(ctx context.Context, templateID string) (*model.Template, error) {
	return s.templates.GetTemplateByTemplateID(ctx, templateID)
}

func (s *SmsService) SmsLogs(ctx context.Context, f model.LogFilter) ([]model.SmsLog, error) {
	return s.logs.ListLogs(ctx, f.Clamped())
}

func (s *SmsService) UpsertTemplate(ctx context.Context, in model.TemplateUpsert) (*model.Template, error) {
	if in.Key == nil {
		return nil, fmt.Errorf("%w: template key is required", model.ErrInvalidInput)
	}
	if in.Variables == nil {
		in.Variables = []string{}
	}
	t, err := s.templates.UpsertTemplate(ctx, in)
	if err != nil {
		return nil, err
	}
	slog.Info("template upserted", "id", t.ID.Hex(), "templateId", t.TemplateID)
	return t, nil
}

// DeleteTemplate removes by storage id when id is set, else by template id. A
// malformed id reports false.
func (s *SmsService) DeleteTemplate(ctx context.Context, id, templateID string) (bool, error) {
	switch {
	case id != "":
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return false, nil
		}
		return s.templates.DeleteTemplateByID(ctx, oid)
	case templateID != "":
		return s.templates.DeleteTemplateByTemplateID(ctx, templateID)
	}
	return false, fmt.Errorf("%w: provide id or templateId", model.ErrInvalidInput)
}

// SendSms renders the message, calls the provider once and writes exactly one
// log for the attempt. Validation and render failures return before any send.
func (s *SmsService) SendSms(ctx context.Context, in SendInput) (model.SmsLog, error) {
	phone, err := s.normalizePhone(in.Phone)
	if err != nil {
		return model.SmsLog{}, err
	}

	vars := model.ToMapping(in.Variables)
	text := in.Message

	if in.TemplateID != "" {
		tpl, err := s.templates.GetTemplateByTemplateID(ctx, in.TemplateID)
		if err != nil {
			return model.SmsLog{}, err
		}
		if tpl == nil {
			return model.SmsLog{}, fmt.Errorf("template %w: %s", model.ErrNotFound, in.TemplateID)
		}
		if text, err = render.Render(tpl.Body, vars.Map()); err != nil {
			return model.SmsLog{}, err
		}
	} else if text == "" {
		return model.SmsLog{}, fmt.Errorf("%w: either templateId or message must be provided", model.ErrInvalidInput)
	}

	senderID := in.SenderID
	if senderID == "" {
		senderID = s.opts.DefaultSenderID
	}

	status := model.Failed
	var providerResponse string

	res, err := s.client.Send(ctx, phone, text, senderID)
	switch {
	case errors.Is(err, model.ErrConfiguration):
		return model.SmsLog{}, err
	case err != nil:
		slog.Error("sms provider call failed", "phone", phone, "error", err)
	default:
		if res.OK {
			status = model.Sent
		}
		providerResponse = compactJSON(res.Body)
		slog.Info("sms provider responded", "phone", phone, "status_code", res.StatusCode, "ok", res.OK)
	}

	l, err := s.logs.InsertLog(ctx, model.SmsLog{
		Phone:            phone,
		Message:          text,
		TemplateID:       in.TemplateID,
		Variables:        vars,
		Status:           status,
		ProviderResponse: providerResponse,
		CreatedAt:        s.now().UTC(),
	})
	if err != nil {
		return model.SmsLog{}, fmt.Errorf("write sms log: %w", err)
	}

	for _, hook := range s.onLogged {
		if err := hook(ctx, l); err != nil {
			slog.Warn("sms log hook failed", "id", l.ID.Hex(), "error", err)
		}
	}
	return l, nil
}

func (s *SmsService) normalizePhone(phone string) (string, error) {
	if phone == "" {
		return "", fmt.Errorf("%w: phone is required", model.ErrInvalidInput)
	}
	if s.opts.PhoneRegion == "" {
		return phone, nil
	}

	num, err := phonenumbers.Parse(phone, s.opts.PhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("%w: invalid phone number %q", model.ErrInvalidInput, phone)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// compactJSON returns body as a compact JSON string, or "" for an absent or
// null body.
func compactJSON(body json.RawMessage) string {
	if len(body) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		return ""
	}
	if buf.String() == "null" {
		return ""
	}
	return buf.String()
}
