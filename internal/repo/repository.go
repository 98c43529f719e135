package repo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/LeventeLantos/sms-faas/internal/model"
)

const (
	templatesCollection = "sms_templates"
	logsCollection      = "sms_logs"
)

// TemplateRepository stores SMS templates. Lookups return (nil, nil) when
// nothing matches.
type TemplateRepository interface {
	ListTemplates(ctx context.Context, search string) ([]model.Template, error)
	GetTemplateByID(ctx context.Context, id primitive.ObjectID) (*model.Template, error)
	GetTemplateByTemplateID(ctx context.Context, templateID string) (*model.Template, error)
	UpsertTemplate(ctx context.Context, in model.TemplateUpsert) (*model.Template, error)
	DeleteTemplateByID(ctx context.Context, id primitive.ObjectID) (bool, error)
	DeleteTemplateByTemplateID(ctx context.Context, templateID string) (bool, error)
}

// LogRepository stores write-once send logs.
type LogRepository interface {
	InsertLog(ctx context.Context, l model.SmsLog) (model.SmsLog, error)
	ListLogs(ctx context.Context, f model.LogFilter) ([]model.SmsLog, error)
}

// Store is a backend that holds both templates and logs.
type Store interface {
	TemplateRepository
	LogRepository
	Close(ctx context.Context) error
}
