package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Status string

const (
	Sent    Status = "SENT"
	Failed  Status = "FAILED"
	Unknown Status = "UNKNOWN"
)

// SmsLog is the write-once record of a single send attempt.
type SmsLog struct {
	ID               primitive.ObjectID
	Phone            string
	Message          string
	TemplateID       string
	Variables        Variables
	Status           Status
	ProviderResponse string
	CreatedAt        time.Time
}

// LogFilter selects logs for listing. Empty Phone/TemplateID match everything.
type LogFilter struct {
	Phone      string
	TemplateID string
	Limit      int
	Offset     int
}

const (
	DefaultLogLimit = 20
	MaxLogLimit     = 200
)

// Clamped returns f with Limit in [1, MaxLogLimit] and Offset >= 0.
func (f LogFilter) Clamped() LogFilter {
	f.Limit = max(1, min(MaxLogLimit, f.Limit))
	f.Offset = max(0, f.Offset)
	return f
}
