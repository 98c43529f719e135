package cache

import (
	"context"
	"time"
)

// SentCache remembers logs whose provider call succeeded.
type SentCache interface {
	StoreSent(ctx context.Context, logID, phone string, sentAt time.Time) error
}

// Noop is used when no cache backend is configured.
type Noop struct{}

func (Noop) StoreSent(context.Context, string, string, time.Time) error { return nil }
