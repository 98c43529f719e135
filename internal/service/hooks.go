package service

import (
	"context"
	"time"

	"github.com/LeventeLantos/sms-faas/internal/cache"
	"github.com/LeventeLantos/sms-faas/internal/client"
	"github.com/LeventeLantos/sms-faas/internal/events"
	"github.com/LeventeLantos/sms-faas/internal/model"
)

// CacheSent stores successfully sent logs in c.
func CacheSent(c cache.SentCache) func(context.Context, model.SmsLog) error {
	return func(ctx context.Context, l model.SmsLog) error {
		if l.Status != model.Sent {
			return nil
		}
		return c.StoreSent(ctx, l.ID.Hex(), l.Phone, l.CreatedAt)
	}
}

// PublishLogs forwards every log to p.
func PublishLogs(p events.Publisher) func(context.Context, model.SmsLog) error {
	return func(ctx context.Context, l model.SmsLog) error {
		return p.PublishLog(ctx, l)
	}
}

// CountStatus calls observe with the status of every log.
func CountStatus(observe func(model.Status)) func(context.Context, model.SmsLog) error {
	return func(_ context.Context, l model.SmsLog) error {
		observe(l.Status)
		return nil
	}
}

type timedClient struct {
	next    SendClient
	observe func(time.Duration)
}

// Timed reports the duration of every provider call to observe.
func Timed(next SendClient, observe func(time.Duration)) SendClient {
	return &timedClient{next: next, observe: observe}
}

func (c *timedClient) Send(ctx context.Context, to, text, senderID string) (client.SendResult, error) {
	start := time.Now()
	res, err := c.next.Send(ctx, to, text, senderID)
	c.observe(time.Since(start))
	return res, err
}
