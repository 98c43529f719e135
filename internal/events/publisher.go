// Package events publishes send outcomes to Kafka.
package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	k "github.com/segmentio/kafka-go"

	"github.com/LeventeLantos/sms-faas/internal/model"
)

type Publisher interface {
	PublishLog(ctx context.Context, l model.SmsLog) error
	Close() error
}

// LogEvent is the JSON payload written for each created log.
type LogEvent struct {
	ID         string           `json:"id"`
	Phone      string           `json:"phone"`
	TemplateID string           `json:"templateId,omitempty"`
	Status     string           `json:"status"`
	Variables  []model.KeyValue `json:"variables"`
	CreatedAt  time.Time        `json:"createdAt"`
}

func NewLogEvent(l model.SmsLog) LogEvent {
	return LogEvent{
		ID:         l.ID.Hex(),
		Phone:      l.Phone,
		TemplateID: l.TemplateID,
		Status:     string(l.Status),
		Variables:  model.ToList(l.Variables),
		CreatedAt:  l.CreatedAt.UTC(),
	}
}

func encodeLog(l model.SmsLog) (k.Message, error) {
	b, err := json.Marshal(NewLogEvent(l))
	if err != nil {
		return k.Message{}, err
	}
	return k.Message{Key: []byte(l.Phone), Value: b}, nil
}

type KafkaPublisher struct {
	w *k.Writer
}

// NewKafkaPublisher writes to topic on the comma separated broker list.
func NewKafkaPublisher(brokers, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		w: &k.Writer{
			Addr:         k.TCP(splitBrokers(brokers)...),
			Topic:        topic,
			Balancer:     &k.Hash{},
			BatchTimeout: 5 * time.Millisecond,
		},
	}
}

func (p *KafkaPublisher) PublishLog(ctx context.Context, l model.SmsLog) error {
	msg, err := encodeLog(l)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

type Noop struct{}

func (Noop) PublishLog(context.Context, model.SmsLog) error { return nil }
func (Noop) Close() error                                  { return nil }

func splitBrokers(brokers string) []string {
	var out []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
