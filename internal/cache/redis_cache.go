package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

type sentValue struct {
	Phone  string    `json:"phone"`
	SentAt time.Time `json:"sentAt"`
}

func sentKey(logID string) string {
	return fmt.Sprintf("sms:sent:%s", logID)
}

func (c *RedisCache) StoreSent(ctx context.Context, logID, phone string, sentAt time.Time) error {
	val := sentValue{
		Phone:  phone,
		SentAt: sentAt.UTC(),
	}

	b, err := json.Marshal(val)
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, sentKey(logID), b, c.ttl).Err()
}
