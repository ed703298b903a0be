package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ParikTV/balanza-server/internal/model"
)

// SessionCache handles Redis operations for session codes: reservation for
// uniqueness at create time and a status mirror for cheap lookups.
type SessionCache interface {
	ReserveCode(ctx context.Context, code string) (bool, error)
	Exists(ctx context.Context, code string) (bool, error)
	SetStatus(ctx context.Context, code string, status model.SessionStatus) error
	Delete(ctx context.Context, code string) error
}

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache creates a new session cache
func NewSessionCache(client *redis.Client) SessionCache {
	return &sessionCache{
		client: client,
		ttl:    24 * time.Hour, // codes become reusable after a day
	}
}

func (c *sessionCache) key(code string) string {
	return fmt.Sprintf("session:%s", code)
}

// ReserveCode claims the code if no live session already holds it.
func (c *sessionCache) ReserveCode(ctx context.Context, code string) (bool, error) {
	return c.client.SetNX(ctx, c.key(code), string(model.SessionWaiting), c.ttl).Result()
}

func (c *sessionCache) Exists(ctx context.Context, code string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(code)).Result()
	return n > 0, err
}

func (c *sessionCache) SetStatus(ctx context.Context, code string, status model.SessionStatus) error {
	return c.client.Set(ctx, c.key(code), string(status), c.ttl).Err()
}

func (c *sessionCache) Delete(ctx context.Context, code string) error {
	return c.client.Del(ctx, c.key(code)).Err()
}
