package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/havenline/outreach-api/internal/config"
	"github.com/havenline/outreach-api/internal/domain"
)

// NewClient creates a Redis client from config.
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
}

// SessionCache is the Redis-backed implementation of domain.SessionCache,
// for deployments with more than one process. Entries carry a TTL so
// abandoned sessions age out.
type SessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionCache(client *redis.Client, ttl time.Duration) *SessionCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionCache{client: client, ttl: ttl}
}

func key(uid domain.UserID) string {
	return "chat:session:" + string(uid)
}

func (c *SessionCache) Get(ctx context.Context, uid domain.UserID) (*domain.SessionEntry, error) {
	raw, err := c.client.Get(ctx, key(uid)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var entry domain.SessionEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, fmt.Errorf("decode session entry: %w", err)
	}
	return &entry, nil
}

func (c *SessionCache) Set(ctx context.Context, uid domain.UserID, entry *domain.SessionEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode session entry: %w", err)
	}

	if err := c.client.Set(ctx, key(uid), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (c *SessionCache) Evict(ctx context.Context, uid domain.UserID) error {
	if err := c.client.Del(ctx, key(uid)).Err(); err != nil {
		return fmt.Errorf("redis evict session: %w", err)
	}
	return nil
}
