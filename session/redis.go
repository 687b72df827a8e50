package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	trackpro "github.com/chimerakang/trackpro-go"
)

const redisKeyPrefix = "trackpro:session:"

// RedisPersister keeps the session in a Redis hash, so several processes
// on one workstation can share a login.
type RedisPersister struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

var _ Persister = (*RedisPersister)(nil)

// NewRedisPersister stores the session under "trackpro:session:<name>".
// A positive ttl expires the hash after each save.
func NewRedisPersister(client *redis.Client, name string, ttl time.Duration) *RedisPersister {
	return &RedisPersister{client: client, key: redisKeyPrefix + name, ttl: ttl}
}

// Load reads the session hash.
func (p *RedisPersister) Load(ctx context.Context) (trackpro.Session, error) {
	values, err := p.client.HGetAll(ctx, p.key).Result()
	if err != nil {
		return trackpro.Session{}, fmt.Errorf("get session hash: %w", err)
	}
	if len(values) == 0 {
		return trackpro.Session{}, ErrNotPersisted
	}
	return trackpro.Session{
		AccessToken: values["access_token"],
		UserID:      values["user_id"],
		Role:        trackpro.Role(values["role"]),
	}, nil
}

// Save overwrites the session hash.
func (p *RedisPersister) Save(ctx context.Context, s trackpro.Session) error {
	pipe := p.client.TxPipeline()
	pipe.Del(ctx, p.key)
	pipe.HSet(ctx, p.key, map[string]interface{}{
		"access_token": s.AccessToken,
		"user_id":      s.UserID,
		"role":         string(s.Role),
	})
	if p.ttl > 0 {
		pipe.Expire(ctx, p.key, p.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save session hash: %w", err)
	}
	return nil
}

// Clear deletes the session hash.
func (p *RedisPersister) Clear(ctx context.Context) error {
	if err := p.client.Del(ctx, p.key).Err(); err != nil {
		return fmt.Errorf("delete session hash: %w", err)
	}
	return nil
}
