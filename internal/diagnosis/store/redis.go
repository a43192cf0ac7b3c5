package store

import (
	"context"
	"errors"
	"time"

	"talent-diagnosis/internal/common/database"

	"github.com/redis/go-redis/v9"
)

// RedisSessionStore backs the ephemeral store with Redis. Keys expire on
// their own after TTL as a safety net; the lifecycle guard is still the
// authoritative purge path.
type RedisSessionStore struct {
	client *database.RedisClient
	ttl    time.Duration
}

func NewRedisSessionStore(client *database.RedisClient, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func (s *RedisSessionStore) Put(ctx context.Context, token, key, value string) error {
	return s.client.Set(ctx, SessionKey(token, key), value, s.ttl)
}

func (s *RedisSessionStore) Get(ctx context.Context, token, key string) (string, error) {
	val, err := s.client.Get(ctx, SessionKey(token, key))
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return val, err
}

func (s *RedisSessionStore) Clear(ctx context.Context, token string) error {
	keys := make([]string, 0, len(SessionKeys))
	for _, k := range SessionKeys {
		keys = append(keys, SessionKey(token, k))
	}
	return s.client.Del(ctx, keys...)
}
