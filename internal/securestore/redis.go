package securestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "securestore:v1:"

type redisStore struct {
	client *redis.Client
}

// NewRedis wraps a Redis client as a Store. Keys are namespaced per
// service so unrelated callers cannot collide.
func NewRedis(client *redis.Client) Store {
	return &redisStore{client: client}
}

func redisKey(service, key string) string {
	return redisKeyPrefix + service + ":" + key
}

func (s *redisStore) Put(ctx context.Context, service, key string, blob []byte) error {
	if err := s.client.Set(ctx, redisKey(service, key), blob, 0).Err(); err != nil {
		return fmt.Errorf("securestore put: %w", err)
	}
	return nil
}

func (s *redisStore) Get(ctx context.Context, service, key string) ([]byte, error) {
	blob, err := s.client.Get(ctx, redisKey(service, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("securestore get: %w", err)
	}
	return blob, nil
}

func (s *redisStore) Delete(ctx context.Context, service, key string) error {
	if err := s.client.Del(ctx, redisKey(service, key)).Err(); err != nil {
		return fmt.Errorf("securestore delete: %w", err)
	}
	return nil
}
