package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps snapshots as plain string keys. An optional expiration
// lets Redis evict abandoned snapshots on its own; the Bridge still enforces
// its TTL on read.
type RedisStore struct {
	client     redis.UniversalClient
	prefix     string
	expiration time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps client. prefix is prepended to every key.
func NewRedisStore(client redis.UniversalClient, prefix string, expiration time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, expiration: expiration}
}

func (s *RedisStore) key(key string) string { return s.prefix + key }

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get snapshot", goerr.V("key", s.key(key)))
	}
	return data, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, s.key(key), data, s.expiration).Err(); err != nil {
		return goerr.Wrap(err, "failed to set snapshot", goerr.V("key", s.key(key)))
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return goerr.Wrap(err, "failed to delete snapshot", goerr.V("key", s.key(key)))
	}
	return nil
}
