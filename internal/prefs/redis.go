package prefs

import (
	"context"
	"errors"
	"fmt"

	"heartbridge/internal/cache"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one member's preferences in a Redis hash.
type RedisStore struct {
	rdb *redis.Client
	key string
}

// NewRedisStore returns the store for uid.
func NewRedisStore(rdb *redis.Client, uid string) *RedisStore {
	return &RedisStore{rdb: rdb, key: cache.PrefsKey(uid)}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.HGet(ctx, s.key, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get pref %s: %w", key, err)
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.HSet(ctx, s.key, key, value).Err(); err != nil {
		return fmt.Errorf("set pref %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, key string) error {
	if err := s.rdb.HDel(ctx, s.key, key).Err(); err != nil {
		return fmt.Errorf("remove pref %s: %w", key, err)
	}
	return nil
}
