// README: Session store backed by Redis (JSON value per session, refreshed TTL).
package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "voyage:session:"

type RedisStore struct {
	redis  *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisStore{redis: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisStore) Get(ctx context.Context, id string) (*State, error) {
	val, err := s.redis.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	return decodeState(id, val)
}

func (s *RedisStore) Put(ctx context.Context, st *State) error {
	b, err := encodeState(st)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(st.SessionID), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis put session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.redis.Del(ctx, s.key(id)).Err()
}
