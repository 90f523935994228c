package ctxstore

import (
	"context"
	"encoding/json"
	"errors"

	"viki/app/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

const redisKeyPrefix = "viki:ctx:"

var _ Store = (*RedisStore)(nil)

// RedisStore keeps contexts in Redis with an optional TTL, refreshed on
// every Put. A zero TTL keeps entries forever, matching the memory backend.
type RedisStore struct {
	client *redis.Client
	cfg    config.Redis
}

func NewRedisStore(cfg config.Redis) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr}),
		cfg:    cfg,
	}
}

// NewRedisStoreWithClient is used by tests to inject a client bound to a
// fake server.
func NewRedisStoreWithClient(client *redis.Client, cfg config.Redis) *RedisStore {
	return &RedisStore{client: client, cfg: cfg}
}

func (s *RedisStore) Get(ctx context.Context, conversationID uuid.UUID) (Context, bool, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+conversationID.String()).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, oops.Code("PERSISTENCE_ERROR").Errorf("failed to read context: %w", err)
	}

	var value Context
	if err = json.Unmarshal([]byte(data), &value); err != nil {
		return nil, false, oops.Code("PERSISTENCE_ERROR").Errorf("failed to decode context: %w", err)
	}

	return value, true, nil
}

func (s *RedisStore) Put(ctx context.Context, conversationID uuid.UUID, value Context) error {
	data, err := json.Marshal(value)
	if err != nil {
		return oops.Code("PERSISTENCE_ERROR").Errorf("failed to encode context: %w", err)
	}

	if err = s.client.Set(ctx, redisKeyPrefix+conversationID.String(), data, s.cfg.GetTTL()).Err(); err != nil {
		return oops.Code("PERSISTENCE_ERROR").Errorf("failed to write context: %w", err)
	}

	return nil
}

func (s *RedisStore) Clear(ctx context.Context, conversationID uuid.UUID) (bool, error) {
	removed, err := s.client.Del(ctx, redisKeyPrefix+conversationID.String()).Result()
	if err != nil {
		return false, oops.Code("PERSISTENCE_ERROR").Errorf("failed to clear context: %w", err)
	}

	return removed > 0, nil
}

func (s *RedisStore) Shutdown() error {
	return s.client.Close()
}
