package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	config "github.com/socialdb/migrator/configs"
	"github.com/socialdb/migrator/internal/common"
)

type RedisConnector struct {
	client    *redis.Client
	keyPrefix string
}

var DEFAULT_REDIS_POOL_SIZE = 4

func NewRedisConnector(cfg *config.RedisConfig) (*RedisConnector, error) {
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = DEFAULT_REDIS_POOL_SIZE
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: poolSize,
	})

	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Debug().Str("addr", cfg.Addr).Msg("Connected to Redis")
	return &RedisConnector{client: client, keyPrefix: cfg.KeyPrefix}, nil
}

func (r *RedisConnector) key(destination string, kind common.EntityKind) string {
	return r.keyPrefix + progressKey(destination, kind)
}

func (r *RedisConnector) GetCommittedOffset(destination string, kind common.EntityKind) (int, error) {
	offset, err := r.client.Get(context.Background(), r.key(destination, kind)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read %s progress: %w", kind, err)
	}
	return offset, nil
}

func (r *RedisConnector) SetCommittedOffset(destination string, kind common.EntityKind, offset int) error {
	if err := r.client.Set(context.Background(), r.key(destination, kind), offset, 0).Err(); err != nil {
		return fmt.Errorf("failed to store %s progress: %w", kind, err)
	}
	return nil
}

func (r *RedisConnector) Reset(destination string) error {
	keys := make([]string, 0, len(trackedKinds))
	for _, kind := range trackedKinds {
		keys = append(keys, r.key(destination, kind))
	}
	return r.client.Del(context.Background(), keys...).Err()
}

func (r *RedisConnector) Close() error {
	return r.client.Close()
}
