package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/internal/config"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/internal/domain"
)

type RedisCodeCache struct {
	keyBuilder
	client *redis.Client
}

func NewRedisCodeCache(cfg config.RedisConfig, prefix string) (*RedisCodeCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCodeCache{
		keyBuilder: keyBuilder{prefix: prefix},
		client:     client,
	}, nil
}

func (c *RedisCodeCache) Get(ctx context.Context, key string) (*domain.GemCode, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var code domain.GemCode
	if err := json.Unmarshal(data, &code); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}

	return &code, nil
}

func (c *RedisCodeCache) Set(ctx context.Context, key string, code *domain.GemCode, ttl time.Duration) error {
	data, err := json.Marshal(code)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}

	return nil
}

func (c *RedisCodeCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}

	return nil
}

func (c *RedisCodeCache) Close() error {
	return c.client.Close()
}
