package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

type CodeCache interface {
	Get(ctx context.Context, key string) (*domain.GemCode, error)
	Set(ctx context.Context, key string, code *domain.GemCode, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	BuildKeyByCode(code string) string
	BuildKeyBySlug(slug string) string
	Close() error
}

type keyBuilder struct {
	prefix string
}

func (k keyBuilder) BuildKeyByCode(code string) string {
	return fmt.Sprintf("%s:code:%s", k.prefix, code)
}

func (k keyBuilder) BuildKeyBySlug(slug string) string {
	return fmt.Sprintf("%s:slug:%s", k.prefix, slug)
}

// NoopCodeCache misses on every read. Used when caching is disabled.
type NoopCodeCache struct {
	keyBuilder
}

func NewNoopCodeCache(prefix string) *NoopCodeCache {
	return &NoopCodeCache{keyBuilder{prefix: prefix}}
}

func (NoopCodeCache) Get(context.Context, string) (*domain.GemCode, error) {
	return nil, ErrCacheMiss
}

func (NoopCodeCache) Set(context.Context, string, *domain.GemCode, time.Duration) error {
	return nil
}

func (NoopCodeCache) Delete(context.Context, ...string) error { return nil }

func (NoopCodeCache) Close() error { return nil }
