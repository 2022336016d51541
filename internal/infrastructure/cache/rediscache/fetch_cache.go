package rediscache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/riskibarqy/fixture-ingestion/internal/usecase"
)

const defaultKeyPrefix = "fixture-ingestion:"

// FetchCache keeps provider responses in Redis so every API instance shares
// them. Entries expire through the key TTL.
type FetchCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewFetchCache(client redis.UniversalClient, ttl time.Duration, prefix string) *FetchCache {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &FetchCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *FetchCache) Get(ctx context.Context, key string) (usecase.CachedFetch, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return usecase.CachedFetch{}, false, nil
	}
	if err != nil {
		return usecase.CachedFetch{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var value usecase.CachedFetch
	if err := sonic.Unmarshal(raw, &value); err != nil {
		return usecase.CachedFetch{}, false, fmt.Errorf("decode cached fetch %s: %w", key, err)
	}
	return value, true, nil
}

func (c *FetchCache) Set(ctx context.Context, key string, value usecase.CachedFetch) error {
	if c.ttl <= 0 {
		return nil
	}
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cached fetch %s: %w", key, err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
