package rediscache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/riskibarqy/fixture-ingestion/internal/usecase"
)

func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestFetchCache_UnreachableRedisIsAnError(t *testing.T) {
	t.Parallel()

	cache := NewFetchCache(unreachableClient(t), time.Minute, "")
	_, ok, err := cache.Get(context.Background(), "fetch:espn:all:upcoming")
	if err == nil || ok {
		t.Fatalf("expected error for unreachable redis, got ok=%v err=%v", ok, err)
	}
}

func TestFetchCache_ZeroTTLSkipsWrites(t *testing.T) {
	t.Parallel()

	cache := NewFetchCache(unreachableClient(t), 0, "")
	if err := cache.Set(context.Background(), "fetch:espn:all:upcoming", usecase.CachedFetch{}); err != nil {
		t.Fatalf("expected disabled cache to skip writes, got %v", err)
	}
}
