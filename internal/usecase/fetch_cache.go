package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/riskibarqy/fixture-ingestion/internal/platform/cache"
)

// CachedFetch is a provider response kept between ingestion runs.
type CachedFetch struct {
	Records   []RawFixtureRecord `json:"records"`
	FetchedAt time.Time          `json:"fetched_at"`
}

// FetchCache stores provider responses keyed by provider, league and date.
// A miss is (zero, false, nil); errors are logged by the caller and treated
// as a miss.
type FetchCache interface {
	Get(ctx context.Context, key string) (CachedFetch, bool, error)
	Set(ctx context.Context, key string, value CachedFetch) error
}

func fetchCacheKey(provider string, req FetchRequest) string {
	league := strings.ToLower(strings.TrimSpace(req.League))
	if league == "" {
		league = "all"
	}
	day := "upcoming"
	if !req.Date.IsZero() {
		day = req.Date.UTC().Format(dateOnlyLayout)
	}
	return "fetch:" + normalizeProviderName(provider) + ":" + league + ":" + day
}

// MemoryFetchCache keeps responses in process.
type MemoryFetchCache struct {
	store *cache.Store[CachedFetch]
}

func NewMemoryFetchCache(ttl time.Duration) *MemoryFetchCache {
	return &MemoryFetchCache{store: cache.NewStore[CachedFetch](ttl)}
}

func (c *MemoryFetchCache) Get(ctx context.Context, key string) (CachedFetch, bool, error) {
	value, ok := c.store.Get(ctx, key)
	return value, ok, nil
}

func (c *MemoryFetchCache) Set(ctx context.Context, key string, value CachedFetch) error {
	c.store.Set(ctx, key, value)
	return nil
}
