package cache

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/fixture-ingestion/internal/domain/fixture"
	basecache "github.com/riskibarqy/fixture-ingestion/internal/platform/cache"
)

const fixtureKeyPrefix = "fixture:"

// FixtureRepository caches the read path of next. Any successful write
// clears every cached read.
type FixtureRepository struct {
	next  fixture.Repository
	lists *basecache.Store[[]fixture.Fixture]
	stats *basecache.Store[fixture.Stats]
}

func NewFixtureRepository(next fixture.Repository, ttl time.Duration) *FixtureRepository {
	return &FixtureRepository{
		next:  next,
		lists: basecache.NewStore[[]fixture.Fixture](ttl),
		stats: basecache.NewStore[fixture.Stats](ttl),
	}
}

func (r *FixtureRepository) FindByProviderID(ctx context.Context, providerID string) (fixture.Fixture, bool, error) {
	return r.next.FindByProviderID(ctx, providerID)
}

func (r *FixtureRepository) Insert(ctx context.Context, item fixture.Fixture) (fixture.Fixture, error) {
	stored, err := r.next.Insert(ctx, item)
	if err == nil {
		r.invalidate(ctx)
	}
	return stored, err
}

func (r *FixtureRepository) Update(ctx context.Context, item fixture.Fixture) error {
	err := r.next.Update(ctx, item)
	if err == nil {
		r.invalidate(ctx)
	}
	return err
}

func (r *FixtureRepository) WithinTx(ctx context.Context, fn func(tx fixture.Writer) error) error {
	err := r.next.WithinTx(ctx, fn)
	if err == nil {
		r.invalidate(ctx)
	}
	return err
}

func (r *FixtureRepository) List(ctx context.Context, filter fixture.ListFilter) ([]fixture.Fixture, error) {
	items, err := r.lists.GetOrLoad(ctx, listKey(filter), func(ctx context.Context) ([]fixture.Fixture, error) {
		items, err := r.next.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		return append([]fixture.Fixture(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}
	return append([]fixture.Fixture(nil), items...), nil
}

// Stats keys on the minute of recentSince so callers computing it from
// time.Now share entries.
func (r *FixtureRepository) Stats(ctx context.Context, recentSince time.Time) (fixture.Stats, error) {
	key := fixtureKeyPrefix + "stats:" + strconv.FormatInt(recentSince.UTC().Truncate(time.Minute).Unix(), 10)
	stats, err := r.stats.GetOrLoad(ctx, key, func(ctx context.Context) (fixture.Stats, error) {
		return r.next.Stats(ctx, recentSince)
	})
	if err != nil {
		return fixture.Stats{}, err
	}

	byProvider := make(map[string]int, len(stats.ByProvider))
	for provider, count := range stats.ByProvider {
		byProvider[provider] = count
	}
	stats.ByProvider = byProvider
	return stats, nil
}

func (r *FixtureRepository) invalidate(ctx context.Context) {
	r.lists.DeletePrefix(ctx, fixtureKeyPrefix)
	r.stats.DeletePrefix(ctx, fixtureKeyPrefix)
}

func listKey(filter fixture.ListFilter) string {
	var b strings.Builder
	b.WriteString(fixtureKeyPrefix)
	b.WriteString("list:")
	b.WriteString(strings.ToLower(filter.League))
	b.WriteString("|")
	b.WriteString(filter.Provider)
	b.WriteString("|")
	b.WriteString(formatBound(filter.KickoffFrom))
	b.WriteString("|")
	b.WriteString(formatBound(filter.KickoffUntil))
	b.WriteString("|")
	b.WriteString(strconv.Itoa(filter.Limit))
	return b.String()
}

func formatBound(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return strconv.FormatInt(t.UTC().Unix(), 10)
}
