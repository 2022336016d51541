package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/fixture-ingestion/internal/domain/fixture"
)

// FixtureRepository is an in-process fixture store. Transactions run one at
// a time against a copy of the table that replaces it on commit.
type FixtureRepository struct {
	writeMu sync.Mutex

	mu           sync.RWMutex
	byProviderID map[string]fixture.Fixture
	nextID       int64
	now          func() time.Time
}

func NewFixtureRepository(seed ...fixture.Fixture) *FixtureRepository {
	repo := &FixtureRepository{
		byProviderID: make(map[string]fixture.Fixture, len(seed)),
		now:          time.Now,
	}
	tx := repo.begin()
	for _, item := range seed {
		_, _ = tx.Insert(context.Background(), item)
	}
	repo.commit(tx)
	return repo
}

func (r *FixtureRepository) FindByProviderID(_ context.Context, providerID string) (fixture.Fixture, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.byProviderID[providerID]
	if !ok {
		return fixture.Fixture{}, false, nil
	}
	return cloneFixture(item), true, nil
}

func (r *FixtureRepository) Insert(ctx context.Context, item fixture.Fixture) (fixture.Fixture, error) {
	var stored fixture.Fixture
	err := r.WithinTx(ctx, func(tx fixture.Writer) error {
		var err error
		stored, err = tx.Insert(ctx, item)
		return err
	})
	return stored, err
}

func (r *FixtureRepository) Update(ctx context.Context, item fixture.Fixture) error {
	return r.WithinTx(ctx, func(tx fixture.Writer) error {
		return tx.Update(ctx, item)
	})
}

// WithinTx must not call back into r outside of tx.
func (r *FixtureRepository) WithinTx(ctx context.Context, fn func(tx fixture.Writer) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	tx := r.begin()
	if err := fn(tx); err != nil {
		return err
	}
	r.commit(tx)
	return nil
}

func (r *FixtureRepository) List(_ context.Context, filter fixture.ListFilter) ([]fixture.Fixture, error) {
	r.mu.RLock()
	out := make([]fixture.Fixture, 0, len(r.byProviderID))
	league := strings.ToLower(strings.TrimSpace(filter.League))
	for _, item := range r.byProviderID {
		if league != "" && !strings.Contains(strings.ToLower(item.League), league) {
			continue
		}
		if filter.Provider != "" && item.Provider != filter.Provider {
			continue
		}
		if filter.KickoffFrom != nil && (item.Kickoff == nil || item.Kickoff.Before(*filter.KickoffFrom)) {
			continue
		}
		if filter.KickoffUntil != nil && (item.Kickoff == nil || !item.Kickoff.Before(*filter.KickoffUntil)) {
			continue
		}
		out = append(out, cloneFixture(item))
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Kickoff, out[j].Kickoff
		switch {
		case a == nil && b == nil:
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.Before(*b)
		}
		return out[i].ProviderID < out[j].ProviderID
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *FixtureRepository) Stats(_ context.Context, recentSince time.Time) (fixture.Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := fixture.Stats{ByProvider: make(map[string]int)}
	for _, item := range r.byProviderID {
		stats.Total++
		stats.ByProvider[item.Provider]++
		if item.Kickoff != nil && !item.Kickoff.Before(recentSince) {
			stats.Recent++
		}
	}
	return stats, nil
}

func (r *FixtureRepository) begin() *fixtureTx {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := make(map[string]fixture.Fixture, len(r.byProviderID))
	for key, item := range r.byProviderID {
		rows[key] = item
	}
	return &fixtureTx{rows: rows, nextID: r.nextID, now: r.now}
}

func (r *FixtureRepository) commit(tx *fixtureTx) {
	r.mu.Lock()
	r.byProviderID = tx.rows
	r.nextID = tx.nextID
	r.mu.Unlock()
}

type fixtureTx struct {
	rows   map[string]fixture.Fixture
	nextID int64
	now    func() time.Time
}

func (tx *fixtureTx) FindByProviderID(_ context.Context, providerID string) (fixture.Fixture, bool, error) {
	item, ok := tx.rows[providerID]
	if !ok {
		return fixture.Fixture{}, false, nil
	}
	return cloneFixture(item), true, nil
}

func (tx *fixtureTx) Insert(_ context.Context, item fixture.Fixture) (fixture.Fixture, error) {
	if strings.TrimSpace(item.ProviderID) == "" {
		return fixture.Fixture{}, fmt.Errorf("insert fixture: provider_id is required")
	}
	if _, exists := tx.rows[item.ProviderID]; exists {
		return fixture.Fixture{}, fmt.Errorf("insert fixture %s: %w", item.ProviderID, fixture.ErrDuplicateProviderID)
	}

	now := tx.now().UTC()
	tx.nextID++
	item = cloneFixture(item)
	item.ID = tx.nextID
	item.CreatedAt = now
	item.UpdatedAt = now
	tx.rows[item.ProviderID] = item
	return cloneFixture(item), nil
}

func (tx *fixtureTx) Update(_ context.Context, item fixture.Fixture) error {
	current, exists := tx.rows[item.ProviderID]
	if !exists {
		return fmt.Errorf("update fixture %s: not found", item.ProviderID)
	}

	current.Status = item.Status
	current.StatusCanonical = item.StatusCanonical
	current.RawPayload = append([]byte(nil), item.RawPayload...)
	current.UpdatedAt = tx.now().UTC()
	tx.rows[item.ProviderID] = current
	return nil
}

func cloneFixture(item fixture.Fixture) fixture.Fixture {
	if item.Kickoff != nil {
		kickoff := *item.Kickoff
		item.Kickoff = &kickoff
	}
	if item.RawPayload != nil {
		item.RawPayload = append([]byte(nil), item.RawPayload...)
	}
	return item
}
