package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/fixture-ingestion/internal/domain/fixture"
)

const (
	defaultFixtureListLimit = 100
	maxFixtureListLimit     = 500
	maxDaysAhead            = 60
	recentFixtureWindow     = 30 * 24 * time.Hour
)

type ListFixturesInput struct {
	League   string
	Provider string
	// DaysAhead limits kickoff to [today, today+DaysAhead] in UTC days;
	// nil lists everything.
	DaysAhead *int
	Limit     int
}

type FixtureService struct {
	fixtureRepo fixture.Repository
	now         func() time.Time
}

func NewFixtureService(fixtureRepo fixture.Repository) *FixtureService {
	return &FixtureService{
		fixtureRepo: fixtureRepo,
		now:         time.Now,
	}
}

func (s *FixtureService) List(ctx context.Context, input ListFixturesInput) ([]fixture.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureService.List")
	defer span.End()

	filter := fixture.ListFilter{
		League:   strings.TrimSpace(input.League),
		Provider: normalizeProviderName(input.Provider),
		Limit:    input.Limit,
	}
	switch {
	case filter.Limit < 0:
		return nil, fmt.Errorf("%w: limit must not be negative", ErrInvalidInput)
	case filter.Limit == 0:
		filter.Limit = defaultFixtureListLimit
	case filter.Limit > maxFixtureListLimit:
		filter.Limit = maxFixtureListLimit
	}

	if input.DaysAhead != nil {
		days := *input.DaysAhead
		if days < 0 || days > maxDaysAhead {
			return nil, fmt.Errorf("%w: days_ahead must be between 0 and %d", ErrInvalidInput, maxDaysAhead)
		}
		from := startOfDayUTC(s.now())
		until := from.AddDate(0, 0, days+1)
		filter.KickoffFrom = &from
		filter.KickoffUntil = &until
	}

	items, err := s.fixtureRepo.List(ctx, filter)
	if err != nil {
		markSpanError(span, err)
		return nil, wrapStoreError("list fixtures", err)
	}
	return items, nil
}

func (s *FixtureService) Get(ctx context.Context, providerID string) (fixture.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureService.Get")
	defer span.End()

	providerID = fixture.NormalizeProviderID(providerID)
	if providerID == "" {
		return fixture.Fixture{}, fmt.Errorf("%w: provider id is required", ErrInvalidInput)
	}

	item, found, err := s.fixtureRepo.FindByProviderID(ctx, providerID)
	if err != nil {
		markSpanError(span, err)
		return fixture.Fixture{}, wrapStoreError("get fixture", err)
	}
	if !found {
		return fixture.Fixture{}, fmt.Errorf("%w: fixture=%s", ErrNotFound, providerID)
	}
	return item, nil
}

// Stats counts stored fixtures; Recent covers kickoffs in the last 30 days
// and everything upcoming.
func (s *FixtureService) Stats(ctx context.Context) (fixture.Stats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureService.Stats")
	defer span.End()

	stats, err := s.fixtureRepo.Stats(ctx, s.now().UTC().Add(-recentFixtureWindow))
	if err != nil {
		markSpanError(span, err)
		return fixture.Stats{}, wrapStoreError("fixture stats", err)
	}
	if stats.ByProvider == nil {
		stats.ByProvider = map[string]int{}
	}
	return stats, nil
}

func wrapStoreError(op string, err error) error {
	if errors.Is(err, fixture.ErrStoreUnavailable) {
		return fmt.Errorf("%w: %s: %w", ErrDependencyUnavailable, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func startOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
