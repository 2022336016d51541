package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/fixture-ingestion/internal/domain/fixture"
	"github.com/riskibarqy/fixture-ingestion/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

const (
	providerStatusSuccess = "success"
	providerStatusFailed  = "failed"

	issueKindStore = "store"

	defaultProviderTimeout = 20 * time.Second
	conflictRetryAttempts  = 2
)

type IngestionServiceConfig struct {
	// Concurrency bounds the adapter fan-out; <= 0 runs every adapter at once.
	Concurrency     int
	ProviderTimeout time.Duration
}

// IngestionService pulls fixtures from every provider, normalizes them and
// upserts them keyed by provider_id.
type IngestionService struct {
	repo       fixture.Repository
	adapters   []ProviderAdapter
	byName     map[string]ProviderAdapter
	normalizer *FixtureNormalizer
	cache      FetchCache
	publisher  FixtureEventPublisher
	cfg        IngestionServiceConfig
	logger     *logging.Logger
	now        func() time.Time
}

// NewIngestionService wires the coordinator. cache and publisher may be nil.
func NewIngestionService(
	repo fixture.Repository,
	adapters []ProviderAdapter,
	cache FetchCache,
	publisher FixtureEventPublisher,
	cfg IngestionServiceConfig,
	logger *logging.Logger,
) *IngestionService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = defaultProviderTimeout
	}

	byName := make(map[string]ProviderAdapter, len(adapters))
	extractors := make(map[string]FieldExtractor, len(adapters))
	ordered := make([]ProviderAdapter, 0, len(adapters))
	for _, adapter := range adapters {
		if adapter == nil {
			continue
		}
		name := normalizeProviderName(adapter.Name())
		if _, exists := byName[name]; exists {
			continue
		}
		byName[name] = adapter
		extractors[name] = adapter
		ordered = append(ordered, adapter)
	}

	return &IngestionService{
		repo:       repo,
		adapters:   ordered,
		byName:     byName,
		normalizer: NewFixtureNormalizer(extractors),
		cache:      cache,
		publisher:  publisher,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// Providers describes every configured adapter.
func (s *IngestionService) Providers() []ProviderInfo {
	out := make([]ProviderInfo, 0, len(s.adapters))
	for _, adapter := range s.adapters {
		if describer, ok := adapter.(ProviderDescriber); ok {
			out = append(out, describer.Describe())
			continue
		}
		out = append(out, ProviderInfo{Name: normalizeProviderName(adapter.Name()), Leagues: []string{}})
	}
	return out
}

type providerFetch struct {
	name     string
	records  []RawFixtureRecord
	cached   bool
	err      *FetchError
	duration time.Duration
}

type normalizedFixture struct {
	provider string
	item     fixture.Fixture
}

// IngestAll runs one ingestion. Only store unavailability is returned as an
// error; provider and record problems land in the report.
func (s *IngestionService) IngestAll(ctx context.Context, req IngestRequest) (IngestionReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionService.IngestAll",
		attribute.String("ingest.league", req.League),
		attribute.Bool("ingest.force", req.Force),
	)
	defer span.End()

	startedAt := s.now()
	report := newIngestionReport()

	selected, err := s.selectAdapters(req.Providers)
	if err != nil {
		return report, err
	}

	fetches, err := s.fetchAll(ctx, selected, req)
	if err != nil {
		markSpanError(span, err)
		return report, err
	}

	batch := s.normalizeAll(ctx, fetches, &report)
	changes, err := s.persist(ctx, batch, &report)
	report.DurationMs = s.now().Sub(startedAt).Milliseconds()
	if err != nil {
		markSpanError(span, err)
		s.logger.ErrorContext(ctx, "fixture ingestion aborted", "error", err, "added", report.Added, "skipped", report.Skipped)
		return report, err
	}

	s.publish(ctx, changes)

	span.SetAttributes(
		attribute.Int("ingest.added", report.Added),
		attribute.Int("ingest.skipped", report.Skipped),
		attribute.Int("ingest.dropped", report.Dropped),
		attribute.Int("ingest.failed", report.Failed),
	)
	s.logger.InfoContext(ctx, "fixture ingestion completed",
		"providers", len(selected),
		"added", report.Added,
		"skipped", report.Skipped,
		"dropped", report.Dropped,
		"failed", report.Failed,
		"errors", len(report.Errors),
		"warnings", len(report.Warnings),
		"duration_ms", report.DurationMs,
	)
	return report, nil
}

func (s *IngestionService) selectAdapters(names []string) ([]ProviderAdapter, error) {
	if len(names) == 0 {
		if len(s.adapters) == 0 {
			return nil, fmt.Errorf("%w: no providers are enabled", ErrInvalidInput)
		}
		return s.adapters, nil
	}

	seen := make(map[string]struct{}, len(names))
	out := make([]ProviderAdapter, 0, len(names))
	for _, raw := range names {
		name := normalizeProviderName(raw)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		adapter, ok := s.byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidInput, raw)
		}
		seen[name] = struct{}{}
		out = append(out, adapter)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: providers must not be blank", ErrInvalidInput)
	}
	return out, nil
}

func (s *IngestionService) fetchAll(ctx context.Context, adapters []ProviderAdapter, req IngestRequest) ([]providerFetch, error) {
	workerCount := s.cfg.Concurrency
	if workerCount <= 0 || workerCount > len(adapters) {
		workerCount = len(adapters)
	}

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	results := make([]providerFetch, len(adapters))
	var workers sync.WaitGroup
	for idx, adapter := range adapters {
		idx, adapter := idx, adapter
		name := normalizeProviderName(adapter.Name())
		results[idx].name = name

		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			defer func() {
				if recovered := recover(); recovered != nil {
					results[idx].records = nil
					results[idx].err = NewFetchError(name, FetchErrorInternal, fmt.Errorf("adapter panic: %v", recovered))
				}
			}()

			start := time.Now()
			records, cached, fetchErr := s.fetchProvider(ctx, adapter, name, req)
			results[idx].records = records
			results[idx].cached = cached
			results[idx].err = fetchErr
			results[idx].duration = time.Since(start)
		}); err != nil {
			workers.Done()
			results[idx].err = NewFetchError(name, FetchErrorInternal, fmt.Errorf("submit fetch task: %w", err))
		}
	}
	workers.Wait()

	return results, nil
}

func (s *IngestionService) fetchProvider(ctx context.Context, adapter ProviderAdapter, name string, req IngestRequest) ([]RawFixtureRecord, bool, *FetchError) {
	fetchReq := FetchRequest{League: strings.TrimSpace(req.League), Date: req.Date}
	key := fetchCacheKey(name, fetchReq)

	if s.cache != nil && !req.Force {
		entry, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "fetch cache read failed", "provider", name, "key", key, "error", err)
		case ok:
			return entry.Records, true, nil
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()

	records, err := adapter.Fetch(fetchCtx, fetchReq)
	if err != nil {
		return nil, false, classifyFetchError(fetchCtx, name, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, CachedFetch{Records: records, FetchedAt: s.now().UTC()}); err != nil {
			s.logger.WarnContext(ctx, "fetch cache write failed", "provider", name, "key", key, "error", err)
		}
	}
	return records, false, nil
}

// normalizeAll flattens every successful fetch into one batch, collapsing
// repeated provider_ids so the last record wins.
func (s *IngestionService) normalizeAll(ctx context.Context, fetches []providerFetch, report *IngestionReport) []normalizedFixture {
	batch := make([]normalizedFixture, 0)
	position := make(map[string]int)

	for _, fetch := range fetches {
		summary := ProviderRunSummary{
			Provider:   fetch.name,
			Records:    len(fetch.records),
			Cached:     fetch.cached,
			Status:     providerStatusSuccess,
			DurationMs: fetch.duration.Milliseconds(),
		}
		if fetch.err != nil {
			summary.Status = providerStatusFailed
			report.Providers = append(report.Providers, summary)
			report.Errors = append(report.Errors, IngestionIssue{
				Provider: fetch.name,
				Kind:     string(fetch.err.Kind),
				Message:  fetch.err.Error(),
			})
			s.logger.WarnContext(ctx, "provider fetch failed",
				"provider", fetch.name,
				"kind", string(fetch.err.Kind),
				"status_code", fetch.err.StatusCode,
				"error", fetch.err,
			)
			continue
		}
		report.Providers = append(report.Providers, summary)

		for _, record := range fetch.records {
			item, err := s.normalizer.Normalize(fetch.name, record)
			if err != nil {
				var normErr *NormalizeError
				if !errors.As(err, &normErr) || normErr.Drops() {
					report.Dropped++
					s.logger.WarnContext(ctx, "fixture record dropped", "provider", fetch.name, "error", err)
					continue
				}
				report.Warnings = append(report.Warnings, IngestionIssue{
					Provider:   fetch.name,
					Kind:       string(normErr.Kind),
					Message:    normErr.Error(),
					ProviderID: item.ProviderID,
				})
			}

			if idx, ok := position[item.ProviderID]; ok {
				batch[idx] = normalizedFixture{provider: fetch.name, item: item}
				continue
			}
			position[item.ProviderID] = len(batch)
			batch = append(batch, normalizedFixture{provider: fetch.name, item: item})
		}
	}

	sort.SliceStable(report.Providers, func(i, j int) bool {
		return report.Providers[i].Provider < report.Providers[j].Provider
	})
	return batch
}

func (s *IngestionService) persist(ctx context.Context, batch []normalizedFixture, report *IngestionReport) ([]FixtureChange, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	changes := make([]FixtureChange, 0, len(batch))
	err := s.repo.WithinTx(ctx, func(tx fixture.Writer) error {
		changes = changes[:0]
		for _, entry := range batch {
			change, err := upsertFixture(ctx, tx, entry.item)
			if err != nil {
				return fmt.Errorf("upsert %s: %w", entry.item.ProviderID, err)
			}
			changes = append(changes, change)
		}
		return nil
	})
	if err == nil {
		for _, change := range changes {
			countChange(report, change)
		}
		return changes, nil
	}
	if errors.Is(err, fixture.ErrStoreUnavailable) {
		return nil, fmt.Errorf("%w: persist fixtures: %w", ErrDependencyUnavailable, err)
	}

	s.logger.WarnContext(ctx, "batch upsert failed, retrying per record", "records", len(batch), "error", err)

	changes = changes[:0]
	for _, entry := range batch {
		change, err := s.upsertWithRetry(ctx, entry.item)
		if err != nil {
			if errors.Is(err, fixture.ErrStoreUnavailable) {
				return changes, fmt.Errorf("%w: persist fixture %s: %w", ErrDependencyUnavailable, entry.item.ProviderID, err)
			}
			report.Failed++
			report.Errors = append(report.Errors, IngestionIssue{
				Provider:   entry.provider,
				Kind:       issueKindStore,
				Message:    err.Error(),
				ProviderID: entry.item.ProviderID,
			})
			s.logger.ErrorContext(ctx, "fixture upsert failed", "provider_id", entry.item.ProviderID, "error", err)
			continue
		}
		countChange(report, change)
		changes = append(changes, change)
	}
	return changes, nil
}

// upsertWithRetry runs one record in its own transaction. A uniqueness
// conflict means another writer inserted the row first, so the retry finds
// it and updates instead.
func (s *IngestionService) upsertWithRetry(ctx context.Context, item fixture.Fixture) (FixtureChange, error) {
	var (
		change FixtureChange
		err    error
	)
	for attempt := 1; attempt <= conflictRetryAttempts; attempt++ {
		err = s.repo.WithinTx(ctx, func(tx fixture.Writer) error {
			var txErr error
			change, txErr = upsertFixture(ctx, tx, item)
			return txErr
		})
		if err == nil || !errors.Is(err, fixture.ErrDuplicateProviderID) {
			return change, err
		}
	}
	return FixtureChange{}, err
}

func upsertFixture(ctx context.Context, w fixture.Writer, item fixture.Fixture) (FixtureChange, error) {
	existing, found, err := w.FindByProviderID(ctx, item.ProviderID)
	if err != nil {
		return FixtureChange{}, err
	}
	if !found {
		stored, err := w.Insert(ctx, item)
		if err != nil {
			return FixtureChange{}, err
		}
		return FixtureChange{Kind: FixtureChangeCreated, Fixture: stored}, nil
	}

	existing.ApplyRefresh(item)
	if err := w.Update(ctx, existing); err != nil {
		return FixtureChange{}, err
	}
	return FixtureChange{Kind: FixtureChangeUpdated, Fixture: existing}, nil
}

func countChange(report *IngestionReport, change FixtureChange) {
	if change.Kind == FixtureChangeCreated {
		report.Added++
		return
	}
	report.Skipped++
}

func (s *IngestionService) publish(ctx context.Context, changes []FixtureChange) {
	if s.publisher == nil || len(changes) == 0 {
		return
	}
	if err := s.publisher.PublishFixtureChanges(ctx, changes); err != nil {
		s.logger.WarnContext(ctx, "publish fixture changes failed", "changes", len(changes), "error", err)
	}
}
