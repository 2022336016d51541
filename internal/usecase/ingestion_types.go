package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/fixture-ingestion/internal/domain/fixture"
)

// RawFixtureRecord is one fixture in the provider's native JSON shape.
type RawFixtureRecord struct {
	Provider   string `json:"provider"`
	LeagueHint string `json:"league_hint,omitempty"`
	Payload    []byte `json:"payload"`
}

// FixtureFields are the values an adapter reads out of its native shape.
// KickoffPrimary is a preferred full timestamp tried before Kickoff. Kickoff
// holds either a full timestamp or a date; KickoffTime is an optional
// separate clock component. KickoffLayout, when set, is tried first on each
// candidate.
type FixtureFields struct {
	NativeID       string
	League         string
	HomeTeam       string
	AwayTeam       string
	KickoffPrimary string
	Kickoff        string
	KickoffTime    string
	KickoffLayout  string
	Status         string
}

type FetchRequest struct {
	// League is a shared league key such as "premier_league"; empty means
	// every league the adapter is configured for.
	League string
	// Date selects fixtures on one day; zero means upcoming fixtures.
	Date time.Time
}

// FieldExtractor reads a provider's native record.
type FieldExtractor interface {
	ExtractFields(record RawFixtureRecord) (FixtureFields, error)
}

// ProviderAdapter fetches fixtures from one external provider.
type ProviderAdapter interface {
	FieldExtractor
	Name() string
	Fetch(ctx context.Context, req FetchRequest) ([]RawFixtureRecord, error)
}

// ProviderInfo describes a configured provider for the read API.
type ProviderInfo struct {
	Name         string   `json:"name"`
	Leagues      []string `json:"leagues"`
	CircuitState string   `json:"circuit_state"`
}

// ProviderDescriber is implemented by adapters that can report their setup.
type ProviderDescriber interface {
	Describe() ProviderInfo
}

type IngestRequest struct {
	Providers []string
	League    string
	Date      time.Time
	Force     bool
}

type IngestionIssue struct {
	Provider   string `json:"provider"`
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	ProviderID string `json:"provider_id,omitempty"`
}

type ProviderRunSummary struct {
	Provider   string `json:"provider"`
	Records    int    `json:"records"`
	Cached     bool   `json:"cached"`
	Status     string `json:"status"`
	DurationMs int64  `json:"duration_ms"`
}

type IngestionReport struct {
	Added      int                  `json:"added"`
	Skipped    int                  `json:"skipped"`
	Dropped    int                  `json:"dropped"`
	Failed     int                  `json:"failed"`
	Errors     []IngestionIssue     `json:"errors"`
	Warnings   []IngestionIssue     `json:"warnings"`
	Providers  []ProviderRunSummary `json:"providers"`
	DurationMs int64                `json:"duration_ms"`
}

func newIngestionReport() IngestionReport {
	return IngestionReport{
		Errors:    []IngestionIssue{},
		Warnings:  []IngestionIssue{},
		Providers: []ProviderRunSummary{},
	}
}

const (
	FixtureChangeCreated = "created"
	FixtureChangeUpdated = "updated"
)

type FixtureChange struct {
	Kind    string
	Fixture fixture.Fixture
}

// FixtureEventPublisher forwards persisted changes to downstream consumers.
type FixtureEventPublisher interface {
	PublishFixtureChanges(ctx context.Context, changes []FixtureChange) error
}
