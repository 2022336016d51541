package thesportsdb

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/fixture-ingestion/external/providerhttp"
	"github.com/riskibarqy/fixture-ingestion/internal/platform/logging"
	"github.com/riskibarqy/fixture-ingestion/internal/platform/resilience"
	"github.com/riskibarqy/fixture-ingestion/internal/usecase"
)

const (
	ProviderName   = "thesportsdb"
	defaultBaseURL = "https://www.thesportsdb.com/api/v1/json"
	// Public test key documented by TheSportsDB.
	defaultAPIKey = "3"
)

var DefaultLeagues = map[string]string{
	"premier_league": "4328",
	"championship":   "4329",
	"la_liga":        "4335",
	"bundesliga":     "4331",
	"serie_a":        "4332",
	"ligue_1":        "4334",
}

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int
	MaxConcurrency int
	Leagues        map[string]string
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads TheSportsDB v1 API. The key is a path segment, so it is
// registered as a secret for log redaction.
type Client struct {
	http           *providerhttp.Client
	apiKey         string
	leagues        map[string]string
	maxConcurrency int
}

func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		apiKey = defaultAPIKey
	}
	leagues := cfg.Leagues
	if len(leagues) == 0 {
		leagues = DefaultLeagues
	}

	return &Client{
		http: providerhttp.New(providerhttp.Config{
			Provider:       ProviderName,
			HTTPClient:     cfg.HTTPClient,
			BaseURL:        baseURL,
			Timeout:        cfg.Timeout,
			MaxRetries:     cfg.MaxRetries,
			Secrets:        []string{apiKey},
			Logger:         cfg.Logger,
			CircuitBreaker: cfg.CircuitBreaker,
		}),
		apiKey:         apiKey,
		leagues:        leagues,
		maxConcurrency: cfg.MaxConcurrency,
	}
}

func (c *Client) Name() string {
	return ProviderName
}

func (c *Client) Describe() usecase.ProviderInfo {
	return c.http.Describe(c.leagues)
}

func (c *Client) Fetch(ctx context.Context, req usecase.FetchRequest) ([]usecase.RawFixtureRecord, error) {
	leagues := providerhttp.SelectLeagues(c.leagues, req.League)
	return c.http.FetchLeagues(ctx, leagues, c.maxConcurrency, func(ctx context.Context, league providerhttp.League) ([]usecase.RawFixtureRecord, error) {
		return c.fetchLeague(ctx, league, req.Date)
	})
}

func (c *Client) fetchLeague(ctx context.Context, league providerhttp.League, date time.Time) ([]usecase.RawFixtureRecord, error) {
	path := "/" + url.PathEscape(c.apiKey)
	query := url.Values{}
	if date.IsZero() {
		path += "/eventsnextleague.php"
		query.Set("id", league.Code)
	} else {
		path += "/eventsday.php"
		query.Set("d", date.UTC().Format("2006-01-02"))
		query.Set("l", league.Code)
	}

	raw, err := c.http.Get(ctx, path, query)
	if err != nil {
		return nil, err
	}

	events, err := providerhttp.ExtractArray(ProviderName, raw, "events")
	if err != nil {
		return nil, err
	}

	records := make([]usecase.RawFixtureRecord, 0, len(events))
	for _, item := range events {
		records = append(records, usecase.RawFixtureRecord{Provider: ProviderName, Payload: item})
	}
	return records, nil
}

type event struct {
	ID        string `json:"idEvent"`
	League    string `json:"strLeague"`
	HomeTeam  string `json:"strHomeTeam"`
	AwayTeam  string `json:"strAwayTeam"`
	Date      string `json:"dateEvent"`
	Time      string `json:"strTime"`
	Timestamp string `json:"strTimestamp"`
	Status    string `json:"strStatus"`
}

func (c *Client) ExtractFields(record usecase.RawFixtureRecord) (usecase.FixtureFields, error) {
	var item event
	if err := sonic.Unmarshal(record.Payload, &item); err != nil {
		return usecase.FixtureFields{}, fmt.Errorf("decode thesportsdb event: %w", err)
	}

	return usecase.FixtureFields{
		NativeID:       item.ID,
		League:         item.League,
		HomeTeam:       item.HomeTeam,
		AwayTeam:       item.AwayTeam,
		KickoffPrimary: item.Timestamp,
		Kickoff:        item.Date,
		KickoffTime:    item.Time,
		Status:         item.Status,
	}, nil
}
