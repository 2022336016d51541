package apifootball

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/fixture-ingestion/external/providerhttp"
	"github.com/riskibarqy/fixture-ingestion/internal/platform/logging"
	"github.com/riskibarqy/fixture-ingestion/internal/platform/resilience"
	"github.com/riskibarqy/fixture-ingestion/internal/usecase"
)

const (
	ProviderName   = "apifootball"
	defaultBaseURL = "https://v3.football.api-sports.io"
	apiKeyHeader   = "x-apisports-key"
	upcomingCount  = 50
)

var DefaultLeagues = map[string]string{
	"premier_league":   "39",
	"la_liga":          "140",
	"bundesliga":       "78",
	"serie_a":          "135",
	"ligue_1":          "61",
	"champions_league": "2",
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

type Client struct {
	http           *providerhttp.Client
	leagues        map[string]string
	maxConcurrency int
	now            func() time.Time
}

func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
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
			Headers:        map[string]string{apiKeyHeader: cfg.APIKey},
			Secrets:        []string{cfg.APIKey},
			Logger:         cfg.Logger,
			CircuitBreaker: cfg.CircuitBreaker,
		}),
		leagues:        leagues,
		maxConcurrency: cfg.MaxConcurrency,
		now:            time.Now,
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
	reference := date
	if reference.IsZero() {
		reference = c.now()
	}

	query := url.Values{}
	query.Set("league", league.Code)
	query.Set("season", strconv.Itoa(seasonFor(reference)))
	if date.IsZero() {
		query.Set("next", strconv.Itoa(upcomingCount))
	} else {
		query.Set("date", date.UTC().Format("2006-01-02"))
	}

	raw, err := c.http.Get(ctx, "/fixtures", query)
	if err != nil {
		return nil, err
	}
	if err := responseErrors(raw); err != nil {
		return nil, err
	}

	items, err := providerhttp.ExtractArray(ProviderName, raw, "response")
	if err != nil {
		return nil, err
	}

	records := make([]usecase.RawFixtureRecord, 0, len(items))
	for _, item := range items {
		records = append(records, usecase.RawFixtureRecord{Provider: ProviderName, Payload: item})
	}
	return records, nil
}

// seasonFor returns the season a date belongs to. European seasons start in
// July and are named after their first year.
func seasonFor(date time.Time) int {
	date = date.UTC()
	if date.Month() >= time.July {
		return date.Year()
	}
	return date.Year() - 1
}

// responseErrors surfaces the "errors" member API-Football fills on a 200
// response when the key or plan rejects the request. It is an empty array
// on success and an object on failure.
func responseErrors(raw []byte) error {
	var envelope struct {
		Errors json.RawMessage `json:"errors"`
	}
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return nil
	}

	value := bytes.TrimSpace(envelope.Errors)
	if len(value) == 0 || bytes.Equal(value, []byte("null")) || bytes.Equal(value, []byte("[]")) || bytes.Equal(value, []byte("{}")) {
		return nil
	}
	return usecase.NewFetchError(ProviderName, usecase.FetchErrorBadStatus, fmt.Errorf("provider reported errors: %s", value))
}

type fixtureItem struct {
	Fixture struct {
		ID     int64  `json:"id"`
		Date   string `json:"date"`
		Status struct {
			Short string `json:"short"`
		} `json:"status"`
	} `json:"fixture"`
	League struct {
		Name string `json:"name"`
	} `json:"league"`
	Teams struct {
		Home struct {
			Name string `json:"name"`
		} `json:"home"`
		Away struct {
			Name string `json:"name"`
		} `json:"away"`
	} `json:"teams"`
}

func (c *Client) ExtractFields(record usecase.RawFixtureRecord) (usecase.FixtureFields, error) {
	var item fixtureItem
	if err := sonic.Unmarshal(record.Payload, &item); err != nil {
		return usecase.FixtureFields{}, fmt.Errorf("decode api-football fixture: %w", err)
	}

	fields := usecase.FixtureFields{
		League:   item.League.Name,
		HomeTeam: item.Teams.Home.Name,
		AwayTeam: item.Teams.Away.Name,
		Kickoff:  item.Fixture.Date,
		Status:   item.Fixture.Status.Short,
	}
	if item.Fixture.ID > 0 {
		fields.NativeID = strconv.FormatInt(item.Fixture.ID, 10)
	}
	return fields, nil
}
