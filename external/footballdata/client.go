package footballdata

import (
	"context"
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
	ProviderName   = "footballdata"
	defaultBaseURL = "https://api.football-data.org/v4"
	tokenHeader    = "X-Auth-Token"
)

var DefaultLeagues = map[string]string{
	"premier_league":   "PL",
	"championship":     "ELC",
	"la_liga":          "PD",
	"bundesliga":       "BL1",
	"serie_a":          "SA",
	"ligue_1":          "FL1",
	"champions_league": "CL",
}

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Token          string
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
			Headers:        map[string]string{tokenHeader: cfg.Token},
			Secrets:        []string{cfg.Token},
			Logger:         cfg.Logger,
			CircuitBreaker: cfg.CircuitBreaker,
		}),
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
		return c.fetchCompetition(ctx, league, req.Date)
	})
}

func (c *Client) fetchCompetition(ctx context.Context, league providerhttp.League, date time.Time) ([]usecase.RawFixtureRecord, error) {
	query := url.Values{}
	if date.IsZero() {
		query.Set("status", "SCHEDULED")
	} else {
		day := date.UTC().Format("2006-01-02")
		query.Set("dateFrom", day)
		query.Set("dateTo", day)
	}

	raw, err := c.http.Get(ctx, "/competitions/"+url.PathEscape(league.Code)+"/matches", query)
	if err != nil {
		return nil, err
	}

	matches, err := providerhttp.ExtractArray(ProviderName, raw, "matches")
	if err != nil {
		return nil, err
	}

	hint := competitionName(raw)
	records := make([]usecase.RawFixtureRecord, 0, len(matches))
	for _, item := range matches {
		records = append(records, usecase.RawFixtureRecord{Provider: ProviderName, LeagueHint: hint, Payload: item})
	}
	return records, nil
}

type named struct {
	Name string `json:"name"`
}

func competitionName(raw []byte) string {
	var envelope struct {
		Competition named `json:"competition"`
	}
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return ""
	}
	return envelope.Competition.Name
}

type match struct {
	ID          int64  `json:"id"`
	UTCDate     string `json:"utcDate"`
	Status      string `json:"status"`
	Competition named  `json:"competition"`
	HomeTeam    named  `json:"homeTeam"`
	AwayTeam    named  `json:"awayTeam"`
}

func (c *Client) ExtractFields(record usecase.RawFixtureRecord) (usecase.FixtureFields, error) {
	var item match
	if err := sonic.Unmarshal(record.Payload, &item); err != nil {
		return usecase.FixtureFields{}, fmt.Errorf("decode football-data match: %w", err)
	}

	fields := usecase.FixtureFields{
		League:   item.Competition.Name,
		HomeTeam: item.HomeTeam.Name,
		AwayTeam: item.AwayTeam.Name,
		Kickoff:  item.UTCDate,
		Status:   item.Status,
	}
	if item.ID > 0 {
		fields.NativeID = strconv.FormatInt(item.ID, 10)
	}
	return fields, nil
}
