package espn

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
	ProviderName   = "espn"
	defaultBaseURL = "http://site.api.espn.com/apis/site/v2/sports/soccer"
	// ESPN drops seconds from event dates: "2024-08-16T19:00Z".
	eventDateLayout = "2006-01-02T15:04Z07:00"
)

var DefaultLeagues = map[string]string{
	"premier_league":   "eng.1",
	"championship":     "eng.2",
	"la_liga":          "esp.1",
	"bundesliga":       "ger.1",
	"serie_a":          "ita.1",
	"ligue_1":          "fra.1",
	"champions_league": "uefa.champions",
}

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	MaxConcurrency int
	Leagues        map[string]string
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads the public ESPN scoreboard, one request per league.
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
		return c.fetchScoreboard(ctx, league, req.Date)
	})
}

func (c *Client) fetchScoreboard(ctx context.Context, league providerhttp.League, date time.Time) ([]usecase.RawFixtureRecord, error) {
	query := url.Values{}
	if !date.IsZero() {
		query.Set("dates", date.UTC().Format("20060102"))
	}

	raw, err := c.http.Get(ctx, "/"+url.PathEscape(league.Code)+"/scoreboard", query)
	if err != nil {
		return nil, err
	}

	events, err := providerhttp.ExtractArray(ProviderName, raw, "events")
	if err != nil {
		return nil, err
	}

	hint := scoreboardLeagueName(raw)
	records := make([]usecase.RawFixtureRecord, 0, len(events))
	for _, event := range events {
		records = append(records, usecase.RawFixtureRecord{
			Provider:   ProviderName,
			LeagueHint: hint,
			Payload:    event,
		})
	}
	return records, nil
}

type scoreboard struct {
	Leagues []struct {
		Name string `json:"name"`
	} `json:"leagues"`
}

func scoreboardLeagueName(raw []byte) string {
	var board scoreboard
	if err := sonic.Unmarshal(raw, &board); err != nil || len(board.Leagues) == 0 {
		return ""
	}
	return board.Leagues[0].Name
}

type event struct {
	ID     string `json:"id"`
	Date   string `json:"date"`
	Status struct {
		Type struct {
			Name string `json:"name"`
		} `json:"type"`
	} `json:"status"`
	Competitions []struct {
		Competitors []competitor `json:"competitors"`
	} `json:"competitions"`
}

type competitor struct {
	HomeAway string `json:"homeAway"`
	Team     struct {
		DisplayName string `json:"displayName"`
	} `json:"team"`
}

func (c *Client) ExtractFields(record usecase.RawFixtureRecord) (usecase.FixtureFields, error) {
	var item event
	if err := sonic.Unmarshal(record.Payload, &item); err != nil {
		return usecase.FixtureFields{}, fmt.Errorf("decode espn event: %w", err)
	}

	fields := usecase.FixtureFields{
		NativeID:      item.ID,
		Kickoff:       item.Date,
		KickoffLayout: eventDateLayout,
		Status:        item.Status.Type.Name,
	}
	if len(item.Competitions) > 0 {
		for _, side := range item.Competitions[0].Competitors {
			switch strings.ToLower(side.HomeAway) {
			case "home":
				fields.HomeTeam = side.Team.DisplayName
			case "away":
				fields.AwayTeam = side.Team.DisplayName
			}
		}
	}
	return fields, nil
}
