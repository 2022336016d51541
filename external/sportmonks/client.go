package sportmonks

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
	ProviderName    = "sportmonks"
	defaultBaseURL  = "https://api.sportmonks.com/v3/football"
	fixtureIncludes = "participants;state;league"
	upcomingDays    = 14
	perPage         = 50
	// Bounds one league fetch to maxPages*perPage fixtures.
	maxPages = 5
)

var DefaultLeagues = map[string]string{
	"premier_league":   "8",
	"championship":     "9",
	"la_liga":          "564",
	"bundesliga":       "82",
	"serie_a":          "384",
	"ligue_1":          "301",
	"champions_league": "2",
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

// Client reads SportMonks v3 fixtures between two dates, filtered per
// league. The token travels as the api_token query parameter.
type Client struct {
	http           *providerhttp.Client
	token          string
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
	token := strings.TrimSpace(cfg.Token)

	return &Client{
		http: providerhttp.New(providerhttp.Config{
			Provider:       ProviderName,
			HTTPClient:     cfg.HTTPClient,
			BaseURL:        baseURL,
			Timeout:        cfg.Timeout,
			MaxRetries:     cfg.MaxRetries,
			Secrets:        []string{token},
			Logger:         cfg.Logger,
			CircuitBreaker: cfg.CircuitBreaker,
		}),
		token:          token,
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
	from, until := req.Date.UTC(), req.Date.UTC()
	if req.Date.IsZero() {
		from = c.now().UTC()
		until = from.AddDate(0, 0, upcomingDays)
	}

	leagues := providerhttp.SelectLeagues(c.leagues, req.League)
	return c.http.FetchLeagues(ctx, leagues, c.maxConcurrency, func(ctx context.Context, league providerhttp.League) ([]usecase.RawFixtureRecord, error) {
		return c.fetchBetween(ctx, league, from, until)
	})
}

type pagination struct {
	HasMore bool `json:"has_more"`
}

func (c *Client) fetchBetween(ctx context.Context, league providerhttp.League, from, until time.Time) ([]usecase.RawFixtureRecord, error) {
	path := fmt.Sprintf("/fixtures/between/%s/%s", from.Format(time.DateOnly), until.Format(time.DateOnly))

	records := make([]usecase.RawFixtureRecord, 0, perPage)
	for page := 1; page <= maxPages; page++ {
		query := url.Values{}
		query.Set("api_token", c.token)
		query.Set("include", fixtureIncludes)
		query.Set("filters", "fixtureLeagues:"+league.Code)
		query.Set("per_page", strconv.Itoa(perPage))
		query.Set("page", strconv.Itoa(page))

		raw, err := c.http.Get(ctx, path, query)
		if err != nil {
			return nil, err
		}

		items, err := providerhttp.ExtractArray(ProviderName, raw, "data")
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			records = append(records, usecase.RawFixtureRecord{Provider: ProviderName, Payload: item})
		}

		var envelope struct {
			Pagination pagination `json:"pagination"`
		}
		if err := sonic.Unmarshal(raw, &envelope); err != nil || !envelope.Pagination.HasMore {
			break
		}
	}
	return records, nil
}

type fixtureItem struct {
	ID           int64                `json:"id"`
	StartingAt   string               `json:"starting_at"`
	ResultInfo   string               `json:"result_info"`
	StateID      int64                `json:"state_id"`
	State        fixtureState         `json:"state"`
	League       fixtureLeague        `json:"league"`
	Participants []fixtureParticipant `json:"participants"`
}

type fixtureState struct {
	DeveloperName string `json:"developer_name"`
}

type fixtureLeague struct {
	Name string `json:"name"`
}

type fixtureParticipant struct {
	Name string `json:"name"`
	Meta struct {
		Location string `json:"location"`
	} `json:"meta"`
}

func (c *Client) ExtractFields(record usecase.RawFixtureRecord) (usecase.FixtureFields, error) {
	var item fixtureItem
	if err := sonic.Unmarshal(record.Payload, &item); err != nil {
		return usecase.FixtureFields{}, fmt.Errorf("decode sportmonks fixture: %w", err)
	}

	homeName, awayName := resolveFixtureParticipants(item.Participants)
	fields := usecase.FixtureFields{
		League:   item.League.Name,
		HomeTeam: homeName,
		AwayTeam: awayName,
		// starting_at is UTC without an offset.
		Kickoff:       item.StartingAt,
		KickoffLayout: time.DateTime,
		Status:        fixtureStatus(item),
	}
	if item.ID > 0 {
		fields.NativeID = strconv.FormatInt(item.ID, 10)
	}
	return fields, nil
}

func resolveFixtureParticipants(participants []fixtureParticipant) (string, string) {
	var homeName, awayName string
	for _, item := range participants {
		switch strings.ToLower(strings.TrimSpace(item.Meta.Location)) {
		case "home":
			homeName = strings.TrimSpace(item.Name)
		case "away":
			awayName = strings.TrimSpace(item.Name)
		}
	}
	return homeName, awayName
}

// fixtureStatus prefers the included state's developer name and falls back
// to the numeric state id when the include is missing.
func fixtureStatus(item fixtureItem) string {
	if name := strings.TrimSpace(item.State.DeveloperName); name != "" {
		return name
	}

	switch item.StateID {
	case 1:
		return "NS"
	case 2, 3, 4, 6, 7, 8, 9:
		return "LIVE"
	case 5, 13, 14:
		return "FT"
	case 10:
		return "POSTPONED"
	case 11, 12:
		return "CANCELLED"
	}

	info := strings.ToLower(strings.TrimSpace(item.ResultInfo))
	switch {
	case info == "":
		return ""
	case strings.Contains(info, "postpon"):
		return "POSTPONED"
	case strings.Contains(info, "cancel"), strings.Contains(info, "abandon"):
		return "CANCELLED"
	case strings.Contains(info, "won"), strings.Contains(info, "draw"), strings.Contains(info, "finish"):
		return "FT"
	default:
		return info
	}
}
