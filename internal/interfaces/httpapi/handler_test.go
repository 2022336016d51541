package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/fixture-ingestion/internal/domain/fixture"
	"github.com/riskibarqy/fixture-ingestion/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/fixture-ingestion/internal/platform/logging"
	"github.com/riskibarqy/fixture-ingestion/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEvent struct {
	ID      string `json:"id"`
	League  string `json:"league"`
	Home    string `json:"home"`
	Away    string `json:"away"`
	Kickoff string `json:"kickoff"`
	Status  string `json:"status"`
}

type fakeAdapter struct {
	name   string
	events []fakeEvent
	err    error
}

func (a *fakeAdapter) Name() string { return a.name }

func (a *fakeAdapter) Fetch(_ context.Context, _ usecase.FetchRequest) ([]usecase.RawFixtureRecord, error) {
	if a.err != nil {
		return nil, a.err
	}
	out := make([]usecase.RawFixtureRecord, 0, len(a.events))
	for _, event := range a.events {
		payload, err := sonic.Marshal(event)
		if err != nil {
			return nil, err
		}
		out = append(out, usecase.RawFixtureRecord{Provider: a.name, Payload: payload})
	}
	return out, nil
}

func (a *fakeAdapter) ExtractFields(record usecase.RawFixtureRecord) (usecase.FixtureFields, error) {
	var event fakeEvent
	if err := sonic.Unmarshal(record.Payload, &event); err != nil {
		return usecase.FixtureFields{}, err
	}
	return usecase.FixtureFields{
		NativeID: event.ID,
		League:   event.League,
		HomeTeam: event.Home,
		AwayTeam: event.Away,
		Kickoff:  event.Kickoff,
		Status:   event.Status,
	}, nil
}

type unavailableRepository struct {
	*memory.FixtureRepository
}

func (r unavailableRepository) WithinTx(context.Context, func(tx fixture.Writer) error) error {
	return fmt.Errorf("begin tx: %w", fixture.ErrStoreUnavailable)
}

func newTestRouter(t *testing.T, repo fixture.Repository, adapters ...usecase.ProviderAdapter) http.Handler {
	t.Helper()

	logger := logging.NewNop()
	ingestion := usecase.NewIngestionService(repo, adapters, nil, nil, usecase.IngestionServiceConfig{ProviderTimeout: time.Second}, logger)
	handler := NewHandler(ingestion, usecase.NewFixtureService(repo), logger)
	return NewRouter(handler, logger, RouterConfig{SwaggerEnabled: true})
}

func defaultAdapters() []usecase.ProviderAdapter {
	return []usecase.ProviderAdapter{
		&fakeAdapter{name: "espn", events: []fakeEvent{
			{ID: "5551", League: "Premier League", Home: "Arsenal", Away: "Chelsea", Kickoff: "2099-08-16T19:00:00Z", Status: "STATUS_SCHEDULED"},
			{ID: "5552", League: "Premier League", Home: "Everton", Away: "Brighton", Kickoff: "not a date", Status: "STATUS_SCHEDULED"},
		}},
		&fakeAdapter{name: "thesportsdb", events: []fakeEvent{
			{ID: "9991", League: "English Premier League", Home: "Arsenal", Away: "Chelsea", Kickoff: "2099-08-16", Status: "Not Started"},
			{ID: "", League: "English Premier League", Home: "Fulham", Away: "Wolves"},
		}},
	}
}

type envelope struct {
	APIVersion string         `json:"apiVersion"`
	Data       any            `json:"data"`
	Error      map[string]any `json:"error"`
}

func doRequest(t *testing.T, router http.Handler, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var out envelope
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &out), "body=%s", rec.Body.String())
	}
	return rec, out
}

func TestRunIngestion_ReportsAndIsIdempotent(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, memory.NewFixtureRepository(), defaultAdapters()...)

	rec, body := doRequest(t, router, http.MethodPost, "/v1/ingestion/fixtures", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	report, ok := body.Data.(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 3, report["added"])
	assert.EqualValues(t, 0, report["skipped"])
	assert.EqualValues(t, 1, report["dropped"])
	assert.Len(t, report["warnings"], 1)
	assert.Len(t, report["errors"], 0)

	rec, body = doRequest(t, router, http.MethodPost, "/v1/ingestion/fixtures", `{"force":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	report = body.Data.(map[string]any)
	assert.EqualValues(t, 0, report["added"])
	assert.EqualValues(t, 3, report["skipped"])
}

func TestRunIngestion_ProviderFailureIsReported(t *testing.T) {
	t.Parallel()

	adapters := defaultAdapters()
	adapters[1] = &fakeAdapter{name: "thesportsdb", err: usecase.NewFetchError("thesportsdb", usecase.FetchErrorNetwork, fmt.Errorf("connection refused"))}
	router := newTestRouter(t, memory.NewFixtureRepository(), adapters...)

	rec, body := doRequest(t, router, http.MethodPost, "/v1/ingestion/fixtures", `{"providers":["espn","thesportsdb"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	report := body.Data.(map[string]any)
	assert.EqualValues(t, 2, report["added"])
	errs, ok := report["errors"].([]any)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "thesportsdb", errs[0].(map[string]any)["provider"])
}

func TestRunIngestion_InvalidRequests(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, memory.NewFixtureRepository(), defaultAdapters()...)
	for name, payload := range map[string]string{
		"malformed json":   `{"providers":`,
		"unknown field":    `{"provider":"espn"}`,
		"bad date":         `{"date":"16/08/2024"}`,
		"unknown provider": `{"providers":["newsapi"]}`,
		"blank provider":   `{"providers":[""]}`,
	} {
		rec, body := doRequest(t, router, http.MethodPost, "/v1/ingestion/fixtures", payload)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d body=%s", name, rec.Code, rec.Body.String())
		}
		if body.Error["status"] != "INVALID_ARGUMENT" {
			t.Fatalf("%s: unexpected error body %v", name, body.Error)
		}
	}
}

func TestRunIngestion_StoreUnavailableIs503(t *testing.T) {
	t.Parallel()

	repo := unavailableRepository{FixtureRepository: memory.NewFixtureRepository()}
	router := newTestRouter(t, repo, defaultAdapters()...)

	rec, body := doRequest(t, router, http.MethodPost, "/v1/ingestion/fixtures", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code, rec.Body.String())
	assert.Equal(t, "UNAVAILABLE", body.Error["status"])
	assert.Nil(t, body.Data)
}

func TestFixtureReadRoutes(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, memory.NewFixtureRepository(), defaultAdapters()...)
	rec, _ := doRequest(t, router, http.MethodPost, "/v1/ingestion/fixtures", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := doRequest(t, router, http.MethodGet, "/v1/fixtures?provider=espn", "")
	require.Equal(t, http.StatusOK, rec.Code)
	items, ok := body.Data.([]any)
	require.True(t, ok)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, "espn_5551", first["provider_id"])
	assert.Nil(t, items[1].(map[string]any)["kickoff_at"])

	rec, body = doRequest(t, router, http.MethodGet, "/v1/fixtures?league=english&limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body.Data, 1)

	rec, body = doRequest(t, router, http.MethodGet, "/v1/fixtures/THESPORTSDB_9991", "")
	require.Equal(t, http.StatusOK, rec.Code)
	detail := body.Data.(map[string]any)
	assert.Equal(t, "thesportsdb_9991", detail["provider_id"])
	assert.Equal(t, "SCHEDULED", detail["status_canonical"])
	assert.NotNil(t, detail["raw_payload"])

	rec, _ = doRequest(t, router, http.MethodGet, "/v1/fixtures/espn_404", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = doRequest(t, router, http.MethodGet, "/v1/fixtures/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := body.Data.(map[string]any)
	assert.EqualValues(t, 3, stats["total"])
	assert.EqualValues(t, map[string]any{"espn": float64(2), "thesportsdb": float64(1)}, stats["by_provider"])

	for _, target := range []string{"/v1/fixtures?days_ahead=abc", "/v1/fixtures?days_ahead=61", "/v1/fixtures?limit=-1"} {
		rec, _ = doRequest(t, router, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestListProvidersAndHealth(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, memory.NewFixtureRepository(), defaultAdapters()...)

	rec, body := doRequest(t, router, http.MethodGet, "/v1/providers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	providers, ok := body.Data.([]any)
	require.True(t, ok)
	assert.Len(t, providers, 2)

	rec, body = doRequest(t, router, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"status": "ok"}, body.Data)

	rec, _ = doRequest(t, router, http.MethodGet, "/openapi.yaml", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/v1/ingestion/fixtures")
}
