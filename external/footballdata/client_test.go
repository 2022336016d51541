package footballdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/riskibarqy/fixture-ingestion/internal/domain/fixture"
	"github.com/riskibarqy/fixture-ingestion/internal/platform/logging"
	"github.com/riskibarqy/fixture-ingestion/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const matchesBody = `{
  "filters": {"status": ["SCHEDULED"]},
  "competition": {"id": 2021, "name": "Premier League", "code": "PL"},
  "matches": [
    {
      "id": 497410,
      "utcDate": "2024-08-16T19:00:00Z",
      "status": "TIMED",
      "competition": {"id": 2021, "name": "Premier League"},
      "homeTeam": {"id": 66, "name": "Manchester United FC"},
      "awayTeam": {"id": 63, "name": "Fulham FC"}
    },
    {
      "id": 497411,
      "utcDate": "2024-08-17T11:30:00Z",
      "status": "IN_PLAY",
      "homeTeam": {"id": 349, "name": "Ipswich Town FC"},
      "awayTeam": {"id": 57, "name": null}
    }
  ]
}`

func newTestClient(server *httptest.Server) *Client {
	return NewClient(ClientConfig{
		HTTPClient: server.Client(),
		BaseURL:    server.URL,
		Token:      "fd-token-123",
		Leagues:    map[string]string{"premier_league": "PL"},
		Logger:     logging.NewNop(),
	})
}

func TestFetch_UpcomingMatches(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/competitions/PL/matches", r.URL.Path)
		assert.Equal(t, "SCHEDULED", r.URL.Query().Get("status"))
		assert.Equal(t, "fd-token-123", r.Header.Get("X-Auth-Token"))
		_, _ = w.Write([]byte(matchesBody))
	}))
	defer server.Close()

	records, err := newTestClient(server).Fetch(context.Background(), usecase.FetchRequest{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Premier League", records[0].LeagueHint)
}

func TestFetch_DateRange(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024-08-16", r.URL.Query().Get("dateFrom"))
		assert.Equal(t, "2024-08-16", r.URL.Query().Get("dateTo"))
		assert.Empty(t, r.URL.Query().Get("status"))
		_, _ = w.Write([]byte(`{"matches":[]}`))
	}))
	defer server.Close()

	records, err := newTestClient(server).Fetch(context.Background(), usecase.FetchRequest{
		League: "premier_league",
		Date:   time.Date(2024, 8, 16, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFetch_RateLimitedIsBadStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient(server).Fetch(context.Background(), usecase.FetchRequest{})
	var fetchErr *usecase.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, usecase.FetchErrorBadStatus, fetchErr.Kind)
	assert.Equal(t, http.StatusTooManyRequests, fetchErr.StatusCode)
}

func TestExtractFields_UsesHintAndUnknownFallback(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(matchesBody))
	}))
	defer server.Close()

	client := newTestClient(server)
	records, err := client.Fetch(context.Background(), usecase.FetchRequest{})
	require.NoError(t, err)

	normalizer := usecase.NewFixtureNormalizer(map[string]usecase.FieldExtractor{ProviderName: client})
	items := make(map[string]fixture.Fixture, len(records))
	for _, record := range records {
		item, err := normalizer.Normalize(ProviderName, record)
		require.NoError(t, err)
		items[item.ProviderID] = item
	}

	first := items["footballdata_497410"]
	assert.Equal(t, "Manchester United FC", first.HomeTeam)
	assert.Equal(t, fixture.StatusScheduled, first.StatusCanonical)
	require.NotNil(t, first.Kickoff)
	assert.True(t, first.Kickoff.Equal(time.Date(2024, 8, 16, 19, 0, 0, 0, time.UTC)))

	second := items["footballdata_497411"]
	assert.Equal(t, "Premier League", second.League)
	assert.Equal(t, fixture.UnknownName, second.AwayTeam)
	assert.Equal(t, fixture.StatusLive, second.StatusCanonical)
}
