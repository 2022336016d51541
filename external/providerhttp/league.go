package providerhttp

import (
	"context"
	"sort"
	"strings"

	"github.com/riskibarqy/fixture-ingestion/internal/usecase"
)

// League pairs a shared league key ("premier_league") with the provider's
// own code for it.
type League struct {
	Key  string
	Code string
}

// SelectLeagues resolves key against a provider's league map. An empty key
// selects every league; a key the provider does not carry selects none.
func SelectLeagues(leagues map[string]string, key string) []League {
	key = strings.ToLower(strings.TrimSpace(key))
	if key != "" {
		code, ok := leagues[key]
		if !ok {
			return nil
		}
		return []League{{Key: key, Code: code}}
	}

	out := make([]League, 0, len(leagues))
	for _, k := range LeagueKeys(leagues) {
		out = append(out, League{Key: k, Code: leagues[k]})
	}
	return out
}

func LeagueKeys(leagues map[string]string) []string {
	keys := make([]string, 0, len(leagues))
	for key := range leagues {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// FetchLeagues fans fetch out over leagues. Some leagues failing is logged
// and tolerated; all of them failing returns the joined error.
func (c *Client) FetchLeagues(
	ctx context.Context,
	leagues []League,
	maxConcurrency int,
	fetch func(ctx context.Context, league League) ([]usecase.RawFixtureRecord, error),
) ([]usecase.RawFixtureRecord, error) {
	records, err := FanOut(ctx, leagues, maxConcurrency, fetch)
	if err != nil && records == nil {
		return nil, err
	}
	if err != nil {
		c.logger.WarnContext(ctx, "provider leagues partially failed", "leagues", len(leagues), "records", len(records), "error", err)
	}
	return records, nil
}

// Describe reports the provider for the read API.
func (c *Client) Describe(leagues map[string]string) usecase.ProviderInfo {
	return usecase.ProviderInfo{
		Name:         c.provider,
		Leagues:      LeagueKeys(leagues),
		CircuitState: string(c.BreakerState()),
	}
}
