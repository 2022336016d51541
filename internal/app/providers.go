package app

import (
	"github.com/riskibarqy/fixture-ingestion/external/apifootball"
	"github.com/riskibarqy/fixture-ingestion/external/espn"
	"github.com/riskibarqy/fixture-ingestion/external/footballdata"
	"github.com/riskibarqy/fixture-ingestion/external/sportmonks"
	"github.com/riskibarqy/fixture-ingestion/external/thesportsdb"
	"github.com/riskibarqy/fixture-ingestion/internal/config"
	"github.com/riskibarqy/fixture-ingestion/internal/platform/logging"
	"github.com/riskibarqy/fixture-ingestion/internal/platform/resilience"
	"github.com/riskibarqy/fixture-ingestion/internal/usecase"
)

// buildAdapters returns the enabled providers in a fixed order. Each adapter
// gets its own circuit breaker.
func buildAdapters(cfg config.Config, logger *logging.Logger) []usecase.ProviderAdapter {
	breaker := resilience.CircuitBreakerConfig{
		Enabled:          cfg.ProviderCircuitEnabled,
		FailureThreshold: cfg.ProviderCircuitFailures,
		OpenTimeout:      cfg.ProviderCircuitOpenTimeout,
		HalfOpenMaxReq:   cfg.ProviderCircuitHalfOpenReq,
	}

	adapters := make([]usecase.ProviderAdapter, 0, 5)
	if cfg.ESPN.Enabled {
		adapters = append(adapters, espn.NewClient(espn.ClientConfig{
			BaseURL:        cfg.ESPN.BaseURL,
			Timeout:        cfg.ProviderTimeout,
			MaxRetries:     cfg.ProviderMaxRetries,
			MaxConcurrency: cfg.ProviderLeagueConcurrency,
			Leagues:        cfg.ESPN.Leagues,
			Logger:         logger.With("provider", espn.ProviderName),
			CircuitBreaker: breaker,
		}))
	}
	if cfg.TheSportsDB.Enabled {
		adapters = append(adapters, thesportsdb.NewClient(thesportsdb.ClientConfig{
			BaseURL:        cfg.TheSportsDB.BaseURL,
			APIKey:         cfg.TheSportsDB.APIKey,
			Timeout:        cfg.ProviderTimeout,
			MaxRetries:     cfg.ProviderMaxRetries,
			MaxConcurrency: cfg.ProviderLeagueConcurrency,
			Leagues:        cfg.TheSportsDB.Leagues,
			Logger:         logger.With("provider", thesportsdb.ProviderName),
			CircuitBreaker: breaker,
		}))
	}
	if cfg.APIFootball.Enabled {
		adapters = append(adapters, apifootball.NewClient(apifootball.ClientConfig{
			BaseURL:        cfg.APIFootball.BaseURL,
			APIKey:         cfg.APIFootball.APIKey,
			Timeout:        cfg.ProviderTimeout,
			MaxRetries:     cfg.ProviderMaxRetries,
			MaxConcurrency: cfg.ProviderLeagueConcurrency,
			Leagues:        cfg.APIFootball.Leagues,
			Logger:         logger.With("provider", apifootball.ProviderName),
			CircuitBreaker: breaker,
		}))
	}
	if cfg.FootballData.Enabled {
		adapters = append(adapters, footballdata.NewClient(footballdata.ClientConfig{
			BaseURL:        cfg.FootballData.BaseURL,
			Token:          cfg.FootballData.APIKey,
			Timeout:        cfg.ProviderTimeout,
			MaxRetries:     cfg.ProviderMaxRetries,
			MaxConcurrency: cfg.ProviderLeagueConcurrency,
			Leagues:        cfg.FootballData.Leagues,
			Logger:         logger.With("provider", footballdata.ProviderName),
			CircuitBreaker: breaker,
		}))
	}
	if cfg.SportMonks.Enabled {
		adapters = append(adapters, sportmonks.NewClient(sportmonks.ClientConfig{
			BaseURL:        cfg.SportMonks.BaseURL,
			Token:          cfg.SportMonks.APIKey,
			Timeout:        cfg.ProviderTimeout,
			MaxRetries:     cfg.ProviderMaxRetries,
			MaxConcurrency: cfg.ProviderLeagueConcurrency,
			Leagues:        cfg.SportMonks.Leagues,
			Logger:         logger.With("provider", sportmonks.ProviderName),
			CircuitBreaker: breaker,
		}))
	}
	return adapters
}

func providerNames(adapters []usecase.ProviderAdapter) []string {
	out := make([]string, 0, len(adapters))
	for _, adapter := range adapters {
		out = append(out, adapter.Name())
	}
	return out
}
