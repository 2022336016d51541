package resilience

import "time"

// CircuitBreakerConfig guards one provider upstream. Each adapter owns its
// breaker, so one provider failing never rejects calls to another.
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMaxReq   int
}

// DefaultCircuitBreakerConfig matches the PROVIDER_CIRCUIT_* defaults.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
		HalfOpenMaxReq:   1,
	}
}

// NormalizeCircuitBreakerConfig fills invalid numeric fields with defaults
// and keeps Enabled as given.
func NormalizeCircuitBreakerConfig(cfg CircuitBreakerConfig) CircuitBreakerConfig {
	defaults := DefaultCircuitBreakerConfig()
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = defaults.FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = defaults.OpenTimeout
	}
	if cfg.HalfOpenMaxReq < 1 {
		cfg.HalfOpenMaxReq = defaults.HalfOpenMaxReq
	}
	return cfg
}

// LogFields renders the config as logger key/value pairs.
func (c CircuitBreakerConfig) LogFields() []any {
	return []any{
		"circuit_enabled", c.Enabled,
		"circuit_failure_threshold", c.FailureThreshold,
		"circuit_open_timeout", c.OpenTimeout.String(),
		"circuit_half_open_max_req", c.HalfOpenMaxReq,
	}
}
