package providerhttp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/fixture-ingestion/internal/platform/logging"
	"github.com/riskibarqy/fixture-ingestion/internal/platform/resilience"
	"github.com/riskibarqy/fixture-ingestion/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

const (
	defaultTimeout      = 20 * time.Second
	defaultRetryBackoff = time.Second
	maxResponseBytes    = 6 << 20
	redacted            = "REDACTED"
	minRedactableSecret = 4
)

var errProviderTransient = crerr.New("provider transient failure")

type Config struct {
	Provider   string
	HTTPClient *http.Client
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	// RetryBackoff is multiplied by the attempt number between retries.
	RetryBackoff time.Duration
	// Headers are sent on every request, usually the auth header.
	Headers map[string]string
	// Secrets are scrubbed from logged URLs and error messages.
	Secrets        []string
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client is the shared outbound JSON client behind every provider adapter.
// Identical concurrent requests share one round trip, and repeated transient
// failures trip a circuit breaker.
type Client struct {
	provider     string
	httpClient   *http.Client
	baseURL      string
	maxRetries   int
	retryBackoff time.Duration
	headers      map[string]string
	secrets      []string
	logger       *logging.Logger
	breaker      *resilience.CircuitBreaker
	flight       singleflight.Group
}

func New(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	retryBackoff := cfg.RetryBackoff
	if retryBackoff <= 0 {
		retryBackoff = defaultRetryBackoff
	}

	headers := make(map[string]string, len(cfg.Headers))
	for key, value := range cfg.Headers {
		if strings.TrimSpace(value) != "" {
			headers[key] = value
		}
	}

	secrets := make([]string, 0, len(cfg.Secrets))
	for _, secret := range cfg.Secrets {
		if secret = strings.TrimSpace(secret); len(secret) >= minRedactableSecret {
			secrets = append(secrets, secret)
		}
	}

	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	return &Client{
		provider:     provider,
		httpClient:   httpClient,
		baseURL:      strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		maxRetries:   max(cfg.MaxRetries, 0),
		retryBackoff: retryBackoff,
		headers:      headers,
		secrets:      secrets,
		logger:       logger.With("provider", provider),
		breaker:      resilience.NewCircuitBreaker(cfg.CircuitBreaker),
	}
}

func (c *Client) Provider() string {
	return c.provider
}

func (c *Client) BreakerState() resilience.CircuitState {
	return c.breaker.State()
}

// Get fetches baseURL+path and returns the raw body. Failures are
// *usecase.FetchError.
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.breaker.Allow(); err != nil {
		fields := append([]any{"state", c.breaker.State()}, c.breaker.Config().LogFields()...)
		c.logger.WarnContext(ctx, "provider circuit breaker rejected request", fields...)
		return nil, usecase.NewFetchError(c.provider, usecase.FetchErrorUnavailable, err)
	}

	fullURL := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.execute(ctx, fullURL)
		if reqErr != nil && isCircuitFailure(reqErr) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
		return raw, reqErr
	})
	if err != nil {
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, usecase.NewFetchError(c.provider, usecase.FetchErrorMalformedResponse, fmt.Errorf("unexpected response payload type %T", out))
	}
	return raw, nil
}

func (c *Client) execute(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr *usecase.FetchError
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		raw, err := c.roundTrip(ctx, fullURL)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !isCircuitFailure(err) || attempt == c.maxRetries {
			break
		}

		timer := time.NewTimer(time.Duration(attempt+1) * c.retryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, c.transportError(ctx, ctx.Err())
		case <-timer.C:
		}
	}

	c.logger.WarnContext(ctx, "provider request failed",
		"url", c.redact(fullURL),
		"kind", string(lastErr.Kind),
		"status_code", lastErr.StatusCode,
		"error", lastErr,
	)
	return nil, lastErr
}

func (c *Client) roundTrip(ctx context.Context, fullURL string) ([]byte, *usecase.FetchError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, usecase.NewFetchError(c.provider, usecase.FetchErrorNetwork, crerr.Wrap(err, "build request"))
	}
	req.Header.Set("Accept", "application/json")
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(ctx, err)
	}
	defer resp.Body.Close()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if _, err := buf.ReadFrom(io.LimitReader(resp.Body, maxResponseBytes)); err != nil {
		return nil, c.transportError(ctx, crerr.Wrap(err, "read response body"))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		cause := crerr.Newf("provider status=%d body=%s", resp.StatusCode, c.redact(abbreviateBody(buf.B)))
		if isRetryableStatus(resp.StatusCode) {
			cause = crerr.Mark(cause, errProviderTransient)
		}
		fetchErr := usecase.NewFetchError(c.provider, usecase.FetchErrorBadStatus, cause)
		fetchErr.StatusCode = resp.StatusCode
		return nil, fetchErr
	}

	return append([]byte(nil), buf.B...), nil
}

func (c *Client) transportError(ctx context.Context, err error) *usecase.FetchError {
	kind := usecase.FetchErrorNetwork
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		kind = usecase.FetchErrorTimeout
	}
	cause := crerr.Newf("send request: %s", c.redact(err.Error()))
	if ctx.Err() == nil {
		cause = crerr.Mark(cause, errProviderTransient)
	}
	return usecase.NewFetchError(c.provider, kind, cause)
}

func (c *Client) redact(value string) string {
	for _, secret := range c.secrets {
		value = strings.ReplaceAll(value, secret, redacted)
	}
	return value
}

func isCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return crerr.Is(err, errProviderTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
