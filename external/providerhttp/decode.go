package providerhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/fixture-ingestion/internal/usecase"
	"github.com/sourcegraph/conc/pool"
)

var jsonNull = []byte("null")

// ExtractArray returns the elements of the top-level array under key. A
// missing key or a non-array value is a malformed response; an explicit
// null is an empty result.
func ExtractArray(provider string, raw []byte, key string) ([]json.RawMessage, error) {
	var envelope map[string]json.RawMessage
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return nil, usecase.NewFetchError(provider, usecase.FetchErrorMalformedResponse, fmt.Errorf("decode response envelope: %w", err))
	}

	value, ok := envelope[key]
	if !ok {
		return nil, usecase.NewFetchError(provider, usecase.FetchErrorMalformedResponse, fmt.Errorf("response has no %q key", key))
	}
	value = bytes.TrimSpace(value)
	if len(value) == 0 || bytes.Equal(value, jsonNull) {
		return []json.RawMessage{}, nil
	}

	var items []json.RawMessage
	if err := sonic.Unmarshal(value, &items); err != nil {
		return nil, usecase.NewFetchError(provider, usecase.FetchErrorMalformedResponse, fmt.Errorf("decode %q array: %w", key, err))
	}
	return items, nil
}

// FanOut runs fetch once per item with at most maxGoroutines in flight and
// concatenates the successful results. It fails only when every item
// failed; otherwise partial results come back with the joined error.
func FanOut[T, R any](ctx context.Context, items []T, maxGoroutines int, fetch func(ctx context.Context, item T) ([]R, error)) ([]R, error) {
	if len(items) == 0 {
		return []R{}, nil
	}
	if maxGoroutines <= 0 || maxGoroutines > len(items) {
		maxGoroutines = len(items)
	}

	p := pool.NewWithResults[[]R]().WithContext(ctx).WithMaxGoroutines(maxGoroutines)
	for _, item := range items {
		p.Go(func(ctx context.Context) ([]R, error) {
			return fetch(ctx, item)
		})
	}

	batches, err := p.Wait()
	if err != nil && len(batches) == 0 {
		return nil, err
	}

	out := make([]R, 0)
	for _, batch := range batches {
		out = append(out, batch...)
	}
	return out, err
}
