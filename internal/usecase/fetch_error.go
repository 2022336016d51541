package usecase

import (
	"context"
	"errors"
	"fmt"
)

type FetchErrorKind string

const (
	FetchErrorNetwork           FetchErrorKind = "network"
	FetchErrorBadStatus         FetchErrorKind = "bad_status"
	FetchErrorTimeout           FetchErrorKind = "timeout"
	FetchErrorMalformedResponse FetchErrorKind = "malformed_response"
	FetchErrorUnavailable       FetchErrorKind = "unavailable"
	FetchErrorInternal          FetchErrorKind = "internal"
)

// FetchError is a provider level failure. It never aborts an ingestion run.
type FetchError struct {
	Provider   string
	Kind       FetchErrorKind
	StatusCode int
	Err        error
}

func NewFetchError(provider string, kind FetchErrorKind, err error) *FetchError {
	return &FetchError{Provider: provider, Kind: kind, Err: err}
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s (status=%d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// classifyFetchError turns whatever an adapter returned into a FetchError
// attributed to provider.
func classifyFetchError(fetchCtx context.Context, provider string, err error) *FetchError {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		out := *fetchErr
		if out.Provider == "" {
			out.Provider = provider
		}
		return &out
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
		return NewFetchError(provider, FetchErrorTimeout, err)
	}
	return NewFetchError(provider, FetchErrorNetwork, err)
}

type NormalizeErrorKind string

const (
	NormalizeErrorMissingIdentity NormalizeErrorKind = "missing_identity"
	NormalizeErrorUnparsableDate  NormalizeErrorKind = "unparsable_date"
	NormalizeErrorMalformedRecord NormalizeErrorKind = "malformed_record"
)

// NormalizeError is a per-record problem found while normalizing.
type NormalizeError struct {
	Provider   string
	ProviderID string
	Kind       NormalizeErrorKind
	Err        error
}

func (e *NormalizeError) Error() string {
	target := e.Provider
	if e.ProviderID != "" {
		target = e.ProviderID
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", target, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", target, e.Kind, e.Err)
}

func (e *NormalizeError) Unwrap() error {
	return e.Err
}

// Drops reports whether the record must be discarded. An unparsable date
// only clears the kickoff.
func (e *NormalizeError) Drops() bool {
	return e.Kind != NormalizeErrorUnparsableDate
}
