package fixture

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrDuplicateProviderID is returned by Insert when the unique key on
	// provider_id rejects the row, typically a concurrent ingestion.
	ErrDuplicateProviderID = errors.New("fixture provider_id already exists")
	// ErrStoreUnavailable marks connection level failures.
	ErrStoreUnavailable = errors.New("fixture store unavailable")
)

// Writer is the subset of the store used inside a transaction.
type Writer interface {
	FindByProviderID(ctx context.Context, providerID string) (Fixture, bool, error)
	Insert(ctx context.Context, item Fixture) (Fixture, error)
	Update(ctx context.Context, item Fixture) error
}

// Repository exposes fixture persistence.
type Repository interface {
	Writer
	// WithinTx runs fn in one transaction; any error from fn rolls back.
	WithinTx(ctx context.Context, fn func(tx Writer) error) error
	List(ctx context.Context, filter ListFilter) ([]Fixture, error)
	Stats(ctx context.Context, recentSince time.Time) (Stats, error)
}
