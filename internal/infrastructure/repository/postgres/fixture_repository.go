package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fixture-ingestion/internal/domain/fixture"
	qb "github.com/riskibarqy/fixture-ingestion/internal/platform/querybuilder"
)

const (
	fixturesTable = "fixtures"

	fixtureStatsQuery = `SELECT provider,
       COUNT(*) AS total,
       COUNT(*) FILTER (WHERE kickoff_at >= $1) AS recent
FROM fixtures
GROUP BY provider`
)

var fixtureColumns = mustColumns(fixtureTableModel{})

type FixtureRepository struct {
	db *sqlx.DB
}

func NewFixtureRepository(db *sqlx.DB) *FixtureRepository {
	return &FixtureRepository{db: db}
}

func (r *FixtureRepository) FindByProviderID(ctx context.Context, providerID string) (fixture.Fixture, bool, error) {
	return fixtureWriter{exec: r.db}.FindByProviderID(ctx, providerID)
}

func (r *FixtureRepository) Insert(ctx context.Context, item fixture.Fixture) (fixture.Fixture, error) {
	return fixtureWriter{exec: r.db}.Insert(ctx, item)
}

func (r *FixtureRepository) Update(ctx context.Context, item fixture.Fixture) error {
	return fixtureWriter{exec: r.db}.Update(ctx, item)
}

func (r *FixtureRepository) WithinTx(ctx context.Context, fn func(tx fixture.Writer) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return classifyError("begin tx fixtures", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(fixtureWriter{exec: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return classifyError("commit tx fixtures", err)
	}
	return nil
}

func (r *FixtureRepository) List(ctx context.Context, filter fixture.ListFilter) ([]fixture.Fixture, error) {
	conditions := make([]qb.Condition, 0, 4)
	if filter.League != "" {
		conditions = append(conditions, qb.Expr("league ILIKE ?", "%"+escapeLike(filter.League)+"%"))
	}
	if filter.Provider != "" {
		conditions = append(conditions, qb.Eq("provider", filter.Provider))
	}
	if filter.KickoffFrom != nil {
		conditions = append(conditions, qb.Expr("kickoff_at >= ?", filter.KickoffFrom.UTC()))
	}
	if filter.KickoffUntil != nil {
		conditions = append(conditions, qb.Expr("kickoff_at < ?", filter.KickoffUntil.UTC()))
	}

	query, args, err := qb.Select(fixtureColumns...).From(fixturesTable).
		Where(conditions...).
		OrderBy("kickoff_at ASC NULLS LAST", "provider_id").
		Limit(filter.Limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select fixtures query: %w", err)
	}

	var rows []fixtureTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, classifyError("select fixtures", err)
	}

	out := make([]fixture.Fixture, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *FixtureRepository) Stats(ctx context.Context, recentSince time.Time) (fixture.Stats, error) {
	var rows []fixtureProviderStatsRow
	if err := r.db.SelectContext(ctx, &rows, fixtureStatsQuery, recentSince.UTC()); err != nil {
		return fixture.Stats{}, classifyError("select fixture stats", err)
	}

	stats := fixture.Stats{ByProvider: make(map[string]int, len(rows))}
	for _, row := range rows {
		stats.Total += row.Total
		stats.Recent += row.Recent
		stats.ByProvider[row.Provider] = row.Total
	}
	return stats, nil
}

// fixtureWriter runs statements on either the pool or an open transaction.
type fixtureWriter struct {
	exec sqlx.ExtContext
}

func (w fixtureWriter) FindByProviderID(ctx context.Context, providerID string) (fixture.Fixture, bool, error) {
	query, args, err := qb.Select(fixtureColumns...).From(fixturesTable).
		Where(qb.Eq("provider_id", providerID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return fixture.Fixture{}, false, fmt.Errorf("build select fixture by provider id query: %w", err)
	}

	var row fixtureTableModel
	if err := sqlx.GetContext(ctx, w.exec, &row, query, args...); err != nil {
		if isNotFound(err) {
			return fixture.Fixture{}, false, nil
		}
		return fixture.Fixture{}, false, classifyError("select fixture by provider id", err)
	}
	return row.toDomain(), true, nil
}

func (w fixtureWriter) Insert(ctx context.Context, item fixture.Fixture) (fixture.Fixture, error) {
	row := fixtureToModel(item)
	query, args, err := qb.InsertModel(fixturesTable, row, "RETURNING id, created_at, updated_at")
	if err != nil {
		return fixture.Fixture{}, fmt.Errorf("build insert fixture query: %w", err)
	}

	if err := w.exec.QueryRowxContext(ctx, query, args...).Scan(&row.ID, &row.CreatedAt, &row.UpdatedAt); err != nil {
		return fixture.Fixture{}, classifyError("insert fixture "+item.ProviderID, err)
	}
	return row.toDomain(), nil
}

func (w fixtureWriter) Update(ctx context.Context, item fixture.Fixture) error {
	row := fixtureToModel(item)
	query, args, err := qb.Update(fixturesTable).
		Set("status", row.Status).
		Set("status_canonical", row.StatusCanonical).
		Set("raw_payload", row.RawPayload).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("provider_id", row.ProviderID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update fixture query: %w", err)
	}

	result, err := w.exec.ExecContext(ctx, query, args...)
	if err != nil {
		return classifyError("update fixture "+item.ProviderID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return classifyError("update fixture rows affected", err)
	}
	if affected == 0 {
		return fmt.Errorf("update fixture %s: no row matched", item.ProviderID)
	}
	return nil
}

func mustColumns(model any) []string {
	cols, err := qb.ColumnsOf(model)
	if err != nil {
		panic(err)
	}
	return cols
}
