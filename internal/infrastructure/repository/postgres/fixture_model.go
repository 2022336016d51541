package postgres

import (
	"database/sql"
	"time"

	"github.com/riskibarqy/fixture-ingestion/internal/domain/fixture"
)

const emptyRawPayload = "{}"

type fixtureTableModel struct {
	ID              int64        `db:"id,readonly"`
	ProviderID      string       `db:"provider_id"`
	Provider        string       `db:"provider"`
	NativeID        string       `db:"native_id"`
	League          string       `db:"league"`
	HomeTeam        string       `db:"home_team"`
	AwayTeam        string       `db:"away_team"`
	KickoffAt       sql.NullTime `db:"kickoff_at"`
	Status          string       `db:"status"`
	StatusCanonical string       `db:"status_canonical"`
	RawPayload      string       `db:"raw_payload"`
	CreatedAt       time.Time    `db:"created_at,readonly"`
	UpdatedAt       time.Time    `db:"updated_at,readonly"`
}

func fixtureToModel(item fixture.Fixture) fixtureTableModel {
	row := fixtureTableModel{
		ID:              item.ID,
		ProviderID:      item.ProviderID,
		Provider:        item.Provider,
		NativeID:        item.NativeID,
		League:          item.League,
		HomeTeam:        item.HomeTeam,
		AwayTeam:        item.AwayTeam,
		Status:          item.Status,
		StatusCanonical: string(item.StatusCanonical),
		RawPayload:      string(item.RawPayload),
	}
	if item.Kickoff != nil {
		row.KickoffAt = sql.NullTime{Time: item.Kickoff.UTC(), Valid: true}
	}
	if row.RawPayload == "" {
		row.RawPayload = emptyRawPayload
	}
	if row.StatusCanonical == "" {
		row.StatusCanonical = string(fixture.StatusUnknown)
	}
	return row
}

func (row fixtureTableModel) toDomain() fixture.Fixture {
	item := fixture.Fixture{
		ID:              row.ID,
		ProviderID:      row.ProviderID,
		Provider:        row.Provider,
		NativeID:        row.NativeID,
		League:          row.League,
		HomeTeam:        row.HomeTeam,
		AwayTeam:        row.AwayTeam,
		Status:          row.Status,
		StatusCanonical: fixture.Status(row.StatusCanonical),
		RawPayload:      []byte(row.RawPayload),
		CreatedAt:       row.CreatedAt.UTC(),
		UpdatedAt:       row.UpdatedAt.UTC(),
	}
	if row.KickoffAt.Valid {
		kickoff := row.KickoffAt.Time.UTC()
		item.Kickoff = &kickoff
	}
	return item
}

type fixtureProviderStatsRow struct {
	Provider string `db:"provider"`
	Total    int    `db:"total"`
	Recent   int    `db:"recent"`
}
