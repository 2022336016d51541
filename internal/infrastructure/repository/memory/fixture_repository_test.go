package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/fixture-ingestion/internal/domain/fixture"
)

func kickoffAt(t time.Time) *time.Time {
	return &t
}

func TestFixtureRepository_InsertRejectsDuplicateProviderID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewFixtureRepository()

	first, err := repo.Insert(ctx, fixture.Fixture{ProviderID: "espn_5551", Provider: "espn", NativeID: "5551"})
	if err != nil {
		t.Fatalf("insert fixture: %v", err)
	}
	if first.ID != 1 || first.CreatedAt.IsZero() {
		t.Fatalf("expected generated id and timestamps, got %+v", first)
	}

	_, err = repo.Insert(ctx, fixture.Fixture{ProviderID: "espn_5551", Provider: "espn", NativeID: "5551"})
	if !errors.Is(err, fixture.ErrDuplicateProviderID) {
		t.Fatalf("expected ErrDuplicateProviderID, got %v", err)
	}
}

func TestFixtureRepository_WithinTxRollsBackOnError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewFixtureRepository()
	boom := errors.New("boom")

	err := repo.WithinTx(ctx, func(tx fixture.Writer) error {
		if _, err := tx.Insert(ctx, fixture.Fixture{ProviderID: "espn_1", Provider: "espn"}); err != nil {
			return err
		}
		if _, found, _ := tx.FindByProviderID(ctx, "espn_1"); !found {
			t.Fatalf("expected uncommitted row to be visible inside the transaction")
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if _, found, _ := repo.FindByProviderID(ctx, "espn_1"); found {
		t.Fatalf("expected rolled back row to be absent")
	}
}

func TestFixtureRepository_UpdateRefreshesMutableFields(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewFixtureRepository()
	stored, err := repo.Insert(ctx, fixture.Fixture{
		ProviderID: "thesportsdb_9991",
		Provider:   "thesportsdb",
		HomeTeam:   "Leeds",
		Status:     "NS",
		RawPayload: []byte(`{"strStatus":"NS"}`),
	})
	if err != nil {
		t.Fatalf("insert fixture: %v", err)
	}

	stored.Status = "FT"
	stored.StatusCanonical = fixture.StatusFinished
	stored.RawPayload = []byte(`{"strStatus":"FT"}`)
	stored.HomeTeam = "ignored"
	if err := repo.Update(ctx, stored); err != nil {
		t.Fatalf("update fixture: %v", err)
	}

	got, found, err := repo.FindByProviderID(ctx, "thesportsdb_9991")
	if err != nil || !found {
		t.Fatalf("find fixture: found=%v err=%v", found, err)
	}
	if got.Status != "FT" || got.StatusCanonical != fixture.StatusFinished {
		t.Fatalf("unexpected status after update: %+v", got)
	}
	if got.HomeTeam != "Leeds" {
		t.Fatalf("update must not touch identity fields, got home_team=%s", got.HomeTeam)
	}
	if got.ID != stored.ID {
		t.Fatalf("update must keep the id")
	}
}

func TestFixtureRepository_ListAndStats(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	base := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	repo := NewFixtureRepository(
		fixture.Fixture{ProviderID: "espn_3", Provider: "espn", League: "English Premier League", Kickoff: kickoffAt(base.Add(48 * time.Hour))},
		fixture.Fixture{ProviderID: "espn_1", Provider: "espn", League: "English Premier League", Kickoff: kickoffAt(base.Add(2 * time.Hour))},
		fixture.Fixture{ProviderID: "thesportsdb_7", Provider: "thesportsdb", League: "Spanish La Liga", Kickoff: kickoffAt(base.Add(-60 * 24 * time.Hour))},
		fixture.Fixture{ProviderID: "thesportsdb_8", Provider: "thesportsdb", League: "English Premier League"},
	)

	all, err := repo.List(ctx, fixture.ListFilter{})
	if err != nil {
		t.Fatalf("list fixtures: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 fixtures, got %d", len(all))
	}
	if all[0].ProviderID != "thesportsdb_7" || all[3].ProviderID != "thesportsdb_8" {
		t.Fatalf("expected kickoff ordering with nil kickoff last, got %s..%s", all[0].ProviderID, all[3].ProviderID)
	}

	until := base.Add(24 * time.Hour)
	window, err := repo.List(ctx, fixture.ListFilter{League: "premier", KickoffFrom: &base, KickoffUntil: &until})
	if err != nil {
		t.Fatalf("list fixtures: %v", err)
	}
	if len(window) != 1 || window[0].ProviderID != "espn_1" {
		t.Fatalf("unexpected window result: %+v", window)
	}

	limited, _ := repo.List(ctx, fixture.ListFilter{Provider: "espn", Limit: 1})
	if len(limited) != 1 || limited[0].ProviderID != "espn_1" {
		t.Fatalf("unexpected limited result: %+v", limited)
	}

	stats, err := repo.Stats(ctx, base.Add(-30*24*time.Hour))
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 4 || stats.Recent != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.ByProvider["espn"] != 2 || stats.ByProvider["thesportsdb"] != 2 {
		t.Fatalf("unexpected provider breakdown: %+v", stats.ByProvider)
	}
}
