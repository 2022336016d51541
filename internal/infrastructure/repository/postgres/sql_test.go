package postgres

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/riskibarqy/fixture-ingestion/internal/domain/fixture"
)

func TestClassifyError(t *testing.T) {
	t.Run("unique violation maps to duplicate provider id", func(t *testing.T) {
		err := classifyError("insert fixture espn_5551", &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})
		if !errors.Is(err, fixture.ErrDuplicateProviderID) {
			t.Fatalf("expected ErrDuplicateProviderID, got %v", err)
		}
		var pqErr *pq.Error
		if !errors.As(err, &pqErr) {
			t.Fatalf("expected original pq error to stay reachable")
		}
	})

	t.Run("connection class maps to unavailable", func(t *testing.T) {
		for _, code := range []pq.ErrorCode{"08006", "08001", "57P01", "53300"} {
			err := classifyError("select fixtures", &pq.Error{Code: code})
			if !errors.Is(err, fixture.ErrStoreUnavailable) {
				t.Fatalf("code %s: expected ErrStoreUnavailable, got %v", code, err)
			}
		}
	})

	t.Run("driver and network failures map to unavailable", func(t *testing.T) {
		if err := classifyError("begin tx", fmt.Errorf("wrapped: %w", driver.ErrBadConn)); !errors.Is(err, fixture.ErrStoreUnavailable) {
			t.Fatalf("expected ErrStoreUnavailable for bad conn, got %v", err)
		}
		netErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
		if err := classifyError("begin tx", netErr); !errors.Is(err, fixture.ErrStoreUnavailable) {
			t.Fatalf("expected ErrStoreUnavailable for net error, got %v", err)
		}
	})

	t.Run("other errors pass through", func(t *testing.T) {
		err := classifyError("insert fixture", &pq.Error{Code: "22P02", Message: "invalid input syntax for type json"})
		if errors.Is(err, fixture.ErrStoreUnavailable) || errors.Is(err, fixture.ErrDuplicateProviderID) {
			t.Fatalf("expected unclassified error, got %v", err)
		}
	})
}

func TestEscapeLike(t *testing.T) {
	if got := escapeLike(`50%_off\`); got != `50\%\_off\\` {
		t.Fatalf("unexpected escaped pattern: %s", got)
	}
}

func TestFixtureModelRoundTrip(t *testing.T) {
	kickoff := time.Date(2024, 8, 16, 19, 0, 0, 0, time.UTC)
	item := fixture.Fixture{
		ProviderID:      "espn_5551",
		Provider:        "espn",
		NativeID:        "5551",
		League:          "English Premier League",
		HomeTeam:        "Manchester United",
		AwayTeam:        "Fulham",
		Kickoff:         &kickoff,
		Status:          "STATUS_SCHEDULED",
		StatusCanonical: fixture.StatusScheduled,
	}

	row := fixtureToModel(item)
	if !row.KickoffAt.Valid || !row.KickoffAt.Time.Equal(kickoff) {
		t.Fatalf("unexpected kickoff column: %+v", row.KickoffAt)
	}
	if row.RawPayload != emptyRawPayload {
		t.Fatalf("expected empty payload to default to %s, got %q", emptyRawPayload, row.RawPayload)
	}

	back := row.toDomain()
	if back.ProviderID != item.ProviderID || back.StatusCanonical != fixture.StatusScheduled {
		t.Fatalf("unexpected domain fixture: %+v", back)
	}
	if back.Kickoff == nil || !back.Kickoff.Equal(kickoff) {
		t.Fatalf("unexpected kickoff: %v", back.Kickoff)
	}

	item.Kickoff = nil
	if row := fixtureToModel(item); row.KickoffAt.Valid {
		t.Fatalf("expected null kickoff column")
	}
}

func TestFixtureColumns(t *testing.T) {
	if len(fixtureColumns) != 13 || fixtureColumns[0] != "id" || fixtureColumns[1] != "provider_id" {
		t.Fatalf("unexpected fixture columns: %v", fixtureColumns)
	}
}
