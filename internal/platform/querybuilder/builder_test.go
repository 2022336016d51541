package querybuilder

import (
	"testing"
	"time"
)

func TestSelectBuilder(t *testing.T) {
	from := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	query, args, err := Select("id", "provider_id").
		From("fixtures").
		Where(Eq("league", "Premier League"), Expr("kickoff_at >= ?", from), IsNotNull("kickoff_at")).
		OrderBy("kickoff_at", "id").
		Limit(50).
		Offset(100).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT id, provider_id FROM fixtures WHERE league = $1 AND kickoff_at >= $2 AND kickoff_at IS NOT NULL ORDER BY kickoff_at, id LIMIT 50 OFFSET 100"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "Premier League" || args[1] != from {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_GroupByAndEmptyIn(t *testing.T) {
	query, args, err := Select("provider", "COUNT(*) AS total").
		From("fixtures").
		Where(In("provider", nil)).
		GroupBy("provider").
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT provider, COUNT(*) AS total FROM fixtures WHERE 1=0 GROUP BY provider"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 0 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder(t *testing.T) {
	query, args, err := InsertInto("fixtures").
		Columns("provider_id", "league").
		Values("espn_5551", "Premier League").
		Suffix("RETURNING id").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO fixtures (provider_id, league) VALUES ($1, $2) RETURNING id"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "espn_5551" || args[1] != "Premier League" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder_RowWidthMismatch(t *testing.T) {
	_, _, err := InsertInto("fixtures").Columns("a", "b").Values("only-one").ToSQL()
	if err == nil {
		t.Fatalf("expected error for short row")
	}
}

func TestUpdateBuilder(t *testing.T) {
	query, args, err := Update("fixtures").
		Set("status", "FT").
		SetExpr("updated_at", "NOW()").
		Where(Eq("provider_id", "espn_5551")).
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE fixtures SET status = $1, updated_at = NOW() WHERE provider_id = $2"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "FT" || args[1] != "espn_5551" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

type testRow struct {
	ID         int64  `db:"id,readonly"`
	ProviderID string `db:"provider_id"`
	Ignored    string `db:"-"`
	League     string `db:"league"`
	hidden     string `db:"hidden"`
}

func TestInsertModel_SkipsReadonlyAndUnexported(t *testing.T) {
	row := testRow{ID: 7, ProviderID: "thesportsdb_9991", League: "English Premier League", hidden: "x"}
	_ = row.hidden

	query, args, err := InsertModel("fixtures", row, "RETURNING id")
	if err != nil {
		t.Fatalf("build insert model query: %v", err)
	}

	wantQuery := "INSERT INTO fixtures (provider_id, league) VALUES ($1, $2) RETURNING id"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "thesportsdb_9991" {
		t.Fatalf("unexpected args: %+v", args)
	}

	cols, err := ColumnsOf(&row)
	if err != nil {
		t.Fatalf("columns of: %v", err)
	}
	if len(cols) != 3 || cols[0] != "id" || cols[2] != "league" {
		t.Fatalf("unexpected columns: %v", cols)
	}
}
