package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/riskibarqy/fixture-ingestion/internal/platform/logging"
)

func TestParseSteps(t *testing.T) {
	if steps, err := parseSteps(nil); err != nil || steps != 1 {
		t.Fatalf("expected default of 1 step, got %d err=%v", steps, err)
	}
	if steps, err := parseSteps([]string{" 3 "}); err != nil || steps != 3 {
		t.Fatalf("expected 3 steps, got %d err=%v", steps, err)
	}
	for _, raw := range []string{"0", "-2", "two"} {
		if _, err := parseSteps([]string{raw}); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestParseVersionAndTarget(t *testing.T) {
	if v, err := parseVersion("1"); err != nil || v != 1 {
		t.Fatalf("unexpected version %d err=%v", v, err)
	}
	if _, err := parseVersion("-1"); err == nil {
		t.Fatalf("expected error for negative version")
	}
	if target, err := parseTarget("2"); err != nil || target != 2 {
		t.Fatalf("unexpected target %d err=%v", target, err)
	}
	if _, err := parseTarget("latest"); err == nil {
		t.Fatalf("expected error for non-numeric target")
	}
}

func TestWithPreparedBinaryDisabled(t *testing.T) {
	got := withPreparedBinaryDisabled("postgres://u:p@localhost:5432/fixtures?sslmode=disable", true)
	if !strings.Contains(got, "disable_prepared_binary_result=yes") {
		t.Fatalf("expected flag in url, got %q", got)
	}

	in := "postgres://u:p@localhost:5432/fixtures?disable_prepared_binary_result=no"
	if got := withPreparedBinaryDisabled(in, true); got != in {
		t.Fatalf("expected url unchanged, got %q", got)
	}
	if got := withPreparedBinaryDisabled(in, false); got != in {
		t.Fatalf("expected url unchanged when disabled, got %q", got)
	}
}

func TestRun_Usage(t *testing.T) {
	if err := run(nil, logging.NewNop()); !errors.Is(err, errUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestRun_RequiresDBURL(t *testing.T) {
	t.Setenv("DB_URL", "")
	if err := run([]string{"up"}, logging.NewNop()); err == nil || !strings.Contains(err.Error(), "DB_URL") {
		t.Fatalf("expected DB_URL error, got %v", err)
	}
}
