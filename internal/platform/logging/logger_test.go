package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	sonic "github.com/bytedance/sonic"
)

func TestNewJSONWriter_EncodesKeyValues(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONWriter(&buf, LevelInfo).With("component", "test")

	logger.Info("fixture stored", "provider_id", "espn_5551", "error", errors.New("boom"))
	logger.Debug("dropped by level")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d: %q", len(lines), buf.String())
	}

	var record map[string]any
	if err := sonic.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if record["msg"] != "fixture stored" {
		t.Fatalf("unexpected msg: %v", record["msg"])
	}
	if record["provider_id"] != "espn_5551" {
		t.Fatalf("unexpected provider_id: %v", record["provider_id"])
	}
	if record["component"] != "test" {
		t.Fatalf("expected With fields to be kept, got %v", record["component"])
	}
	if record["error"] != "boom" {
		t.Fatalf("unexpected error field: %v", record["error"])
	}
}

func TestSetMirror_ReceivesBaseAndCallArgs(t *testing.T) {
	var (
		mu   sync.Mutex
		got  []any
		msgs []string
	)
	SetMirror(func(_ context.Context, _ Level, msg string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		msgs = append(msgs, msg)
		got = append(got, args...)
	})
	t.Cleanup(func() { SetMirror(nil) })

	var buf bytes.Buffer
	logger := NewJSONWriter(&buf, LevelWarn).With("provider", "espn")
	logger.Info("below level")
	logger.WarnContext(context.Background(), "fetch failed", "attempt", 2)

	mu.Lock()
	defer mu.Unlock()
	if len(msgs) != 1 || msgs[0] != "fetch failed" {
		t.Fatalf("unexpected mirrored messages: %v", msgs)
	}
	if len(got) != 4 || got[0] != "provider" || got[1] != "espn" || got[2] != "attempt" || got[3] != 2 {
		t.Fatalf("unexpected mirrored args: %v", got)
	}
}

func TestNilLoggerFallsBackToDefault(t *testing.T) {
	var logger *Logger
	logger.Info("no panic")
	if logger.With("k", "v") == nil {
		t.Fatalf("expected nop logger from nil receiver")
	}
}
