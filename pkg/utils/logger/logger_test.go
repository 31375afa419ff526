package logger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codeduel/pkg/utils/contextkey"
)

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	if _, err := NewLogger(Config{Level: "loud"}); err == nil {
		t.Fatalf("expected invalid level error")
	}
}

func TestNewLoggerDefaultsToStdout(t *testing.T) {
	l, err := NewLogger(Config{Format: "json"})
	if err != nil {
		t.Fatalf("new logger failed: %v", err)
	}
	if l.WithContext(context.Background()) == nil {
		t.Fatalf("expected logger")
	}
}

func TestLoggerWritesContextFieldsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.log")
	l, err := NewLogger(Config{Format: "json", OutputPath: path, Service: "judge-engine"})
	if err != nil {
		t.Fatalf("new logger failed: %v", err)
	}
	ctx := contextkey.With(context.Background(), contextkey.ProblemID, "two-sum")
	l.WithContext(ctx).Info("judged")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log failed: %v", err)
	}
	line := string(data)
	for _, want := range []string{`"service":"judge-engine"`, `"problem_id":"two-sum"`, `"msg":"judged"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %s in %s", want, line)
		}
	}
}

func TestExtractFieldsFromContext(t *testing.T) {
	ctx := contextkey.With(context.Background(), contextkey.TraceID, "trace-1")
	ctx = contextkey.With(ctx, contextkey.Language, "python")
	ctx = contextkey.With(ctx, contextkey.RequestID, "")
	fields := extractFieldsFromContext(ctx)
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	if fields[0].Key != "trace_id" || fields[0].String != "trace-1" {
		t.Fatalf("unexpected trace field: %+v", fields[0])
	}
	if fields[1].Key != "language" || fields[1].String != "python" {
		t.Fatalf("unexpected language field: %+v", fields[1])
	}
}
