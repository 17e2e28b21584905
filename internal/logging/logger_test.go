package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"samplesort/internal/config"
	"samplesort/internal/logging"
	"samplesort/internal/services"
)

func newFileLogger(t *testing.T, format, level string) (func() string, *logging.Options) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "test.log")
	opts := &logging.Options{Format: format, Level: level, OutputPaths: []string{logPath}}
	read := func() string {
		content, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("read log file: %v", err)
		}
		return string(content)
	}
	return read, opts
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello from config")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "samplesort.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello from config") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	read, opts := newFileLogger(t, "console", "info")
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message without caller")
	if strings.Contains(read(), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", read())
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	read, opts := newFileLogger(t, "console", "debug")
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message with caller")
	if !strings.Contains(read(), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", read())
	}
}

func TestConsoleLoggerRendersSubject(t *testing.T) {
	read, opts := newFileLogger(t, "console", "info")
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger = logging.NewComponentLogger(logger, "grouping")
	logger.Info("item matched",
		logging.String(logging.FieldItemID, "abc"),
		logging.String(logging.FieldGroup, "LAB-7"),
		logging.Float64("confidence", 0.8),
	)
	out := read()
	for _, fragment := range []string{"[grouping]", "Item abc (LAB-7): item matched", "- confidence: 0.8"} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected %q in output %q", fragment, out)
		}
	}
}

func TestJSONLoggerUsesShortKeys(t *testing.T) {
	read, opts := newFileLogger(t, "json", "info")
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("json message", logging.String("k", "v"))

	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(read())), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if payload["level"] != "info" || payload["msg"] != "json message" || payload["k"] != "v" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key, got %#v", payload)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestInvalidLevelDefaultsToInfo(t *testing.T) {
	read, opts := newFileLogger(t, "console", "verbose")
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("shown")
	out := read()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("expected info level filtering, got %q", out)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	read, opts := newFileLogger(t, "json", "info")
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithItemID(context.Background(), "item-1")
	ctx = services.WithStrategy(ctx, "strict")
	ctx = services.WithRequestID(ctx, "req-xyz")
	logging.WithContext(ctx, logger).Info("contextual log")

	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(read())), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	want := map[string]string{
		logging.FieldItemID:        "item-1",
		logging.FieldStrategy:      "strict",
		logging.FieldCorrelationID: "req-xyz",
	}
	for key, value := range want {
		if payload[key] != value {
			t.Fatalf("field %s = %v, want %q", key, payload[key], value)
		}
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	read, opts := newFileLogger(t, "json", "info")
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "persist failed", "name_persist_failed", logging.String(logging.FieldImpact, "name kept in memory"))

	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(read())), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if payload[logging.FieldEventType] != "name_persist_failed" {
		t.Fatalf("unexpected event type: %v", payload[logging.FieldEventType])
	}
	if payload[logging.FieldImpact] != "name kept in memory" {
		t.Fatalf("expected caller impact preserved, got %v", payload[logging.FieldImpact])
	}
	if payload[logging.FieldErrorHint] == nil {
		t.Fatal("expected default error hint")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), 12) {
		t.Fatal("expected nop logger to be disabled")
	}
}

func TestDecisionAttrsAndEmptyGroupDropped(t *testing.T) {
	read, opts := newFileLogger(t, "json", "info")
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("group inferred", logging.Decision("group_inference", "LAB-7", "2 shared words",
		logging.String(logging.FieldGroup, ""),
		logging.Confidence(0.66666),
	)...)

	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(read())), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if payload[logging.FieldDecisionType] != "group_inference" || payload["decision_result"] != "LAB-7" {
		t.Fatalf("unexpected decision fields: %v", payload)
	}
	if _, ok := payload[logging.FieldGroup]; ok {
		t.Fatalf("expected empty group dropped, got %v", payload[logging.FieldGroup])
	}
	if payload["confidence"] != 0.667 {
		t.Fatalf("confidence = %v, want 0.667", payload["confidence"])
	}
}
