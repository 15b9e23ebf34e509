package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"omvdecoder/internal/config"
	"omvdecoder/internal/logging"
)

func TestNewFromConfigDefaults(t *testing.T) {
	cfg := config.Default()
	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger instance")
	}
	if _, err := logging.NewFromConfig(nil); err != nil {
		t.Fatalf("NewFromConfig(nil) returned error: %v", err)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestConsoleLoggerFormatsComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger = logging.NewComponentLogger(logger, "decode")
	logger.Info("frame decoded", logging.Int("frame", 3), logging.String("path", "a b.omv"))
	logger.Debug("hidden")

	line := buf.String()
	if !strings.Contains(line, "INFO decode: frame decoded") {
		t.Fatalf("expected level, component and message, got %q", line)
	}
	if !strings.Contains(line, "frame=3") || !strings.Contains(line, `path="a b.omv"`) {
		t.Fatalf("expected formatted fields, got %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should be a prefix, got %q", line)
	}
	if strings.Contains(line, "hidden") || strings.Contains(line, ".go:") {
		t.Fatalf("unexpected debug output or caller at info level: %q", line)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("message with caller")
	if !strings.Contains(buf.String(), "logger_test.go:") {
		t.Fatalf("expected caller information, got %q", buf.String())
	}
}

func TestJSONLoggerCarriesRunID(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := logging.WithRunID(context.Background(), "run-123")
	logging.WithContext(ctx, logger).Warn("slow", logging.Error(errors.New("boom")))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, buf.String())
	}
	if entry[logging.FieldRunID] != "run-123" {
		t.Fatalf("expected run_id, got %v", entry)
	}
	if entry["level"] != "warn" || entry["msg"] != "slow" || entry["error"] != "boom" {
		t.Fatalf("unexpected entry %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", entry)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := logging.New(logging.Options{Format: "console", Output: &buf})
	logging.WarnWithContext(logger, "output exists", "output_overwrite", logging.String(logging.FieldImpact, "file replaced"))
	line := buf.String()
	for _, want := range []string{"event_type=output_overwrite", "error_hint=", `impact="file replaced"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
}

func TestRunIDFromContext(t *testing.T) {
	if _, ok := logging.RunIDFromContext(context.Background()); ok {
		t.Fatal("expected no run id")
	}
	if id, ok := logging.RunIDFromContext(logging.WithRunID(context.Background(), " abc ")); !ok || id != "abc" {
		t.Fatalf("unexpected run id %q %v", id, ok)
	}
	if logging.WithContext(context.Background(), nil) == nil {
		t.Fatal("expected nop logger")
	}
}
