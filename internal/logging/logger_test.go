package logging_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"banshee/internal/config"
	"banshee/internal/logging"
	"banshee/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello from test")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello from test") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerRendersTransactionSubject(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-subject.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := logging.WithTransaction(context.Background(), "0123456789abcdef", "encode")
	logging.WithContext(ctx, logger).Info("track encoded", logging.String("source", "a song.flac"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if !strings.Contains(line, "Encode · tx 01234567: track encoded") {
		t.Fatalf("expected subject prefix, got %q", line)
	}
	if !strings.Contains(line, `source="a song.flac"`) {
		t.Fatalf("expected quoted attribute, got %q", line)
	}
	if strings.Contains(line, "transaction_id=") {
		t.Fatalf("subject fields should not repeat as attributes, got %q", line)
	}
}

func TestJSONLoggerIncludesContextFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRequestID(logging.WithTransaction(context.Background(), "tx-1", "import"), "req-9")
	logging.WithContext(ctx, logger).Info("scan complete")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for _, fragment := range []string{`"transaction_id":"tx-1"`, `"category":"import"`, `"correlation_id":"req-9"`, `"ts":`} {
		if !strings.Contains(string(content), fragment) {
			t.Fatalf("expected %s in %q", fragment, content)
		}
	}
}

func TestFormatSubject(t *testing.T) {
	tests := []struct {
		category, id, want string
	}{
		{"", "", ""},
		{"encode", "", "Encode"},
		{"", "abc", "tx abc"},
		{"IMPORT", "0123456789", "Import · tx 01234567"},
	}
	for _, tt := range tests {
		if got := logging.FormatSubject(tt.category, tt.id); got != tt.want {
			t.Fatalf("FormatSubject(%q, %q) = %q, want %q", tt.category, tt.id, got, tt.want)
		}
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "skipped", "item_skipped")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for _, fragment := range []string{`"event_type":"item_skipped"`, `"error_hint"`, `"impact"`} {
		if !strings.Contains(string(content), fragment) {
			t.Fatalf("expected %s in %q", fragment, content)
		}
	}
}
