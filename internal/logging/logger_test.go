package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mgpai22/kaatna/internal/logging"
)

func TestNewJSONWritesToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "run.log")

	logger, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Infow("segment written", "index", 2)
	logger.Debugw("hidden at info level")
	_ = logger.Sync()

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(content)
	if !strings.Contains(out, `"msg":"segment written"`) || !strings.Contains(out, `"index":2`) {
		t.Fatalf("unexpected log output %q", out)
	}
	if strings.Contains(out, "hidden at info level") {
		t.Fatalf("debug entry should be filtered, got %q", out)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Infow("message without caller")
	_ = logger.Sync()

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, err := logging.New(logging.Options{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestFromCoreAndWith(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := logging.FromCore(core).Named("pipeline").With("run", "abc")

	logger.Warnw("extraction retried", "segment", 3)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.LoggerName != "pipeline" {
		t.Errorf("logger name = %q", entry.LoggerName)
	}
	ctx := entry.ContextMap()
	if ctx["run"] != "abc" || ctx["segment"] != int64(3) {
		t.Errorf("unexpected context %v", ctx)
	}
}

func TestNewLoggerAndNop(t *testing.T) {
	if logging.NewLogger(true) == nil {
		t.Fatal("expected logger")
	}
	nop := logging.NewNop()
	nop.Infow("ignored")
}
