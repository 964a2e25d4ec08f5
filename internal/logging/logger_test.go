package logging_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelsmith/internal/logging"
	"reelsmith/internal/services"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, err := logging.New(logging.Options{
		Level:       "info",
		Format:      "json",
		OutputPaths: []string{path},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("job started", logging.String(logging.FieldJobID, "abc-123"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, `"msg":"job started"`) {
		t.Fatalf("log file missing message: %s", content)
	}
	if !strings.Contains(content, `"job_id":"abc-123"`) {
		t.Fatalf("log file missing job id field: %s", content)
	}
}

func TestNewRespectsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, err := logging.New(logging.Options{
		Level:       "warn",
		Format:      "text",
		OutputPaths: []string{path},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("suppressed")
	logger.Warn("kept")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	content := string(data)
	if strings.Contains(content, "suppressed") {
		t.Fatalf("info line should have been filtered: %s", content)
	}
	if !strings.Contains(content, "kept") {
		t.Fatalf("warn line missing: %s", content)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestComponentLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, err := logging.New(logging.Options{
		Level:       "debug",
		Format:      "json",
		OutputPaths: []string{path},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "orchestrator").Info("ready")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"component":"orchestrator"`) {
		t.Fatalf("component field missing: %s", data)
	}
}

func TestContextFields(t *testing.T) {
	ctx := services.WithJobID(context.Background(), "job-9")
	ctx = services.WithProject(ctx, "demo")
	ctx = services.WithStage(ctx, "narration")

	fields := logging.ContextFields(ctx)
	got := map[string]string{}
	for _, attr := range fields {
		got[attr.Key] = attr.Value.String()
	}
	if got[logging.FieldJobID] != "job-9" || got[logging.FieldProject] != "demo" || got[logging.FieldStage] != "narration" {
		t.Fatalf("unexpected context fields %v", got)
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("ignored", logging.String("key", "value"))
}
