package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")
	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if resolved != path {
		t.Fatalf("expected resolved path %q, got %q", path, resolved)
	}
	if cfg.Render.Width != 1080 || cfg.Render.Height != 1920 {
		t.Fatalf("unexpected render defaults %dx%d", cfg.Render.Width, cfg.Render.Height)
	}
	if cfg.Workflow.MaxConcurrentJobs != 4 {
		t.Fatalf("unexpected concurrency default %d", cfg.Workflow.MaxConcurrentJobs)
	}
}

func TestLoadParsesAndExpandsPaths(t *testing.T) {
	base := t.TempDir()
	path := writeConfig(t, `
[paths]
staging_dir = "`+filepath.Join(base, "staging")+`"
log_dir = "`+filepath.Join(base, "logs")+`"
api_bind = "127.0.0.1:9999"

[llm]
api_key = "from-file"
model = "test/model"

[workflow]
stage_timeout = 120
`)

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.Paths.APIBind != "127.0.0.1:9999" {
		t.Fatalf("unexpected api_bind %q", cfg.Paths.APIBind)
	}
	if cfg.LLM.APIKey != "from-file" || cfg.LLM.Model != "test/model" {
		t.Fatalf("unexpected llm config %+v", cfg.LLM)
	}
	if cfg.Workflow.StageTimeout != 120 {
		t.Fatalf("unexpected stage timeout %d", cfg.Workflow.StageTimeout)
	}
	if !filepath.IsAbs(cfg.Paths.StagingDir) {
		t.Fatalf("expected absolute staging dir, got %q", cfg.Paths.StagingDir)
	}
}

func TestLoadAPIKeyEnvFallback(t *testing.T) {
	t.Setenv("REELSMITH_LLM_API_KEY", "env-llm-key")
	t.Setenv("REELSMITH_TTS_API_KEY", "env-tts-key")

	cfg, _, _, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.APIKey != "env-llm-key" {
		t.Fatalf("expected llm key from environment, got %q", cfg.LLM.APIKey)
	}
	if cfg.TTS.APIKey != "env-tts-key" {
		t.Fatalf("expected tts key from environment, got %q", cfg.TTS.APIKey)
	}
}

func TestLoadRejectsBadLogging(t *testing.T) {
	path := writeConfig(t, `
[logging]
format = "xml"
`)
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected error for unsupported logging format")
	}
}

func TestValidateRequiresBindAddress(t *testing.T) {
	cfg := Default()
	cfg.Paths.APIBind = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for empty api_bind")
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.LibraryDir = filepath.Join(base, "library")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StagingDir, cfg.Paths.LogDir, cfg.Paths.LibraryDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
	}
}

func TestSampleConfigMentionsEverySection(t *testing.T) {
	sample := SampleConfig()
	for _, section := range []string{"[paths]", "[llm]", "[tts]", "[render]", "[workflow]", "[logging]"} {
		if !strings.Contains(sample, section) {
			t.Fatalf("sample config missing section %s", section)
		}
	}
}

func TestCreateSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	if err := CreateSample(target); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if string(data) != SampleConfig() {
		t.Fatal("sample file content does not match embedded sample")
	}
}
