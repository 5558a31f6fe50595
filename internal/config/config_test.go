package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.EmbedProvider != ProviderOpenAI {
		t.Errorf("EmbedProvider = %q, want %q", cfg.EmbedProvider, ProviderOpenAI)
	}
	if cfg.EmbedDimension != 1536 {
		t.Errorf("EmbedDimension = %d, want 1536", cfg.EmbedDimension)
	}
	if cfg.MinSimilarity != 0.22 {
		t.Errorf("MinSimilarity = %v, want 0.22", cfg.MinSimilarity)
	}
	if cfg.MaxPages != 25 {
		t.Errorf("MaxPages = %d, want 25", cfg.MaxPages)
	}
	if cfg.PollInterval != 3*time.Second {
		t.Errorf("PollInterval = %v, want 3s", cfg.PollInterval)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SITEBOT_EMBED_PROVIDER", "OLLAMA")
	t.Setenv("SITEBOT_EMBED_DIMENSION", "384")
	t.Setenv("SITEBOT_MIN_SIMILARITY", "0.5")
	t.Setenv("SITEBOT_FETCH_TIMEOUT", "5s")
	t.Setenv("SITEBOT_LOG_LEVEL", "debug")

	cfg := Load()

	if cfg.EmbedProvider != ProviderOllama {
		t.Errorf("EmbedProvider = %q, want %q", cfg.EmbedProvider, ProviderOllama)
	}
	if cfg.EmbedDimension != 384 {
		t.Errorf("EmbedDimension = %d, want 384", cfg.EmbedDimension)
	}
	if cfg.MinSimilarity != 0.5 {
		t.Errorf("MinSimilarity = %v, want 0.5", cfg.MinSimilarity)
	}
	if cfg.FetchTimeout != 5*time.Second {
		t.Errorf("FetchTimeout = %v, want 5s", cfg.FetchTimeout)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
}

func TestLoad_ConfigFileAndEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sitebot.yaml")
	file := `
embed_model: nomic-embed-text
embed_dimension: 768
max_pages: 10
`
	if err := os.WriteFile(path, []byte(file), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("SITEBOT_CONFIG", path)
	// Env overrides the file.
	t.Setenv("SITEBOT_MAX_PAGES", "50")

	cfg := Load()

	if cfg.EmbedModel != "nomic-embed-text" {
		t.Errorf("EmbedModel = %q, want value from file", cfg.EmbedModel)
	}
	if cfg.EmbedDimension != 768 {
		t.Errorf("EmbedDimension = %d, want 768", cfg.EmbedDimension)
	}
	if cfg.MaxPages != 50 {
		t.Errorf("MaxPages = %d, want env override 50", cfg.MaxPages)
	}
}

func TestLoad_BadConfigFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(path, []byte(":\n  - not yaml"), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("SITEBOT_CONFIG", path)

	cfg := Load()
	if cfg.MaxPages != 25 {
		t.Errorf("MaxPages = %d, want default after broken file", cfg.MaxPages)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"Warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
