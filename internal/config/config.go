// Package config loads Sitebot configuration from the environment, with
// an optional YAML file underneath (env always wins).
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider identifies an embedding or chat-model backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderOllama    Provider = "ollama"
	ProviderAnthropic Provider = "anthropic"
	ProviderBedrock   Provider = "bedrock"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string `yaml:"surrealdb_url"`
	SurrealDBNamespace string `yaml:"surrealdb_namespace"`
	SurrealDBDatabase  string `yaml:"surrealdb_database"`
	SurrealDBUser      string `yaml:"surrealdb_user"`
	SurrealDBPass      string `yaml:"surrealdb_pass"`
	SurrealDBAuthLevel string `yaml:"surrealdb_auth_level"`

	// Embedding service
	EmbedProvider  Provider `yaml:"embed_provider"`
	EmbedModel     string   `yaml:"embed_model"`
	EmbedDimension int      `yaml:"embed_dimension"`

	// Chat model
	LLMProvider Provider `yaml:"llm_provider"`
	LLMModel    string   `yaml:"llm_model"`

	// Provider credentials/endpoints
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	OllamaHost      string `yaml:"ollama_host"`

	// Retrieval & grounding
	MinSimilarity    float64 `yaml:"min_similarity"`
	MaxContextChunks int     `yaml:"max_context_chunks"`

	// Crawling
	MaxPages          int           `yaml:"max_pages"`
	MinPageText       int           `yaml:"min_page_text"`
	FetchTimeout      time.Duration `yaml:"fetch_timeout"`
	PollInterval      time.Duration `yaml:"poll_interval"`
	StaleCrawlTimeout time.Duration `yaml:"stale_crawl_timeout"`

	// Logging
	LogFile  string     `yaml:"log_file"`
	LogLevel slog.Level `yaml:"-"`
}

// Load reads configuration: defaults, then the optional YAML file named
// by SITEBOT_CONFIG, then environment variable overrides.
func Load() Config {
	cfg := defaults()

	if path := os.Getenv("SITEBOT_CONFIG"); path != "" {
		if err := loadFile(&cfg, path); err != nil {
			// A broken config file should be visible but not fatal;
			// env + defaults still produce a runnable config.
			slog.Warn("failed to load config file", "path", path, "error", err)
		}
	}

	applyEnv(&cfg)
	return cfg
}

func defaults() Config {
	return Config{
		SurrealDBURL:       "ws://localhost:8000/rpc",
		SurrealDBNamespace: "sitebot",
		SurrealDBDatabase:  "bots",
		SurrealDBUser:      "root",
		SurrealDBPass:      "root",
		SurrealDBAuthLevel: "root",

		EmbedProvider:  ProviderOpenAI,
		EmbedModel:     "text-embedding-3-small",
		EmbedDimension: 1536,

		LLMProvider: ProviderOpenAI,
		LLMModel:    "gpt-4o-mini",

		OllamaHost: "http://localhost:11434",

		MinSimilarity:    0.22,
		MaxContextChunks: 6,

		MaxPages:          25,
		MinPageText:       200,
		FetchTimeout:      15 * time.Second,
		PollInterval:      3 * time.Second,
		StaleCrawlTimeout: 30 * time.Minute,

		LogFile:  "/tmp/sitebot.log",
		LogLevel: slog.LevelInfo,
	}
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.SurrealDBURL, "SURREALDB_URL")
	setString(&cfg.SurrealDBNamespace, "SURREALDB_NAMESPACE")
	setString(&cfg.SurrealDBDatabase, "SURREALDB_DATABASE")
	setString(&cfg.SurrealDBUser, "SURREALDB_USER")
	setString(&cfg.SurrealDBPass, "SURREALDB_PASS")
	setString(&cfg.SurrealDBAuthLevel, "SURREALDB_AUTH_LEVEL")

	if v := os.Getenv("SITEBOT_EMBED_PROVIDER"); v != "" {
		cfg.EmbedProvider = Provider(strings.ToLower(v))
	}
	setString(&cfg.EmbedModel, "SITEBOT_EMBED_MODEL")
	setInt(&cfg.EmbedDimension, "SITEBOT_EMBED_DIMENSION")

	if v := os.Getenv("SITEBOT_LLM_PROVIDER"); v != "" {
		cfg.LLMProvider = Provider(strings.ToLower(v))
	}
	setString(&cfg.LLMModel, "SITEBOT_LLM_MODEL")

	setString(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	setString(&cfg.OllamaHost, "OLLAMA_HOST")

	setFloat(&cfg.MinSimilarity, "SITEBOT_MIN_SIMILARITY")
	setInt(&cfg.MaxContextChunks, "SITEBOT_MAX_CONTEXT_CHUNKS")

	setInt(&cfg.MaxPages, "SITEBOT_MAX_PAGES")
	setInt(&cfg.MinPageText, "SITEBOT_MIN_PAGE_TEXT")
	setDuration(&cfg.FetchTimeout, "SITEBOT_FETCH_TIMEOUT")
	setDuration(&cfg.PollInterval, "SITEBOT_POLL_INTERVAL")
	setDuration(&cfg.StaleCrawlTimeout, "SITEBOT_STALE_CRAWL_TIMEOUT")

	setString(&cfg.LogFile, "SITEBOT_LOG_FILE")
	if v := os.Getenv("SITEBOT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = parseLogLevel(v)
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
