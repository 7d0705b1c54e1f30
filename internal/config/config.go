// Package config provides configuration loading for coachd.
//
// Configuration is loaded from a YAML file and overridden by environment
// variables. Defaults are applied for anything left unset.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the complete coachd configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	LLM       LLMConfig       `koanf:"llm"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Rerank    RerankConfig    `koanf:"rerank"`
	Index     IndexConfig     `koanf:"index"`
	Cache     CacheConfig     `koanf:"cache"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"http_port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// LLMConfig holds the structured-generation backend configuration.
type LLMConfig struct {
	APIKey     Secret   `koanf:"api_key"`
	Model      string   `koanf:"model"`
	BaseURL    string   `koanf:"base_url"`
	MaxTokens  int      `koanf:"max_tokens"`
	Timeout    Duration `koanf:"timeout"`
	MaxRetries int      `koanf:"max_retries"`
}

// EmbeddingConfig holds the embedding server configuration. An empty base
// URL disables semantic search; the index falls back to keyword matching.
type EmbeddingConfig struct {
	BaseURL string   `koanf:"base_url"`
	APIKey  Secret   `koanf:"api_key"`
	Timeout Duration `koanf:"timeout"`
}

// RerankConfig holds candidate rerank configuration. Mode selects the
// implementation: "lexical" (in-process), "http" (external service), or
// "off".
type RerankConfig struct {
	Mode    string   `koanf:"mode"`
	BaseURL string   `koanf:"base_url"`
	APIKey  Secret   `koanf:"api_key"`
	Model   string   `koanf:"model"`
	Timeout Duration `koanf:"timeout"`
}

// IndexConfig holds the exercise index storage configuration.
type IndexConfig struct {
	Path       string `koanf:"path"`
	Collection string `koanf:"collection"`
	Compress   bool   `koanf:"compress"`
}

// CacheConfig holds the per-namespace response cache TTLs.
type CacheConfig struct {
	IntentTTL    Duration `koanf:"intent_ttl"`
	PlanTTL      Duration `koanf:"plan_ttl"`
	RetrievalTTL Duration `koanf:"retrieval_ttl"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "claude-3-5-sonnet-20241022"
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.anthropic.com"
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 4096
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = Duration(60 * time.Second)
	}
	if cfg.LLM.MaxRetries == 0 {
		cfg.LLM.MaxRetries = 3
	}

	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = Duration(30 * time.Second)
	}

	if cfg.Rerank.Mode == "" {
		cfg.Rerank.Mode = "lexical"
	}
	if cfg.Rerank.Timeout == 0 {
		cfg.Rerank.Timeout = Duration(10 * time.Second)
	}

	if cfg.Index.Collection == "" {
		cfg.Index.Collection = "coachd_exercises"
	}

	if cfg.Cache.IntentTTL == 0 {
		cfg.Cache.IntentTTL = Duration(900 * time.Second)
	}
	if cfg.Cache.PlanTTL == 0 {
		cfg.Cache.PlanTTL = Duration(900 * time.Second)
	}
	if cfg.Cache.RetrievalTTL == 0 {
		cfg.Cache.RetrievalTTL = Duration(900 * time.Second)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	switch c.Rerank.Mode {
	case "off", "lexical":
	case "http":
		if c.Rerank.BaseURL == "" {
			return errors.New("rerank base_url required when mode is http")
		}
	default:
		return fmt.Errorf("invalid rerank mode: %q (must be off, lexical, or http)", c.Rerank.Mode)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging format: %q (must be json or console)", c.Logging.Format)
	}

	return nil
}
