package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, "claude-3-5-sonnet-20241022", cfg.LLM.Model)
	assert.Equal(t, "https://api.anthropic.com", cfg.LLM.BaseURL)
	assert.Equal(t, "lexical", cfg.Rerank.Mode)
	assert.Equal(t, "coachd_exercises", cfg.Index.Collection)
	assert.Equal(t, 900*time.Second, cfg.Cache.IntentTTL.Duration())
	assert.Equal(t, 900*time.Second, cfg.Cache.PlanTTL.Duration())
	assert.Equal(t, 900*time.Second, cfg.Cache.RetrievalTTL.Duration())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		var cfg Config
		applyDefaults(&cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server port"},
		{"zero port", func(c *Config) { c.Server.Port = 0 }, "server port"},
		{"bad rerank mode", func(c *Config) { c.Rerank.Mode = "cosine" }, "rerank mode"},
		{"http rerank without url", func(c *Config) { c.Rerank.Mode = "http" }, "base_url"},
		{"http rerank with url", func(c *Config) {
			c.Rerank.Mode = "http"
			c.Rerank.BaseURL = "https://rerank.example.com"
		}, ""},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestDuration(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Duration())

	assert.Error(t, d.UnmarshalText([]byte("-5s")))
	assert.Error(t, d.UnmarshalText([]byte("not a duration")))

	text, err := Duration(15 * time.Minute).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "15m0s", string(text))
}

func TestSecretRedaction(t *testing.T) {
	s := Secret("sk-ant-12345")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%s", s))
	assert.Equal(t, "Secret([REDACTED])", fmt.Sprintf("%#v", s))
	assert.Equal(t, "sk-ant-12345", s.Value())
	assert.True(t, s.IsSet())

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, `"[REDACTED]"`, string(data))

	var empty Secret
	assert.Equal(t, "", empty.String())
	assert.False(t, empty.IsSet())
}

func TestLoadWithFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
server:
  http_port: 9999
llm:
  api_key: test-key
  model: claude-3-haiku-20240307
cache:
  intent_ttl: 5m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "test-key", cfg.LLM.APIKey.Value())
	assert.Equal(t, "claude-3-haiku-20240307", cfg.LLM.Model)
	assert.Equal(t, 5*time.Minute, cfg.Cache.IntentTTL.Duration())

	// Defaults still fill unset fields.
	assert.Equal(t, "lexical", cfg.Rerank.Mode)
	assert.Equal(t, 900*time.Second, cfg.Cache.PlanTTL.Duration())
}

func TestLoadWithFileEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  http_port: 9999\n"), 0o600))

	t.Setenv("SERVER_HTTP_PORT", "7777")

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Server.Port)
}

func TestLoadWithFileMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadWithFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}
