package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Load reads so host settings cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, e := range []string{
		"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "REDIS_ADDR",
		"NEWSPULSE_LLM_GEMINI_KEY", "NEWSPULSE_LLM_OPENAI_KEY", "NEWSPULSE_LLM_ANTHROPIC_KEY",
		"NEWSPULSE_LLM_PRIMARY", "NEWSPULSE_API_PORT", "NEWSPULSE_SOURCE_PROVIDER",
	} {
		t.Setenv(e, "")
		os.Unsetenv(e)
	}
}

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.LLM.Primary)
	assert.Empty(t, cfg.LLM.Fallbacks)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.GeminiModel)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.OpenAIModel)
	assert.Equal(t, 15, cfg.LLM.RequestsPerMinute)

	assert.Equal(t, "nytimes", cfg.Source.Provider)
	assert.Equal(t, 15, cfg.Source.TimeoutSec)
	assert.Equal(t, 10, cfg.Source.MaxArticles)

	assert.Equal(t, 0.25, cfg.Analysis.SentimentThreshold)
	assert.Equal(t, 3, cfg.Analysis.NumTopics)

	assert.True(t, cfg.Audio.Enabled)
	assert.Equal(t, "hi", cfg.Audio.Language)
	assert.Equal(t, "audio_outputs", cfg.Audio.OutputDir)

	assert.Equal(t, "none", cfg.Cache.Backend)
	assert.Equal(t, 8000, cfg.API.Port)
	assert.Equal(t, "0.0.0.0:8000", cfg.API.Addr())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadReadsConventionalKeys(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("GEMINI_API_KEY", "gem-test-key-123")
	t.Setenv("OPENAI_API_KEY", "sk-test-key-456")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gem-test-key-123", cfg.LLM.GeminiKey)
	assert.Equal(t, "sk-test-key-456", cfg.LLM.OpenAIKey)
}

func TestLoadReadsDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GEMINI_API_KEY=from-dotenv-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("GEMINI_API_KEY") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv-file", cfg.LLM.GeminiKey)
}

func TestLoadPrefixedEnvOverride(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("NEWSPULSE_API_PORT", "9090")
	t.Setenv("NEWSPULSE_SOURCE_PROVIDER", "rss")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.API.Port)
	assert.Equal(t, "rss", cfg.Source.Provider)
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
llm:
  primary: openai
  openai_key: sk-file-key-000
source:
  provider: rss
  feeds:
    - https://example.com/feed.xml
audio:
  enabled: false
cache:
  backend: memory
  ttl_sec: 60
api:
  port: 9000
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Primary)
	assert.Equal(t, "sk-file-key-000", cfg.LLM.OpenAIKey)
	assert.Equal(t, "rss", cfg.Source.Provider)
	assert.Equal(t, []string{"https://example.com/feed.xml"}, cfg.Source.Feeds)
	assert.False(t, cfg.Audio.Enabled)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 60, cfg.Cache.TTLSec)
	assert.Equal(t, 9000, cfg.API.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	// untouched sections keep defaults
	assert.Equal(t, 3, cfg.Analysis.NumTopics)
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

// ── Validation ──

func TestValidate(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"unknown provider", func(c *Config) { c.LLM.Primary = "ollama" }, true},
		{"unknown fallback", func(c *Config) { c.LLM.Fallbacks = []string{"gemini", "bard"} }, true},
		{"unknown source", func(c *Config) { c.Source.Provider = "bing" }, true},
		{"redis without addr", func(c *Config) { c.Cache.Backend = "redis" }, true},
		{"redis with addr", func(c *Config) {
			c.Cache.Backend = "redis"
			c.Cache.RedisAddr = "localhost:6379"
		}, false},
		{"bad port", func(c *Config) { c.API.Port = 70000 }, true},
		{"threshold out of range", func(c *Config) { c.Analysis.SentimentThreshold = 1.5 }, true},
		{"bad language", func(c *Config) { c.Audio.Language = "hindi" }, true},
		{"bad feed url", func(c *Config) { c.Source.Feeds = []string{"not a url"} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestYAMLMasksSecrets(t *testing.T) {
	clearEnv(t)
	cfg := Default()
	cfg.LLM.GeminiKey = "AIzaSyVerySecretKey"

	out, err := cfg.YAML()
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, "gemini_key: AIz...Key")
	assert.False(t, strings.Contains(text, "VerySecret"))
	assert.Equal(t, "AIzaSyVerySecretKey", cfg.LLM.GeminiKey, "original must be untouched")
}

// ── API keys ──

func TestCheckAPIKeys(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "AIzaSyEnvKey12345")

	cfg := Default()
	cfg.LLM.OpenAIKey = "sk-config-key-999"

	keys := CheckAPIKeys(cfg)
	require.Len(t, keys, 3)

	assert.True(t, keys[0].IsSet)
	assert.Equal(t, KeySourceEnv, keys[0].Source)
	assert.Equal(t, "AIz...345", keys[0].Masked)

	assert.True(t, keys[1].IsSet)
	assert.Equal(t, KeySourceConfig, keys[1].Source)

	assert.False(t, keys[2].IsSet)
	assert.Equal(t, KeySourceNone, keys[2].Source)
	assert.Empty(t, keys[2].Masked)
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "", maskKey(""))
	assert.Equal(t, "***", maskKey("short"))
	assert.Equal(t, "abc...xyz", maskKey("abcdefghijxyz"))
}
