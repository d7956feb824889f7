// Package config handles configuration loading for NewsPulse.
// It supports YAML config files, a .env file and environment variable
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of structured environment overrides,
// e.g. NEWSPULSE_API_PORT.
const EnvPrefix = "NEWSPULSE"

// Config represents the complete application configuration.
type Config struct {
	LLM      LLMConfig      `mapstructure:"llm"      yaml:"llm"`
	Source   SourceConfig   `mapstructure:"source"   yaml:"source"`
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	Audio    AudioConfig    `mapstructure:"audio"    yaml:"audio"`
	Cache    CacheConfig    `mapstructure:"cache"    yaml:"cache"`
	API      APIConfig      `mapstructure:"api"      yaml:"api"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	Primary           string   `mapstructure:"primary"             yaml:"primary"             validate:"oneof=gemini openai anthropic"`
	Fallbacks         []string `mapstructure:"fallbacks"           yaml:"fallbacks"           validate:"dive,oneof=gemini openai anthropic"`
	GeminiKey         string   `mapstructure:"gemini_key"          yaml:"gemini_key"`
	OpenAIKey         string   `mapstructure:"openai_key"          yaml:"openai_key"`
	AnthropicKey      string   `mapstructure:"anthropic_key"       yaml:"anthropic_key"`
	GeminiModel       string   `mapstructure:"gemini_model"        yaml:"gemini_model"`
	OpenAIModel       string   `mapstructure:"openai_model"        yaml:"openai_model"`
	AnthropicModel    string   `mapstructure:"anthropic_model"     yaml:"anthropic_model"`
	Temperature       float64  `mapstructure:"temperature"         yaml:"temperature"         validate:"gte=0,lte=2"`
	MaxTokens         int      `mapstructure:"max_tokens"          yaml:"max_tokens"          validate:"gt=0"`
	TimeoutSec        int      `mapstructure:"timeout_sec"         yaml:"timeout_sec"         validate:"gt=0"`
	RequestsPerMinute int      `mapstructure:"requests_per_minute" yaml:"requests_per_minute" validate:"gte=0"` // 0 disables limiting
}

// SourceConfig selects and tunes the article source.
type SourceConfig struct {
	Provider      string   `mapstructure:"provider"        yaml:"provider"        validate:"oneof=nytimes rss"`
	NYTimesURL    string   `mapstructure:"nytimes_url"     yaml:"nytimes_url"     validate:"url"`
	GoogleNewsURL string   `mapstructure:"google_news_url" yaml:"google_news_url" validate:"omitempty,url"`
	Feeds         []string `mapstructure:"feeds"           yaml:"feeds"           validate:"dive,url"`
	UserAgent     string   `mapstructure:"user_agent"      yaml:"user_agent"`
	TimeoutSec    int      `mapstructure:"timeout_sec"     yaml:"timeout_sec"     validate:"gt=0"`
	MaxArticles   int      `mapstructure:"max_articles"    yaml:"max_articles"    validate:"gte=0"`
	Concurrency   int      `mapstructure:"concurrency"     yaml:"concurrency"     validate:"gt=0"`
}

// AnalysisConfig tunes the sentiment labeler and topic tagger.
type AnalysisConfig struct {
	SentimentThreshold float64 `mapstructure:"sentiment_threshold" yaml:"sentiment_threshold" validate:"gt=0,lt=1"`
	NumTopics          int     `mapstructure:"num_topics"          yaml:"num_topics"          validate:"gt=0"`
}

// AudioConfig controls the translated speech summary.
type AudioConfig struct {
	Enabled      bool   `mapstructure:"enabled"        yaml:"enabled"`
	Language     string `mapstructure:"language"       yaml:"language"       validate:"len=2"`
	OutputDir    string `mapstructure:"output_dir"     yaml:"output_dir"     validate:"required"`
	CleanOnStart bool   `mapstructure:"clean_on_start" yaml:"clean_on_start"`
	TranslateURL string `mapstructure:"translate_url"  yaml:"translate_url"  validate:"url"`
	TTSURL       string `mapstructure:"tts_url"        yaml:"tts_url"        validate:"url"`
	TimeoutSec   int    `mapstructure:"timeout_sec"    yaml:"timeout_sec"    validate:"gt=0"`
}

// CacheConfig configures the optional report cache.
type CacheConfig struct {
	Backend       string `mapstructure:"backend"        yaml:"backend"        validate:"oneof=none memory redis"`
	TTLSec        int    `mapstructure:"ttl_sec"        yaml:"ttl_sec"        validate:"gte=0"`
	RedisAddr     string `mapstructure:"redis_addr"     yaml:"redis_addr"     validate:"required_if=Backend redis"`
	RedisPassword string `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"       yaml:"redis_db"       validate:"gte=0"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host              string   `mapstructure:"host"                yaml:"host"`
	Port              int      `mapstructure:"port"                yaml:"port"                validate:"gt=0,lte=65535"`
	CORSOrigins       []string `mapstructure:"cors_origins"        yaml:"cors_origins"`
	RequestTimeoutSec int      `mapstructure:"request_timeout_sec" yaml:"request_timeout_sec" validate:"gt=0"`
	ServeUI           bool     `mapstructure:"serve_ui"            yaml:"serve_ui"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level"        yaml:"level"        validate:"oneof=trace debug info warn warning error"`
	Format     string `mapstructure:"format"       yaml:"format"       validate:"oneof=text json"`
	File       string `mapstructure:"file"         yaml:"file"` // empty: console only
	MaxSizeMB  int    `mapstructure:"max_size_mb"  yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"  yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
}

// Timeout returns the LLM request timeout.
func (c LLMConfig) Timeout() time.Duration { return time.Duration(c.TimeoutSec) * time.Second }

// Timeout returns the article source request timeout.
func (c SourceConfig) Timeout() time.Duration { return time.Duration(c.TimeoutSec) * time.Second }

// Timeout returns the translation / speech request timeout.
func (c AudioConfig) Timeout() time.Duration { return time.Duration(c.TimeoutSec) * time.Second }

// TTL returns the report cache lifetime.
func (c CacheConfig) TTL() time.Duration { return time.Duration(c.TTLSec) * time.Second }

// RequestTimeout bounds one HTTP report request.
func (c APIConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// Addr returns the listen address.
func (c APIConfig) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.newspulse/config.yaml (home directory)
//  3. /etc/newspulse/config.yaml (system)
//
// A .env file in the working directory is loaded first when present.
// Environment variables override config file values.
func Load() (*Config, error) {
	loadDotEnv()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".newspulse"))
	v.AddConfigPath("/etc/newspulse")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadDotEnv()

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return decode(v)
}

// Default returns the built-in defaults with environment overrides applied
// and no config file. It does not validate.
func Default() *Config {
	var cfg Config
	_ = newViper().Unmarshal(&cfg)
	overrideFromEnv(&cfg)
	return &cfg
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// YAML renders the configuration with secrets masked.
func (c *Config) YAML() ([]byte, error) {
	masked := *c
	masked.LLM.GeminiKey = maskKey(c.LLM.GeminiKey)
	masked.LLM.OpenAIKey = maskKey(c.LLM.OpenAIKey)
	masked.LLM.AnthropicKey = maskKey(c.LLM.AnthropicKey)
	masked.Cache.RedisPassword = maskKey(c.Cache.RedisPassword)
	return yaml.Marshal(&masked)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// LLM defaults
	v.SetDefault("llm.primary", "gemini")
	v.SetDefault("llm.fallbacks", []string{})
	v.SetDefault("llm.gemini_model", "gemini-2.0-flash")
	v.SetDefault("llm.openai_model", "gpt-4o-mini")
	v.SetDefault("llm.anthropic_model", "claude-3-5-haiku-latest")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.timeout_sec", 60)
	v.SetDefault("llm.requests_per_minute", 15) // Gemini free tier

	// Source defaults
	v.SetDefault("source.provider", "nytimes")
	v.SetDefault("source.nytimes_url", "https://www.nytimes.com/search")
	v.SetDefault("source.google_news_url", "https://news.google.com/rss/search")
	v.SetDefault("source.feeds", []string{})
	v.SetDefault("source.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.36")
	v.SetDefault("source.timeout_sec", 15)
	v.SetDefault("source.max_articles", 10)
	v.SetDefault("source.concurrency", 4)

	// Analysis defaults
	v.SetDefault("analysis.sentiment_threshold", 0.25)
	v.SetDefault("analysis.num_topics", 3)

	// Audio defaults
	v.SetDefault("audio.enabled", true)
	v.SetDefault("audio.language", "hi")
	v.SetDefault("audio.output_dir", "audio_outputs")
	v.SetDefault("audio.clean_on_start", true)
	v.SetDefault("audio.translate_url", "https://translate.googleapis.com/translate_a/single")
	v.SetDefault("audio.tts_url", "https://translate.google.com/translate_tts")
	v.SetDefault("audio.timeout_sec", 30)

	// Cache defaults (disabled)
	v.SetDefault("cache.backend", "none")
	v.SetDefault("cache.ttl_sec", 600)
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8000)
	v.SetDefault("api.cors_origins", []string{"*"})
	v.SetDefault("api.request_timeout_sec", 300)
	v.SetDefault("api.serve_ui", true)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 10)
	v.SetDefault("logging.max_age_days", 30)
}

// overrideFromEnv reads the conventional, unprefixed variables as well.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.LLM.GeminiKey = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.LLM.OpenAIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		cfg.LLM.AnthropicKey = key
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Cache.RedisAddr = addr
	}
}

// loadDotEnv loads ./.env without overriding variables already set.
func loadDotEnv() {
	_ = godotenv.Load()
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
