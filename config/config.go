// Package config loads application configuration from a YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the portfolio chat backend.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Providers ProvidersConfig `mapstructure:"providers"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Redis     RedisConfig     `mapstructure:"redis"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Listen         string   `mapstructure:"listen"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	SiteBaseURL    string   `mapstructure:"site_base_url"`
}

// StoreConfig locates the persisted embedding store and the authored
// content the builder reads.
type StoreConfig struct {
	EmbeddingsPath string `mapstructure:"embeddings_path"`
	ContentPath    string `mapstructure:"content_path"`
}

// RetrievalConfig tunes ranking and context assembly. TopK and MinScore
// are deliberately configuration, not constants: the right values depend on
// the corpus and the embedding model.
type RetrievalConfig struct {
	TopK            int     `mapstructure:"top_k"`
	MinScore        float64 `mapstructure:"min_score"`
	MaxContextChars int     `mapstructure:"max_context_chars"`
}

// ProvidersConfig configures the external embedding and generation APIs.
type ProvidersConfig struct {
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
}

// OpenAIConfig configures the embeddings provider.
type OpenAIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// AnthropicConfig configures the answer-generation provider.
type AnthropicConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// RateLimitConfig caps per-IP request rates.
type RateLimitConfig struct {
	PerMinute int `mapstructure:"per_minute"`
	PerDay    int `mapstructure:"per_day"`
}

// RedisConfig is optional; when Addr is set the rate limiter keeps its
// counters in Redis so limits hold across replicas.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Load reads configuration from path (or ./config.yaml when empty),
// applies defaults and environment overrides (PORTFOLIO_* plus the
// conventional provider key variables), and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path == "" {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	} else {
		v.SetConfigFile(path)
	}

	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.site_base_url", "https://sohae-kim.github.io/")
	v.SetDefault("store.embeddings_path", "data/embeddings.json")
	v.SetDefault("store.content_path", "data/content.json")
	v.SetDefault("retrieval.top_k", 3)
	v.SetDefault("retrieval.min_score", 0.30)
	v.SetDefault("retrieval.max_context_chars", 6000)
	v.SetDefault("providers.openai.model", "text-embedding-ada-002")
	v.SetDefault("providers.openai.timeout", 30*time.Second)
	v.SetDefault("providers.anthropic.model", "claude-3-5-haiku-latest")
	v.SetDefault("providers.anthropic.max_tokens", 300)
	v.SetDefault("providers.anthropic.temperature", 0.0)
	v.SetDefault("providers.anthropic.timeout", 60*time.Second)
	v.SetDefault("rate_limit.per_minute", 5)
	v.SetDefault("rate_limit.per_day", 20)

	v.SetEnvPrefix("PORTFOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Standard provider key variables take precedence over the file so
	// secrets stay out of config.yaml.
	_ = v.BindEnv("providers.openai.api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("providers.anthropic.api_key", "ANTHROPIC_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine: defaults plus env cover local runs.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks invariants the rest of the system assumes.
func (c *Config) Validate() error {
	if c.Retrieval.TopK < 1 {
		return fmt.Errorf("retrieval.top_k must be >= 1, got %d", c.Retrieval.TopK)
	}
	if c.Retrieval.MinScore < -1 || c.Retrieval.MinScore > 1 {
		return fmt.Errorf("retrieval.min_score must be in [-1, 1], got %f", c.Retrieval.MinScore)
	}
	if c.Retrieval.MaxContextChars < 1 {
		return fmt.Errorf("retrieval.max_context_chars must be >= 1, got %d", c.Retrieval.MaxContextChars)
	}
	if c.RateLimit.PerMinute < 1 || c.RateLimit.PerDay < 1 {
		return fmt.Errorf("rate_limit values must be >= 1")
	}
	if c.Server.SiteBaseURL == "" {
		return fmt.Errorf("server.site_base_url required")
	}
	return nil
}
