package app

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Token store backends.
const (
	TokenStoreMemory = "memory"
	TokenStoreRedis  = "redis"
)

// Config holds runtime configuration for the console.
type Config struct {
	AppEnv string `envconfig:"APP_ENV" default:"development"`

	APIBaseURL        string        `envconfig:"API_BASE_URL" default:"http://localhost:8000/api/v1"`
	APIRequestTimeout time.Duration `envconfig:"API_REQUEST_TIMEOUT" default:"0s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// MetricsTextfile receives request metrics on exit when set.
	MetricsTextfile string `envconfig:"METRICS_TEXTFILE"`

	TokenStore       string        `envconfig:"TOKEN_STORE" default:"memory"`
	TokenKey         string        `envconfig:"TOKEN_KEY" default:"console:token"`
	TokenRefreshSkew time.Duration `envconfig:"TOKEN_REFRESH_SKEW" default:"1m"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	Email    string `envconfig:"CONSOLE_EMAIL"`
	Password string `envconfig:"CONSOLE_PASSWORD"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the console cannot run with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil {
		return fmt.Errorf("api base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api base url must be an absolute http(s) url, got %q", c.APIBaseURL)
	}
	switch c.TokenStore {
	case TokenStoreMemory, TokenStoreRedis:
	default:
		return fmt.Errorf("unknown token store %q", c.TokenStore)
	}
	if c.APIRequestTimeout < 0 {
		return errors.New("api request timeout must not be negative")
	}
	return nil
}

// IsProduction returns true when the console runs against production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
