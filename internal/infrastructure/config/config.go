package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all gateway configuration.
type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	Relay    RelayConfig
	Logging  LogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// UpstreamConfig holds assistant service configuration. The API key and
// assistant identifier are required; startup fails fast without them.
type UpstreamConfig struct {
	APIKey       string        `envconfig:"OPENAI_API_KEY" required:"true"`
	AssistantID  string        `envconfig:"ASSISTANT_ID" required:"true"`
	BaseURL      string        `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	Timeout      time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"30s"`
	MaxRetries   int           `envconfig:"UPSTREAM_MAX_RETRIES" default:"3"`
	PollInterval time.Duration `envconfig:"RUN_POLL_INTERVAL" default:"1s"`
	RunTimeout   time.Duration `envconfig:"RUN_TIMEOUT" default:"2m"`
	// RequestsPerSecond throttles calls toward the assistant service.
	// Zero means unlimited.
	RequestsPerSecond float64 `envconfig:"UPSTREAM_RPS" default:"0"`
}

// RelayConfig holds WebSocket relay configuration.
type RelayConfig struct {
	TurnTimeout time.Duration `envconfig:"TURN_TIMEOUT" default:"2m"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// Load loads configuration from environment variables. A .env file in the
// working directory is folded into the environment first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// Default returns configuration with all non-secret defaults populated.
// The upstream credentials are left empty; callers (tests) fill them in.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Upstream: UpstreamConfig{
			BaseURL:           "https://api.openai.com/v1",
			Timeout:           30 * time.Second,
			MaxRetries:        3,
			PollInterval:      time.Second,
			RunTimeout:        2 * time.Minute,
			RequestsPerSecond: 0,
		},
		Relay: RelayConfig{
			TurnTimeout: 2 * time.Minute,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}
