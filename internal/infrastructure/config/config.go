package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/OBress/CanvAI/internal/shared/paths"
)

// Config holds all sync-layer configuration.
type Config struct {
	Backend BackendConfig
	Storage StorageConfig
	Logging LogConfig
}

// BackendConfig holds remote backend configuration.
type BackendConfig struct {
	BaseURL string        `envconfig:"CANVAI_BACKEND_URL" default:"http://localhost:8000"`
	Timeout time.Duration `envconfig:"CANVAI_HTTP_TIMEOUT" default:"30s"`
	// RetryMax is the transport-level retry budget. The sync layer never
	// retries failed operations on its own, so this defaults to zero.
	RetryMax int    `envconfig:"CANVAI_HTTP_RETRY_MAX" default:"0"`
	UserID   string `envconfig:"CANVAI_USER_ID" default:"1"`
}

// StorageConfig holds local persistence configuration.
type StorageConfig struct {
	Dir string `envconfig:"CANVAI_STORAGE_DIR" default:".canvai"`
}

// Path resolves Dir to the absolute storage location.
func (s StorageConfig) Path() string {
	return paths.StorageDir(s.Dir)
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"CANVAI_LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"CANVAI_LOG_DEV" default:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:  "http://localhost:8000",
			Timeout:  30 * time.Second,
			RetryMax: 0,
			UserID:   "1",
		},
		Storage: StorageConfig{
			Dir: ".canvai",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}
