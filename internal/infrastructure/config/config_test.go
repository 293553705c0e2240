package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "http://localhost:8000", cfg.Backend.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 0, cfg.Backend.RetryMax)
	assert.Equal(t, "1", cfg.Backend.UserID)

	assert.Equal(t, ".canvai", cfg.Storage.Dir)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)
}

func TestLoadOrDefault(t *testing.T) {
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:8000", cfg.Backend.BaseURL)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"CANVAI_BACKEND_URL":    "http://backend:9000",
		"CANVAI_HTTP_TIMEOUT":   "5s",
		"CANVAI_HTTP_RETRY_MAX": "2",
		"CANVAI_USER_ID":        "7",
		"CANVAI_STORAGE_DIR":    "/tmp/canvai",
		"CANVAI_LOG_LEVEL":      "debug",
		"CANVAI_LOG_DEV":        "true",
	}

	for key, value := range envVars {
		os.Setenv(key, value)
	}
	defer func() {
		for key := range envVars {
			os.Unsetenv(key)
		}
	}()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://backend:9000", cfg.Backend.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 2, cfg.Backend.RetryMax)
	assert.Equal(t, "7", cfg.Backend.UserID)
	assert.Equal(t, "/tmp/canvai", cfg.Storage.Dir)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
}
