package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg := Load()

		assert.Equal(t, "0.0.0.0", cfg.ServerHost)
		assert.Equal(t, 8080, cfg.ServerPort)
		assert.Equal(t, "postgres", cfg.DBDriver)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, 168*time.Hour, cfg.SigningTokenTTL)
		assert.Equal(t, 10*time.Minute, cfg.OTPCodeTTL)
		assert.Equal(t, 6, cfg.OTPCodeLength)
		assert.Equal(t, 5, cfg.OTPMaxAttempts)
		assert.Equal(t, "mem://", cfg.ArtifactBucketURL)
		assert.Equal(t, 5*time.Second, cfg.DispatchWorkerInterval)
		assert.Equal(t, 50, cfg.DispatchWorkerBatchSize)
		assert.Equal(t, 3, cfg.DispatchWorkerMaxRetries)
		assert.True(t, cfg.RateLimitSignEnabled)
		assert.True(t, cfg.MetricsEnabled)
		assert.Equal(t, "sign", cfg.MetricsNamespace)
	})

	t.Run("EnvironmentOverrides", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "9090")
		t.Setenv("DB_DRIVER", "mysql")
		t.Setenv("SIGNING_TOKEN_TTL_HOURS", "24")
		t.Setenv("OTP_MAX_ATTEMPTS", "3")

		cfg := Load()

		assert.Equal(t, 9090, cfg.ServerPort)
		assert.Equal(t, "mysql", cfg.DBDriver)
		assert.Equal(t, 24*time.Hour, cfg.SigningTokenTTL)
		assert.Equal(t, 3, cfg.OTPMaxAttempts)
	})
}

func TestGetGinMode(t *testing.T) {
	tests := []struct {
		logLevel string
		expected string
	}{
		{"debug", "debug"},
		{"info", "release"},
		{"warn", "release"},
		{"error", "release"},
		{"unknown", "release"},
	}

	for _, tt := range tests {
		t.Run(tt.logLevel, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel}
			assert.Equal(t, tt.expected, cfg.GetGinMode())
		})
	}
}
