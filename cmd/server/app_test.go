package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/phrazzld/agentdesk/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-at-least-32-characters"

// testConfig returns a valid configuration that needs no external services.
func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:                   8080,
			LogLevel:               "debug",
			ShutdownTimeoutSeconds: 5,
		},
		Database: config.DatabaseConfig{Driver: driverMemory},
		Auth: config.AuthConfig{
			JWTSecret:            testSecret,
			TokenLifetimeMinutes: 60,
			BCryptCost:           4,
		},
		LLM: config.LLMConfig{
			Provider:       "echo",
			ModelName:      "echo",
			TimeoutSeconds: 5,
		},
		Task: config.TaskConfig{
			ReaperIntervalSeconds: 60,
			StaleAfterSeconds:     300,
		},
		RateLimit: config.RateLimitConfig{RunLimit: 10, WindowSeconds: 60},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTestConfigIsValid(t *testing.T) {
	require.NoError(t, config.Validate(testConfig()))
}

func TestNewApplication(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *config.Config)
		wantErr string
	}{
		{
			name:   "memory driver with echo backend",
			mutate: func(*config.Config) {},
		},
		{
			name:    "postgres driver without connection",
			mutate:  func(cfg *config.Config) { cfg.Database.Driver = driverPostgres },
			wantErr: "requires a database connection",
		},
		{
			name:    "unknown driver",
			mutate:  func(cfg *config.Config) { cfg.Database.Driver = "sqlite" },
			wantErr: "unsupported database driver",
		},
		{
			name:    "unknown completion provider",
			mutate:  func(cfg *config.Config) { cfg.LLM.Provider = "oracle" },
			wantErr: "unsupported provider",
		},
		{
			name: "gemini without key",
			mutate: func(cfg *config.Config) {
				cfg.LLM.Provider = "gemini"
				cfg.LLM.GeminiAPIKey = ""
			},
			wantErr: "API key cannot be empty",
		},
		{
			name:    "short jwt secret",
			mutate:  func(cfg *config.Config) { cfg.Auth.JWTSecret = "short" },
			wantErr: "token service",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)

			app, err := newApplication(context.Background(), cfg, testLogger(), nil)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			t.Cleanup(app.cleanup)

			assert.NotNil(t, app.userService)
			assert.NotNil(t, app.taskService)
			assert.NotNil(t, app.logService)
			assert.NotNil(t, app.reaper)
			assert.Nil(t, app.runLimiter, "rate limiting is off without a redis address")
		})
	}
}

func TestNewApplication_RateLimitWithUnreachableRedis(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.RedisAddr = "127.0.0.1:1"

	app, err := newApplication(context.Background(), cfg, testLogger(), nil)
	require.NoError(t, err)
	t.Cleanup(app.cleanup)

	assert.NotNil(t, app.redis)
	assert.NotNil(t, app.runLimiter)
}

func TestApplicationCleanupIsIdempotent(t *testing.T) {
	app, err := newApplication(context.Background(), testConfig(), testLogger(), nil)
	require.NoError(t, err)
	require.NoError(t, app.reaper.Start())

	assert.NotPanics(t, func() {
		app.cleanup()
		app.cleanup()
	})
}
