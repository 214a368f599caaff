package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. AGENTDESK_SERVER_PORT.
const EnvPrefix = "AGENTDESK"

// Keys without a default still need an explicit env binding so Unmarshal sees them.
var envOnlyKeys = []string{
	"database.url",
	"auth.jwt_secret",
	"llm.gemini_api_key",
	"ratelimit.redis_addr",
	"ratelimit.redis_password",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout_seconds", 15)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 25)
	v.SetDefault("database.conn_max_lifetime_minutes", 5)

	v.SetDefault("auth.token_lifetime_minutes", 1440)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.timeout_seconds", 30)

	v.SetDefault("task.reaper_interval_seconds", 60)
	v.SetDefault("task.stale_after_seconds", 300)

	v.SetDefault("ratelimit.run_limit", 10)
	v.SetDefault("ratelimit.window_seconds", 60)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "agentdesk")
}

// Load reads configuration from defaults, an optional config.yaml in the
// working directory, a .env file, and AGENTDESK_-prefixed environment
// variables, in increasing order of precedence. The result is validated
// before it is returned.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envOnlyKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// StaleRunMargin is the minimum gap between the completion timeout and the
// age at which the reaper abandons a run.
const StaleRunMargin = 30 * time.Second

// Validate checks cfg against its struct tags and cross-field rules.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// A run is bounded by the completion timeout; the reaper must never treat
	// a run that can still finish as abandoned.
	if minStale := cfg.LLM.Timeout() + StaleRunMargin; cfg.Task.StaleAfter() < minStale {
		return fmt.Errorf("config validation failed: task.stale_after_seconds (%s) must be at least llm.timeout_seconds plus %s (%s)",
			cfg.Task.StaleAfter(), StaleRunMargin, minStale)
	}
	return nil
}
