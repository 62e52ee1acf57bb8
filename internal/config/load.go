package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables (prefix WARBLER_)
// and an optional config.yaml in the working directory. Environment
// variables take precedence over file values, which take precedence over
// defaults. Returns a validated Config or an error.
func Load() (*Config, error) {
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
		// No file is fine; env and defaults carry the config.
	}

	v.SetEnvPrefix("WARBLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("store.backend", "postgres")
	v.SetDefault("store.redis_db", 0)

	// Keys without meaningful defaults still need to be registered so
	// AutomaticEnv can populate them through Unmarshal.
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.redis_addr", "")
	v.SetDefault("store.redis_password", "")

	v.SetDefault("media.bucket", "")
	v.SetDefault("media.region", "")
	v.SetDefault("media.endpoint", "")
	v.SetDefault("media.force_path_style", false)
	v.SetDefault("media.access_key_id", "")
	v.SetDefault("media.secret_access_key", "")

	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.model_name", "gemini-2.5-flash")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_output_tokens", 8192)

	v.SetDefault("queue.tick_interval_minutes", 15)
	v.SetDefault("queue.time_budget", 4*time.Minute)
	v.SetDefault("queue.submit_batch_size", 5)
	v.SetDefault("queue.max_resource_bytes", 37<<20)
	v.SetDefault("queue.max_attempts", 3)
	v.SetDefault("queue.max_processing_age", 24*time.Hour)
	v.SetDefault("queue.lock_timeout", 5*time.Second)
	v.SetDefault("queue.lock_ttl", 2*time.Minute)
	v.SetDefault("queue.retention_days", 7)
	v.SetDefault("queue.sweep_schedule", "0 3 * * *")

	v.SetDefault("notifier.kind", "log")
	v.SetDefault("notifier.smtp_host", "")
	v.SetDefault("notifier.smtp_port", 0)
	v.SetDefault("notifier.smtp_from", "")
	v.SetDefault("notifier.smtp_username", "")
	v.SetDefault("notifier.smtp_password", "")
}
