package config

import "time"

// Config holds all application configuration, grouped by concern.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Store    StoreConfig    `mapstructure:"store" validate:"required"`
	Media    MediaConfig    `mapstructure:"media" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm" validate:"required"`
	Queue    QueueConfig    `mapstructure:"queue" validate:"required"`
	Notifier NotifierConfig `mapstructure:"notifier"`
}

// ServerConfig contains the HTTP server settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	// Backend is postgres, redis, or memory (dev only).
	Backend string `mapstructure:"backend" validate:"required,oneof=postgres redis memory"`

	// DatabaseURL is required when Backend is postgres.
	DatabaseURL string `mapstructure:"database_url" validate:"required_if=Backend postgres,omitempty,url"`

	// Redis connection settings; Addr is required when Backend is redis.
	RedisAddr     string `mapstructure:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" validate:"gte=0"`
}

// MediaConfig contains the object storage settings for input resources.
type MediaConfig struct {
	Bucket          string `mapstructure:"bucket" validate:"required"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint" validate:"omitempty,url"`
	ForcePathStyle  bool   `mapstructure:"force_path_style"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// LLMConfig contains the external transcription service settings.
type LLMConfig struct {
	GeminiAPIKey    string  `mapstructure:"gemini_api_key" validate:"required"`
	ModelName       string  `mapstructure:"model_name" validate:"required"`
	Temperature     float32 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxOutputTokens int32   `mapstructure:"max_output_tokens" validate:"gte=0"`
}

// QueueConfig contains the drain/retry/retention settings.
type QueueConfig struct {
	// TickIntervalMinutes is how often the drainer runs. Restricted to
	// the scheduler presets.
	TickIntervalMinutes int `mapstructure:"tick_interval_minutes" validate:"required,oneof=5 15 30 60"`

	// TimeBudget bounds one tick's wall-clock time; keep it safely below
	// the host execution ceiling.
	TimeBudget time.Duration `mapstructure:"time_budget" validate:"required,gt=0"`

	// SubmitBatchSize caps pending submissions per tick.
	SubmitBatchSize int `mapstructure:"submit_batch_size" validate:"required,gt=0"`

	// MaxResourceBytes is the submission size limit.
	MaxResourceBytes int64 `mapstructure:"max_resource_bytes" validate:"required,gt=0"`

	// MaxAttempts caps failed submission attempts.
	MaxAttempts int `mapstructure:"max_attempts" validate:"required,gt=0"`

	// MaxProcessingAge escalates stuck processing jobs to failed.
	// Zero disables escalation.
	MaxProcessingAge time.Duration `mapstructure:"max_processing_age" validate:"gte=0"`

	// LockTimeout and LockTTL bound the completion critical section.
	LockTimeout time.Duration `mapstructure:"lock_timeout" validate:"required,gt=0"`
	LockTTL     time.Duration `mapstructure:"lock_ttl" validate:"required,gt=0"`

	// RetentionDays is how long terminal records are kept.
	RetentionDays int `mapstructure:"retention_days" validate:"required,gt=0"`

	// SweepSchedule is a cron expression for the retention sweep.
	SweepSchedule string `mapstructure:"sweep_schedule" validate:"required"`
}

// NotifierConfig selects how terminal notifications are delivered.
type NotifierConfig struct {
	// Kind is smtp or log.
	Kind string `mapstructure:"kind" validate:"omitempty,oneof=smtp log"`

	SMTPHost     string `mapstructure:"smtp_host" validate:"required_if=Kind smtp"`
	SMTPPort     int    `mapstructure:"smtp_port" validate:"required_if=Kind smtp,omitempty,gt=0,lt=65536"`
	SMTPFrom     string `mapstructure:"smtp_from" validate:"required_if=Kind smtp,omitempty,email"`
	SMTPUsername string `mapstructure:"smtp_username"`
	SMTPPassword string `mapstructure:"smtp_password"`
}
