// Package config defines the global configuration for the waterman service.
// Configuration is loaded once at process start and is immutable thereafter.
// It follows 12-Factor principles: values come from the OS environment, with
// a .env file as a development convenience.
//
// Any missing required value or invalid format fails the process immediately
// on startup (fail fast).
package config

import (
	"time"

	"waterman/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used throughout configuration to prevent accidental logging.
type SecretString = types.SecretString

// Config is the top-level configuration struct. Sub-components receive only
// the subsets they require.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"waterman"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	Server   ServerConfig
	Database DatabaseConfig
	Source   SourceConfig
	Ingest   IngestConfig
	Feed     FeedConfig
}

// ServerConfig holds HTTP server and public URL configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8080"`
	// Public app URL used for deep links in calendar events (no trailing slash).
	AppURL string `envconfig:"APP_URL" default:"https://app.waterman.surf" validate:"required,url"`
	// RequestTimeout is the soft deadline applied to request contexts.
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"29s"`
}

// DatabaseConfig holds connection and pool tuning parameters.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required,url"`

	MaxConns          int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns          int           `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`
}

// SourceConfig holds the third-party forecast provider settings.
type SourceConfig struct {
	BaseURL      string        `envconfig:"SOURCE_BASE_URL" validate:"required,url"`
	APIKey       SecretString  `envconfig:"SOURCE_API_KEY" validate:"required"`
	FetchTimeout time.Duration `envconfig:"SOURCE_FETCH_TIMEOUT" default:"30s"`
	UserAgent    string        `envconfig:"SOURCE_USER_AGENT" default:"waterman-ingest/1.0"`
}

// IngestConfig tunes the multi-site ingestion runner.
type IngestConfig struct {
	// Cron schedule for the ingestion daemon (robfig/cron format).
	Schedule string `envconfig:"INGEST_SCHEDULE" default:"0 */6 * * *"`
	// Concurrency bounds simultaneous per-site fetch+normalize operations.
	Concurrency int `envconfig:"INGEST_CONCURRENCY" default:"4" validate:"gte=1,lte=32"`
}

// FeedConfig tunes calendar feed generation.
type FeedConfig struct {
	// MinScore is the "ideal or better" eligibility cutoff.
	MinScore int `envconfig:"FEED_MIN_SCORE" default:"75" validate:"gte=0,lte=100"`
	// WindowDays is the lookahead window for feed events.
	WindowDays int `envconfig:"FEED_WINDOW_DAYS" default:"7" validate:"gte=1,lte=30"`
	// MaxPerDay bounds events kept per calendar day across all sites.
	MaxPerDay int `envconfig:"FEED_MAX_PER_DAY" default:"2" validate:"gte=1"`
}

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	// ErrMissingEnv indicates a required environment variable was not found.
	ErrMissingEnv ConfigErrorType = "MISSING_ENV"
	// ErrValidation indicates the configuration failed struct validation.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates environment values could not be parsed into
	// their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
