// Package config provides configuration management for the Rebound Edge application.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	StatsAPI  StatsAPIConfig  `mapstructure:"stats_api" validate:"required"`
	QuoteFeed QuoteFeedConfig `mapstructure:"quote_feed" validate:"required"`
	Model     ModelConfig     `mapstructure:"model" validate:"required"`
	Valuation ValuationConfig `mapstructure:"valuation" validate:"required"`
	Ingestion IngestionConfig `mapstructure:"ingestion" validate:"required"`
	Metrics   MetricsConfig   `mapstructure:"metrics" validate:"required"`
	Secrets   SecretsConfig   `mapstructure:"secrets"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password" validate:"required"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// StatsAPIConfig represents the game-log stats API configuration
type StatsAPIConfig struct {
	BaseURL            string  `mapstructure:"base_url" validate:"required,url"`
	APIKey             string  `mapstructure:"api_key"`
	TimeoutSeconds     int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	RetryAttempts      int     `mapstructure:"retry_attempts" validate:"gte=0"`
	RateLimitPerSecond float64 `mapstructure:"rate_limit_per_second" validate:"required,gt=0"`
}

// QuoteFeedConfig represents the pre-game prop quote feed configuration
type QuoteFeedConfig struct {
	URL              string   `mapstructure:"url" validate:"required"`
	APIKey           string   `mapstructure:"api_key"`
	ReconnectSeconds int      `mapstructure:"reconnect_seconds" validate:"required,gt=0"`
	Books            []string `mapstructure:"books" validate:"required,min=1"`
}

// ModelConfig represents training and inference configuration
type ModelConfig struct {
	TrailingWindow      int       `mapstructure:"trailing_window" validate:"required,gt=0"`
	MinCoverage         int       `mapstructure:"min_coverage" validate:"required,gt=0"`
	EWMAAlpha           float64   `mapstructure:"ewma_alpha" validate:"required,gt=0,lt=1"`
	InjuryMinutesFactor float64   `mapstructure:"injury_minutes_factor" validate:"required,gt=0,lte=1"`
	Lambdas             []float64 `mapstructure:"lambdas" validate:"required,min=1"`
	KFolds              int       `mapstructure:"k_folds" validate:"required,gt=1"`
	MinTrainingRows     int       `mapstructure:"min_training_rows" validate:"required,gt=0"`
	MinFamilyCoverage   int       `mapstructure:"min_family_coverage" validate:"required,gt=0"`
	PhysiologicalMax    float64   `mapstructure:"physiological_max" validate:"required,gt=0"`
	ConfidenceLevels    []float64 `mapstructure:"confidence_levels" validate:"required,min=1,dive,gt=0,lt=1"`
	CacheTTLSeconds     int       `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
}

// ValuationConfig represents edge detection and batch run configuration
type ValuationConfig struct {
	MinEdgeThreshold   float64 `mapstructure:"min_edge_threshold" validate:"required,gt=0"`
	ProbabilityFloor   float64 `mapstructure:"probability_floor" validate:"gte=0,lt=1"`
	ProbabilityCeiling float64 `mapstructure:"probability_ceiling" validate:"gt=0,lte=1"`
	MaxConcurrency     int     `mapstructure:"max_concurrency" validate:"required,gt=0"`
}

// IngestionConfig represents data ingestion scheduling configuration
type IngestionConfig struct {
	NightlySync string `mapstructure:"nightly_sync" validate:"required"`
	BatchSize   int    `mapstructure:"batch_size" validate:"required,gt=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// SecretsConfig represents the AWS Secrets Manager overlay configuration
type SecretsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Region     string `mapstructure:"region"`
	SecretName string `mapstructure:"secret_name"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// StatsAPITimeout returns the stats API request timeout as a duration
func (c *Config) StatsAPITimeout() time.Duration {
	return time.Duration(c.StatsAPI.TimeoutSeconds) * time.Second
}

// PredictionCacheTTL returns the prediction cache TTL as a duration
func (c *Config) PredictionCacheTTL() time.Duration {
	return time.Duration(c.Model.CacheTTLSeconds) * time.Second
}

// QuoteFeedReconnectBackoff returns the quote feed's initial reconnect backoff
func (c *Config) QuoteFeedReconnectBackoff() time.Duration {
	return time.Duration(c.QuoteFeed.ReconnectSeconds) * time.Second
}
