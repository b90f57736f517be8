// Package config loads application configuration from environment
// variables. Every knob has a default so a bare `go run ./cmd/server`
// comes up in development mode with in-memory storage.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment represents the application environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config holds all application configuration.
type Config struct {
	App           AppConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Server        ServerConfig
	Scheduler     SchedulerConfig
	Analysis      AnalysisConfig
	Prediction    PredictionConfig
	Reports       ReportsConfig
	Retention     RetentionConfig
	Observability ObservabilityConfig
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string
	Environment Environment
	Debug       bool
	Version     string

	// Graceful shutdown timeout
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL
// switches the service to in-memory repositories (development mode).
type DatabaseConfig struct {
	URL string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	QueryTimeout time.Duration
	LogQueries   bool
}

// RedisConfig holds Redis connection settings for the comparison cache.
type RedisConfig struct {
	URL      string
	Host     string
	Port     int
	Password string
	DB       int

	PoolSize     int
	MinIdleConns int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Disabled skips the cache entirely; comparisons recompute each time.
	Disabled bool
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string
	Port int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SchedulerConfig holds background worker settings.
type SchedulerConfig struct {
	Enabled bool

	// How often the worker scans for due report executions.
	ReportTickInterval time.Duration

	// How often the worker drains the export queue, and how many
	// exports one pass picks up.
	ExportInterval  time.Duration
	ExportBatchSize int

	// How often the event retention job runs.
	PruneInterval time.Duration

	MaxConcurrentJobs int
	JobTimeout        time.Duration
}

// AnalysisConfig holds statistical thresholds. These are service-level
// defaults; they are not exposed per request.
type AnalysisConfig struct {
	// TrendEpsilonFraction scales the stable-band threshold by the
	// observed value range.
	TrendEpsilonFraction float64
	MinTrendPoints       int

	CorrelationAlpha      float64
	MinCorrelationSamples int
	PairingTolerance      time.Duration

	AnomalyWindow    int
	AnomalyThreshold float64

	MinCohortSize       int
	ComparisonFreshness time.Duration
}

// PredictionConfig holds forecasting settings.
type PredictionConfig struct {
	// DefaultHorizon applies when a forecast request omits one.
	DefaultHorizon time.Duration
	MaxHorizon     time.Duration
}

// ReportsConfig holds report engine settings.
type ReportsConfig struct {
	// ArtifactDir is where rendered report and export artifacts land.
	ArtifactDir string

	// DefaultLookbackDays applies when a definition omits one.
	DefaultLookbackDays int

	// MaxSections caps sections per definition.
	MaxSections int
}

// RetentionConfig holds raw-event retention settings.
type RetentionConfig struct {
	// EventMaxAge prunes raw events older than this. Zero disables
	// pruning. Derived metrics are never pruned.
	EventMaxAge time.Duration
}

// ObservabilityConfig holds logging and metrics settings.
type ObservabilityConfig struct {
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text

	MetricsEnabled bool
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		App:           loadAppConfig(),
		Database:      loadDatabaseConfig(),
		Redis:         loadRedisConfig(),
		Server:        loadServerConfig(),
		Scheduler:     loadSchedulerConfig(),
		Analysis:      loadAnalysisConfig(),
		Prediction:    loadPredictionConfig(),
		Reports:       loadReportsConfig(),
		Retention:     loadRetentionConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func loadAppConfig() AppConfig {
	env := Environment(getEnv("APP_ENV", "development"))

	return AppConfig{
		Name:            getEnv("APP_NAME", "prepwise-analytics"),
		Environment:     env,
		Debug:           env == EnvDevelopment || getEnvBool("APP_DEBUG", false),
		Version:         getEnv("APP_VERSION", "0.1.0"),
		ShutdownTimeout: getEnvDuration("APP_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	url := getEnv("DATABASE_URL", "")
	if url == "" {
		// Try to build from individual components
		host := getEnv("DB_HOST", "")
		port := getEnv("DB_PORT", "5432")
		user := getEnv("DB_USER", "")
		pass := getEnv("DB_PASSWORD", "")
		name := getEnv("DB_NAME", "postgres")
		sslmode := getEnv("DB_SSLMODE", "require")

		if host != "" && user != "" {
			url = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
				user, pass, host, port, name, sslmode)
		}
	}

	return DatabaseConfig{
		URL:             url,
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 1*time.Minute),
		QueryTimeout:    getEnvDuration("DB_QUERY_TIMEOUT", 30*time.Second),
		LogQueries:      getEnvBool("DB_LOG_QUERIES", false),
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		URL:          getEnv("REDIS_URL", ""),
		Host:         getEnv("REDIS_HOST", "localhost"),
		Port:         getEnvInt("REDIS_PORT", 6379),
		Password:     getEnv("REDIS_PASSWORD", ""),
		DB:           getEnvInt("REDIS_DB", 0),
		PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
		MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
		DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		Disabled:     getEnvBool("REDIS_DISABLED", false),
	}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("SERVER_HOST", "0.0.0.0"),
		Port:            getEnvInt("SERVER_PORT", 8080),
		ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
	}
}

func loadSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:            getEnvBool("SCHEDULER_ENABLED", true),
		ReportTickInterval: getEnvDuration("SCHEDULER_REPORT_TICK_INTERVAL", 1*time.Minute),
		ExportInterval:     getEnvDuration("SCHEDULER_EXPORT_INTERVAL", 30*time.Second),
		ExportBatchSize:    getEnvInt("SCHEDULER_EXPORT_BATCH_SIZE", 5),
		PruneInterval:      getEnvDuration("SCHEDULER_PRUNE_INTERVAL", 24*time.Hour),
		MaxConcurrentJobs:  getEnvInt("SCHEDULER_MAX_CONCURRENT", 5),
		JobTimeout:         getEnvDuration("SCHEDULER_JOB_TIMEOUT", 5*time.Minute),
	}
}

func loadAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		TrendEpsilonFraction:  getEnvFloat("ANALYSIS_TREND_EPSILON_FRACTION", 0.1),
		MinTrendPoints:        getEnvInt("ANALYSIS_MIN_TREND_POINTS", 3),
		CorrelationAlpha:      getEnvFloat("ANALYSIS_CORRELATION_ALPHA", 0.05),
		MinCorrelationSamples: getEnvInt("ANALYSIS_MIN_CORRELATION_SAMPLES", 5),
		PairingTolerance:      getEnvDuration("ANALYSIS_PAIRING_TOLERANCE", 1*time.Hour),
		AnomalyWindow:         getEnvInt("ANALYSIS_ANOMALY_WINDOW", 30),
		AnomalyThreshold:      getEnvFloat("ANALYSIS_ANOMALY_THRESHOLD", 2.5),
		MinCohortSize:         getEnvInt("ANALYSIS_MIN_COHORT_SIZE", 5),
		ComparisonFreshness:   getEnvDuration("ANALYSIS_COMPARISON_FRESHNESS", 15*time.Minute),
	}
}

func loadPredictionConfig() PredictionConfig {
	return PredictionConfig{
		DefaultHorizon: getEnvDuration("PREDICTION_DEFAULT_HORIZON", 7*24*time.Hour),
		MaxHorizon:     getEnvDuration("PREDICTION_MAX_HORIZON", 90*24*time.Hour),
	}
}

func loadReportsConfig() ReportsConfig {
	return ReportsConfig{
		ArtifactDir:         getEnv("REPORTS_ARTIFACT_DIR", "./artifacts"),
		DefaultLookbackDays: getEnvInt("REPORTS_DEFAULT_LOOKBACK_DAYS", 90),
		MaxSections:         getEnvInt("REPORTS_MAX_SECTIONS", 20),
	}
}

func loadRetentionConfig() RetentionConfig {
	return RetentionConfig{
		EventMaxAge: getEnvDuration("RETENTION_EVENT_MAX_AGE", 180*24*time.Hour),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	if c.App.Environment == EnvProduction && c.Database.URL == "" {
		errs = append(errs, "DATABASE_URL is required in production")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "SERVER_PORT must be 1-65535")
	}

	if c.Analysis.TrendEpsilonFraction < 0 {
		errs = append(errs, "ANALYSIS_TREND_EPSILON_FRACTION must be non-negative")
	}
	if c.Analysis.CorrelationAlpha <= 0 || c.Analysis.CorrelationAlpha >= 1 {
		errs = append(errs, "ANALYSIS_CORRELATION_ALPHA must be in (0, 1)")
	}
	if c.Analysis.AnomalyThreshold <= 0 {
		errs = append(errs, "ANALYSIS_ANOMALY_THRESHOLD must be positive")
	}
	if c.Analysis.MinCohortSize < 2 {
		errs = append(errs, "ANALYSIS_MIN_COHORT_SIZE must be at least 2")
	}

	if c.Prediction.DefaultHorizon <= 0 {
		errs = append(errs, "PREDICTION_DEFAULT_HORIZON must be positive")
	}
	if c.Prediction.MaxHorizon < c.Prediction.DefaultHorizon {
		errs = append(errs, "PREDICTION_MAX_HORIZON must be >= PREDICTION_DEFAULT_HORIZON")
	}

	if c.Reports.DefaultLookbackDays < 1 {
		errs = append(errs, "REPORTS_DEFAULT_LOOKBACK_DAYS must be at least 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == EnvDevelopment
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}

// UseMemoryStorage reports whether the service should fall back to
// in-memory repositories.
func (c *Config) UseMemoryStorage() bool {
	return c.Database.URL == ""
}

// --- Helper functions for environment variable parsing ---

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
