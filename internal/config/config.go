package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Storage drivers
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
	StorageRedis    = "redis"
)

// Config holds all configuration for our application
type Config struct {
	Server   ServerConfig   `mapstructure:",squash"`
	Storage  StorageConfig  `mapstructure:",squash"`
	Database DatabaseConfig `mapstructure:",squash"`
	Redis    RedisConfig    `mapstructure:",squash"`
	Reminder ReminderConfig `mapstructure:",squash"`
	Logging  LoggingConfig  `mapstructure:",squash"`
	Business BusinessConfig `mapstructure:",squash"`
	Health   HealthConfig   `mapstructure:",squash"`
	Metrics  MetricsConfig  `mapstructure:",squash"`
}

type ServerConfig struct {
	Port string `mapstructure:"SERVER_PORT"`
	Host string `mapstructure:"SERVER_HOST"`
	Env  string `mapstructure:"ENV"`
}

type StorageConfig struct {
	Driver      string `mapstructure:"STORAGE_DRIVER"`
	SnapshotKey string `mapstructure:"SNAPSHOT_KEY"`
}

type DatabaseConfig struct {
	URL        string `mapstructure:"DATABASE_URL"`
	SQLitePath string `mapstructure:"SQLITE_PATH"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"REDIS_ADDR"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type ReminderConfig struct {
	Days int    `mapstructure:"REMINDER_DAYS"`
	Cron string `mapstructure:"REMINDER_CRON"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

type BusinessConfig struct {
	DefaultMinPaymentRate    string `mapstructure:"DEFAULT_MIN_PAYMENT_RATE"`
	BackfillPastInstallments bool   `mapstructure:"BACKFILL_PAST_INSTALLMENTS"`
}

type HealthConfig struct {
	Timeout string `mapstructure:"HEALTH_CHECK_TIMEOUT"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"METRICS_ENABLED"`
}

var keys = []string{
	"SERVER_PORT", "SERVER_HOST", "ENV",
	"STORAGE_DRIVER", "SNAPSHOT_KEY",
	"DATABASE_URL", "SQLITE_PATH",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"REMINDER_DAYS", "REMINDER_CRON",
	"LOG_LEVEL", "LOG_FORMAT",
	"DEFAULT_MIN_PAYMENT_RATE", "BACKFILL_PAST_INSTALLMENTS",
	"HEALTH_CHECK_TIMEOUT",
	"METRICS_ENABLED",
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	// .env values never override variables already set in the environment
	_ = godotenv.Load()

	v := viper.New()

	// Set defaults
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("ENV", "development")
	v.SetDefault("STORAGE_DRIVER", StorageMemory)
	v.SetDefault("SNAPSHOT_KEY", "debtRecords")
	v.SetDefault("SQLITE_PATH", "debt.db")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REMINDER_DAYS", 3)
	v.SetDefault("REMINDER_CRON", "0 0 9 * * *")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("DEFAULT_MIN_PAYMENT_RATE", "0.10")
	v.SetDefault("BACKFILL_PAST_INSTALLMENTS", true)
	v.SetDefault("HEALTH_CHECK_TIMEOUT", "5s")
	v.SetDefault("METRICS_ENABLED", true)

	// Read from environment variables
	v.AutomaticEnv()
	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	// Try to read from a deployments/.env file (optional)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath("./deployments")

	// Don't fail if .env file doesn't exist
	_ = v.ReadInConfig()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	switch strings.ToLower(c.Storage.Driver) {
	case StorageMemory:
	case StoragePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	case StorageSQLite:
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
		}
	case StorageRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis driver")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER %q is not supported", c.Storage.Driver)
	}

	if c.Storage.SnapshotKey == "" {
		return fmt.Errorf("SNAPSHOT_KEY is required")
	}

	if c.Reminder.Days <= 0 {
		return fmt.Errorf("REMINDER_DAYS must be greater than 0")
	}

	// Validate min payment rate
	rate, err := decimal.NewFromString(c.Business.DefaultMinPaymentRate)
	if err != nil {
		return fmt.Errorf("DEFAULT_MIN_PAYMENT_RATE must be a valid decimal: %w", err)
	}
	if rate.LessThan(decimal.RequireFromString("0.05")) || rate.GreaterThan(decimal.RequireFromString("0.3")) {
		return fmt.Errorf("DEFAULT_MIN_PAYMENT_RATE must be between 0.05 and 0.30")
	}

	// Validate reminder schedule
	if _, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow).Parse(c.Reminder.Cron); err != nil {
		return fmt.Errorf("REMINDER_CRON must be a valid cron expression: %w", err)
	}

	// Validate health check timeout
	if _, err := time.ParseDuration(c.Health.Timeout); err != nil {
		return fmt.Errorf("HEALTH_CHECK_TIMEOUT must be a valid duration: %w", err)
	}

	return nil
}

// GetDefaultMinPaymentRate returns the default minimum payment rate as decimal
func (c *Config) GetDefaultMinPaymentRate() decimal.Decimal {
	rate, _ := decimal.NewFromString(c.Business.DefaultMinPaymentRate)
	return rate
}

// GetHealthTimeout returns the health check timeout as duration
func (c *Config) GetHealthTimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.Health.Timeout)
	return timeout
}
