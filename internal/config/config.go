// Package config provides configuration management using viper.
// It supports loading from YAML files, an optional .env file and environment
// variable overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backends.
const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	Log         LogConfig         `mapstructure:"log"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	SQLite      SQLiteConfig      `mapstructure:"sqlite"`
	Progression ProgressionConfig `mapstructure:"progression"`
	Games       GamesConfig       `mapstructure:"games"`
	Play        PlayConfig        `mapstructure:"play"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// StorageConfig selects the progression backend.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	ConnectRetries  int           `mapstructure:"connect_retries"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr           string        `mapstructure:"addr"`
	Password       string        `mapstructure:"password"`
	DB             int           `mapstructure:"db"`
	KeyPrefix      string        `mapstructure:"key_prefix"`
	TTL            time.Duration `mapstructure:"ttl"`
	HistoryLimit   int           `mapstructure:"history_limit"`
	ConnectRetries int           `mapstructure:"connect_retries"`
}

// SQLiteConfig holds the embedded database location.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// ProgressionConfig holds bonus accrual and daily limit settings.
type ProgressionConfig struct {
	BonusResetValue         int `mapstructure:"bonus_reset_value"`
	ReferenceUTCOffsetHours int `mapstructure:"reference_utc_offset_hours"`
}

// GamesConfig holds the playable modes.
type GamesConfig struct {
	DefaultMode string       `mapstructure:"default_mode"`
	Modes       []ModeConfig `mapstructure:"modes"`
}

// ModeConfig describes one board layout.
type ModeConfig struct {
	Command     string `mapstructure:"command"`
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
	DoorCount   int    `mapstructure:"door_count"`
	RevealCount int    `mapstructure:"reveal_count"`
}

// PlayConfig holds play session settings.
type PlayConfig struct {
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
	// RandomSeed makes rounds reproducible when non-zero. Leave it at 0 in
	// production so prize placement uses crypto/rand.
	RandomSeed int64 `mapstructure:"random_seed"`
}

// MetricsConfig holds the Prometheus endpoint configuration.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
	Path string `mapstructure:"path"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in configPath, the working directory and ./config.
func Load(configPath string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase,
	// e.g. STORAGE_BACKEND, DATABASE_HOST, REDIS_ADDR
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values viper cannot type-check.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendPostgres, BackendRedis, BackendSQLite:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Progression.BonusResetValue <= 0 {
		return fmt.Errorf("progression.bonus_reset_value must be positive, got %d", c.Progression.BonusResetValue)
	}
	if off := c.Progression.ReferenceUTCOffsetHours; off < -12 || off > 14 {
		return fmt.Errorf("progression.reference_utc_offset_hours out of range: %d", off)
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")

	v.SetDefault("storage.backend", BackendPostgres)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "doorgame")
	v.SetDefault("database.name", "doorgame")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.connect_retries", 5)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Redis defaults
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "doorgame:")
	v.SetDefault("redis.ttl", "0s")
	v.SetDefault("redis.history_limit", 100)
	v.SetDefault("redis.connect_retries", 5)

	v.SetDefault("sqlite.path", "data/doorgame.db")

	// Progression defaults
	v.SetDefault("progression.bonus_reset_value", 5)
	v.SetDefault("progression.reference_utc_offset_hours", -5)

	v.SetDefault("games.default_mode", "classic")

	v.SetDefault("play.lock_timeout", "2s")
	v.SetDefault("play.random_seed", 0)

	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("metrics.path", "/metrics")
}
