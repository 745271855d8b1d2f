// Package config loads the jwtgate server configuration from a YAML file,
// an optional .env file and JWTGATE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/moonzhou/jwtgate/directory"
	"github.com/moonzhou/jwtgate/validator"
)

// EnvPrefix prefixes every environment variable, e.g. JWTGATE_SERVER_ADDR.
const EnvPrefix = "JWTGATE"

// DriverMemory keeps users in process memory. It is meant for demos.
const DriverMemory = "memory"

// Config represents the complete server configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig selects the user directory backend
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // memory, sqlite, postgres
	DSN    string `mapstructure:"dsn"`

	// Seed lists "id:secret" users saved at startup.
	Seed []string `mapstructure:"seed"`
}

// RedisConfig enables the user cache when URL is set
type RedisConfig struct {
	URL string        `mapstructure:"url"`
	TTL time.Duration `mapstructure:"ttl"`
}

// AuthConfig holds token verification and routing configuration
type AuthConfig struct {
	Algorithm string        `mapstructure:"algorithm"`
	ClockSkew time.Duration `mapstructure:"clock_skew"`
	Protected []string      `mapstructure:"protected"` // "METHOD /path" patterns
	Public    []string      `mapstructure:"public"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // text, json
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// TracingConfig enables OTLP span export when Endpoint is set
type TracingConfig struct {
	Endpoint    string `mapstructure:"endpoint"`
	Insecure    bool   `mapstructure:"insecure"`
	ServiceName string `mapstructure:"service_name"`
}

// MetricsConfig holds Prometheus exposition configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration. configFile may be empty, in which case
// config.yaml is searched in ./config and the working directory and may be
// absent. envFile is loaded into the environment first when it
// exists; variables already set win.
func Load(configFile, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error loading env file: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.shutdown_timeout", "15s")

	v.SetDefault("database.driver", DriverMemory)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.seed", []string{})

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.ttl", directory.DefaultCacheTTL.String())

	v.SetDefault("auth.algorithm", string(validator.HS256))
	v.SetDefault("auth.clock_skew", "0s")
	v.SetDefault("auth.protected", []string{"GET /users/{id}"})
	v.SetDefault("auth.public", []string{"GET /health"})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)

	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", false)
	v.SetDefault("tracing.service_name", "jwtgate")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}

	switch c.Database.Driver {
	case DriverMemory:
	case string(directory.SQLite), string(directory.Postgres):
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}

	for _, entry := range c.Database.Seed {
		if _, _, err := ParseSeed(entry); err != nil {
			return err
		}
	}

	if c.Redis.URL != "" && c.Redis.TTL <= 0 {
		return errors.New("redis.ttl must be positive")
	}

	if _, err := validator.New(
		validator.WithAlgorithm(validator.SignatureAlgorithm(c.Auth.Algorithm)),
		validator.WithAllowedClockSkew(c.Auth.ClockSkew),
	); err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("unsupported logging.format %q", c.Logging.Format)
	}

	return nil
}

// ParseSeed splits a database.seed entry into a user id and secret.
func ParseSeed(entry string) (id, secret string, err error) {
	id, secret, ok := strings.Cut(entry, ":")
	if !ok || id == "" || secret == "" {
		return "", "", fmt.Errorf("database.seed entry %q must be \"id:secret\"", entry)
	}
	return id, secret, nil
}
