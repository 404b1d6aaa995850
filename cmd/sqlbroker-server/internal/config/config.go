// Package config provides configuration management for the sqlbroker standalone server.
// It loads settings from environment variables (and an optional .env file) with sensible defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the sqlbroker server.
type Config struct {
	Server   ServerConfig   `envPrefix:"SERVER_"`
	Database DatabaseConfig `envPrefix:"DB_"`
	Broker   BrokerConfig   `envPrefix:"BROKER_"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port int    `env:"PORT" envDefault:"8080"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Driver   string `env:"DRIVER" envDefault:"mysql"` // mysql, postgres, sqlite3
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     int    `env:"PORT" envDefault:"3306"`
	User     string `env:"USER" envDefault:"sqlbroker"`
	Password string `env:"PASSWORD"`
	Database string `env:"NAME" envDefault:"sqlbroker"` // File path for sqlite3
	Prefix   string `env:"PREFIX"`                      // Table prefix (default: none)
}

// BrokerConfig holds broker-specific configuration.
type BrokerConfig struct {
	PollInterval        time.Duration `env:"POLL_INTERVAL" envDefault:"10s"`
	BatchSize           int           `env:"BATCH_SIZE" envDefault:"100"`
	Channels            []string      `env:"CHANNELS" envSeparator:","`     // Channels subscribed at startup
	Codec               string        `env:"CODEC" envDefault:"base64"`     // base64 or text
	StartAttempts       int           `env:"START_ATTEMPTS" envDefault:"5"` // Start retries while the database comes up
	EnableNotifications bool          `env:"ENABLE_NOTIFICATIONS" envDefault:"true"`
}

// Load loads configuration from a .env file, if present, and the environment.
// Follows 12-factor app principles - configuration via environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return parse(env.Options{})
}

// LoadFrom loads configuration from the given variables only.
func LoadFrom(environ map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Errors{
		"server":   c.Server.Validate(),
		"database": c.Database.Validate(),
		"broker":   c.Broker.Validate(),
	}.Filter()
}

// Validate checks the HTTP server configuration.
func (c ServerConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// Validate checks the database configuration.
// A password is required for every driver except sqlite3.
func (c DatabaseConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Driver, validation.Required, validation.In("mysql", "mariadb", "postgres", "postgresql", "sqlite3", "sqlite")),
		validation.Field(&c.Password, validation.When(!c.isSQLite(), validation.Required.Error("DB_PASSWORD is required"))),
		validation.Field(&c.Database, validation.Required),
		validation.Field(&c.Port, validation.When(!c.isSQLite(), validation.Required, validation.Min(1), validation.Max(65535))),
	)
}

// Validate checks the broker configuration.
func (c BrokerConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.PollInterval, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.BatchSize, validation.Required, validation.Min(1)),
		validation.Field(&c.Codec, validation.In("base64", "text")),
		validation.Field(&c.StartAttempts, validation.Required, validation.Min(1)),
	)
}

// GetDSN returns the database connection string based on driver.
func (c *DatabaseConfig) GetDSN() string {
	switch strings.ToLower(c.Driver) {
	case "mysql", "mariadb":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=UTC",
			c.User, c.Password, c.Host, c.Port, c.Database)
	case "postgres", "postgresql":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			c.Host, c.Port, c.User, c.Password, c.Database)
	case "sqlite3", "sqlite":
		return c.Database // SQLite uses file path as DSN
	default:
		return ""
	}
}

// DriverName returns the database/sql driver registered for Driver.
func (c *DatabaseConfig) DriverName() string {
	switch strings.ToLower(c.Driver) {
	case "mysql", "mariadb":
		return "mysql"
	case "postgres", "postgresql":
		return "postgres"
	case "sqlite3", "sqlite":
		return "sqlite3"
	default:
		return c.Driver
	}
}

func (c DatabaseConfig) isSQLite() bool {
	driver := strings.ToLower(c.Driver)
	return driver == "sqlite3" || driver == "sqlite"
}
