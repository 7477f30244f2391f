// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	// Load .env file to environments
	_ "github.com/joho/godotenv/autoload"
)

// Config is the whole service configuration
type Config struct {
	Port               int      `env:"PORT" envDefault:"8080"`
	SecretKey          string   `env:"SECRET_KEY,notEmpty"`
	AllowOrigins       []string `env:"ALLOW_ORIGIN" envSeparator:","`
	RateLimitPerSecond int      `env:"RATE_LIMIT_REQUESTS_PER_SECOND" envDefault:"5"`

	Logging      bool   `env:"LOGGING" envDefault:"false"`
	AuditLogPath string `env:"AUDIT_LOG_PATH" envDefault:"log/workflow.log"`

	WSSendBuffer int `env:"WS_SEND_BUFFER" envDefault:"64"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"OTEL_ENABLED" envDefault:"true"`

	Database Database
}

// Database holds the parameters for connecting to PostgreSQL
type Database struct {
	Host     string `env:"DB_HOST"`
	Port     string `env:"DB_PORT"`
	User     string `env:"DB_USERNAME"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_DATABASE"`

	UseConnectionString bool   `env:"USE_CONNECTION_STR" envDefault:"false"`
	ConnectionString    string `env:"DB_CONNECTION_STR"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.RateLimitPerSecond <= 0 {
		cfg.RateLimitPerSecond = 5 // ensure rate limit is positive
	}
	return cfg, nil
}

// LoadDatabase parses only the database part, for tools that never serve HTTP.
func LoadDatabase() (*Database, error) {
	db := &Database{}
	if err := env.Parse(db); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return db, nil
}

// DSN builds the connection string.
func (d Database) DSN() (string, error) {
	if d.UseConnectionString {
		if d.ConnectionString == "" {
			return "", errors.New("DB_CONNECTION_STR is empty")
		}
		return d.ConnectionString, nil
	}
	if d.Host == "" || d.Port == "" || d.User == "" || d.Password == "" || d.Name == "" {
		return "", errors.New("database configuration is incomplete")
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", d.User, d.Password, d.Host, d.Port, d.Name), nil
}
