// Package config loads the pipeline configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// environment variables. The result is validated once and passed explicitly
// to every component that needs it; nothing here is global.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"fedpipeline/internal/domain"
)

// Config is the complete pipeline configuration.
type Config struct {
	API         APIConfig         `koanf:"api"`
	Credentials CredentialsConfig `koanf:"credentials"`
	Database    DatabaseConfig    `koanf:"database"`
	Schedule    ScheduleConfig    `koanf:"schedule"`
	Logging     LoggingConfig     `koanf:"logging"`
	History     HistoryConfig     `koanf:"history"`
	Metrics     MetricsConfig     `koanf:"metrics"`
}

// APIConfig describes the catalog API.
type APIConfig struct {
	BaseURL   string        `koanf:"base_url" validate:"required,url"`
	LoginPath string        `koanf:"login_path" validate:"required"`
	Timeout   time.Duration `koanf:"timeout" validate:"gt=0"`
	UserAgent string        `koanf:"user_agent"`
}

// CredentialsConfig is the identity used for the per-tick login.
type CredentialsConfig struct {
	Email    string `koanf:"email" validate:"required,email"`
	Password string `koanf:"password" validate:"required"`
}

// DatabaseConfig describes the destination database.
type DatabaseConfig struct {
	Driver   string `koanf:"driver" validate:"required,oneof=sqlserver postgres pgx mysql sqlite"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port" validate:"gte=0,lte=65535"`
	Instance string `koanf:"instance"`
	Name     string `koanf:"name"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	SSLMode  string `koanf:"ssl_mode"`
	Path     string `koanf:"path"`
	DSN      string `koanf:"dsn"`
}

// ScheduleConfig controls the tick cadence.
type ScheduleConfig struct {
	Interval   time.Duration `koanf:"interval" validate:"gte=1s"`
	RunOnStart bool          `koanf:"run_on_start"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	File   string `koanf:"file"`
}

// HistoryConfig enables the SQLite run history when Path is set.
type HistoryConfig struct {
	Path string `koanf:"path"`
}

// MetricsConfig enables the Prometheus listener when Addr is set.
type MetricsConfig struct {
	Addr string `koanf:"addr" validate:"omitempty,hostname_port"`
}

// Connection converts the database section into a domain connection.
func (d DatabaseConfig) Connection() *domain.DatabaseConnection {
	return &domain.DatabaseConnection{
		Driver:   domain.DatabaseDriver(d.Driver),
		Host:     d.Host,
		Port:     d.Port,
		Instance: d.Instance,
		Database: d.Name,
		Username: d.Username,
		Password: d.Password,
		SSLMode:  d.SSLMode,
		Path:     d.Path,
		DSN:      d.DSN,
	}
}

var validate = validator.New()

// Validate checks field constraints and the cross-field database rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	db := c.Database
	if db.DSN != "" {
		return nil
	}
	if db.Driver == string(domain.DatabaseDriverSQLite) {
		if db.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
		return nil
	}
	if db.Host == "" || db.Name == "" {
		return fmt.Errorf("database.host and database.name are required for the %s driver", db.Driver)
	}
	return nil
}
