package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/fedpipeline/config.yaml",
}

const (
	// ConfigPathEnvVar overrides the config file location.
	ConfigPathEnvVar = "FEDPIPELINE_CONFIG"

	// EnvPrefix marks environment overrides. A double underscore separates
	// sections: FEDPIPELINE_DATABASE__HOST -> database.host.
	EnvPrefix = "FEDPIPELINE_"
)

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   "https://teambmockapi-569115112148.us-central1.run.app/api/v1",
			LoginPath: "/users/login",
			Timeout:   30 * time.Second,
			UserAgent: "fedpipeline",
		},
		Database: DatabaseConfig{
			Driver:   "sqlserver",
			Host:     "localhost",
			Instance: "SQLEXPRESS",
			Name:     "eReserveData",
		},
		Schedule: ScheduleConfig{
			Interval: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			File:   "pipeline.log",
		},
	}
}

// Load builds the configuration: defaults, then the config file if one is
// found, then FEDPIPELINE_* environment variables.
func Load() (*Config, error) {
	return LoadFrom(findConfigFile())
}

// LoadFrom is Load with an explicit config file path; empty skips the file.
func LoadFrom(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// envTransform maps FEDPIPELINE_API__BASE_URL to api.base_url.
func envTransform(key string) string {
	key = strings.TrimPrefix(key, EnvPrefix)
	if key == "CONFIG" {
		return ""
	}
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
