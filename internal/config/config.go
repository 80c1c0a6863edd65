// Package config loads the engine configuration from a YAML file with
// environment-variable fallbacks for the common overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Jobs     JobsConfig     `yaml:"jobs"`
	Holidays HolidaysConfig `yaml:"holidays"`
	Notify   NotifyConfig   `yaml:"notify"`
}

// DatabaseConfig contains SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig contains the operational HTTP listener settings
// (health and metrics only; the engine has no request transport).
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// JobsConfig contains the cron specifications for the maintenance jobs.
type JobsConfig struct {
	Enabled bool `yaml:"enabled"`

	// AnnualResetSpec defaults to midnight on January 1st.
	AnnualResetSpec string `yaml:"annual_reset_spec"`

	// OverdueSweepSpec and RecurringSweepSpec default to nightly runs.
	OverdueSweepSpec   string `yaml:"overdue_sweep_spec"`
	RecurringSweepSpec string `yaml:"recurring_sweep_spec"`

	// BatchSize bounds how many memberships the annual reset loads per
	// query.
	BatchSize int `yaml:"batch_size"`
}

// HolidaysConfig points at the public-holiday provider.
type HolidaysConfig struct {
	BaseURL     string `yaml:"base_url"`
	CountryCode string `yaml:"country_code"`
}

// NotifyConfig sizes the in-process notification queue.
type NotifyConfig struct {
	QueueSize int `yaml:"queue_size"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./data/ownshare.db"},
		Server:   ServerConfig{Addr: ":8080"},
		Jobs: JobsConfig{
			Enabled:            true,
			AnnualResetSpec:    "0 0 1 1 *",
			OverdueSweepSpec:   "0 3 * * *",
			RecurringSweepSpec: "30 3 * * *",
			BatchSize:          500,
		},
		Holidays: HolidaysConfig{
			BaseURL:     "https://date.nager.at/api/v3/PublicHolidays",
			CountryCode: "PT",
		},
		Notify: NotifyConfig{QueueSize: 256},
	}
}

// Load reads the configuration from path, falling back to defaults for any
// field the file leaves unset. A missing file is not an error: defaults plus
// environment overrides apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to defaults
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.Addr = v
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Jobs.BatchSize <= 0 {
		return fmt.Errorf("jobs.batch_size must be positive")
	}
	if c.Notify.QueueSize <= 0 {
		return fmt.Errorf("notify.queue_size must be positive")
	}
	return nil
}
