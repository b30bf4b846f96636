package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Firewatch Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	API      APIConfig      `yaml:"api"`
	Provider ProviderConfig `yaml:"provider"`
	Fleet    FleetConfig    `yaml:"fleet"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// ProviderConfig contains irrigation-provider API settings.
type ProviderConfig struct {
	// BaseURL is the root of the provider's REST API.
	BaseURL string `yaml:"base_url"`

	// Timeout is the per-request timeout in seconds. Every outbound call
	// to the provider carries this deadline; no call blocks indefinitely.
	Timeout int `yaml:"timeout"`

	// ZoneRunSeconds is the run duration requested per zone when starting
	// all zones on a device.
	ZoneRunSeconds int `yaml:"zone_run_seconds"`
}

// FleetConfig contains fleet snapshot fan-out settings.
type FleetConfig struct {
	// MaxConcurrent caps the number of devices fetched simultaneously
	// during a snapshot. Zero or negative means no cap.
	MaxConcurrent int `yaml:"max_concurrent"`

	// SnapshotTimeout is the global budget in seconds for one snapshot;
	// devices still outstanding at the deadline report status "unknown".
	SnapshotTimeout int `yaml:"snapshot_timeout"`

	// RefreshOwnerInfo controls whether snapshots re-resolve provider
	// account details per API key so owner name/email in the response
	// reflect the provider rather than the denormalised registration copy.
	// The stored device record is never updated either way.
	RefreshOwnerInfo bool `yaml:"refresh_owner_info"`
}

// InfluxDBConfig contains InfluxDB connection settings for the optional
// watering-history sink.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from the given path, applies environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:        "./data/firewatch.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  15,
				Write: 30,
				Idle:  60,
			},
		},
		Provider: ProviderConfig{
			BaseURL:        "https://api.rach.io/1/public",
			Timeout:        10,
			ZoneRunSeconds: 600,
		},
		Fleet: FleetConfig{
			MaxConcurrent:   8,
			SnapshotTimeout: 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies FIREWATCH_* environment variables over the
// file-based configuration. Only values that should differ between
// deployments (paths, hosts, secrets) are overridable.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FIREWATCH_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("FIREWATCH_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("FIREWATCH_PROVIDER_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("FIREWATCH_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.Provider.BaseURL == "" {
		errs = append(errs, "provider.base_url is required")
	}
	if c.Provider.Timeout < 1 {
		errs = append(errs, "provider.timeout must be at least 1 second")
	}

	if c.Fleet.SnapshotTimeout < 1 {
		errs = append(errs, "fleet.snapshot_timeout must be at least 1 second")
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb is enabled (set FIREWATCH_INFLUXDB_TOKEN)")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetProviderTimeout returns the per-call provider timeout as a Duration.
func (c *Config) GetProviderTimeout() time.Duration {
	return time.Duration(c.Provider.Timeout) * time.Second
}

// GetSnapshotTimeout returns the global fleet snapshot budget as a Duration.
func (c *Config) GetSnapshotTimeout() time.Duration {
	return time.Duration(c.Fleet.SnapshotTimeout) * time.Second
}
