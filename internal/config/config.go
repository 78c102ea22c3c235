package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/courselens/pkg/database"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvCourselensEnv             = "COURSELENS_ENV"
	EnvCourselensShutdownTimeout = "COURSELENS_SHUTDOWN_TIMEOUT"
	EnvCourselensVersion         = "COURSELENS_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "COURSELENS_DB_HOST",
	Port:            "COURSELENS_DB_PORT",
	Name:            "COURSELENS_DB_NAME",
	User:            "COURSELENS_DB_USER",
	Password:        "COURSELENS_DB_PASSWORD",
	SSLMode:         "COURSELENS_DB_SSL_MODE",
	MaxOpenConns:    "COURSELENS_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "COURSELENS_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "COURSELENS_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "COURSELENS_DB_CONN_TIMEOUT",
}

// Config is the root configuration for the courselens service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	API             APIConfig       `toml:"api"`
	Log             LogConfig       `toml:"log"`
	Pipeline        PipelineConfig  `toml:"pipeline"`
	Jobs            JobsConfig      `toml:"jobs"`
	Delivery        DeliveryConfig  `toml:"delivery"`
	Keywords        KeywordsConfig  `toml:"keywords"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the COURSELENS_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvCourselensEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.API.Merge(&overlay.API)
	c.Log.Merge(&overlay.Log)
	c.Pipeline.Merge(&overlay.Pipeline)
	c.Jobs.Merge(&overlay.Jobs)
	c.Delivery.Merge(&overlay.Delivery)
	c.Keywords.Merge(&overlay.Keywords)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Log.Finalize(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := c.Pipeline.Finalize(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if err := c.Jobs.Finalize(); err != nil {
		return fmt.Errorf("jobs: %w", err)
	}
	if err := c.Delivery.Finalize(); err != nil {
		return fmt.Errorf("delivery: %w", err)
	}
	c.Keywords.Finalize()
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvCourselensShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvCourselensVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvCourselensEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
