package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvJobsEnabled          = "COURSELENS_JOBS_ENABLED"
	EnvJobsRunOnStart       = "COURSELENS_JOBS_RUN_ON_START"
	EnvJobsEnrichInterval   = "COURSELENS_JOBS_ENRICH_INTERVAL"
	EnvJobsRetagInterval    = "COURSELENS_JOBS_RETAG_INTERVAL"
	EnvJobsDemandInterval   = "COURSELENS_JOBS_DEMAND_INTERVAL"
	EnvJobsDispatchInterval = "COURSELENS_JOBS_DISPATCH_INTERVAL"
)

// JobsConfig controls the cadence of the batch passes.
// An interval of "0s" disables scheduled runs of that job; it can still be
// triggered manually.
type JobsConfig struct {
	Enabled          *bool  `toml:"enabled"`
	RunOnStart       bool   `toml:"run_on_start"`
	EnrichInterval   string `toml:"enrich_interval"`
	RetagInterval    string `toml:"retag_interval"`
	DemandInterval   string `toml:"demand_interval"`
	DispatchInterval string `toml:"dispatch_interval"`
}

// IsEnabled reports whether scheduled runs are enabled.
func (c *JobsConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Intervals returns the parsed interval per job name.
func (c *JobsConfig) Intervals() map[string]time.Duration {
	parse := func(s string) time.Duration {
		d, _ := time.ParseDuration(s)
		return d
	}
	return map[string]time.Duration{
		"enrich":   parse(c.EnrichInterval),
		"retag":    parse(c.RetagInterval),
		"demand":   parse(c.DemandInterval),
		"dispatch": parse(c.DispatchInterval),
	}
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *JobsConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *JobsConfig) Merge(overlay *JobsConfig) {
	if overlay.Enabled != nil {
		c.Enabled = overlay.Enabled
	}
	if overlay.RunOnStart {
		c.RunOnStart = true
	}
	if overlay.EnrichInterval != "" {
		c.EnrichInterval = overlay.EnrichInterval
	}
	if overlay.RetagInterval != "" {
		c.RetagInterval = overlay.RetagInterval
	}
	if overlay.DemandInterval != "" {
		c.DemandInterval = overlay.DemandInterval
	}
	if overlay.DispatchInterval != "" {
		c.DispatchInterval = overlay.DispatchInterval
	}
}

func (c *JobsConfig) loadDefaults() {
	if c.EnrichInterval == "" {
		c.EnrichInterval = "24h"
	}
	if c.RetagInterval == "" {
		c.RetagInterval = "4h"
	}
	if c.DemandInterval == "" {
		c.DemandInterval = "4h5m"
	}
	if c.DispatchInterval == "" {
		c.DispatchInterval = "15m"
	}
}

func (c *JobsConfig) loadEnv() {
	if v := os.Getenv(EnvJobsEnabled); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Enabled = &enabled
		}
	}
	if v := os.Getenv(EnvJobsRunOnStart); v != "" {
		if run, err := strconv.ParseBool(v); err == nil {
			c.RunOnStart = run
		}
	}
	if v := os.Getenv(EnvJobsEnrichInterval); v != "" {
		c.EnrichInterval = v
	}
	if v := os.Getenv(EnvJobsRetagInterval); v != "" {
		c.RetagInterval = v
	}
	if v := os.Getenv(EnvJobsDemandInterval); v != "" {
		c.DemandInterval = v
	}
	if v := os.Getenv(EnvJobsDispatchInterval); v != "" {
		c.DispatchInterval = v
	}
}

func (c *JobsConfig) validate() error {
	intervals := map[string]string{
		"enrich_interval":   c.EnrichInterval,
		"retag_interval":    c.RetagInterval,
		"demand_interval":   c.DemandInterval,
		"dispatch_interval": c.DispatchInterval,
	}
	for name, v := range intervals {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}
