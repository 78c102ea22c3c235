package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

const (
	EnvDeliveryWebhookURL       = "COURSELENS_DELIVERY_WEBHOOK_URL"
	EnvDeliveryTimeout          = "COURSELENS_DELIVERY_TIMEOUT"
	EnvDeliveryRatePerSecond    = "COURSELENS_DELIVERY_RATE_PER_SECOND"
	EnvDeliveryBurst            = "COURSELENS_DELIVERY_BURST"
	EnvDeliveryBreakerThreshold = "COURSELENS_DELIVERY_BREAKER_THRESHOLD"
	EnvDeliveryBreakerTimeout   = "COURSELENS_DELIVERY_BREAKER_TIMEOUT"
	EnvDeliveryBatchSize        = "COURSELENS_DELIVERY_BATCH_SIZE"
)

// DeliveryConfig configures the outbound notification deliverer.
// With no webhook URL, notifications are delivered to the log.
type DeliveryConfig struct {
	WebhookURL       string  `toml:"webhook_url"`
	Timeout          string  `toml:"timeout"`
	RatePerSecond    float64 `toml:"rate_per_second"`
	Burst            int     `toml:"burst"`
	BreakerThreshold uint32  `toml:"breaker_threshold"`
	BreakerTimeout   string  `toml:"breaker_timeout"`
	BatchSize        int     `toml:"batch_size"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *DeliveryConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// BreakerTimeoutDuration returns BreakerTimeout as a time.Duration.
func (c *DeliveryConfig) BreakerTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.BreakerTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *DeliveryConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *DeliveryConfig) Merge(overlay *DeliveryConfig) {
	if overlay.WebhookURL != "" {
		c.WebhookURL = overlay.WebhookURL
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.RatePerSecond != 0 {
		c.RatePerSecond = overlay.RatePerSecond
	}
	if overlay.Burst != 0 {
		c.Burst = overlay.Burst
	}
	if overlay.BreakerThreshold != 0 {
		c.BreakerThreshold = overlay.BreakerThreshold
	}
	if overlay.BreakerTimeout != "" {
		c.BreakerTimeout = overlay.BreakerTimeout
	}
	if overlay.BatchSize != 0 {
		c.BatchSize = overlay.BatchSize
	}
}

func (c *DeliveryConfig) loadDefaults() {
	if c.Timeout == "" {
		c.Timeout = "10s"
	}
	if c.RatePerSecond <= 0 {
		c.RatePerSecond = 5
	}
	if c.Burst <= 0 {
		c.Burst = 10
	}
	if c.BreakerThreshold == 0 {
		c.BreakerThreshold = 5
	}
	if c.BreakerTimeout == "" {
		c.BreakerTimeout = "1m"
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
}

func (c *DeliveryConfig) loadEnv() {
	if v := os.Getenv(EnvDeliveryWebhookURL); v != "" {
		c.WebhookURL = v
	}
	if v := os.Getenv(EnvDeliveryTimeout); v != "" {
		c.Timeout = v
	}
	if v := os.Getenv(EnvDeliveryRatePerSecond); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.RatePerSecond = f
		}
	}
	if v := os.Getenv(EnvDeliveryBurst); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Burst = n
		}
	}
	if v := os.Getenv(EnvDeliveryBreakerThreshold); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			c.BreakerThreshold = uint32(n)
		}
	}
	if v := os.Getenv(EnvDeliveryBreakerTimeout); v != "" {
		c.BreakerTimeout = v
	}
	if v := os.Getenv(EnvDeliveryBatchSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.BatchSize = n
		}
	}
}

func (c *DeliveryConfig) validate() error {
	if c.WebhookURL != "" {
		u, err := url.Parse(c.WebhookURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid webhook_url: %q", c.WebhookURL)
		}
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.BreakerTimeout); err != nil {
		return fmt.Errorf("invalid breaker_timeout: %w", err)
	}
	return nil
}
