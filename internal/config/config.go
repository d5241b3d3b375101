package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config is the complete application configuration. Values come from
// defaults, an optional YAML config file, and LUMA_* environment
// variables, in that order of precedence.
type Config struct {
	Luma    LumaConfig    `mapstructure:"luma"`
	Server  ServerConfig  `mapstructure:"server"`
	Inbound InboundConfig `mapstructure:"inbound"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Health  HealthConfig  `mapstructure:"health"`
}

// LumaConfig holds everything needed to talk to the upstream API:
// credentials, endpoint shape, retry policy, and the two traffic-tier
// quotas.
type LumaConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	BaseURL       string        `mapstructure:"base_url"`
	APIVersion    string        `mapstructure:"api_version"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRetries    int           `mapstructure:"max_retries"`
	BackoffFactor float64       `mapstructure:"backoff_factor"`
	ReadLimit     TierConfig    `mapstructure:"read_limit"`
	WriteLimit    TierConfig    `mapstructure:"write_limit"`
}

// TierConfig is the sliding-window quota for one traffic tier.
type TierConfig struct {
	MaxRequests   int           `mapstructure:"max_requests"`
	Window        time.Duration `mapstructure:"window"`
	BlockDuration time.Duration `mapstructure:"block_duration"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// InboundConfig is the per-client token bucket protecting the proxy
// itself, keyed by client IP.
type InboundConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}

// LoggingConfig contains logging configuration.
// Valid levels: trace, debug, info, warn, error.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Profile string `mapstructure:"profile"`
}

// MetricsConfig controls the Prometheus exporter.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// HealthConfig controls health endpoint behavior.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// UpstreamProbe enables the live upstream connectivity check in
	// readiness. It spends read-tier quota, so it is off by default.
	UpstreamProbe bool `mapstructure:"upstream_probe"`
}

// Validate reports configuration errors without exiting, so callers
// decide fatality.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Luma.APIKey) == "" {
		errs = append(errs, errors.New("luma.api_key is required (set LUMA_LUMA_API_KEY)"))
	}
	if c.Luma.MaxRetries < 0 {
		errs = append(errs, errors.New("luma.max_retries must not be negative"))
	}
	if c.Luma.BackoffFactor < 1 {
		errs = append(errs, fmt.Errorf("luma.backoff_factor must be >= 1, got %g", c.Luma.BackoffFactor))
	}
	if err := c.Luma.ReadLimit.validate("luma.read_limit"); err != nil {
		errs = append(errs, err)
	}
	if err := c.Luma.WriteLimit.validate("luma.write_limit"); err != nil {
		errs = append(errs, err)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Inbound.Enabled && c.Inbound.RPS <= 0 {
		errs = append(errs, errors.New("inbound.rps must be positive when inbound limiting is enabled"))
	}

	return errors.Join(errs...)
}

func (t TierConfig) validate(name string) error {
	if t.MaxRequests <= 0 {
		return fmt.Errorf("%s.max_requests must be positive, got %d", name, t.MaxRequests)
	}
	if t.Window <= 0 {
		return fmt.Errorf("%s.window must be positive, got %s", name, t.Window)
	}
	return nil
}
