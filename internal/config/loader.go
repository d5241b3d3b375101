// Package config provides centralized configuration management for the
// proxy. Precedence is defaults, then an optional YAML file, then
// LUMA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

var (
	appConfig *Config
	configMu  sync.RWMutex
)

// Load reads configuration from defaults, the given config file (may be
// empty), and the environment. It does not validate; callers run
// Validate when they need a usable upstream client.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LUMA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	configMu.Lock()
	appConfig = &cfg
	configMu.Unlock()

	return &cfg, nil
}

// Get returns the last loaded configuration, loading defaults when
// nothing was loaded yet.
func Get() *Config {
	configMu.RLock()
	cfg := appConfig
	configMu.RUnlock()
	if cfg != nil {
		return cfg
	}

	loaded, err := Load("")
	if err != nil {
		// Defaults alone cannot fail to decode; an unreadable stray
		// config file falls back to zero values.
		return &Config{}
	}
	return loaded
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("luma.api_key", "")
	v.SetDefault("luma.base_url", "https://api.lu.ma")
	v.SetDefault("luma.api_version", "public/v1")
	v.SetDefault("luma.timeout", 30*time.Second)
	v.SetDefault("luma.max_retries", 3)
	v.SetDefault("luma.backoff_factor", 2.0)

	v.SetDefault("luma.read_limit.max_requests", 500)
	v.SetDefault("luma.read_limit.window", 300*time.Second)
	v.SetDefault("luma.read_limit.block_duration", 60*time.Second)
	v.SetDefault("luma.write_limit.max_requests", 100)
	v.SetDefault("luma.write_limit.window", 300*time.Second)
	v.SetDefault("luma.write_limit.block_duration", 60*time.Second)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("inbound.enabled", true)
	v.SetDefault("inbound.rps", 10.0)
	v.SetDefault("inbound.burst", 20)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "structured")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("health.enabled", true)
	v.SetDefault("health.upstream_probe", false)
}
