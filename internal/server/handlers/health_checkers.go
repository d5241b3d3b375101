package handlers

import (
	"context"
	"fmt"

	"github.com/DataDrivenAngel/luma-mcp/internal/config"
)

// ConfigChecker reports unhealthy when the loaded configuration cannot
// support upstream traffic.
type ConfigChecker struct {
	Config *config.Config
}

func (c ConfigChecker) CheckHealth(ctx context.Context) error {
	if c.Config == nil {
		return fmt.Errorf("configuration not loaded")
	}
	return c.Config.Validate()
}

// SelfProber is the slice of the upstream client health checks need.
type SelfProber interface {
	GetSelf(ctx context.Context) (map[string]any, error)
}

// UpstreamChecker probes upstream connectivity with an authenticated
// call. It spends read-tier quota, so it is only registered when
// health.upstream_probe is enabled.
type UpstreamChecker struct {
	Client SelfProber
}

func (c UpstreamChecker) CheckHealth(ctx context.Context) error {
	if c.Client == nil {
		return fmt.Errorf("upstream client not configured")
	}
	_, err := c.Client.GetSelf(ctx)
	return err
}
