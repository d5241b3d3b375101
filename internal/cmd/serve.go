package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	appconfig "github.com/DataDrivenAngel/luma-mcp/internal/config"
	errwrap "github.com/DataDrivenAngel/luma-mcp/internal/errors"
	"github.com/DataDrivenAngel/luma-mcp/internal/luma"
	"github.com/DataDrivenAngel/luma-mcp/internal/metrics"
	"github.com/DataDrivenAngel/luma-mcp/internal/observability"
	"github.com/DataDrivenAngel/luma-mcp/internal/ratelimit"
	"github.com/DataDrivenAngel/luma-mcp/internal/server"
	"github.com/DataDrivenAngel/luma-mcp/internal/server/handlers"
)

var (
	serverPort int
	serverHost string
)

// signalHealthChecker implements HealthChecker for the signal system
type signalHealthChecker struct{}

func (s signalHealthChecker) CheckHealth(ctx context.Context) error {
	return nil // Signal handlers are registered and ready
}

// telemetryHealthChecker ensures telemetry system and exporter are available
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errwrap.NewInternalError("telemetry system not initialized")
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP proxy server with graceful shutdown support.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Config reload (limiter quotas require restart)

The server will cleanly shut down the HTTP server and flush logs on shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := appCfg

		if cmd.Flags().Changed("host") {
			cfg.Server.Host = serverHost
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = serverPort
		}

		if err := cfg.Validate(); err != nil {
			ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Invalid configuration", err)
		}

		// Initialize server logger
		observability.InitServerLogger(appName, cfg.Logging.Level)

		if cfg.Metrics.Enabled {
			if err := observability.InitMetrics(appName, cfg.Metrics.Port); err != nil {
				observability.ServerLogger.Error("Failed to initialize metrics",
					zap.Error(err))
				return errwrap.WrapInternal(cmd.Context(), err, "metrics initialization failed")
			}
		}

		observability.ServerLogger.Info("Initializing server",
			zap.String("service", appName),
			zap.String("version", versionInfo.Version),
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port),
			zap.Int("metrics_port", observability.GetMetricsPort()))

		// Shared limiters: one per traffic tier for the whole process.
		readLimiter := &ratelimit.Limiter{BackoffFactor: cfg.Luma.BackoffFactor}
		writeLimiter := &ratelimit.Limiter{BackoffFactor: cfg.Luma.BackoffFactor}

		client, err := luma.New(luma.Config{
			APIKey:        cfg.Luma.APIKey,
			BaseURL:       cfg.Luma.BaseURL,
			APIVersion:    cfg.Luma.APIVersion,
			Timeout:       cfg.Luma.Timeout,
			MaxRetries:    cfg.Luma.MaxRetries,
			BackoffFactor: cfg.Luma.BackoffFactor,
			ReadLimit:     tierLimit(cfg.Luma.ReadLimit),
			WriteLimit:    tierLimit(cfg.Luma.WriteLimit),
		}, readLimiter, writeLimiter)
		if err != nil {
			ExitWithCode(observability.ServerLogger, foundry.ExitConfigInvalid, "Failed to build upstream client", err)
		}
		client.Logger = observability.ServerLogger

		// Initialize health manager
		hm := handlers.NewHealthManager(versionInfo.Version)
		hm.RegisterChecker("signal_handlers", signalHealthChecker{})
		hm.RegisterChecker("config", handlers.ConfigChecker{Config: cfg})
		if cfg.Metrics.Enabled {
			hm.RegisterChecker("telemetry", telemetryHealthChecker{})
		}
		if cfg.Health.UpstreamProbe {
			hm.RegisterChecker("upstream", handlers.UpstreamChecker{Client: client})
		}

		// Create server
		srv := server.New(cfg, client, hm)

		handlers.SetVersionInfo(appName, versionInfo.Version, versionInfo.Commit, versionInfo.BuildDate)
		metrics.SetServerStartTime(time.Now().Unix())

		shutdownTimeout := cfg.Server.ShutdownTimeout
		if shutdownTimeout == 0 {
			shutdownTimeout = 10 * time.Second
		}

		// Register graceful shutdown handlers (LIFO order - last registered, first executed)
		// Handler 1: Flush logger (executed last)
		signals.OnShutdown(func(ctx context.Context) error {
			observability.ServerLogger.Info("Flushing logger...")
			if err := observability.ServerLogger.Sync(); err != nil {
				// Sync errors are often benign (stdout/stderr already closed)
				observability.ServerLogger.Warn("Logger sync returned error (may be benign)",
					zap.Error(err))
			}
			return nil
		})

		// Handler 2: Shutdown HTTP server (executed first)
		signals.OnShutdown(func(ctx context.Context) error {
			observability.ServerLogger.Info("Shutting down HTTP server...")
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return errwrap.WrapInternal(ctx, err, "server shutdown failed")
			}

			observability.ServerLogger.Info("HTTP server stopped gracefully")
			return nil
		})

		// Register config reload handler (SIGHUP)
		signals.OnReload(func(ctx context.Context) error {
			observability.ServerLogger.Info("Received SIGHUP: attempting config reload")

			reloaded, err := appconfig.Load(cfgFile)
			if err != nil {
				observability.ServerLogger.Error("Failed to reload config",
					zap.Error(err))
				return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
			}
			if err := reloaded.Validate(); err != nil {
				observability.ServerLogger.Error("Reloaded config is invalid, keeping current settings",
					zap.Error(err))
				return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
			}

			observability.ServerLogger.Info("Configuration reloaded",
				zap.String("note", "limiter quotas and server address require restart to take effect"))
			return nil
		})

		// Enable double-tap force quit (Ctrl+C within 2 seconds)
		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			observability.ServerLogger.Warn("Failed to enable double-tap force quit",
				zap.Error(err))
		}

		// Start server in background goroutine
		errChan := make(chan error, 1)
		go func() {
			observability.ServerLogger.Info("Starting HTTP server...",
				zap.String("host", cfg.Server.Host),
				zap.Int("port", cfg.Server.Port))
			if err := srv.Start(); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		}()

		// Start signal listener in background
		go func() {
			if err := signals.Listen(cmd.Context()); err != nil {
				observability.ServerLogger.Error("Signal handler error", zap.Error(err))
				errChan <- err
			}
		}()

		// Wait for error or shutdown completion
		if err := <-errChan; err != nil {
			return errwrap.WrapInternal(cmd.Context(), err, "server error")
		}

		return nil
	},
}

func tierLimit(tier appconfig.TierConfig) luma.TierLimit {
	return luma.TierLimit{
		MaxRequests:   tier.MaxRequests,
		Window:        tier.Window,
		BlockDuration: tier.BlockDuration,
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "localhost", "server host")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8000, "server port")
}
