package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/jpalmerr/scopestate"
	"github.com/jpalmerr/scopestate/config"
	"github.com/jpalmerr/scopestate/internal/server"
	"github.com/jpalmerr/scopestate/internal/watch"
	"github.com/jpalmerr/scopestate/store"
)

// shutdownGrace is added to the configured shutdown timeout before the
// CLI gives up waiting.
const shutdownGrace = time.Second

// newLogger creates a JSON logger for CLI use.
func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// serveCmd starts the scopestate server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the store server",
	Long: `Start the scopestate server.

The server will:
  - Load scopes and their initial values from the config file
  - Serve them over REST, Server-Sent Events and WebSocket
  - Expose Prometheus metrics at /metrics when "metrics: true"
  - With --watch, write every configured value whenever the file is edited

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  scopestate serve -c seed.yaml
  scopestate serve --config /etc/scopestate/seed.toml --watch`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	serveCmd.Flags().BoolP("watch", "w", false, "re-apply scope values when the config file changes")
	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	watchConfig, _ := cmd.Flags().GetBool("watch")

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(cfg.SlogLevel())
	logger.Info("config loaded",
		"scopes", len(cfg.Scopes),
		"metrics", cfg.Metrics,
		"watch", watchConfig,
	)

	catalog, err := config.BuildCatalog(cfg)
	if err != nil {
		return fmt.Errorf("failed to build scopes: %w", err)
	}

	storeOpts := []scopestate.Option{scopestate.WithLogger(logger)}
	serverOpts := []server.Option{
		server.WithPort(cfg.Port),
		server.WithLogger(logger),
		server.WithWriteTimeout(cfg.SSEWriteTimeout.Duration()),
		server.WithShutdownTimeout(cfg.ShutdownTimeout.Duration()),
	}

	if cfg.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		storeOpts = append(storeOpts, scopestate.WithMetrics(reg))
		serverOpts = append(serverOpts, server.WithGatherer(reg))
	}

	st, err := scopestate.New(storeOpts...)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	shared := store.NewShared(st)

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(shared, catalog, serverOpts...)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	if watchConfig {
		w := watch.New(configFile, watch.Reseed(shared, catalog, logger), logger)
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("failed to watch config: %w", err)
		}
		defer w.Stop()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	timeout := cfg.ShutdownTimeout.Duration() + shutdownGrace
	select {
	case <-srv.Done():
		logger.Info("shutdown complete")
	case <-time.After(timeout):
		logger.Warn("shutdown timed out",
			"timeout", timeout.String(),
			"action", "forcing exit",
		)
	}
	return nil
}
