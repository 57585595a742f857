package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/PredictChain/server/internal/api"
	"github.com/PredictChain/server/internal/api/handlers"
	"github.com/PredictChain/server/internal/audit"
	"github.com/PredictChain/server/internal/auth"
	"github.com/PredictChain/server/internal/config"
	"github.com/PredictChain/server/internal/metrics"
	"github.com/PredictChain/server/internal/telemetry"
)

type serveFlags struct {
	host string
	port int
}

func newServeCommand(opts *globalOptions) *cobra.Command {
	flags := serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the PredictChain HTTP server",
		Long: `Start the HTTP server and begin accepting API requests.

The server will:
- Load configuration from environment variables (and --config if provided)
- Connect to the configured event store
- Serve the events API, health probes and Prometheus metrics
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  # Start with default configuration (from env vars)
  server serve

  # Start on a specific host and port
  server serve --host 127.0.0.1 --port 9090

  # Start against MongoDB with debug logging
  STORE_BACKEND=mongo server serve --log-level debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts, flags)
		},
	}
	cmd.Flags().StringVar(&flags.host, "host", "", "server host address (default: 0.0.0.0)")
	cmd.Flags().IntVar(&flags.port, "port", 0, "server port (default: 3000)")
	return cmd
}

func runServe(cmd *cobra.Command, opts *globalOptions, flags serveFlags) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if flags.host != "" {
		cfg.Server.Host = flags.host
	}
	if flags.port != 0 {
		cfg.Server.Port = flags.port
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().
		Str("version", Version).
		Str("environment", cfg.Environment).
		Str("store_backend", cfg.Store.Backend).
		Msg("starting PredictChain server")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing, Version)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error().Err(err).Msg("tracing shutdown error")
		}
	}()

	metrics.Init(Version, GitCommit, BuildDate, cfg.Store.Backend)

	store, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open event store: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Error().Err(err).Msg("event store close error")
		}
	}()

	if store.Pool != nil {
		collector := metrics.NewDBCollector(store.Pool)
		go collector.Start(ctx, 15*time.Second)
		defer collector.Stop()
		logger.Info().Msg("database metrics collector started")
	}

	admins := auth.NewAllowlist(cfg.AdminWallets)
	if admins.Len() == 0 {
		logger.Warn().Msg("ADMIN_WALLETS is empty; nobody can approve or delete events")
	}
	repo, err := newRepository(cfg, store.Store, admins)
	if err != nil {
		return err
	}

	health := handlers.NewHealthChecker(Version, GitCommit).
		Register("store", handlers.PingCheck(repo, store.Name))
	for name, check := range store.Checks {
		health.Register(name, check)
	}

	handler, stopRouter := api.NewRouter(cfg, logger, api.Dependencies{
		Repo:         repo,
		Admins:       admins,
		Health:       health,
		Audit:        audit.NewLoggerWithZerolog(logger),
		Build:        api.BuildInfo{Version: Version, GitCommit: GitCommit, BuildDate: BuildDate},
		StoreBackend: store.Name,
	})
	defer stopRouter()

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return serveUntilDone(ctx, server, logger)
}

// serveUntilDone runs server until ctx is cancelled, then drains in-flight
// requests for up to 10 seconds.
func serveUntilDone(ctx context.Context, server *http.Server, logger zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
