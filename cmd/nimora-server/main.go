package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nimora/nimora/internal/config"
	"github.com/nimora/nimora/internal/logging"
	"github.com/nimora/nimora/internal/portal"
	"github.com/nimora/nimora/internal/server"
	"github.com/nimora/nimora/pkg/constants"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	configLocation := flag.String("config", constants.DefaultServerConfigFile, "path to server configuration file")
	envFile := flag.String("env-file", ".env", "optional dotenv file loaded before the configuration")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	address := flag.String("address", "", "listen address override")
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load env file %s\", \"error\": \"%v\"}\n", *envFile, err)
		os.Exit(1)
	}

	cfg, err := server.LoadConfig(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}
	if *address != "" {
		cfg.Address = *address
	}
	if backendURL := os.Getenv(constants.EnvPrefix + "_BACKEND_URL"); backendURL != "" {
		cfg.Backend.URL = backendURL
	}

	logger, err := logging.New(cfg.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, logger, cfg); err != nil {
		logger.Error("server stopped with error",
			zap.String("op", "main"),
			zap.Error(err),
		)
		_ = logger.Sync()
		os.Exit(1)
	}
}

// serve runs the HTTP server until ctx is cancelled, then drains in-flight
// requests.
func serve(ctx context.Context, logger *zap.Logger, cfg *server.Config) error {
	client, err := portal.NewClient(logger, cfg.Backend)
	if err != nil {
		return fmt.Errorf("failed to create portal client: %w", err)
	}

	httpServer := &http.Server{
		Addr: cfg.Address,
		Handler: server.NewHandler(logger, client, server.Options{
			MaxRequestSize: cfg.RequestSizeBytes(),
			Version:        version,
			Attendance:     cfg.Attendance,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			zap.String("op", "main.serve"),
			zap.String("address", cfg.Address),
			zap.String("backend", cfg.Backend.URL),
			zap.String("version", version),
		)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server", zap.String("op", "main.serve"))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
