package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/producelens/backend/config"
	"github.com/producelens/backend/internal/app"
	httpDelivery "github.com/producelens/backend/internal/delivery/http"
	"github.com/producelens/backend/internal/observability"
)

func main() {
	// Load configuration
	cfg, err := config.LoadFile(os.Getenv("PRODUCELENS_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Service: "producelens-backend",
	})

	logger.Info().
		Str("version", httpDelivery.Version).
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("catalog", cfg.Data.CatalogSource).
		Str("memory", cfg.Memory.Type).
		Str("cache", cfg.Cache.Type).
		Dur("cache_ttl", cfg.Cache.TTL).
		Msg("Starting ProduceLens Backend")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize services
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer application.Close()

	if application.Scheduler != nil {
		application.Scheduler.Start()
		defer application.Scheduler.Stop()
		logger.Info().Str("schedule", cfg.Data.ReloadSchedule).Msg("Scheduled reload enabled")
	}

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(application.Retrieval, application.Memory, observability.Component(logger, "http"))
	router := httpDelivery.SetupRouter(cfg, handler, observability.Component(logger, "http"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error().Err(err).Msg("Server failed")
		}
	case <-ctx.Done():
		logger.Info().Msg("Shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown failed")
	}
}
