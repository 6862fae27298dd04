// Package main is the entry point for the lcdash loan portfolio dashboard.
// It serves the dashboard API over HTTP and websocket against the warehouse
// selected by LCDASH_BACKEND.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/lcdash/internal/config"
	"github.com/aristath/lcdash/internal/di"
	dashboardhandlers "github.com/aristath/lcdash/internal/modules/dashboard/handlers"
	"github.com/aristath/lcdash/internal/server"
	"github.com/aristath/lcdash/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().
		Str("backend", cfg.Backend).
		Str("data_dir", cfg.DataDir).
		Bool("managed", cfg.Managed).
		Msg("Starting lcdash")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, err := di.Wire(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close warehouse")
		}
	}()

	monitor := server.NewResourceMonitor(90, log)
	monitor.Start(ctx, time.Minute)

	var pinger server.Pinger
	if p, ok := container.Connector.(server.Pinger); ok {
		pinger = p
	}

	dashboard := dashboardhandlers.NewHandler(container.Dashboard, cfg.SessionTokenHeader, log)
	dashboard.SetAllowedOrigins(cfg.AllowedOrigins)

	srv := server.New(server.Config{
		Log:            log,
		Dashboard:      dashboard,
		System:         server.NewSystemHandlers(container.Connector.Backend(), pinger, monitor, log),
		Catalog:        container.Catalog,
		Backend:        container.Connector.Backend(),
		Port:           cfg.Port,
		DevMode:        cfg.DevMode,
		TokenHeader:    cfg.SessionTokenHeader,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
