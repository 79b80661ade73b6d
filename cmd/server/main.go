package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segyhp/debt-engine/internal/config"
	"github.com/segyhp/debt-engine/internal/handler"
	"github.com/segyhp/debt-engine/internal/logging"
	"github.com/segyhp/debt-engine/internal/metrics"
	"github.com/segyhp/debt-engine/internal/repository"
	"github.com/segyhp/debt-engine/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)
	slog.SetDefault(logger)

	ctx := context.Background()

	// Initialize snapshot storage
	repo, err := repository.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	// Initialize service
	debtService := service.NewDebtService(repo, logger, m, service.OptionsFromConfig(cfg))
	if err := debtService.Load(ctx); err != nil {
		logger.Error("failed to load snapshot", "error", err)
		os.Exit(1)
	}

	debtHandler := handler.NewDebtHandler(debtService)
	healthHandler := handler.NewHealthHandler(debtService, cfg.GetHealthTimeout())

	// Setup routes
	router := handler.NewRouter(debtHandler, healthHandler, m, logger)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server starting", "addr", server.Addr, "env", cfg.Server.Env, "storage", cfg.Storage.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		return
	}

	logger.Info("server exited")
}
