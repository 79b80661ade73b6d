package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/segyhp/debt-engine/internal/config"
	"github.com/segyhp/debt-engine/internal/domain"
	"github.com/segyhp/debt-engine/internal/logging"
	"github.com/segyhp/debt-engine/internal/repository"
	"github.com/segyhp/debt-engine/internal/service"
)

// reminderSource is the slice of the engine the reminder job needs.
type reminderSource interface {
	Refresh(ctx context.Context) error
	Reminders(ctx context.Context) domain.Reminders
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)
	slog.SetDefault(logger)
	logger.Info("starting reminder scheduler")

	repo, err := repository.New(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to initialize storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	debtService := service.NewDebtService(repo, logger, nil, service.OptionsFromConfig(cfg))

	c := cron.New(cron.WithSeconds())
	if err := setupCronJobs(c, cfg, debtService, logger); err != nil {
		logger.Error("failed to schedule jobs", "error", err)
		os.Exit(1)
	}

	c.Start()
	logger.Info("scheduler started", "reminder_cron", cfg.Reminder.Cron)

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down scheduler")
	<-c.Stop().Done()
	logger.Info("scheduler stopped")
}

func setupCronJobs(c *cron.Cron, cfg *config.Config, source reminderSource, logger *slog.Logger) error {
	_, err := c.AddFunc(cfg.Reminder.Cron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		scanReminders(ctx, source, logger)
	})
	return err
}

// scanReminders reloads the stored snapshot read-only, so changes made by the
// API server are seen without the job ever writing, and logs the counts.
func scanReminders(ctx context.Context, source reminderSource, logger *slog.Logger) (domain.Reminders, error) {
	if err := source.Refresh(ctx); err != nil {
		logger.ErrorContext(ctx, "reminder scan failed", "error", err)
		return domain.Reminders{}, err
	}

	reminders := source.Reminders(ctx)
	level := slog.LevelInfo
	if reminders.Overdue > 0 {
		level = slog.LevelWarn
	}
	logger.Log(ctx, level, "reminder scan complete",
		"overdue", reminders.Overdue,
		"upcoming", reminders.Upcoming,
		"window_days", reminders.WindowDays,
	)
	return reminders, nil
}
