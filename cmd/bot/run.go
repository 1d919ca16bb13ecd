package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"homework_status_bot/internal/app"
	"homework_status_bot/internal/domain/notification"
	"homework_status_bot/internal/infra/config"
	idb "homework_status_bot/internal/infra/database"
	"homework_status_bot/internal/infra/logger"
	"homework_status_bot/internal/infra/practicum"
	"homework_status_bot/internal/infra/scheduler"
	"homework_status_bot/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/telebot.v3"
)

func loadConfig(cmd *cobra.Command) (*config.AppConfig, error) {
	envFiles, _ := cmd.Flags().GetStringSlice("env-file")
	return config.Load(envFiles...)
}

func runBot(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		logger.Component("main").WithError(err).Error("Could not load application configuration")
		return err
	}

	logger.Init(cfg.LogLevel, cfg.Environment)
	mainLogger := logger.Component("main")

	if err := cfg.Validate(); err != nil {
		var cfgErr *config.ConfigurationError
		if errors.As(err, &cfgErr) {
			mainLogger.WithFields(logrus.Fields{
				"missing": cfgErr.Missing,
				"invalid": cfgErr.Invalid,
			}).Error("Required configuration is not provided")
		}
		return err
	}
	mainLogger.WithFields(logrus.Fields{
		"environment":  cfg.Environment,
		"log_level":    cfg.LogLevel,
		"retry_period": cfg.RetryPeriod.String(),
		"chat_id":      cfg.TelegramChatID,
	}).Info("Configuration loaded")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	botLogger := logger.Component("telegram")
	bot, err := telegram.NewSendOnlyBot(cfg.TelegramToken, "", &http.Client{Timeout: cfg.RequestTimeout}, func(err error, _ telebot.Context) {
		botLogger.WithError(err).Error("Telebot error")
	})
	if err != nil {
		mainLogger.WithError(err).Error("Could not create Telegram bot")
		return err
	}
	notifier := telegram.NewNotifier(telegram.NewTelebotAdapter(bot), cfg.TelegramChatID, botLogger)

	source := practicum.NewClient(&http.Client{}, cfg.Endpoint, cfg.PracticumToken, cfg.RequestTimeout, logger.Component("practicum"))

	var journal notification.Journal
	if cfg.DatabaseURL != "" {
		db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			mainLogger.WithError(err).Error("Could not connect to database")
			return err
		}
		defer db.Close()

		repo := idb.NewPostgresJournalRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			mainLogger.WithError(err).Error("Could not prepare notification journal")
			return err
		}
		journal = repo
		mainLogger.Info("Notification journal enabled")
	}

	poller := app.NewStatusPoller(source, notifier, journal, cfg.RetryPeriod, app.PollState{Since: time.Now()}, logger.Component("poller"))

	if cfg.PollCronSpec == "" {
		err := poller.Run(ctx)
		if errors.Is(err, context.Canceled) {
			mainLogger.Info("Application shut down gracefully")
			return nil
		}
		return err
	}

	pollScheduler := scheduler.NewPollScheduler(func(jobCtx context.Context) {
		poller.RunCycle(jobCtx)
	}, cfg.PollCronSpec, cfg.RetryPeriod, logger.Component("scheduler"))
	if err := pollScheduler.Start(ctx); err != nil {
		mainLogger.WithError(err).Error("Could not start poll scheduler")
		return err
	}

	<-ctx.Done() // Block until a signal is received
	mainLogger.Info("Shutting down application...")
	pollScheduler.Stop()
	mainLogger.Info("Application shut down gracefully")
	return nil
}
