package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/example/event-ticketing/internal/app"
	"github.com/example/event-ticketing/internal/config"
	"github.com/example/event-ticketing/internal/infrastructure/kafka"
	"github.com/example/event-ticketing/internal/infrastructure/store"
	"github.com/example/event-ticketing/internal/logging"
	"github.com/example/event-ticketing/internal/notification"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Notifier] %v", err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("[Notifier] failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.ValidateStore(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The store is only read, to resolve order owners.
	backend, err := store.OpenBackend(ctx, cfg.Backend())
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer func() { _ = backend.Close(context.Background()) }()

	repos, err := app.NewRepositories(ctx, backend)
	if err != nil {
		logger.Fatal("failed to prepare collections", zap.Error(err))
	}

	handler := notification.NewHandler(app.NewMailer(cfg), repos.Users, logger)

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, logger.Named("consumer"))
	defer consumer.Close()

	logger.Info("notifier started",
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("topic", cfg.KafkaTopic),
		zap.String("group", cfg.KafkaGroupID),
		zap.String("smtp_host", cfg.SMTPHost),
	)

	if err := consumer.Consume(ctx, handler.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer stopped", zap.Error(err))
	}
	logger.Info("shutting down")
}
