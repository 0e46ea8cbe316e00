package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	gcs "cloud.google.com/go/storage"
	"github.com/example/event-ticketing/internal/api"
	"github.com/example/event-ticketing/internal/app"
	"github.com/example/event-ticketing/internal/auth"
	"github.com/example/event-ticketing/internal/config"
	"github.com/example/event-ticketing/internal/domain/banner"
	"github.com/example/event-ticketing/internal/domain/category"
	"github.com/example/event-ticketing/internal/domain/event"
	"github.com/example/event-ticketing/internal/domain/order"
	"github.com/example/event-ticketing/internal/domain/region"
	"github.com/example/event-ticketing/internal/domain/ticket"
	"github.com/example/event-ticketing/internal/domain/user"
	"github.com/example/event-ticketing/internal/infrastructure/store"
	"github.com/example/event-ticketing/internal/logging"
	"github.com/example/event-ticketing/internal/media"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[API] %v", err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("[API] failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := store.OpenBackend(ctx, cfg.Backend())
	if err != nil {
		logger.Fatal("failed to open store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer func() { _ = backend.Close(context.Background()) }()
	logger.Info("store ready", zap.String("driver", backend.Driver()))

	repos, err := app.NewRepositories(ctx, backend)
	if err != nil {
		logger.Fatal("failed to prepare collections", zap.Error(err))
	}

	publisher, closePublisher := app.NewPublisher(cfg, logger)
	defer func() { _ = closePublisher() }()

	uploader, closeUploader, err := newUploader(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to create media uploader", zap.Error(err))
	}
	defer func() { _ = closeUploader() }()

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTExpiry)

	handlers := api.NewHandlers(api.Services{
		Users:      user.NewService(repos.Users, jwtService, publisher, cfg.ClientHost, logger),
		Categories: category.NewService(repos.Categories, logger),
		Events:     event.NewService(repos.Events, logger),
		Tickets:    ticket.NewService(repos.Tickets, logger),
		Banners:    banner.NewService(repos.Banners, logger),
		Regions:    region.NewService(repos.Regions, logger),
		Media:      media.NewService(uploader, logger),
		Orders:     order.NewService(repos.Orders, repos.Tickets, publisher, logger),
	}, api.Options{
		MaxUploadBytes: cfg.MediaMaxUploadBytes,
	}, logger)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.NewRouter(handlers, jwtService, cfg.CORSAllowedOrigins, logger),
	}

	go func() {
		logger.Info("server started", zap.String("addr", server.Addr), zap.Bool("kafka", cfg.KafkaEnabled))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newUploader stores media in the configured bucket. Without a bucket the
// media endpoints report every upload as failed.
func newUploader(ctx context.Context, cfg *config.Config) (media.Uploader, func() error, error) {
	if cfg.MediaBucket == "" {
		return unconfiguredUploader{}, func() error { return nil }, nil
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, nil, err
	}
	uploader, err := media.NewGCSUploader(client, cfg.MediaBucket)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return uploader, client.Close, nil
}

type unconfiguredUploader struct{}

var errNoBucket = errors.New("MEDIA_BUCKET is not configured")

func (unconfiguredUploader) Upload(context.Context, media.File) (*media.Result, error) {
	return nil, errNoBucket
}

func (unconfiguredUploader) Remove(context.Context, string) error { return errNoBucket }
