package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/example/event-ticketing/internal/app"
	"github.com/example/event-ticketing/internal/config"
	"github.com/example/event-ticketing/internal/domain/order"
	"github.com/example/event-ticketing/internal/infrastructure/kinesis"
	"github.com/example/event-ticketing/internal/infrastructure/store"
	"github.com/example/event-ticketing/internal/logging"
	"github.com/example/event-ticketing/internal/notification"
	"go.uber.org/zap"
)

type orderNotifier interface {
	HandleOrderCompleted(ctx context.Context, o *order.Order) error
}

type streamHandler struct {
	notifier orderNotifier
	logger   *zap.Logger
}

// Handle mails vouchers for every order the batch completes. Records that
// fail conversion or notification are returned for retry.
func (h *streamHandler) Handle(ctx context.Context, kinesisEvent events.KinesisEvent) (events.KinesisEventResponse, error) {
	completed, convertErrs := kinesis.BatchConvertFromKinesisEvent(kinesisEvent)

	var failures []events.KinesisBatchItemFailure
	for _, e := range convertErrs {
		h.logger.Warn("failed to convert record", zap.String("sequence_number", e.SequenceNumber), zap.Error(e.Err))
		failures = append(failures, events.KinesisBatchItemFailure{ItemIdentifier: e.SequenceNumber})
	}

	for _, c := range completed {
		if err := h.notifier.HandleOrderCompleted(ctx, c.Order); err != nil {
			h.logger.Error("failed to notify completed order",
				zap.String("sequence_number", c.SequenceNumber),
				zap.String("order_id", c.Order.OrderID),
				zap.Error(err),
			)
			failures = append(failures, events.KinesisBatchItemFailure{ItemIdentifier: c.SequenceNumber})
		}
	}

	h.logger.Info("batch processed",
		zap.Int("records", len(kinesisEvent.Records)),
		zap.Int("completed_orders", len(completed)),
		zap.Int("failures", len(failures)),
	)
	return events.KinesisEventResponse{BatchItemFailures: failures}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Lambda Notifier] %v", err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("[Lambda Notifier] failed to build logger: %v", err)
	}
	if err := cfg.ValidateStore(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx := context.Background()
	backend, err := store.OpenBackend(ctx, cfg.Backend())
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	repos, err := app.NewRepositories(ctx, backend)
	if err != nil {
		logger.Fatal("failed to prepare collections", zap.Error(err))
	}

	h := &streamHandler{
		notifier: notification.NewHandler(app.NewMailer(cfg), repos.Users, logger),
		logger:   logger.Named("lambda"),
	}
	logger.Info("lambda notifier initialized", zap.String("store", cfg.StoreDriver), zap.String("smtp_host", cfg.SMTPHost))

	lambda.Start(h.Handle)
}
