// Package app wires the configured infrastructure into the domain services
// shared by the binaries.
package app

import (
	"context"
	"fmt"

	"github.com/example/event-ticketing/internal/config"
	"github.com/example/event-ticketing/internal/domain/banner"
	"github.com/example/event-ticketing/internal/domain/category"
	"github.com/example/event-ticketing/internal/domain/event"
	"github.com/example/event-ticketing/internal/domain/order"
	"github.com/example/event-ticketing/internal/domain/region"
	"github.com/example/event-ticketing/internal/domain/ticket"
	"github.com/example/event-ticketing/internal/domain/user"
	"github.com/example/event-ticketing/internal/email"
	"github.com/example/event-ticketing/internal/infrastructure/kafka"
	"github.com/example/event-ticketing/internal/infrastructure/store"
	"go.uber.org/zap"
)

// Repositories holds one collection per entity.
type Repositories struct {
	Users      store.CounterCollection[*user.User]
	Categories store.CounterCollection[*category.Category]
	Events     store.CounterCollection[*event.Event]
	Tickets    store.CounterCollection[*ticket.Ticket]
	Banners    store.CounterCollection[*banner.Banner]
	Regions    store.CounterCollection[*region.Region]
	Orders     store.CounterCollection[*order.Order]
}

// NewRepositories opens every collection on b and creates the unique
// indexes the backend supports.
func NewRepositories(ctx context.Context, b *store.Backend) (*Repositories, error) {
	r := &Repositories{
		Users:      store.Open(b, user.Collection, user.New),
		Categories: store.Open(b, category.Collection, category.New),
		Events:     store.Open(b, event.Collection, event.New),
		Tickets:    store.Open(b, ticket.Collection, ticket.New),
		Banners:    store.Open(b, banner.Collection, banner.New),
		Regions:    store.Open(b, region.Collection, region.New),
		Orders:     store.Open(b, order.Collection, order.New),
	}

	if err := store.EnsureUnique(ctx, r.Users, "email", "username"); err != nil {
		return nil, fmt.Errorf("users: %w", err)
	}
	if err := store.EnsureUnique(ctx, r.Events, "slug"); err != nil {
		return nil, fmt.Errorf("events: %w", err)
	}
	if err := store.EnsureUnique(ctx, r.Orders, "orderId"); err != nil {
		return nil, fmt.Errorf("orders: %w", err)
	}
	return r, nil
}

// Publisher publishes domain events.
type Publisher interface {
	PublishEvent(ctx context.Context, aggregateID, aggregateType, eventType string, data any) error
}

// NewPublisher returns a Kafka producer, or a logging no-op when Kafka is
// disabled. The returned func closes the producer.
func NewPublisher(cfg *config.Config, logger *zap.Logger) (Publisher, func() error) {
	if !cfg.KafkaEnabled {
		logger.Info("kafka disabled, events are only logged")
		return kafka.NewNopPublisher(logger.Named("events")), func() error { return nil }
	}
	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	return producer, producer.Close
}

func NewMailer(cfg *config.Config) *email.Service {
	return email.NewService(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.SMTPFrom,
	})
}
