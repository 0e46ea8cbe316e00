package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return &Producer{writer: writer}
}

func (p *Producer) Publish(ctx context.Context, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	})
}

// PublishEvent wraps data in an Event envelope keyed by the aggregate id.
func (p *Producer) PublishEvent(ctx context.Context, aggregateID, aggregateType, eventType string, data any) error {
	event, err := NewEvent(aggregateID, aggregateType, eventType, data)
	if err != nil {
		return err
	}
	return p.Publish(ctx, aggregateID, event)
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// NopPublisher logs events instead of publishing them. Used when Kafka is
// disabled.
type NopPublisher struct {
	logger *zap.Logger
}

func NewNopPublisher(logger *zap.Logger) *NopPublisher {
	return &NopPublisher{logger: logger}
}

func (p *NopPublisher) PublishEvent(ctx context.Context, aggregateID, aggregateType, eventType string, data any) error {
	p.logger.Debug("event not published (kafka disabled)",
		zap.String("aggregate_id", aggregateID),
		zap.String("aggregate_type", aggregateType),
		zap.String("event_type", eventType),
	)
	return nil
}
