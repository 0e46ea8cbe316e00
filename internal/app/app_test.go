package app

import (
	"context"
	"testing"

	"github.com/example/event-ticketing/internal/config"
	"github.com/example/event-ticketing/internal/domain/ticket"
	"github.com/example/event-ticketing/internal/infrastructure/kafka"
	"github.com/example/event-ticketing/internal/infrastructure/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewRepositories_Memory(t *testing.T) {
	ctx := context.Background()
	backend, err := store.OpenBackend(ctx, store.BackendConfig{Driver: store.DriverMemory})
	require.NoError(t, err)
	defer backend.Close(ctx)

	repos, err := NewRepositories(ctx, backend)
	require.NoError(t, err)

	tk := &ticket.Ticket{Name: "VIP", Quantity: 3}
	require.NoError(t, repos.Tickets.Create(ctx, tk))
	require.NoError(t, repos.Tickets.Decrement(ctx, tk.ID, ticket.QuantityField, 2))

	stored, err := repos.Tickets.FindByID(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Quantity)
	assert.NotNil(t, repos.Orders)
	assert.NotNil(t, repos.Users)
}

func TestOpenBackend_UnknownDriver(t *testing.T) {
	_, err := store.OpenBackend(context.Background(), store.BackendConfig{Driver: "redis"})
	assert.ErrorContains(t, err, `unknown store driver "redis"`)
}

func TestNewPublisher(t *testing.T) {
	publisher, closeFn := NewPublisher(&config.Config{KafkaEnabled: false}, zap.NewNop())
	assert.IsType(t, &kafka.NopPublisher{}, publisher)
	assert.NoError(t, closeFn())

	publisher, closeFn = NewPublisher(&config.Config{KafkaEnabled: true, KafkaBrokers: []string{"localhost:9092"}, KafkaTopic: "t"}, zap.NewNop())
	assert.IsType(t, &kafka.Producer{}, publisher)
	assert.NoError(t, closeFn())
}
