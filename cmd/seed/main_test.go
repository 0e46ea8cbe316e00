package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/example/event-ticketing/internal/auth"
	"github.com/example/event-ticketing/internal/domain/region"
	"github.com/example/event-ticketing/internal/domain/user"
	"github.com/example/event-ticketing/internal/infrastructure/kafka"
	"github.com/example/event-ticketing/internal/infrastructure/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const seedYAML = `
provinces:
  - id: "31"
    name: DKI Jakarta
    children:
      - id: "3171"
        name: Kota Jakarta Selatan
`

func newSeeder() (*seeder, *store.MemoryCollection[*region.Region], *store.MemoryCollection[*user.User]) {
	logger := zap.NewNop()
	regions := store.NewMemoryCollection(region.New)
	users := store.NewMemoryCollection(user.New)
	return &seeder{
		regions: region.NewService(regions, logger),
		users:   user.NewService(users, auth.NewJWTService("secret", time.Hour), kafka.NewNopPublisher(logger), "http://localhost:3000", logger),
		logger:  logger,
	}, regions, users
}

func TestSeeder_ImportRegions_Idempotent(t *testing.T) {
	ctx := context.Background()
	s, regions, _ := newSeeder()

	require.NoError(t, s.importRegions(ctx, strings.NewReader(seedYAML)))
	require.NoError(t, s.importRegions(ctx, strings.NewReader(seedYAML)))

	n, err := regions.Count(ctx, store.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestSeeder_ImportRegions_InvalidYAML(t *testing.T) {
	s, _, _ := newSeeder()

	err := s.importRegions(context.Background(), strings.NewReader("provinces: [{id: 31, colour: red}]"))

	assert.Error(t, err)
}

func TestSeeder_CreateAdmin(t *testing.T) {
	ctx := context.Background()
	s, _, users := newSeeder()
	opts := options{
		adminName:     "Root",
		adminUsername: "root",
		adminEmail:    "root@example.com",
		adminPassword: "Secret123",
	}

	require.NoError(t, s.run(ctx, opts))
	require.NoError(t, s.run(ctx, opts))

	admin, err := users.FindOne(ctx, store.Where("email", "root@example.com"))
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, admin.Role)
	assert.True(t, admin.IsActive)

	n, err := users.Count(ctx, store.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSeeder_CreateAdmin_WeakPassword(t *testing.T) {
	s, _, _ := newSeeder()

	err := s.run(context.Background(), options{adminName: "Root", adminUsername: "root", adminEmail: "root@example.com", adminPassword: "weak"})

	assert.Error(t, err)
}
