package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/example/event-ticketing/internal/app"
	"github.com/example/event-ticketing/internal/auth"
	"github.com/example/event-ticketing/internal/config"
	"github.com/example/event-ticketing/internal/domain/region"
	"github.com/example/event-ticketing/internal/domain/user"
	"github.com/example/event-ticketing/internal/infrastructure/kafka"
	"github.com/example/event-ticketing/internal/infrastructure/store"
	"github.com/example/event-ticketing/internal/logging"
	"go.uber.org/zap"
)

type options struct {
	regionsFile   string
	adminName     string
	adminUsername string
	adminEmail    string
	adminPassword string
}

func (o options) wantsAdmin() bool {
	return o.adminEmail != "" || o.adminUsername != ""
}

func main() {
	var opts options
	flag.StringVar(&opts.regionsFile, "regions", "seeds/regions.yaml", "YAML region tree to import, empty to skip")
	flag.StringVar(&opts.adminName, "admin-name", envOr("SEED_ADMIN_NAME", "Administrator"), "full name of the bootstrap admin")
	flag.StringVar(&opts.adminUsername, "admin-username", os.Getenv("SEED_ADMIN_USERNAME"), "username of the bootstrap admin")
	flag.StringVar(&opts.adminEmail, "admin-email", os.Getenv("SEED_ADMIN_EMAIL"), "email of the bootstrap admin")
	flag.StringVar(&opts.adminPassword, "admin-password", os.Getenv("SEED_ADMIN_PASSWORD"), "password of the bootstrap admin")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Seed] %v", err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("[Seed] failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.ValidateStore(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx := context.Background()
	backend, err := store.OpenBackend(ctx, cfg.Backend())
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer func() { _ = backend.Close(ctx) }()

	repos, err := app.NewRepositories(ctx, backend)
	if err != nil {
		logger.Fatal("failed to prepare collections", zap.Error(err))
	}

	s := &seeder{
		regions: region.NewService(repos.Regions, logger),
		users: user.NewService(repos.Users, auth.NewJWTService(cfg.JWTSecret, cfg.JWTExpiry),
			kafka.NewNopPublisher(logger.Named("events")), cfg.ClientHost, logger),
		logger: logger,
	}
	if err := s.run(ctx, opts); err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
}

type seeder struct {
	regions *region.Service
	users   *user.Service
	logger  *zap.Logger
}

func (s *seeder) run(ctx context.Context, opts options) error {
	if opts.regionsFile != "" {
		f, err := os.Open(opts.regionsFile)
		if err != nil {
			return fmt.Errorf("open regions file: %w", err)
		}
		defer f.Close()
		if err := s.importRegions(ctx, f); err != nil {
			return err
		}
	}
	if opts.wantsAdmin() {
		return s.createAdmin(ctx, opts)
	}
	return nil
}

func (s *seeder) importRegions(ctx context.Context, r io.Reader) error {
	regions, err := region.LoadSeed(r)
	if err != nil {
		return err
	}
	if _, _, err := s.regions.Import(ctx, regions); err != nil {
		return fmt.Errorf("import regions: %w", err)
	}
	return nil
}

// createAdmin is idempotent: an admin whose email or username already
// exists is left untouched.
func (s *seeder) createAdmin(ctx context.Context, opts options) error {
	u, err := s.users.RegisterAdmin(ctx, user.RegisterInput{
		FullName:        opts.adminName,
		Username:        opts.adminUsername,
		Email:           opts.adminEmail,
		Password:        opts.adminPassword,
		ConfirmPassword: opts.adminPassword,
	})
	switch {
	case errors.Is(err, user.ErrEmailTaken), errors.Is(err, user.ErrUsernameTaken):
		s.logger.Info("admin already exists", zap.String("email", opts.adminEmail))
		return nil
	case err != nil:
		return fmt.Errorf("create admin: %w", err)
	}
	s.logger.Info("admin created", zap.String("user_id", u.ID), zap.String("username", u.Username))
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
