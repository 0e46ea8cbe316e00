package user

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/example/event-ticketing/internal/auth"
	"github.com/example/event-ticketing/internal/idgen"
	"github.com/example/event-ticketing/internal/infrastructure/store"
	"go.uber.org/zap"
)

const (
	AggregateType         = "User"
	Collection            = "users"
	DefaultProfilePicture = "user.jpg"
)

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrInvalidFullName       = errors.New("full name is required")
	ErrInvalidUsername       = errors.New("username is required")
	ErrInvalidEmail          = errors.New("email is required")
	ErrPasswordMismatch      = errors.New("password must be matched")
	ErrEmailTaken            = errors.New("email is already registered")
	ErrUsernameTaken         = errors.New("username is already taken")
	ErrInvalidCredentials    = errors.New("invalid identifier or password")
	ErrUserNotActive         = errors.New("user account is not activated")
	ErrInvalidActivationCode = errors.New("invalid activation code")
)

// User is an account. Password holds the bcrypt hash.
type User struct {
	store.Base     `bson:",inline"`
	FullName       string `json:"fullName" bson:"fullName"`
	Username       string `json:"username" bson:"username"`
	Email          string `json:"email" bson:"email"`
	Password       string `json:"password" bson:"password"`
	Role           string `json:"role" bson:"role"`
	ProfilePicture string `json:"profilePicture" bson:"profilePicture"`
	IsActive       bool   `json:"isActive" bson:"isActive"`
	ActivationCode string `json:"activationCode" bson:"activationCode"`
}

func New() *User { return &User{} }

func (u *User) IsAdmin() bool { return u.Role == auth.RoleAdmin }

// EventPublisher publishes domain events.
type EventPublisher interface {
	PublishEvent(ctx context.Context, aggregateID, aggregateType, eventType string, data any) error
}

type RegisterInput struct {
	FullName        string
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

func (in *RegisterInput) normalize() error {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	switch {
	case in.FullName == "":
		return ErrInvalidFullName
	case in.Username == "":
		return ErrInvalidUsername
	case in.Email == "":
		return ErrInvalidEmail
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		return err
	}
	if in.Password != in.ConfirmPassword {
		return ErrPasswordMismatch
	}
	return nil
}

// LoginResult carries the issued access token.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *User
}

// Service handles account operations
type Service struct {
	users      store.Collection[*User]
	tokens     *auth.JWTService
	publisher  EventPublisher
	clientHost string
	logger     *zap.Logger
}

// NewService creates a new user service
func NewService(users store.Collection[*User], tokens *auth.JWTService, publisher EventPublisher, clientHost string, logger *zap.Logger) *Service {
	return &Service{
		users:      users,
		tokens:     tokens,
		publisher:  publisher,
		clientHost: strings.TrimRight(clientHost, "/"),
		logger:     logger.Named("user"),
	}
}

// Register creates an inactive member account and announces its activation
// link.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, "email", in.Email, ErrEmailTaken); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, "username", in.Username, ErrUsernameTaken); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &User{
		FullName:       in.FullName,
		Username:       in.Username,
		Email:          in.Email,
		Password:       hash,
		Role:           auth.RoleMember,
		ProfilePicture: DefaultProfilePicture,
		IsActive:       false,
		ActivationCode: newActivationCode(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", zap.String("user_id", u.ID))

	if s.publisher != nil {
		event := UserRegistered{
			UserID:         u.ID,
			FullName:       u.FullName,
			Username:       u.Username,
			Email:          u.Email,
			ActivationLink: s.ActivationLink(u.ActivationCode),
			RegisteredAt:   u.CreatedAt,
		}
		if err := s.publisher.PublishEvent(ctx, u.ID, AggregateType, EventUserRegistered, event); err != nil {
			s.logger.Warn("failed to publish registration", zap.String("user_id", u.ID), zap.Error(err))
		}
	}
	return u, nil
}

// RegisterAdmin creates an active admin account. It is used for
// bootstrapping and publishes nothing.
func (s *Service) RegisterAdmin(ctx context.Context, in RegisterInput) (*User, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, "email", in.Email, ErrEmailTaken); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, "username", in.Username, ErrUsernameTaken); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &User{
		FullName:       in.FullName,
		Username:       in.Username,
		Email:          in.Email,
		Password:       hash,
		Role:           auth.RoleAdmin,
		ProfilePicture: DefaultProfilePicture,
		IsActive:       true,
		ActivationCode: newActivationCode(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	s.logger.Info("admin registered", zap.String("user_id", u.ID))
	return u, nil
}

// ActivationLink builds the client URL that activates an account.
func (s *Service) ActivationLink(code string) string {
	return s.clientHost + "/auth/activation?code=" + url.QueryEscape(code)
}

// Login authenticates by email or username.
func (s *Service) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.findByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(password, u.Password) {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrUserNotActive
	}

	token, expiresAt, err := s.tokens.GenerateAccessToken(u.ID, u.Role)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: u}, nil
}

func (s *Service) findByIdentifier(ctx context.Context, identifier string) (*User, error) {
	u, err := s.users.FindOne(ctx, store.Where("email", strings.ToLower(identifier)))
	if errors.Is(err, store.ErrNotFound) {
		u, err = s.users.FindOne(ctx, store.Where("username", identifier))
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

// Activate marks the account holding code as active. Activating twice is
// harmless.
func (s *Service) Activate(ctx context.Context, code string) (*User, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrInvalidActivationCode
	}

	u, err := s.users.FindOne(ctx, store.Where("activationCode", code))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidActivationCode
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u.IsActive {
		return u, nil
	}

	u.IsActive = true
	if err := s.users.UpdateByID(ctx, u); err != nil {
		return nil, fmt.Errorf("activate user: %w", err)
	}
	s.logger.Info("user activated", zap.String("user_id", u.ID))
	return u, nil
}

func (s *Service) Me(ctx context.Context, userID string) (*User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (s *Service) ensureUnique(ctx context.Context, field, value string, taken error) error {
	_, err := s.users.FindOne(ctx, store.Where(field, value))
	switch {
	case err == nil:
		return taken
	case errors.Is(err, store.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("check %s: %w", field, err)
	}
}

func newActivationCode() string {
	sum := sha256.Sum256([]byte(idgen.Token()))
	return hex.EncodeToString(sum[:])
}
