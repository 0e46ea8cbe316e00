package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/event-ticketing/internal/infrastructure/store"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	DriverMongo    = store.DriverMongo
	DriverPostgres = store.DriverPostgres
	DriverDynamo   = store.DriverDynamo
	DriverMemory   = store.DriverMemory

	minJWTSecretLength = 32
)

type Config struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`

	StoreDriver         string `envconfig:"STORE_DRIVER" default:"mongo"`
	MongoURI            string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase       string `envconfig:"MONGO_DATABASE" default:"db-acara"`
	DatabaseURL         string `envconfig:"DATABASE_URL"`
	AWSRegion           string `envconfig:"AWS_REGION" default:"ap-southeast-1"`
	DynamoDBEndpoint    string `envconfig:"DYNAMODB_ENDPOINT"`
	DynamoDBTablePrefix string `envconfig:"DYNAMODB_TABLE_PREFIX" default:"ticketing_"`

	JWTSecret string        `envconfig:"JWT_SECRET"`
	JWTExpiry time.Duration `envconfig:"JWT_EXPIRY" default:"1h"`

	KafkaEnabled bool     `envconfig:"KAFKA_ENABLED" default:"true"`
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"ticketing-events"`
	KafkaGroupID string   `envconfig:"KAFKA_GROUP_ID" default:"email-notifier"`

	SMTPHost string `envconfig:"SMTP_HOST" default:"localhost"`
	SMTPPort int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser string `envconfig:"SMTP_USER"`
	SMTPPass string `envconfig:"SMTP_PASS"`
	SMTPFrom string `envconfig:"SMTP_FROM" default:"admin-acara@noreply.com"`

	ClientHost string `envconfig:"CLIENT_HOST" default:"http://localhost:3001"`

	MediaBucket         string `envconfig:"MEDIA_BUCKET"`
	MediaMaxUploadBytes int64  `envconfig:"MEDIA_MAX_UPLOAD_BYTES" default:"10485760"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	return &cfg, nil
}

// Validate checks the settings the API cannot start without.
func (c *Config) Validate() error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if len(c.JWTSecret) < minJWTSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters long", minJWTSecretLength))
	}
	if c.JWTExpiry <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRY must be positive"))
	}
	if err := c.ValidateStore(); err != nil {
		errs = append(errs, err)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true"))
	}
	if c.MediaMaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MEDIA_MAX_UPLOAD_BYTES must be positive"))
	}
	return errors.Join(errs...)
}

// ValidateStore checks only the store settings.
func (c *Config) ValidateStore() error {
	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required for the mongo driver")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	case DriverDynamo:
		if c.AWSRegion == "" {
			return errors.New("AWS_REGION is required for the dynamodb driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}

// Backend returns the store settings.
func (c *Config) Backend() store.BackendConfig {
	return store.BackendConfig{
		Driver:           c.StoreDriver,
		MongoURI:         c.MongoURI,
		MongoDatabase:    c.MongoDatabase,
		DatabaseURL:      c.DatabaseURL,
		AWSRegion:        c.AWSRegion,
		DynamoDBEndpoint: c.DynamoDBEndpoint,
		TablePrefix:      c.DynamoDBTablePrefix,
	}
}
