package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverDynamo   = "dynamodb"
	DriverMemory   = "memory"
)

// CounterCollection is a Collection whose integer fields can be adjusted
// atomically. Every backend implements it.
type CounterCollection[T Document] interface {
	Collection[T]
	Counter
}

// BackendConfig selects and locates the storage backend.
type BackendConfig struct {
	Driver           string
	MongoURI         string
	MongoDatabase    string
	DatabaseURL      string
	AWSRegion        string
	DynamoDBEndpoint string
	TablePrefix      string
}

// Backend hands out collections of one configured driver.
type Backend struct {
	driver      string
	mongoClient *mongo.Client
	mongoDB     *mongo.Database
	sqlDB       *sql.DB
	dynamo      *dynamodb.Client
	tablePrefix string
}

// OpenBackend connects to the configured driver. The memory driver needs no
// connection.
func OpenBackend(ctx context.Context, cfg BackendConfig) (*Backend, error) {
	b := &Backend{driver: cfg.Driver, tablePrefix: cfg.TablePrefix}

	switch cfg.Driver {
	case DriverMongo:
		client, err := ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		b.mongoClient = client
		b.mongoDB = client.Database(cfg.MongoDatabase)
	case DriverPostgres:
		db, err := ConnectPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := EnsurePostgresSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create postgres schema: %w", err)
		}
		b.sqlDB = db
	case DriverDynamo:
		client, err := NewDynamoClient(ctx, cfg.AWSRegion, cfg.DynamoDBEndpoint)
		if err != nil {
			return nil, err
		}
		b.dynamo = client
	case DriverMemory:
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	return b, nil
}

func (b *Backend) Driver() string { return b.driver }

// Close releases the underlying connection.
func (b *Backend) Close(ctx context.Context) error {
	switch {
	case b.mongoClient != nil:
		return b.mongoClient.Disconnect(ctx)
	case b.sqlDB != nil:
		return b.sqlDB.Close()
	}
	return nil
}

// Open returns the named collection on b.
func Open[T Document](b *Backend, name string, newDoc func() T) CounterCollection[T] {
	switch b.driver {
	case DriverMongo:
		return NewMongoCollection(b.mongoDB, name, newDoc)
	case DriverPostgres:
		return NewPostgresCollection(b.sqlDB, name, newDoc)
	case DriverDynamo:
		return NewDynamoCollection(b.dynamo, b.tablePrefix+name, newDoc)
	default:
		return NewMemoryCollection(newDoc)
	}
}

// EnsureUnique creates unique indexes on backends that support them and is a
// no-op elsewhere.
func EnsureUnique(ctx context.Context, coll any, fields ...string) error {
	indexer, ok := coll.(UniqueIndexer)
	if !ok {
		return nil
	}
	for _, field := range fields {
		if err := indexer.EnsureUnique(ctx, field); err != nil {
			return fmt.Errorf("ensure unique %s: %w", field, err)
		}
	}
	return nil
}
