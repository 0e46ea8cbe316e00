package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongo connects to uri and verifies the connection.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return client, nil
}

// MongoCollection is a Collection backed by a MongoDB collection. Documents
// are decoded through their bson tags, which mirror the json names.
type MongoCollection[T Document] struct {
	coll   *mongo.Collection
	newDoc func() T
	now    func() time.Time
}

func NewMongoCollection[T Document](db *mongo.Database, name string, newDoc func() T) *MongoCollection[T] {
	return &MongoCollection[T]{
		coll:   db.Collection(name),
		newDoc: newDoc,
		now:    time.Now,
	}
}

func (c *MongoCollection[T]) FindByID(ctx context.Context, id string) (T, error) {
	return c.findOne(ctx, bson.M{"_id": id})
}

func (c *MongoCollection[T]) FindOne(ctx context.Context, filter Filter) (T, error) {
	var zero T
	query, err := buildMongoFilter(filter)
	if err != nil {
		return zero, err
	}
	return c.findOne(ctx, query)
}

func (c *MongoCollection[T]) findOne(ctx context.Context, query bson.M) (T, error) {
	var zero T
	doc := c.newDoc()
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if err := c.coll.FindOne(ctx, query, opts).Decode(doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return zero, ErrNotFound
		}
		return zero, err
	}
	return doc, nil
}

func (c *MongoCollection[T]) Find(ctx context.Context, filter Filter, page Page) ([]T, error) {
	query, err := buildMongoFilter(filter)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if page.Limit > 0 {
		opts.SetSkip(int64(page.Offset())).SetLimit(int64(page.Limit))
	}

	cursor, err := c.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	result := []T{}
	for cursor.Next(ctx) {
		doc := c.newDoc()
		if err := cursor.Decode(doc); err != nil {
			return nil, err
		}
		result = append(result, doc)
	}
	return result, cursor.Err()
}

func (c *MongoCollection[T]) Count(ctx context.Context, filter Filter) (int64, error) {
	query, err := buildMongoFilter(filter)
	if err != nil {
		return 0, err
	}
	return c.coll.CountDocuments(ctx, query)
}

func (c *MongoCollection[T]) Create(ctx context.Context, doc T) error {
	if doc.GetID() == "" {
		doc.SetID(uuid.New().String())
	}
	doc.SetVersion(1)
	doc.Touch(c.now())

	if _, err := c.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (c *MongoCollection[T]) UpdateByID(ctx context.Context, doc T) error {
	expected := doc.GetVersion()
	doc.SetVersion(expected + 1)
	doc.Touch(c.now())

	res, err := c.coll.ReplaceOne(ctx, bson.M{"_id": doc.GetID(), "version": expected}, doc)
	if err != nil {
		doc.SetVersion(expected)
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	if res.MatchedCount == 0 {
		doc.SetVersion(expected)
		return c.missOrConflict(ctx, doc.GetID(), ErrVersionConflict)
	}
	return nil
}

func (c *MongoCollection[T]) DeleteByID(ctx context.Context, id string) error {
	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Decrement is a single conditional update: the filter only matches while
// the field still holds at least n.
func (c *MongoCollection[T]) Decrement(ctx context.Context, id, field string, n int) error {
	if !fieldNameRegex.MatchString(field) {
		return fmt.Errorf("%w: %q", ErrInvalidField, field)
	}

	res, err := c.coll.UpdateOne(ctx,
		bson.M{"_id": id, field: bson.M{"$gte": n}},
		bson.M{
			"$inc": bson.M{field: -n, "version": 1},
			"$set": bson.M{"updatedAt": c.now()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return c.missOrConflict(ctx, id, ErrInsufficient)
	}
	return nil
}

func (c *MongoCollection[T]) Increment(ctx context.Context, id, field string, n int) error {
	if !fieldNameRegex.MatchString(field) {
		return fmt.Errorf("%w: %q", ErrInvalidField, field)
	}

	res, err := c.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{field: n, "version": 1},
			"$set": bson.M{"updatedAt": c.now()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// EnsureUnique creates a unique index on field.
func (c *MongoCollection[T]) EnsureUnique(ctx context.Context, field string) error {
	if !fieldNameRegex.MatchString(field) {
		return fmt.Errorf("%w: %q", ErrInvalidField, field)
	}
	_, err := c.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (c *MongoCollection[T]) missOrConflict(ctx context.Context, id string, conflict error) error {
	n, err := c.coll.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return conflict
}

// buildMongoFilter translates a Filter into a query document. The "id" field
// maps to Mongo's "_id".
func buildMongoFilter(filter Filter) (bson.M, error) {
	if err := filter.validate(); err != nil {
		return nil, err
	}

	query := bson.M{}
	for k, v := range filter.Equals {
		if k == "id" {
			k = "_id"
		}
		query[k] = v
	}

	if filter.Search != "" && len(filter.SearchFields) > 0 {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		ors := make(bson.A, 0, len(filter.SearchFields))
		for _, f := range filter.SearchFields {
			ors = append(ors, bson.M{f: pattern})
		}
		query["$or"] = ors
	}
	return query, nil
}
