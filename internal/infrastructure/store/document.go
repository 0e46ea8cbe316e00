package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("document not found")
	ErrDuplicate       = errors.New("document already exists")
	ErrVersionConflict = errors.New("document was modified concurrently")
	ErrInsufficient    = errors.New("counter would go below zero")
	ErrInvalidField    = errors.New("invalid field name")
)

// Document is implemented by every entity persisted through a Collection.
type Document interface {
	GetID() string
	SetID(id string)
	GetVersion() int
	SetVersion(v int)
	GetCreatedAt() time.Time
	Touch(now time.Time)
}

// Base carries the storage fields shared by all documents. Embed it with
// `bson:",inline"` so the Mongo codec flattens it like encoding/json does.
type Base struct {
	ID        string    `json:"id" bson:"_id"`
	Version   int       `json:"version" bson:"version"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (b *Base) GetID() string           { return b.ID }
func (b *Base) SetID(id string)         { b.ID = id }
func (b *Base) GetVersion() int         { return b.Version }
func (b *Base) SetVersion(v int)        { b.Version = v }
func (b *Base) GetCreatedAt() time.Time { return b.CreatedAt }

// Touch stamps UpdatedAt, and CreatedAt on first write.
func (b *Base) Touch(now time.Time) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

// Collection is a collection-scoped document store. Implementations must be
// safe for concurrent use. Find results are ordered by createdAt, newest first.
type Collection[T Document] interface {
	FindByID(ctx context.Context, id string) (T, error)
	FindOne(ctx context.Context, filter Filter) (T, error)
	Find(ctx context.Context, filter Filter, page Page) ([]T, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	// Create assigns an id when the document has none and sets version 1.
	Create(ctx context.Context, doc T) error
	// UpdateByID replaces the stored document when its version still equals
	// doc.GetVersion(), then bumps the version on doc. A stale version yields
	// ErrVersionConflict.
	UpdateByID(ctx context.Context, doc T) error
	DeleteByID(ctx context.Context, id string) error
}

// Counter adjusts an integer field of a single document atomically.
type Counter interface {
	// Decrement subtracts n from field only if the current value is at least n.
	// It returns ErrInsufficient when the condition does not hold and
	// ErrNotFound when the document does not exist.
	Decrement(ctx context.Context, id, field string, n int) error
	Increment(ctx context.Context, id, field string, n int) error
}

// UniqueIndexer is implemented by backends that can enforce uniqueness of a
// field at the storage level.
type UniqueIndexer interface {
	EnsureUnique(ctx context.Context, field string) error
}
