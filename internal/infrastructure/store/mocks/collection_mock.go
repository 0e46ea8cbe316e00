package mocks

import (
	"context"
	"sync"

	"github.com/example/event-ticketing/internal/infrastructure/store"
)

// MockCollection wraps an in-memory collection, records calls and lets tests
// inject failures. It implements store.Collection and store.Counter.
type MockCollection[T store.Document] struct {
	inner *store.MemoryCollection[T]

	mu sync.Mutex

	// For tracking calls in tests
	CreateCalls    []T
	UpdateCalls    []T
	DeleteCalls    []string
	DecrementCalls []CounterCall
	IncrementCalls []CounterCall

	// Errors returned instead of delegating
	FindErr      error
	CreateErr    error
	UpdateErr    error
	DeleteErr    error
	DecrementErr error
	IncrementErr error

	// UpdateCallback runs before an update is applied, allowing tests to
	// interleave a concurrent writer.
	UpdateCallback func(ctx context.Context, doc T)
}

// CounterCall records parameters passed to Decrement or Increment
type CounterCall struct {
	ID    string
	Field string
	N     int
}

// NewMockCollection creates a new MockCollection
func NewMockCollection[T store.Document](newDoc func() T) *MockCollection[T] {
	return &MockCollection[T]{inner: store.NewMemoryCollection(newDoc)}
}

// Seed stores doc directly, bypassing call recording.
func (m *MockCollection[T]) Seed(ctx context.Context, doc T) error {
	return m.inner.Create(ctx, doc)
}

// Get reads a document directly, bypassing call recording and errors.
func (m *MockCollection[T]) Get(ctx context.Context, id string) (T, error) {
	return m.inner.FindByID(ctx, id)
}

func (m *MockCollection[T]) FindByID(ctx context.Context, id string) (T, error) {
	if err := m.findErr(); err != nil {
		var zero T
		return zero, err
	}
	return m.inner.FindByID(ctx, id)
}

func (m *MockCollection[T]) FindOne(ctx context.Context, filter store.Filter) (T, error) {
	if err := m.findErr(); err != nil {
		var zero T
		return zero, err
	}
	return m.inner.FindOne(ctx, filter)
}

func (m *MockCollection[T]) Find(ctx context.Context, filter store.Filter, page store.Page) ([]T, error) {
	if err := m.findErr(); err != nil {
		return nil, err
	}
	return m.inner.Find(ctx, filter, page)
}

func (m *MockCollection[T]) Count(ctx context.Context, filter store.Filter) (int64, error) {
	if err := m.findErr(); err != nil {
		return 0, err
	}
	return m.inner.Count(ctx, filter)
}

func (m *MockCollection[T]) Create(ctx context.Context, doc T) error {
	m.mu.Lock()
	m.CreateCalls = append(m.CreateCalls, doc)
	err := m.CreateErr
	m.mu.Unlock()

	if err != nil {
		return err
	}
	return m.inner.Create(ctx, doc)
}

func (m *MockCollection[T]) UpdateByID(ctx context.Context, doc T) error {
	m.mu.Lock()
	m.UpdateCalls = append(m.UpdateCalls, doc)
	err := m.UpdateErr
	callback := m.UpdateCallback
	m.mu.Unlock()

	if callback != nil {
		callback(ctx, doc)
	}
	if err != nil {
		return err
	}
	return m.inner.UpdateByID(ctx, doc)
}

func (m *MockCollection[T]) DeleteByID(ctx context.Context, id string) error {
	m.mu.Lock()
	m.DeleteCalls = append(m.DeleteCalls, id)
	err := m.DeleteErr
	m.mu.Unlock()

	if err != nil {
		return err
	}
	return m.inner.DeleteByID(ctx, id)
}

func (m *MockCollection[T]) Decrement(ctx context.Context, id, field string, n int) error {
	m.mu.Lock()
	m.DecrementCalls = append(m.DecrementCalls, CounterCall{ID: id, Field: field, N: n})
	err := m.DecrementErr
	m.mu.Unlock()

	if err != nil {
		return err
	}
	return m.inner.Decrement(ctx, id, field, n)
}

func (m *MockCollection[T]) Increment(ctx context.Context, id, field string, n int) error {
	m.mu.Lock()
	m.IncrementCalls = append(m.IncrementCalls, CounterCall{ID: id, Field: field, N: n})
	err := m.IncrementErr
	m.mu.Unlock()

	if err != nil {
		return err
	}
	return m.inner.Increment(ctx, id, field, n)
}

// Reset clears recorded calls and injected errors
func (m *MockCollection[T]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateCalls = nil
	m.UpdateCalls = nil
	m.DeleteCalls = nil
	m.DecrementCalls = nil
	m.IncrementCalls = nil
	m.FindErr = nil
	m.CreateErr = nil
	m.UpdateErr = nil
	m.DeleteErr = nil
	m.DecrementErr = nil
	m.IncrementErr = nil
	m.UpdateCallback = nil
}

func (m *MockCollection[T]) findErr() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.FindErr
}
