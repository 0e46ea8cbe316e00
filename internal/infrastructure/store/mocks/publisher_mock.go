package mocks

import (
	"context"
	"encoding/json"
	"sync"
)

// MockPublisher records published events for assertions
type MockPublisher struct {
	mu sync.Mutex

	PublishCalls []PublishCall
	PublishErr   error
}

// PublishCall records parameters passed to PublishEvent
type PublishCall struct {
	AggregateID   string
	AggregateType string
	EventType     string
	Data          json.RawMessage
}

// NewMockPublisher creates a new MockPublisher
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishEvent(ctx context.Context, aggregateID, aggregateType, eventType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.PublishCalls = append(m.PublishCalls, PublishCall{
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          payload,
	})
	return m.PublishErr
}

// EventTypes returns the published event types in order
func (m *MockPublisher) EventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	types := make([]string, len(m.PublishCalls))
	for i, call := range m.PublishCalls {
		types[i] = call.EventType
	}
	return types
}
