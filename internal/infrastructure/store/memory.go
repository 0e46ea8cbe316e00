package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryEntry keeps the encoded document alongside its decoded fields so
// filters do not have to decode on every scan.
type memoryEntry struct {
	data      []byte
	fields    map[string]any
	createdAt time.Time
}

// MemoryCollection is an in-process Collection used by tests and by the
// "memory" store driver. Documents are stored JSON-encoded so callers never
// share state with the store.
type MemoryCollection[T Document] struct {
	mu     sync.RWMutex
	docs   map[string]*memoryEntry
	newDoc func() T
	now    func() time.Time
}

func NewMemoryCollection[T Document](newDoc func() T) *MemoryCollection[T] {
	return &MemoryCollection[T]{
		docs:   make(map[string]*memoryEntry),
		newDoc: newDoc,
		now:    time.Now,
	}
}

func (c *MemoryCollection[T]) FindByID(ctx context.Context, id string) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero T
	entry, ok := c.docs[id]
	if !ok {
		return zero, ErrNotFound
	}
	return c.decode(entry.data)
}

func (c *MemoryCollection[T]) FindOne(ctx context.Context, filter Filter) (T, error) {
	var zero T
	docs, err := c.Find(ctx, filter, Page{Page: 1, Limit: 1})
	if err != nil {
		return zero, err
	}
	if len(docs) == 0 {
		return zero, ErrNotFound
	}
	return docs[0], nil
}

func (c *MemoryCollection[T]) Find(ctx context.Context, filter Filter, page Page) ([]T, error) {
	if err := filter.validate(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	matched := c.match(filter)
	c.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].createdAt.After(matched[j].createdAt)
	})

	start := page.Offset()
	if start >= len(matched) {
		return []T{}, nil
	}
	end := len(matched)
	if page.Limit > 0 && start+page.Limit < end {
		end = start + page.Limit
	}

	result := make([]T, 0, end-start)
	for _, entry := range matched[start:end] {
		doc, err := c.decode(entry.data)
		if err != nil {
			return nil, err
		}
		result = append(result, doc)
	}
	return result, nil
}

func (c *MemoryCollection[T]) Count(ctx context.Context, filter Filter) (int64, error) {
	if err := filter.validate(); err != nil {
		return 0, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return int64(len(c.match(filter))), nil
}

func (c *MemoryCollection[T]) Create(ctx context.Context, doc T) error {
	if doc.GetID() == "" {
		doc.SetID(uuid.New().String())
	}
	doc.SetVersion(1)
	doc.Touch(c.now())

	entry, err := c.encode(doc)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.docs[doc.GetID()]; exists {
		return ErrDuplicate
	}
	c.docs[doc.GetID()] = entry
	return nil
}

func (c *MemoryCollection[T]) UpdateByID(ctx context.Context, doc T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, ok := c.docs[doc.GetID()]
	if !ok {
		return ErrNotFound
	}
	expected := doc.GetVersion()
	if versionOf(current.fields) != expected {
		return ErrVersionConflict
	}

	doc.SetVersion(expected + 1)
	doc.Touch(c.now())
	entry, err := c.encode(doc)
	if err != nil {
		doc.SetVersion(expected)
		return err
	}
	entry.createdAt = current.createdAt
	c.docs[doc.GetID()] = entry
	return nil
}

func (c *MemoryCollection[T]) DeleteByID(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.docs[id]; !ok {
		return ErrNotFound
	}
	delete(c.docs, id)
	return nil
}

func (c *MemoryCollection[T]) Decrement(ctx context.Context, id, field string, n int) error {
	return c.adjust(id, field, -n, true)
}

func (c *MemoryCollection[T]) Increment(ctx context.Context, id, field string, n int) error {
	return c.adjust(id, field, n, false)
}

func (c *MemoryCollection[T]) adjust(id, field string, delta int, guard bool) error {
	if !fieldNameRegex.MatchString(field) {
		return fmt.Errorf("%w: %q", ErrInvalidField, field)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.docs[id]
	if !ok {
		return ErrNotFound
	}

	fields := make(map[string]any, len(entry.fields))
	for k, v := range entry.fields {
		fields[k] = v
	}
	current, _ := fields[field].(float64)
	if guard && int(current)+delta < 0 {
		return ErrInsufficient
	}
	fields[field] = int(current) + delta
	fields["version"] = versionOf(entry.fields) + 1
	fields["updatedAt"] = c.now().UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	c.docs[id] = &memoryEntry{data: data, fields: decoded, createdAt: entry.createdAt}
	return nil
}

// match returns entries satisfying filter. Callers must hold the lock.
func (c *MemoryCollection[T]) match(filter Filter) []*memoryEntry {
	term := strings.ToLower(filter.Search)
	matched := make([]*memoryEntry, 0, len(c.docs))
	for _, entry := range c.docs {
		if !matchesEquals(entry.fields, filter.Equals) {
			continue
		}
		if term != "" && !matchesSearch(entry.fields, term, filter.SearchFields) {
			continue
		}
		matched = append(matched, entry)
	}
	return matched
}

func matchesEquals(fields map[string]any, equals map[string]any) bool {
	for k, want := range equals {
		got, ok := fields[k]
		if !ok || textValue(got) != textValue(want) {
			return false
		}
	}
	return true
}

func matchesSearch(fields map[string]any, term string, searchFields []string) bool {
	for _, f := range searchFields {
		if s, ok := fields[f].(string); ok && strings.Contains(strings.ToLower(s), term) {
			return true
		}
	}
	return false
}

func versionOf(fields map[string]any) int {
	v, _ := fields["version"].(float64)
	return int(v)
}

func (c *MemoryCollection[T]) encode(doc T) (*memoryEntry, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return &memoryEntry{data: data, fields: fields, createdAt: doc.GetCreatedAt()}, nil
}

func (c *MemoryCollection[T]) decode(data []byte) (T, error) {
	doc := c.newDoc()
	if err := json.Unmarshal(data, doc); err != nil {
		var zero T
		return zero, err
	}
	return doc, nil
}
