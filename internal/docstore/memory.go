package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Store. It is safe for concurrent use.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]Fields
	newID       func() string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string]map[string]Fields),
		newID:       uuid.NewString,
	}
}

func copyFields(f Fields) Fields {
	return Fields(deepCopyMap(f))
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, collection, id string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.collections[collection][id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return &Document{ID: id, Fields: copyFields(f)}, nil
}

// Query implements Store.
func (m *Memory) Query(_ context.Context, q Query) ([]Document, error) {
	if err := ValidateQuery(q); err != nil {
		return nil, err
	}

	m.mu.RLock()
	var docs []Document
	for id, f := range m.collections[q.Collection] {
		if matches(f, q.Filters) {
			docs = append(docs, Document{ID: id, Fields: copyFields(f)})
		}
	}
	m.mu.RUnlock()

	less := func(a, b Document) bool {
		c := 0
		if q.OrderBy != "" {
			c = Compare(a.Fields[q.OrderBy], b.Fields[q.OrderBy])
		}
		if c == 0 {
			c = Compare(a.ID, b.ID)
		}
		if q.Direction == Desc {
			return c > 0
		}
		return c < 0
	}
	sort.Slice(docs, func(i, j int) bool { return less(docs[i], docs[j]) })

	if q.StartAfter != nil {
		cursor := *q.StartAfter
		start := len(docs)
		for i, d := range docs {
			if less(cursor, d) {
				start = i
				break
			}
		}
		docs = docs[start:]
	}
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs, nil
}

func matches(f Fields, filters []Filter) bool {
	for _, flt := range filters {
		v, ok := f[flt.Field]
		if !ok || !Equal(v, flt.Value) {
			return false
		}
	}
	return true
}

// Add implements Store.
func (m *Memory) Add(ctx context.Context, collection string, fields Fields) (string, error) {
	id := m.newID()
	if err := m.Set(ctx, collection, id, fields); err != nil {
		return "", err
	}
	return id, nil
}

// Set implements Store.
func (m *Memory) Set(_ context.Context, collection, id string, fields Fields) error {
	if id == "" {
		return fmt.Errorf("%s: empty document id", collection)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	coll, ok := m.collections[collection]
	if !ok {
		coll = make(map[string]Fields)
		m.collections[collection] = coll
	}
	coll[id] = copyFields(fields)
	return nil
}

// Update implements Store.
func (m *Memory) Update(_ context.Context, collection, id string, fields Fields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.collections[collection][id]
	if !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	for k, v := range fields {
		existing[k] = DeepCopy(v)
	}
	return nil
}

// Delete implements Store.
func (m *Memory) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections[collection], id)
	return nil
}

// Increment implements Store.
func (m *Memory) Increment(_ context.Context, collection, id, field string, delta int64) error {
	if err := ValidateField(field); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.collections[collection][id]
	if !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	current := int64(0)
	if v, ok := existing[field]; ok && v != nil {
		n, isNum := AsFloat(v)
		if !isNum {
			return fmt.Errorf("%s/%s: field %q is not numeric", collection, id, field)
		}
		current = int64(n)
	}
	existing[field] = current + delta
	return nil
}

// Close implements Store.
func (m *Memory) Close() error { return nil }

// Len returns the number of documents in a collection.
func (m *Memory) Len(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections[collection])
}
