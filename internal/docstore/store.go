// Package docstore defines the schema-less document store the application
// persists users, articles, comments and favorites in, plus an in-memory
// backend. Remote backends live in the sqlstore, firestore and mongostore
// subpackages.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// ErrNotFound is returned when a document id has no corresponding document.
var ErrNotFound = errors.New("document not found")

// Fields is a plain document payload.
type Fields map[string]any

// Clone returns a shallow copy of f.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Document is a stored field map together with its id.
type Document struct {
	ID     string
	Fields Fields
}

// Direction is a sort direction.
type Direction int

const (
	// Asc sorts smallest first.
	Asc Direction = iota
	// Desc sorts largest first.
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// Filter is an equality predicate on one top-level field.
type Filter struct {
	Field string
	Value any
}

// Query is a collection-scoped query. Results are ordered by OrderBy, ties
// broken by document id in the same direction. StartAfter continues after the
// given document, which must carry the OrderBy field.
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    string
	Direction  Direction
	Limit      int
	StartAfter *Document
}

// Where appends an equality filter and returns the query.
func (q Query) Where(field string, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Value: value})
	return q
}

// Store is the document store contract shared by every backend.
type Store interface {
	// Get returns ErrNotFound when the document does not exist.
	Get(ctx context.Context, collection, id string) (*Document, error)
	Query(ctx context.Context, q Query) ([]Document, error)
	// Add inserts a new document under a generated id.
	Add(ctx context.Context, collection string, fields Fields) (string, error)
	// Set creates or replaces a document.
	Set(ctx context.Context, collection, id string, fields Fields) error
	// Update merges fields into an existing document. ErrNotFound if absent.
	Update(ctx context.Context, collection, id string, fields Fields) error
	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error
	// Increment atomically adds delta to a numeric field. ErrNotFound if absent.
	Increment(ctx context.Context, collection, id, field string, delta int64) error
	Close() error
}

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,63}$`)

// ValidateField rejects field names that cannot be used as a top-level
// filter or order key by every backend.
func ValidateField(name string) error {
	if !fieldNamePattern.MatchString(name) {
		return fmt.Errorf("invalid field name %q", name)
	}
	return nil
}

// ValidateQuery checks the parts of q every backend relies on.
func ValidateQuery(q Query) error {
	if q.Collection == "" {
		return errors.New("query collection is required")
	}
	if q.Limit < 0 {
		return fmt.Errorf("negative query limit %d", q.Limit)
	}
	for _, f := range q.Filters {
		if err := ValidateField(f.Field); err != nil {
			return err
		}
	}
	if q.OrderBy != "" {
		if err := ValidateField(q.OrderBy); err != nil {
			return err
		}
	}
	if q.StartAfter != nil {
		if q.OrderBy == "" {
			return errors.New("StartAfter requires OrderBy")
		}
		if _, ok := q.StartAfter.Fields[q.OrderBy]; !ok {
			return fmt.Errorf("cursor document %s has no %q field", q.StartAfter.ID, q.OrderBy)
		}
	}
	return nil
}
