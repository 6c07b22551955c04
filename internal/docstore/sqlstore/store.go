// Package sqlstore implements docstore.Store on a single gorm-managed table
// holding one JSON payload per document. It runs on PostgreSQL in production
// and SQLite for local development and tests.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"heartbridge/internal/docstore"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// timeLayout is fixed width so encoded timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Document is the row backing one stored document.
type Document struct {
	Collection string            `gorm:"primaryKey;size:64"`
	ID         string            `gorm:"primaryKey;size:64"`
	Data       datatypes.JSONMap `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName pins the table name regardless of naming strategy.
func (Document) TableName() string { return "documents" }

// Store is a docstore.Store over gorm.
type Store struct {
	db    *gorm.DB
	owned bool
	newID func() string
}

// New wraps an existing connection. Close leaves the connection open.
func New(db *gorm.DB) *Store {
	return &Store{db: db, newID: uuid.NewString}
}

// Open wraps a connection the store owns and closes on Close.
func Open(db *gorm.DB) *Store {
	s := New(db)
	s.owned = true
	return s
}

// Migrate creates or updates the documents table.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Document{})
}

func (s *Store) postgres() bool {
	return s.db.Dialector.Name() == "postgres"
}

// fieldExpr returns the SQL expression reading a top-level JSON field.
// Field names are checked by docstore.ValidateField before use.
func (s *Store) fieldExpr(field string) string {
	if s.postgres() {
		return fmt.Sprintf("data->>'%s'", field)
	}
	return fmt.Sprintf("json_extract(data, '$.%s')", field)
}

// paramValue converts a filter or cursor value into the form the field
// expression yields. PostgreSQL's ->> always returns text.
func (s *Store) paramValue(v any) any {
	v = encodeValue(v)
	if !s.postgres() {
		return v
	}
	switch t := v.(type) {
	case bool:
		return strconv.FormatBool(t)
	case string:
		return t
	}
	if f, ok := docstore.AsFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func encodeValue(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(timeLayout)
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UTC().Format(timeLayout)
	case docstore.Fields:
		return encodeMap(t)
	case map[string]any:
		return encodeMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = encodeValue(e)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = encodeMap(e)
		}
		return out
	}
	return v
}

func encodeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = encodeValue(v)
	}
	return out
}

func (s *Store) scoped(ctx context.Context, collection string) *gorm.DB {
	return s.db.WithContext(ctx).Model(&Document{}).Where("collection = ?", collection)
}

func notFound(collection, id string) error {
	return fmt.Errorf("%s/%s: %w", collection, id, docstore.ErrNotFound)
}

// Get implements docstore.Store.
func (s *Store) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	var row Document
	err := s.scoped(ctx, collection).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(collection, id)
	}
	if err != nil {
		return nil, err
	}
	return &docstore.Document{ID: row.ID, Fields: docstore.Fields(row.Data)}, nil
}

// Query implements docstore.Store.
func (s *Store) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	if err := docstore.ValidateQuery(q); err != nil {
		return nil, err
	}

	tx := s.scoped(ctx, q.Collection)
	for _, f := range q.Filters {
		tx = tx.Where(s.fieldExpr(f.Field)+" = ?", s.paramValue(f.Value))
	}

	order := "ASC"
	op := ">"
	if q.Direction == docstore.Desc {
		order, op = "DESC", "<"
	}
	if q.OrderBy != "" {
		expr := s.fieldExpr(q.OrderBy)
		if q.StartAfter != nil {
			// gorm parenthesizes OR expressions joined to other conditions
			cursor := s.paramValue(q.StartAfter.Fields[q.OrderBy])
			tx = tx.Where(
				fmt.Sprintf("%s %s ? OR (%s = ? AND id %s ?)", expr, op, expr, op),
				cursor, cursor, q.StartAfter.ID,
			)
		}
		tx = tx.Order(expr + " " + order)
	}
	tx = tx.Order("id " + order)
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var rows []Document
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	docs := make([]docstore.Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, docstore.Document{ID: row.ID, Fields: docstore.Fields(row.Data)})
	}
	return docs, nil
}

// Add implements docstore.Store.
func (s *Store) Add(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	id := s.newID()
	row := Document{Collection: collection, ID: id, Data: datatypes.JSONMap(encodeMap(fields))}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", err
	}
	return id, nil
}

// Set implements docstore.Store.
func (s *Store) Set(ctx context.Context, collection, id string, fields docstore.Fields) error {
	if id == "" {
		return errors.New("document id is required")
	}
	row := Document{Collection: collection, ID: id, Data: datatypes.JSONMap(encodeMap(fields))}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&row).Error
}

// mutate loads a row inside a transaction, applies fn to its payload and
// saves the result. The row is locked on PostgreSQL.
func (s *Store) mutate(ctx context.Context, collection, id string, fn func(docstore.Fields) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&Document{}).Where("collection = ? AND id = ?", collection, id)
		if s.postgres() {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var row Document
		if err := q.Take(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound(collection, id)
			}
			return err
		}
		data := docstore.Fields(row.Data)
		if data == nil {
			data = docstore.Fields{}
		}
		if err := fn(data); err != nil {
			return err
		}
		return tx.Model(&Document{}).
			Where("collection = ? AND id = ?", collection, id).
			Updates(map[string]any{
				"data":       datatypes.JSONMap(data),
				"updated_at": time.Now().UTC(),
			}).Error
	})
}

// Update implements docstore.Store.
func (s *Store) Update(ctx context.Context, collection, id string, fields docstore.Fields) error {
	return s.mutate(ctx, collection, id, func(data docstore.Fields) error {
		for k, v := range encodeMap(fields) {
			data[k] = v
		}
		return nil
	})
}

// Delete implements docstore.Store.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	return s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Delete(&Document{}).Error
}

// Increment implements docstore.Store.
func (s *Store) Increment(ctx context.Context, collection, id, field string, delta int64) error {
	if err := docstore.ValidateField(field); err != nil {
		return err
	}
	return s.mutate(ctx, collection, id, func(data docstore.Fields) error {
		var current int64
		if v, ok := data[field]; ok && v != nil {
			f, ok := docstore.AsFloat(v)
			if !ok {
				return fmt.Errorf("%s/%s: field %q is not numeric", collection, id, field)
			}
			current = int64(f)
		}
		data[field] = current + delta
		return nil
	})
}

// Close implements docstore.Store.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
