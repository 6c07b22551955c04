// Package repository implements the data access layer over the document
// store. Each repository owns one collection and translates between stored
// documents and models.
package repository

import (
	"context"
	"errors"

	"heartbridge/internal/docstore"
	"heartbridge/internal/models"
	"heartbridge/internal/observability"
)

// ListOptions bounds a paginated listing.
type ListOptions struct {
	Limit int
	// After continues the listing after this document.
	After *docstore.Document
}

// Page is one page of a cursor-paginated listing.
type Page[T any] struct {
	Items []T
	// Fetched counts the documents the store returned, including malformed
	// ones that were skipped. A full page means more may follow.
	Fetched int
	// Last is the last document the store returned, the cursor for the
	// next page.
	Last *docstore.Document
}

// Full reports whether the store returned a complete page of limit items.
func (p Page[T]) Full(limit int) bool {
	return limit > 0 && p.Fetched == limit
}

// queryPage runs q and decodes every document, skipping malformed ones.
func queryPage[T any](ctx context.Context, store docstore.Store, logger *observability.RepoLogger, q docstore.Query, decode func(docstore.Document) (*T, error)) (Page[T], error) {
	docs, err := store.Query(ctx, q)
	if err != nil {
		logger.LogError(ctx, err, "query")
		return Page[T]{}, models.NewInternalError(err)
	}

	page := Page[T]{Items: make([]T, 0, len(docs)), Fetched: len(docs)}
	for _, doc := range docs {
		item, err := decode(doc)
		if err != nil {
			logger.LogMalformed(ctx, doc.ID, err)
			continue
		}
		page.Items = append(page.Items, *item)
	}
	if len(docs) > 0 {
		last := docs[len(docs)-1]
		page.Last = &last
	}
	logger.LogRead(ctx, map[string]any{"count": len(page.Items), "fetched": len(docs)})
	return page, nil
}

// newestFirst builds the createAt-descending query every listing uses.
func newestFirst(collection string, opts ListOptions) docstore.Query {
	return docstore.Query{
		Collection: collection,
		OrderBy:    models.FieldCreatedAt,
		Direction:  docstore.Desc,
		Limit:      opts.Limit,
		StartAfter: opts.After,
	}
}

// getDocument reads one document, mapping a missing document to notFound.
func getDocument(ctx context.Context, store docstore.Store, logger *observability.RepoLogger, collection, id string, notFound func() error) (*docstore.Document, error) {
	if id == "" {
		return nil, notFound()
	}
	doc, err := store.Get(ctx, collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, notFound()
	}
	if err != nil {
		logger.LogError(ctx, err, "get")
		return nil, models.NewInternalError(err)
	}
	return doc, nil
}

// storeError maps a write failure, keeping not-found distinct.
func storeError(err error, notFound func() error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, docstore.ErrNotFound) {
		return notFound()
	}
	return models.NewInternalError(err)
}

// deleteWhere removes every document in collection whose field equals value,
// returning how many were removed.
func deleteWhere(ctx context.Context, store docstore.Store, collection, field, value string) (int, error) {
	docs, err := store.Query(ctx, docstore.Query{Collection: collection}.Where(field, value))
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	for i, doc := range docs {
		if err := store.Delete(ctx, collection, doc.ID); err != nil {
			return i, models.NewInternalError(err)
		}
	}
	return len(docs), nil
}
