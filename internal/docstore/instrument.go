package docstore

import (
	"context"
	"errors"
	"time"

	"heartbridge/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

type instrumented struct {
	next    Store
	backend string
}

// Instrument wraps s so every call records latency and error metrics and
// runs inside a tracing span.
func Instrument(s Store, backend string) Store {
	return &instrumented{next: s, backend: backend}
}

func (i *instrumented) observe(ctx context.Context, op, collection string, fn func(context.Context) error) error {
	span, ctx := observability.NewSpan(ctx, "docstore."+op)
	defer span.End()
	span.AddAttributes(
		attribute.String("docstore.backend", i.backend),
		attribute.String("docstore.collection", collection),
	)

	start := time.Now()
	err := fn(ctx)
	observability.DocstoreLatency.WithLabelValues(i.backend, op, collection).Observe(time.Since(start).Seconds())
	if err != nil && !errors.Is(err, ErrNotFound) {
		observability.DocstoreErrors.WithLabelValues(i.backend, op, collection).Inc()
		span.SetError(err)
	}
	return err
}

func (i *instrumented) Get(ctx context.Context, collection, id string) (*Document, error) {
	var doc *Document
	err := i.observe(ctx, "get", collection, func(ctx context.Context) error {
		var err error
		doc, err = i.next.Get(ctx, collection, id)
		return err
	})
	return doc, err
}

func (i *instrumented) Query(ctx context.Context, q Query) ([]Document, error) {
	var docs []Document
	err := i.observe(ctx, "query", q.Collection, func(ctx context.Context) error {
		var err error
		docs, err = i.next.Query(ctx, q)
		return err
	})
	return docs, err
}

func (i *instrumented) Add(ctx context.Context, collection string, fields Fields) (string, error) {
	var id string
	err := i.observe(ctx, "add", collection, func(ctx context.Context) error {
		var err error
		id, err = i.next.Add(ctx, collection, fields)
		return err
	})
	return id, err
}

func (i *instrumented) Set(ctx context.Context, collection, id string, fields Fields) error {
	return i.observe(ctx, "set", collection, func(ctx context.Context) error {
		return i.next.Set(ctx, collection, id, fields)
	})
}

func (i *instrumented) Update(ctx context.Context, collection, id string, fields Fields) error {
	return i.observe(ctx, "update", collection, func(ctx context.Context) error {
		return i.next.Update(ctx, collection, id, fields)
	})
}

func (i *instrumented) Delete(ctx context.Context, collection, id string) error {
	return i.observe(ctx, "delete", collection, func(ctx context.Context) error {
		return i.next.Delete(ctx, collection, id)
	})
}

func (i *instrumented) Increment(ctx context.Context, collection, id, field string, delta int64) error {
	return i.observe(ctx, "increment", collection, func(ctx context.Context) error {
		return i.next.Increment(ctx, collection, id, field, delta)
	})
}

func (i *instrumented) Close() error {
	return i.next.Close()
}
