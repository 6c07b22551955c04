// Package firestore implements docstore.Store on Cloud Firestore through the
// Firebase Admin SDK.
package firestore

import (
	"context"
	"errors"
	"fmt"

	gfs "cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"heartbridge/internal/docstore"
)

// Config selects the Firebase project.
type Config struct {
	ProjectID       string
	CredentialsFile string
}

// NewApp initializes a Firebase app. Without a credentials file the SDK
// falls back to application default credentials, or to the emulator when
// FIRESTORE_EMULATOR_HOST is set.
func NewApp(ctx context.Context, cfg Config) (*firebase.App, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	return app, nil
}

// Store is a docstore.Store over a Firestore client.
type Store struct {
	client *gfs.Client
}

// New returns a store using app's Firestore client.
func New(ctx context.Context, app *firebase.App) (*Store, error) {
	c, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return &Store{client: c}, nil
}

func mapErr(err error, collection, id string) error {
	if err == nil {
		return nil
	}
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%s/%s: %w", collection, id, docstore.ErrNotFound)
	}
	return err
}

// Get implements docstore.Store.
func (s *Store) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return nil, mapErr(err, collection, id)
	}
	return &docstore.Document{ID: snap.Ref.ID, Fields: docstore.Fields(snap.Data())}, nil
}

// Query implements docstore.Store.
func (s *Store) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	if err := docstore.ValidateQuery(q); err != nil {
		return nil, err
	}

	fq := s.client.Collection(q.Collection).Query
	for _, f := range q.Filters {
		fq = fq.Where(f.Field, "==", f.Value)
	}
	dir := gfs.Asc
	if q.Direction == docstore.Desc {
		dir = gfs.Desc
	}
	if q.OrderBy != "" {
		fq = fq.OrderBy(q.OrderBy, dir)
	}
	fq = fq.OrderBy(gfs.DocumentID, dir)
	if q.StartAfter != nil {
		fq = fq.StartAfter(q.StartAfter.Fields[q.OrderBy], q.StartAfter.ID)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}

	snaps, err := fq.Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	docs := make([]docstore.Document, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, docstore.Document{ID: snap.Ref.ID, Fields: docstore.Fields(snap.Data())})
	}
	return docs, nil
}

// Add implements docstore.Store.
func (s *Store) Add(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	ref := s.client.Collection(collection).NewDoc()
	if _, err := ref.Set(ctx, map[string]any(fields)); err != nil {
		return "", err
	}
	return ref.ID, nil
}

// Set implements docstore.Store.
func (s *Store) Set(ctx context.Context, collection, id string, fields docstore.Fields) error {
	if id == "" {
		return errors.New("document id is required")
	}
	_, err := s.client.Collection(collection).Doc(id).Set(ctx, map[string]any(fields))
	return err
}

// Update implements docstore.Store.
func (s *Store) Update(ctx context.Context, collection, id string, fields docstore.Fields) error {
	if len(fields) == 0 {
		_, err := s.Get(ctx, collection, id)
		return err
	}
	updates := make([]gfs.Update, 0, len(fields))
	for k, v := range fields {
		updates = append(updates, gfs.Update{FieldPath: gfs.FieldPath{k}, Value: v})
	}
	_, err := s.client.Collection(collection).Doc(id).Update(ctx, updates)
	return mapErr(err, collection, id)
}

// Delete implements docstore.Store.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	_, err := s.client.Collection(collection).Doc(id).Delete(ctx)
	return err
}

// Increment implements docstore.Store with a server-side field transform.
// Firestore treats a non-numeric field as zero.
func (s *Store) Increment(ctx context.Context, collection, id, field string, delta int64) error {
	if err := docstore.ValidateField(field); err != nil {
		return err
	}
	_, err := s.client.Collection(collection).Doc(id).Update(ctx, []gfs.Update{
		{FieldPath: gfs.FieldPath{field}, Value: gfs.Increment(delta)},
	})
	return mapErr(err, collection, id)
}

// Close implements docstore.Store.
func (s *Store) Close() error {
	return s.client.Close()
}
