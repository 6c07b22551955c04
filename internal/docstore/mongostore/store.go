// Package mongostore implements docstore.Store on MongoDB, one Mongo
// collection per document collection with the document id stored as _id.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"heartbridge/internal/docstore"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is a docstore.Store over a Mongo database.
type Store struct {
	db     *mongo.Database
	client *mongo.Client
	newID  func() string
}

// New wraps an existing database handle. Close leaves the client connected.
func New(db *mongo.Database) *Store {
	return &Store{db: db, newID: uuid.NewString}
}

// Open connects to uri and verifies the connection before returning.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	s := New(client.Database(database))
	s.client = client
	return s, nil
}

func notFound(collection, id string) error {
	return fmt.Errorf("%s/%s: %w", collection, id, docstore.ErrNotFound)
}

// Get implements docstore.Store.
func (s *Store) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	var raw bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(collection, id)
	}
	if err != nil {
		return nil, err
	}
	doc := toDocument(raw)
	return &doc, nil
}

// Query implements docstore.Store.
func (s *Store) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	if err := docstore.ValidateQuery(q); err != nil {
		return nil, err
	}

	conds := bson.A{}
	for _, f := range q.Filters {
		conds = append(conds, bson.M{f.Field: f.Value})
	}
	dir, op := 1, "$gt"
	if q.Direction == docstore.Desc {
		dir, op = -1, "$lt"
	}
	if q.StartAfter != nil {
		v := q.StartAfter.Fields[q.OrderBy]
		conds = append(conds, bson.M{"$or": bson.A{
			bson.M{q.OrderBy: bson.M{op: v}},
			bson.M{q.OrderBy: v, "_id": bson.M{op: q.StartAfter.ID}},
		}})
	}
	filter := bson.M{}
	if len(conds) > 0 {
		filter = bson.M{"$and": conds}
	}

	sort := bson.D{}
	if q.OrderBy != "" {
		sort = append(sort, bson.E{Key: q.OrderBy, Value: dir})
	}
	sort = append(sort, bson.E{Key: "_id", Value: dir})
	opts := options.Find().SetSort(sort)
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := s.db.Collection(q.Collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var raws []bson.M
	if err := cur.All(ctx, &raws); err != nil {
		return nil, err
	}
	docs := make([]docstore.Document, 0, len(raws))
	for _, raw := range raws {
		docs = append(docs, toDocument(raw))
	}
	return docs, nil
}

func withID(id string, fields docstore.Fields) bson.M {
	m := bson.M{"_id": id}
	for k, v := range fields {
		if k == "_id" {
			continue
		}
		m[k] = v
	}
	return m
}

// Add implements docstore.Store.
func (s *Store) Add(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	id := s.newID()
	if _, err := s.db.Collection(collection).InsertOne(ctx, withID(id, fields)); err != nil {
		return "", err
	}
	return id, nil
}

// Set implements docstore.Store.
func (s *Store) Set(ctx context.Context, collection, id string, fields docstore.Fields) error {
	if id == "" {
		return errors.New("document id is required")
	}
	_, err := s.db.Collection(collection).ReplaceOne(ctx,
		bson.M{"_id": id}, withID(id, fields), options.Replace().SetUpsert(true))
	return err
}

// Update implements docstore.Store.
func (s *Store) Update(ctx context.Context, collection, id string, fields docstore.Fields) error {
	if len(fields) == 0 {
		_, err := s.Get(ctx, collection, id)
		return err
	}
	set := bson.M{}
	for k, v := range fields {
		set[k] = v
	}
	res, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return notFound(collection, id)
	}
	return nil
}

// Delete implements docstore.Store.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	_, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// Increment implements docstore.Store. Mongo rejects $inc on non-numeric
// fields itself.
func (s *Store) Increment(ctx context.Context, collection, id, field string, delta int64) error {
	if err := docstore.ValidateField(field); err != nil {
		return err
	}
	res, err := s.db.Collection(collection).UpdateOne(ctx,
		bson.M{"_id": id}, bson.M{"$inc": bson.M{field: delta}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return notFound(collection, id)
	}
	return nil
}

// Close implements docstore.Store.
func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func toDocument(raw bson.M) docstore.Document {
	id := fmt.Sprint(raw["_id"])
	fields := make(docstore.Fields, len(raw))
	for k, v := range raw {
		if k == "_id" {
			continue
		}
		fields[k] = normalize(v)
	}
	return docstore.Document{ID: id, Fields: fields}
}

// normalize converts driver-specific BSON types into the plain Go values
// the models decode.
func normalize(v any) any {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.Timestamp:
		return time.Unix(int64(t.T), 0).UTC()
	case primitive.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	case primitive.M:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalize(e)
		}
		return out
	case primitive.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case primitive.ObjectID:
		return t.Hex()
	}
	return v
}
