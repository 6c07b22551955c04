package sqlstore

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"heartbridge/internal/docstore"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSQLiteStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	s := Open(db)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_QueryPaginatesByTimestamp(t *testing.T) {
	ctx := context.Background()
	s := setupSQLiteStore(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		role := "teen"
		if i%2 == 1 {
			role = "parent"
		}
		require.NoError(t, s.Set(ctx, "articles", fmt.Sprintf("a%02d", i), docstore.Fields{
			"authorName": role,
			"createAt":   base.Add(time.Duration(i) * time.Minute),
			"likes":      int64(i),
		}))
	}

	q := docstore.Query{Collection: "articles", OrderBy: "createAt", Direction: docstore.Desc, Limit: 10}
	page1, err := s.Query(ctx, q)
	require.NoError(t, err)
	require.Len(t, page1, 10)
	assert.Equal(t, "a24", page1[0].ID)

	q.StartAfter = &page1[9]
	page2, err := s.Query(ctx, q)
	require.NoError(t, err)
	require.Len(t, page2, 10)
	assert.Equal(t, "a14", page2[0].ID)

	q.StartAfter = &page2[9]
	page3, err := s.Query(ctx, q)
	require.NoError(t, err)
	assert.Len(t, page3, 5)

	parents, err := s.Query(ctx, docstore.Query{Collection: "articles", OrderBy: "createAt"}.Where("authorName", "parent"))
	require.NoError(t, err)
	require.Len(t, parents, 12)
	assert.Equal(t, "a01", parents[0].ID)

	byLikes, err := s.Query(ctx, docstore.Query{Collection: "articles"}.Where("likes", int64(7)))
	require.NoError(t, err)
	require.Len(t, byLikes, 1)
	assert.Equal(t, "a07", byLikes[0].ID)
}

func TestStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := setupSQLiteStore(t)

	_, err := s.Get(ctx, "comments", "missing")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
	assert.ErrorIs(t, s.Update(ctx, "comments", "missing", docstore.Fields{"content": "x"}), docstore.ErrNotFound)

	id, err := s.Add(ctx, "comments", docstore.Fields{"content": "hi", "likes": int64(0)})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, s.Update(ctx, "comments", id, docstore.Fields{"content": "hello"}))
	require.NoError(t, s.Increment(ctx, "comments", id, "likes", 2))
	require.NoError(t, s.Increment(ctx, "comments", id, "likes", 1))

	doc, err := s.Get(ctx, "comments", id)
	require.NoError(t, err)
	assert.Equal(t, "hello", doc.Fields["content"])
	assert.EqualValues(t, 3, doc.Fields["likes"])

	// same id in another collection is a different document
	_, err = s.Get(ctx, "articles", id)
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	require.NoError(t, s.Set(ctx, "comments", id, docstore.Fields{"content": "replaced"}))
	doc, err = s.Get(ctx, "comments", id)
	require.NoError(t, err)
	assert.NotContains(t, doc.Fields, "likes")

	require.NoError(t, s.Delete(ctx, "comments", id))
	require.NoError(t, s.Delete(ctx, "comments", id))
	_, err = s.Get(ctx, "comments", id)
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestStore_IncrementRejectsNonNumeric(t *testing.T) {
	ctx := context.Background()
	s := setupSQLiteStore(t)
	require.NoError(t, s.Set(ctx, "comments", "c1", docstore.Fields{"likes": "lots"}))
	assert.Error(t, s.Increment(ctx, "comments", "c1", "likes", 1))
	assert.Error(t, s.Increment(ctx, "comments", "c1", "bad field", 1))
	assert.ErrorIs(t, s.Increment(ctx, "comments", "nope", "likes", 1), docstore.ErrNotFound)
}

func TestEncodeValue_TimesSortLexically(t *testing.T) {
	early := encodeValue(time.Date(2024, 1, 1, 0, 0, 0, 5, time.UTC)).(string)
	late := encodeValue(time.Date(2024, 1, 1, 0, 0, 0, 40, time.FixedZone("X", 0))).(string)
	assert.Less(t, early, late)
	assert.Len(t, early, len(late))

	nested := encodeValue([]any{map[string]any{"editeAt": time.Unix(0, 0)}}).([]any)
	assert.Equal(t, "1970-01-01T00:00:00.000000000Z", nested[0].(map[string]any)["editeAt"])
}

func TestStore_PostgresQueryShape(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = sqlDB.Close() }()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	s := New(db)

	cursor := docstore.Document{ID: "a5", Fields: docstore.Fields{"createAt": time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}}
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT * FROM "documents" WHERE collection = $1 AND data->>'authorId' = $2 AND (data->>'createAt' < $3 OR (data->>'createAt' = $4 AND id < $5)) ORDER BY data->>'createAt' DESC,id DESC LIMIT $6`)).
		WithArgs("articles", "u1", "2024-01-01T00:00:00.000000000Z", "2024-01-01T00:00:00.000000000Z", "a5", 10).
		WillReturnRows(sqlmock.NewRows([]string{"collection", "id", "data"}).
			AddRow("articles", "a4", []byte(`{"title":"hello","likes":2}`)))

	docs, err := s.Query(context.Background(), docstore.Query{
		Collection: "articles",
		OrderBy:    "createAt",
		Direction:  docstore.Desc,
		Limit:      10,
		StartAfter: &cursor,
	}.Where("authorId", "u1"))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "a4", docs[0].ID)
	assert.Equal(t, "hello", docs[0].Fields["title"])
	require.NoError(t, mock.ExpectationsWereMet())
}
