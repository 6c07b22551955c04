package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"heartbridge/internal/docstore"
	"heartbridge/internal/models"
	"heartbridge/internal/notifications"
	"heartbridge/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T", err)
	assert.Equal(t, code, appErr.Code)
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeValidation)
}

func assertUnauthorizedError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeUnauthorized)
}

func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeForbidden)
}

// eventRecorder captures published events.
type eventRecorder struct {
	mu     sync.Mutex
	events []notifications.Event
	err    error
}

func (r *eventRecorder) Publish(_ context.Context, e notifications.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *eventRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func (r *eventRecorder) last() notifications.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

// fixture wires real repositories over an in-memory store.
type fixture struct {
	store     *docstore.Memory
	users     repository.UserRepository
	articles  repository.ArticleRepository
	comments  repository.CommentRepository
	favorites repository.FavoriteRepository
	events    *eventRecorder
}

func newFixture() *fixture {
	store := docstore.NewMemory()
	return &fixture{
		store:     store,
		users:     repository.NewUserRepository(store),
		articles:  repository.NewArticleRepository(store),
		comments:  repository.NewCommentRepository(store),
		favorites: repository.NewFavoriteRepository(store),
		events:    &eventRecorder{},
	}
}

func (f *fixture) addMember(t *testing.T, uid string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{
		UID:         uid,
		Email:       uid + "@example.com",
		DisplayName: "暱稱 " + uid,
		Role:        role,
		BirthDate:   models.BirthDate{Year: 2008, Month: 3, Day: 14},
		AgeRange:    "16-18",
		Interests:   []string{},
		CreatedAt:   baseTime,
		UpdatedAt:   baseTime,
	}
	require.NoError(t, f.users.Save(context.Background(), user))
	return user
}

// addArticles stores n articles by authorID, one minute apart, alternating
// parent and teen roles.
func (f *fixture) addArticles(t *testing.T, n int, authorID string) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		role := models.RoleParent
		if i%2 == 1 {
			role = models.RoleTeen
		}
		created := baseTime.Add(time.Duration(i) * time.Minute)
		id, err := f.articles.Create(context.Background(), &models.Article{
			AuthorID:   authorID,
			AuthorRole: role,
			Title:      fmt.Sprintf("第 %d 篇：睡前手機", i),
			Content:    strings.Repeat("我們可以一起訂規則。", 3),
			CreatedAt:  created,
			UpdatedAt:  created,
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func (f *fixture) addComments(t *testing.T, n int, articleID, authorID string) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		created := baseTime.Add(time.Duration(i) * time.Second)
		id, err := f.comments.Create(context.Background(), &models.Comment{
			ArticleID:  articleID,
			AuthorID:   authorID,
			AuthorName: "小明",
			AuthorRole: models.RoleTeen,
			Content:    fmt.Sprintf("留言 %d", i),
			CreatedAt:  created,
			UpdatedAt:  created,
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func ptr[T any](v T) *T { return &v }

func repositoryOpts(limit int) repository.ListOptions {
	return repository.ListOptions{Limit: limit}
}
