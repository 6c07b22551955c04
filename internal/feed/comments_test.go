package feed

import (
	"context"
	"testing"
	"time"

	"heartbridge/internal/models"
	"heartbridge/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type untouchedComments struct {
	repository.CommentRepository
	t *testing.T
}

func (u untouchedComments) Create(context.Context, *models.Comment) (string, error) {
	u.t.Fatal("unexpected store write")
	return "", nil
}

func TestCommentThread_CreateRequiresProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for name, tc := range map[string]struct {
		viewer viewer
		code   string
		msg    string
	}{
		"signed out":     {signedOut, models.CodeUnauthorized, models.MsgUnauthenticated},
		"no profile yet": {viewer{identity: member("kid", models.RoleTeen).identity}, models.CodeForbidden, models.MsgProfileRequired},
	} {
		thread := NewCommentThread(untouchedComments{t: t}, tc.viewer, 0)
		_, err := thread.CreateComment(ctx, "a1", "我也這樣覺得")
		require.Error(t, err, name)
		assert.Equal(t, tc.code, models.ErrorCode(err), name)
		assert.Equal(t, tc.msg, thread.Err(), name)
	}
}

func TestCommentThread_CreateStampsAuthor(t *testing.T) {
	t.Parallel()
	repo := repository.NewCommentRepository(newStore())
	thread := NewCommentThread(repo, member("kid", models.RoleTeen), 0)
	thread.now = func() time.Time { return baseTime }
	ctx := context.Background()

	id, err := thread.CreateComment(ctx, "a1", "  我也這樣覺得  ")
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "a1", got.ArticleID)
	assert.Equal(t, "kid", got.AuthorID)
	assert.Equal(t, "暱稱 kid", got.AuthorName)
	assert.Equal(t, models.RoleTeen, got.AuthorRole)
	assert.Equal(t, "我也這樣覺得", got.Content)
	assert.Zero(t, got.Likes)

	_, err = thread.CreateComment(ctx, "a1", "   ")
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
}

func TestCommentThread_FetchAndLoadMore(t *testing.T) {
	t.Parallel()
	repo := repository.NewCommentRepository(newStore())
	ids := seedComments(t, repo, 25, "a1", "kid")
	seedComments(t, repo, 3, "a2", "kid")
	thread := NewCommentThread(repo, signedOut, 0)
	ctx := context.Background()

	require.NoError(t, thread.FetchComments(ctx, "a1"))
	got := thread.Comments()
	require.Len(t, got, 20)
	assert.Equal(t, ids[24], got[0].ID)
	assert.True(t, thread.HasMore())

	require.NoError(t, thread.LoadMore(ctx))
	got = thread.Comments()
	assert.Len(t, got, 25)
	for _, c := range got {
		assert.Equal(t, "a1", c.ArticleID)
	}
	assert.False(t, thread.HasMore())
}

// heldComments blocks listing one article's comments until release is
// closed.
type heldComments struct {
	repository.CommentRepository
	articleID string
	started   chan struct{}
	release   chan struct{}
}

func (h *heldComments) ListByArticle(ctx context.Context, articleID string, o repository.ListOptions) (repository.Page[models.Comment], error) {
	if articleID == h.articleID {
		close(h.started)
		<-h.release
	}
	return h.CommentRepository.ListByArticle(ctx, articleID, o)
}

func TestCommentThread_LoadMoreDuringRefetchKeepsScope(t *testing.T) {
	t.Parallel()
	backing := repository.NewCommentRepository(newStore())
	seedComments(t, backing, 10, "a1", "kid")
	seedComments(t, backing, 10, "a2", "kid")
	held := &heldComments{CommentRepository: backing, articleID: "a2", started: make(chan struct{}), release: make(chan struct{})}
	thread := NewCommentThread(held, signedOut, 4)
	ctx := context.Background()

	require.NoError(t, thread.FetchComments(ctx, "a1"))
	require.True(t, thread.HasMore())

	refetch := make(chan error)
	go func() { refetch <- thread.FetchComments(ctx, "a2") }()
	<-held.started
	require.NoError(t, thread.LoadMore(ctx))

	close(held.release)
	require.NoError(t, <-refetch)
	got := thread.Comments()
	require.Len(t, got, 4)
	for _, c := range got {
		assert.Equal(t, "a2", c.ArticleID)
	}
	assert.False(t, thread.Loading())
}

func TestCommentThread_FetchUserComments(t *testing.T) {
	t.Parallel()
	repo := repository.NewCommentRepository(newStore())
	seedComments(t, repo, 2, "a1", "kid")
	seedComments(t, repo, 4, "a2", "mom")
	ctx := context.Background()

	thread := NewCommentThread(repo, member("mom", models.RoleParent), 0)
	require.NoError(t, thread.FetchUserComments(ctx))
	assert.Len(t, thread.Comments(), 4)

	anonymous := NewCommentThread(repo, signedOut, 0)
	require.NoError(t, anonymous.FetchUserComments(ctx))
	assert.Empty(t, anonymous.Comments())
}

func TestCommentThread_UpdateAndDelete(t *testing.T) {
	t.Parallel()
	repo := repository.NewCommentRepository(newStore())
	ids := seedComments(t, repo, 2, "a1", "kid")
	thread := NewCommentThread(repo, member("kid", models.RoleTeen), 0)
	later := baseTime.Add(time.Hour)
	thread.now = func() time.Time { return later }
	ctx := context.Background()
	require.NoError(t, thread.FetchComments(ctx, "a1"))

	require.NoError(t, thread.UpdateComment(ctx, ids[0], "改過的留言"))
	stored, err := repo.GetByID(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "改過的留言", stored.Content)
	assert.True(t, stored.UpdatedAt.Equal(later))

	require.NoError(t, thread.DeleteComment(ctx, ids[1]))
	assert.Len(t, thread.Comments(), 1)
	_, err = repo.GetByID(ctx, ids[1])
	assert.Equal(t, models.MsgCommentNotFound, models.DisplayMessage(err, ""))

	other := NewCommentThread(repo, member("mom", models.RoleParent), 0)
	err = other.DeleteComment(ctx, ids[0])
	assert.Equal(t, models.CodeForbidden, models.ErrorCode(err))
	assert.Equal(t, models.MsgNotCommentAuthor, other.Err())
}

// Legacy likes write back the cached count plus one, so two threads that
// loaded the same count both write 1. This pins the lost update.
func TestCommentThread_LegacyLikesLoseConcurrentUpdates(t *testing.T) {
	t.Parallel()
	repo := repository.NewCommentRepository(newStore())
	ids := seedComments(t, repo, 1, "a1", "kid")
	ctx := context.Background()

	mom := NewCommentThread(repo, member("mom", models.RoleParent), 0)
	dad := NewCommentThread(repo, member("dad", models.RoleParent), 0)
	require.NoError(t, mom.FetchComments(ctx, "a1"))
	require.NoError(t, dad.FetchComments(ctx, "a1"))

	require.NoError(t, mom.LikeComment(ctx, ids[0]))
	require.NoError(t, dad.LikeComment(ctx, ids[0]))

	stored, err := repo.GetByID(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Likes)
	assert.Equal(t, int64(1), mom.Comments()[0].Likes)
	assert.Equal(t, int64(1), dad.Comments()[0].Likes)

	// A comment the thread never loaded is left alone
	require.NoError(t, mom.LikeComment(ctx, "not-loaded"))
}

func TestCommentThread_AtomicLikesSum(t *testing.T) {
	t.Parallel()
	repo := repository.NewCommentRepository(newStore())
	ids := seedComments(t, repo, 1, "a1", "kid")
	ctx := context.Background()

	mom := NewCommentThread(repo, member("mom", models.RoleParent), 0, WithAtomicLikes())
	dad := NewCommentThread(repo, member("dad", models.RoleParent), 0, WithAtomicLikes())
	require.NoError(t, mom.FetchComments(ctx, "a1"))
	require.NoError(t, dad.FetchComments(ctx, "a1"))

	require.NoError(t, mom.LikeComment(ctx, ids[0]))
	require.NoError(t, dad.LikeComment(ctx, ids[0]))

	stored, err := repo.GetByID(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Likes)

	err = mom.LikeComment(ctx, "missing")
	assert.True(t, models.IsNotFound(err))
	assert.Equal(t, models.MsgCommentNotFound, mom.Err())
}

func TestCommentThread_ResetClearsState(t *testing.T) {
	t.Parallel()
	repo := repository.NewCommentRepository(newStore())
	seedComments(t, repo, 3, "a1", "kid")
	thread := NewCommentThread(repo, signedOut, 2)
	ctx := context.Background()

	require.NoError(t, thread.FetchComments(ctx, "a1"))
	require.Len(t, thread.Comments(), 2)

	thread.Reset()
	assert.Empty(t, thread.Comments())
	assert.True(t, thread.HasMore())
	require.NoError(t, thread.LoadMore(ctx))
	assert.Empty(t, thread.Comments(), "no cursor after reset")
}
