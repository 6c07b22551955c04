package feed

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"heartbridge/internal/models"
	"heartbridge/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// untouchedArticles fails the test on any repository call.
type untouchedArticles struct {
	repository.ArticleRepository
	t *testing.T
}

func (u untouchedArticles) Create(context.Context, *models.Article) (string, error) {
	u.t.Fatal("unexpected store write")
	return "", nil
}

func TestArticleFeed_CreateRequiresSignIn(t *testing.T) {
	t.Parallel()
	feed := NewArticleFeed(untouchedArticles{t: t}, signedOut, 0)

	_, err := feed.CreateArticle(context.Background(), articleInput(1))
	require.Error(t, err)
	assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(err))
	assert.Equal(t, "使用者未授權", feed.Err())
}

func TestArticleFeed_CreateAsksForProfile(t *testing.T) {
	t.Parallel()
	newcomer := viewer{identity: member("kid", models.RoleTeen).identity}
	feed := NewArticleFeed(untouchedArticles{t: t}, newcomer, 0)

	_, err := feed.CreateArticle(context.Background(), articleInput(1))
	require.Error(t, err)
	assert.Equal(t, models.CodeForbidden, models.ErrorCode(err))
	assert.Equal(t, "請先完成個人資料", feed.Err())
}

func TestArticleFeed_CreateStampsAuthor(t *testing.T) {
	t.Parallel()
	store := newStore()
	repo := repository.NewArticleRepository(store)
	feed := NewArticleFeed(repo, member("mom", models.RoleParent), 0)
	feed.now = func() time.Time { return baseTime }
	ctx := context.Background()

	id, err := feed.CreateArticle(ctx, articleInput(1))
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "mom", got.AuthorID)
	assert.Equal(t, models.RoleParent, got.AuthorRole)
	assert.Equal(t, []string{"溝通"}, got.Tags)
	assert.Zero(t, got.Likes)
	assert.Zero(t, got.CommentCount)
	assert.True(t, got.CreatedAt.Equal(baseTime))
	assert.True(t, got.UpdatedAt.Equal(baseTime))
}

func TestArticleFeed_CreateValidatesBeforeWriting(t *testing.T) {
	t.Parallel()
	feed := NewArticleFeed(untouchedArticles{t: t}, member("mom", models.RoleParent), 0)

	in := articleInput(1)
	in.Title = "短"
	_, err := feed.CreateArticle(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
	assert.NotEmpty(t, feed.Err())
}

func TestArticleFeed_Pagination(t *testing.T) {
	t.Parallel()
	repo := repository.NewArticleRepository(newStore())
	ids := seedArticles(t, repo, 25, "author")
	feed := NewArticleFeed(repo, signedOut, 0)
	ctx := context.Background()

	require.NoError(t, feed.FetchArticles(ctx, Filters{}))
	got := feed.Articles()
	require.Len(t, got, 10)
	assert.Equal(t, ids[24], got[0].ID, "newest first")
	assert.True(t, feed.HasMore())
	assert.False(t, feed.Loading())

	require.NoError(t, feed.LoadMore(ctx))
	assert.Len(t, feed.Articles(), 20)
	assert.True(t, feed.HasMore())

	require.NoError(t, feed.LoadMore(ctx))
	got = feed.Articles()
	require.Len(t, got, 25)
	assert.Equal(t, ids[0], got[24].ID)
	assert.False(t, feed.HasMore())

	require.NoError(t, feed.LoadMore(ctx))
	assert.Len(t, feed.Articles(), 25)
}

func TestArticleFeed_LoadMoreKeepsRoleFilter(t *testing.T) {
	t.Parallel()
	repo := repository.NewArticleRepository(newStore())
	seedArticles(t, repo, 30, "author")
	feed := NewArticleFeed(repo, signedOut, 10)
	ctx := context.Background()

	require.NoError(t, feed.FetchArticles(ctx, Filters{Role: models.RoleTeen}))
	require.NoError(t, feed.LoadMore(ctx))

	got := feed.Articles()
	assert.Len(t, got, 15)
	for _, a := range got {
		assert.Equal(t, models.RoleTeen, a.AuthorRole)
	}
	assert.False(t, feed.HasMore())
}

func TestArticleFeed_FetchUserArticles(t *testing.T) {
	t.Parallel()
	repo := repository.NewArticleRepository(newStore())
	seedArticles(t, repo, 3, "mom")
	seedArticles(t, repo, 2, "dad")
	ctx := context.Background()

	mine := NewArticleFeed(repo, member("dad", models.RoleParent), 0)
	require.NoError(t, mine.FetchUserArticles(ctx))
	assert.Len(t, mine.Articles(), 2)
	assert.False(t, mine.HasMore())

	anonymous := NewArticleFeed(repo, signedOut, 0)
	require.NoError(t, anonymous.FetchUserArticles(ctx))
	assert.Empty(t, anonymous.Articles())
	assert.Empty(t, anonymous.Err())
}

func TestArticleFeed_DeleteRemovesEverywhere(t *testing.T) {
	t.Parallel()
	repo := repository.NewArticleRepository(newStore())
	ids := seedArticles(t, repo, 3, "mom")
	feed := NewArticleFeed(repo, member("mom", models.RoleParent), 0)
	ctx := context.Background()

	require.NoError(t, feed.FetchArticles(ctx, Filters{}))
	require.NoError(t, feed.DeleteArticle(ctx, ids[1]))

	for _, a := range feed.Articles() {
		assert.NotEqual(t, ids[1], a.ID)
	}
	assert.Len(t, feed.Articles(), 2)

	_, err := feed.Article(ctx, ids[1])
	assert.True(t, models.IsNotFound(err))
	assert.Equal(t, models.MsgArticleNotFound, models.DisplayMessage(err, ""))

	require.NoError(t, feed.FetchArticles(ctx, Filters{}))
	assert.Len(t, feed.Articles(), 2)
}

func TestArticleFeed_UpdateMergesFields(t *testing.T) {
	t.Parallel()
	repo := repository.NewArticleRepository(newStore())
	ids := seedArticles(t, repo, 1, "mom")
	feed := NewArticleFeed(repo, member("mom", models.RoleParent), 0)
	later := baseTime.Add(time.Hour)
	feed.now = func() time.Time { return later }
	ctx := context.Background()
	require.NoError(t, feed.FetchArticles(ctx, Filters{}))

	title := "  新的標題：睡前手機  "
	require.NoError(t, feed.UpdateArticle(ctx, ids[0], models.ArticlePatch{Title: &title}))

	stored, err := repo.GetByID(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "新的標題：睡前手機", stored.Title)
	assert.Equal(t, strings.Repeat("我們需要好好談一談。", 3), stored.Content)
	assert.True(t, stored.UpdatedAt.Equal(later))

	local := feed.Articles()[0]
	assert.Equal(t, "新的標題：睡前手機", local.Title)
	assert.True(t, local.UpdatedAt.Equal(later))
}

func TestArticleFeed_UpdateRecordsEditHistory(t *testing.T) {
	t.Parallel()
	repo := repository.NewArticleRepository(newStore())
	ids := seedArticles(t, repo, 1, "mom")
	feed := NewArticleFeed(repo, member("mom", models.RoleParent), 0)
	ctx := context.Background()
	require.NoError(t, feed.FetchArticles(ctx, Filters{}))

	first, second := baseTime.Add(time.Hour), baseTime.Add(2*time.Hour)
	title := "改過一次的標題"
	feed.now = func() time.Time { return first }
	require.NoError(t, feed.UpdateArticle(ctx, ids[0], models.ArticlePatch{Title: &title}))
	content := strings.Repeat("後來我們聊開了。", 3)
	feed.now = func() time.Time { return second }
	require.NoError(t, feed.UpdateArticle(ctx, ids[0], models.ArticlePatch{Content: &content}))

	stored, err := repo.GetByID(ctx, ids[0])
	require.NoError(t, err)
	require.Len(t, stored.EditHistory, 2)
	assert.Equal(t, "第 0 篇：手機使用時間", stored.EditHistory[0].PreviousTitle)
	assert.True(t, stored.EditHistory[0].EditedAt.Equal(first))
	assert.Equal(t, "改過一次的標題", stored.EditHistory[1].PreviousTitle)
	assert.Equal(t, strings.Repeat("我們需要好好談一談。", 3), stored.EditHistory[1].PreviousContent)
	assert.True(t, stored.EditHistory[1].EditedAt.Equal(second))

	local := feed.Articles()[0]
	assert.Len(t, local.EditHistory, 2)
	assert.Equal(t, content, local.Content)
}

func TestArticleFeed_WritesCheckOwnership(t *testing.T) {
	t.Parallel()
	repo := repository.NewArticleRepository(newStore())
	ids := seedArticles(t, repo, 1, "mom")
	feed := NewArticleFeed(repo, member("teen", models.RoleTeen), 0)
	ctx := context.Background()

	title := "我想改掉這個標題"
	err := feed.UpdateArticle(ctx, ids[0], models.ArticlePatch{Title: &title})
	require.Error(t, err)
	assert.Equal(t, models.CodeForbidden, models.ErrorCode(err))
	assert.Equal(t, models.MsgNotArticleAuthor, feed.Err())

	err = feed.DeleteArticle(ctx, ids[0])
	assert.Equal(t, models.CodeForbidden, models.ErrorCode(err))

	err = feed.DeleteArticle(ctx, "missing")
	assert.Equal(t, models.MsgArticleNotFound, models.DisplayMessage(err, ""))

	signedOutFeed := NewArticleFeed(repo, signedOut, 0)
	err = signedOutFeed.DeleteArticle(ctx, ids[0])
	assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(err))
}

type failingArticles struct {
	repository.ArticleRepository
}

func (failingArticles) List(context.Context, repository.ArticleFilter, repository.ListOptions) (repository.Page[models.Article], error) {
	return repository.Page[models.Article]{}, models.NewInternalError(errors.New("deadline exceeded"))
}

func TestArticleFeed_FetchFailureSetsMessage(t *testing.T) {
	t.Parallel()
	feed := NewArticleFeed(failingArticles{}, signedOut, 0)

	err := feed.FetchArticles(context.Background(), Filters{})
	require.Error(t, err)
	assert.Equal(t, MsgFetchArticlesFailed, feed.Err())
	assert.False(t, feed.Loading())
}

// gatedArticles blocks List calls until release is closed.
type gatedArticles struct {
	repository.ArticleRepository
	started chan struct{}
	release chan struct{}
}

func (g *gatedArticles) List(ctx context.Context, f repository.ArticleFilter, o repository.ListOptions) (repository.Page[models.Article], error) {
	g.started <- struct{}{}
	<-g.release
	return g.ArticleRepository.List(ctx, f, o)
}

func TestArticleFeed_ResetDropsStaleResponse(t *testing.T) {
	t.Parallel()
	backing := repository.NewArticleRepository(newStore())
	seedArticles(t, backing, 3, "mom")
	gated := &gatedArticles{ArticleRepository: backing, started: make(chan struct{}), release: make(chan struct{})}
	feed := NewArticleFeed(gated, signedOut, 0)

	done := make(chan error)
	go func() { done <- feed.FetchArticles(context.Background(), Filters{}) }()
	<-gated.started
	assert.True(t, feed.Loading())

	feed.Reset()
	close(gated.release)
	require.NoError(t, <-done)

	assert.Empty(t, feed.Articles())
	assert.False(t, feed.Loading())
}

func TestArticleFeed_NewerFetchWins(t *testing.T) {
	t.Parallel()
	backing := repository.NewArticleRepository(newStore())
	seedArticles(t, backing, 4, "mom")
	gated := &gatedArticles{ArticleRepository: backing, started: make(chan struct{}), release: make(chan struct{})}
	feed := NewArticleFeed(gated, signedOut, 0)
	ctx := context.Background()

	first := make(chan error)
	go func() { first <- feed.FetchArticles(ctx, Filters{}) }()
	<-gated.started

	second := make(chan error)
	go func() { second <- feed.FetchArticles(ctx, Filters{Role: models.RoleTeen}) }()
	<-gated.started

	close(gated.release)
	require.NoError(t, <-second)
	require.NoError(t, <-first)

	got := feed.Articles()
	require.Len(t, got, 2)
	for _, a := range got {
		assert.Equal(t, models.RoleTeen, a.AuthorRole)
	}
}

// heldArticles blocks the first List call for one role until release is
// closed and records the filter of every call.
type heldArticles struct {
	repository.ArticleRepository
	role    models.Role
	started chan struct{}
	release chan struct{}

	mu      sync.Mutex
	held    bool
	filters []repository.ArticleFilter
}

func (h *heldArticles) List(ctx context.Context, f repository.ArticleFilter, o repository.ListOptions) (repository.Page[models.Article], error) {
	h.mu.Lock()
	h.filters = append(h.filters, f)
	hold := f.Role == h.role && !h.held
	if hold {
		h.held = true
	}
	h.mu.Unlock()
	if hold {
		close(h.started)
		<-h.release
	}
	return h.ArticleRepository.List(ctx, f, o)
}

func (h *heldArticles) calls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.filters)
}

func (h *heldArticles) lastFilter() repository.ArticleFilter {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.filters[len(h.filters)-1]
}

func TestArticleFeed_LoadMoreDuringRefetchKeepsFilter(t *testing.T) {
	t.Parallel()
	backing := repository.NewArticleRepository(newStore())
	seedArticles(t, backing, 30, "mom")
	held := &heldArticles{ArticleRepository: backing, role: models.RoleTeen, started: make(chan struct{}), release: make(chan struct{})}
	feed := NewArticleFeed(held, signedOut, 5)
	ctx := context.Background()

	require.NoError(t, feed.FetchArticles(ctx, Filters{Role: models.RoleParent}))
	require.Len(t, feed.Articles(), 5)

	refetch := make(chan error)
	go func() { refetch <- feed.FetchArticles(ctx, Filters{Role: models.RoleTeen}) }()
	<-held.started

	// The parent cursor no longer matches the active filter.
	require.NoError(t, feed.LoadMore(ctx))
	assert.Equal(t, 2, held.calls())

	close(held.release)
	require.NoError(t, <-refetch)
	require.NoError(t, feed.LoadMore(ctx))
	assert.Equal(t, repository.ArticleFilter{Role: models.RoleTeen}, held.lastFilter())

	got := feed.Articles()
	require.Len(t, got, 10)
	for _, a := range got {
		assert.Equal(t, models.RoleTeen, a.AuthorRole)
	}
	assert.False(t, feed.Loading())
}

func TestArticleFeed_StaleFetchLeavesFilterOfItems(t *testing.T) {
	t.Parallel()
	backing := repository.NewArticleRepository(newStore())
	seedArticles(t, backing, 30, "mom")
	held := &heldArticles{ArticleRepository: backing, role: models.RoleParent, started: make(chan struct{}), release: make(chan struct{})}
	feed := NewArticleFeed(held, signedOut, 5)
	ctx := context.Background()

	first := make(chan error)
	go func() { first <- feed.FetchArticles(ctx, Filters{Role: models.RoleParent}) }()
	<-held.started

	require.NoError(t, feed.FetchArticles(ctx, Filters{Role: models.RoleTeen}))
	close(held.release)
	require.NoError(t, <-first)

	require.NoError(t, feed.LoadMore(ctx))
	assert.Equal(t, models.RoleTeen, held.lastFilter().Role)
	got := feed.Articles()
	require.Len(t, got, 10)
	for _, a := range got {
		assert.Equal(t, models.RoleTeen, a.AuthorRole)
	}
}
