package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"heartbridge/internal/ai"
	"heartbridge/internal/featureflags"
	"heartbridge/internal/models"
	"heartbridge/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newArticleService(f *fixture, flags string) *ArticleService {
	gate := NewModerationGate(ai.NewMockModerator(), featureflags.NewManager(flags))
	svc := NewArticleService(f.articles, f.comments, f.favorites, f.users, gate, f.events)
	svc.now = func() time.Time { return baseTime.Add(time.Hour) }
	return svc
}

func validArticle(userID string) CreateArticleInput {
	return CreateArticleInput{
		UserID:  userID,
		Title:   "  孩子晚上不睡覺  ",
		Content: strings.Repeat("想聽聽大家的做法。", 4),
		Tags:    []string{"睡眠", " 睡眠 ", ""},
	}
}

func TestArticleService_CreateArticle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("stamps author role from profile", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		f.addMember(t, "mom", models.RoleParent)
		svc := newArticleService(f, "")

		article, err := svc.CreateArticle(ctx, validArticle("mom"))
		require.NoError(t, err)
		assert.Equal(t, "mom", article.AuthorID)
		assert.Equal(t, models.RoleParent, article.AuthorRole)
		assert.Equal(t, "孩子晚上不睡覺", article.Title)
		assert.Equal(t, []string{"睡眠"}, article.Tags)
		assert.Zero(t, article.Likes)
		assert.Equal(t, []string{notifications.EventArticleCreated}, f.events.types())
	})

	t.Run("signed out", func(t *testing.T) {
		t.Parallel()
		svc := newArticleService(newFixture(), "")
		_, err := svc.CreateArticle(ctx, validArticle(""))
		assertUnauthorizedError(t, err)
	})

	t.Run("profile not completed", func(t *testing.T) {
		t.Parallel()
		svc := newArticleService(newFixture(), "")
		_, err := svc.CreateArticle(ctx, validArticle("ghost"))
		assertForbiddenError(t, err)
		assert.Contains(t, err.Error(), MsgProfileRequired)
	})

	t.Run("title too short", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		f.addMember(t, "mom", models.RoleParent)
		in := validArticle("mom")
		in.Title = "短"
		_, err := newArticleService(f, "").CreateArticle(ctx, in)
		assertValidationError(t, err)
	})

	t.Run("moderation rejects when flag on", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		f.addMember(t, "teen", models.RoleTeen)
		in := validArticle("teen")
		in.Content = "我覺得這個規定很垃圾，大家怎麼看呢？真的很煩"
		_, err := newArticleService(f, "ai_moderation=on").CreateArticle(ctx, in)
		assertValidationError(t, err)
		assert.Contains(t, err.Error(), MsgContentRejected)
		assert.Empty(t, f.events.types())
	})

	t.Run("moderation skipped when flag off", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		f.addMember(t, "teen", models.RoleTeen)
		in := validArticle("teen")
		in.Content = "我覺得這個規定很垃圾，大家怎麼看呢？真的很煩"
		_, err := newArticleService(f, "").CreateArticle(ctx, in)
		require.NoError(t, err)
	})
}

func TestArticleService_ListArticles(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture()
	ids := f.addArticles(t, 25, "mom")
	svc := newArticleService(f, "")

	first, err := svc.ListArticles(ctx, ListArticlesInput{})
	require.NoError(t, err)
	require.Len(t, first.Articles, DefaultArticleLimit)
	assert.Equal(t, ids[24], first.Articles[0].ID)
	assert.True(t, first.HasMore)
	assert.Equal(t, ids[15], first.NextCursor)

	second, err := svc.ListArticles(ctx, ListArticlesInput{After: first.NextCursor, Limit: 20})
	require.NoError(t, err)
	require.Len(t, second.Articles, 15)
	assert.Equal(t, ids[14], second.Articles[0].ID)
	assert.False(t, second.HasMore)
	assert.Empty(t, second.NextCursor)

	teens, err := svc.ListArticles(ctx, ListArticlesInput{Role: models.RoleTeen, Limit: 100})
	require.NoError(t, err)
	assert.Len(t, teens.Articles, 12)
	for _, a := range teens.Articles {
		assert.Equal(t, models.RoleTeen, a.AuthorRole)
	}

	_, err = svc.ListArticles(ctx, ListArticlesInput{Role: "grandma"})
	assertValidationError(t, err)

	_, err = svc.ListArticles(ctx, ListArticlesInput{After: "missing"})
	assertValidationError(t, err)
}

func TestClampLimit(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 10, clampLimit(0, 10))
	assert.Equal(t, 10, clampLimit(-3, 10))
	assert.Equal(t, 7, clampLimit(7, 10))
	assert.Equal(t, MaxLimit, clampLimit(1000, 10))
}

func TestArticleService_UpdateArticle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("owner update appends edit history", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		id := f.addArticles(t, 1, "mom")[0]
		svc := newArticleService(f, "")

		updated, err := svc.UpdateArticle(ctx, UpdateArticleInput{
			UserID:    "mom",
			ArticleID: id,
			Patch:     models.ArticlePatch{Title: ptr("新的標題：睡前手機")},
		})
		require.NoError(t, err)
		assert.Equal(t, "新的標題：睡前手機", updated.Title)
		assert.Equal(t, strings.Repeat("我們可以一起訂規則。", 3), updated.Content)
		require.Len(t, updated.EditHistory, 1)
		assert.Equal(t, "第 0 篇：睡前手機", updated.EditHistory[0].PreviousTitle)
		assert.True(t, updated.UpdatedAt.Equal(baseTime.Add(time.Hour)))

		again, err := svc.UpdateArticle(ctx, UpdateArticleInput{
			UserID:    "mom",
			ArticleID: id,
			Patch:     models.ArticlePatch{Tags: ptr([]string{"規則"})},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"規則"}, again.Tags)
		assert.Len(t, again.EditHistory, 2)
		assert.Equal(t, notifications.EventArticleUpdated, f.events.last().Type)
	})

	t.Run("non-owner", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		id := f.addArticles(t, 1, "mom")[0]
		_, err := newArticleService(f, "").UpdateArticle(ctx, UpdateArticleInput{
			UserID:    "kid",
			ArticleID: id,
			Patch:     models.ArticlePatch{Title: ptr("被改掉的標題")},
		})
		assertForbiddenError(t, err)
	})

	t.Run("empty patch", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		id := f.addArticles(t, 1, "mom")[0]
		_, err := newArticleService(f, "").UpdateArticle(ctx, UpdateArticleInput{UserID: "mom", ArticleID: id})
		assertValidationError(t, err)
	})

	t.Run("missing article", func(t *testing.T) {
		t.Parallel()
		_, err := newArticleService(newFixture(), "").UpdateArticle(ctx, UpdateArticleInput{
			UserID:    "mom",
			ArticleID: "nope",
			Patch:     models.ArticlePatch{Title: ptr("新的標題：睡前手機")},
		})
		assertAppError(t, err, models.CodeNotFound)
	})
}

func TestArticleService_DeleteArticle_Cascades(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture()
	ids := f.addArticles(t, 2, "mom")
	f.addComments(t, 3, ids[0], "kid")
	f.addComments(t, 2, ids[1], "kid")
	_, err := f.favorites.Add(ctx, "kid", ids[0], baseTime)
	require.NoError(t, err)
	svc := newArticleService(f, "")

	err = svc.DeleteArticle(ctx, DeleteArticleInput{UserID: "kid", ArticleID: ids[0]})
	assertForbiddenError(t, err)

	require.NoError(t, svc.DeleteArticle(ctx, DeleteArticleInput{UserID: "mom", ArticleID: ids[0]}))

	_, err = svc.GetArticle(ctx, ids[0])
	assertAppError(t, err, models.CodeNotFound)
	exists, err := f.favorites.Exists(ctx, "kid", ids[0])
	require.NoError(t, err)
	assert.False(t, exists)

	page, err := f.comments.ListByAuthor(ctx, "kid", repositoryOpts(10))
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	for _, c := range page.Items {
		assert.Equal(t, ids[1], c.ArticleID)
	}
	assert.Equal(t, notifications.EventArticleDeleted, f.events.last().Type)
}

func TestArticleService_LikeArticle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture()
	id := f.addArticles(t, 1, "mom")[0]
	svc := newArticleService(f, "")

	_, err := svc.LikeArticle(ctx, "", id)
	assertUnauthorizedError(t, err)

	_, err = svc.LikeArticle(ctx, "kid", id)
	require.NoError(t, err)
	article, err := svc.LikeArticle(ctx, "dad", id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), article.Likes)

	e := f.events.last()
	assert.Equal(t, notifications.EventArticleLiked, e.Type)
	assert.Equal(t, "mom", e.RecipientID)
}
