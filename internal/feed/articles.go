package feed

import (
	"context"
	"time"

	"heartbridge/internal/models"
	"heartbridge/internal/observability"
	"heartbridge/internal/repository"
	"heartbridge/internal/validation"
)

// ArticleFeed is one view's article list.
type ArticleFeed struct {
	articles repository.ArticleRepository
	viewer   Viewer
	pageSize int
	now      func() time.Time

	state *list[models.Article, repository.ArticleFilter]
}

// NewArticleFeed returns an empty feed. A pageSize of zero or less uses
// DefaultArticlePageSize.
func NewArticleFeed(articles repository.ArticleRepository, viewer Viewer, pageSize int) *ArticleFeed {
	if pageSize <= 0 {
		pageSize = DefaultArticlePageSize
	}
	return &ArticleFeed{
		articles: articles,
		viewer:   viewer,
		pageSize: pageSize,
		now:      time.Now,
		state:    newList[models.Article, repository.ArticleFilter](),
	}
}

// Articles returns a copy of the loaded articles.
func (f *ArticleFeed) Articles() []models.Article {
	items, _, _, _ := f.state.snapshot()
	return items
}

// Loading reports whether a fetch is in flight.
func (f *ArticleFeed) Loading() bool {
	_, loading, _, _ := f.state.snapshot()
	return loading
}

// Err returns the last failure message, or "".
func (f *ArticleFeed) Err() string {
	_, _, err, _ := f.state.snapshot()
	return err
}

// HasMore reports whether the last page was full.
func (f *ArticleFeed) HasMore() bool {
	_, _, _, more := f.state.snapshot()
	return more
}

// Reset empties the feed and drops any response still in flight.
func (f *ArticleFeed) Reset() {
	f.state.reset()
}

// FetchArticles loads the first page, optionally limited to one author role.
func (f *ArticleFeed) FetchArticles(ctx context.Context, filters Filters) error {
	return f.fetch(ctx, repository.ArticleFilter{Role: filters.Role}, MsgFetchArticlesFailed)
}

// FetchUserArticles loads the first page of the signed-in member's
// articles. It does nothing when signed out.
func (f *ArticleFeed) FetchUserArticles(ctx context.Context) error {
	id, err := requireIdentity(f.viewer)
	if err != nil {
		return nil
	}
	return f.fetch(ctx, repository.ArticleFilter{AuthorID: id.UID}, MsgFetchUserArticlesFailed)
}

func (f *ArticleFeed) fetch(ctx context.Context, filter repository.ArticleFilter, fallback string) error {
	gen := f.state.begin(filter)

	page, err := f.articles.List(ctx, filter, repository.ListOptions{Limit: f.pageSize})
	if err != nil {
		f.state.fail(gen, err, fallback)
		return err
	}
	f.state.apply(gen, page, f.pageSize, false)
	return nil
}

// LoadMore appends the next page using the active filter. It does nothing
// when the last page was short or nothing has been fetched.
func (f *ArticleFeed) LoadMore(ctx context.Context) error {
	cursor, filter, gen, ok := f.state.more()
	if !ok {
		return nil
	}

	page, err := f.articles.List(ctx, filter, repository.ListOptions{Limit: f.pageSize, After: cursor})
	if err != nil {
		f.state.fail(gen, err, MsgLoadMoreFailed)
		return err
	}
	f.state.apply(gen, page, f.pageSize, true)
	return nil
}

// Article reads one article for a detail view.
func (f *ArticleFeed) Article(ctx context.Context, id string) (*models.Article, error) {
	return f.articles.GetByID(ctx, id)
}

// CreateArticle publishes a new article by the signed-in member and returns
// its id.
func (f *ArticleFeed) CreateArticle(ctx context.Context, in models.ArticleInput) (string, error) {
	id, profile, err := requireProfile(f.viewer)
	if err != nil {
		f.state.setErr(err, MsgCreateArticleFailed)
		return "", err
	}
	form, err := validation.ValidateArticleInput(in)
	if err != nil {
		f.state.setErr(err, MsgCreateArticleFailed)
		return "", err
	}

	now := f.now()
	articleID, err := f.articles.Create(ctx, &models.Article{
		AuthorID:   id.UID,
		AuthorRole: profile.Role,
		Title:      form.Title,
		Content:    form.Content,
		Tags:       form.Tags,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		f.state.setErr(err, MsgCreateArticleFailed)
		return "", err
	}
	observability.GlobalLogger.InfoContext(ctx, "article created", "article_id", articleID)
	return articleID, nil
}

// ownArticle loads an article and checks the signed-in member wrote it.
func (f *ArticleFeed) ownArticle(ctx context.Context, uid, articleID string) (*models.Article, error) {
	article, err := f.articles.GetByID(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if article.AuthorID != uid {
		return nil, models.NewForbiddenError(models.MsgNotArticleAuthor)
	}
	return article, nil
}

// UpdateArticle applies patch to one of the signed-in member's articles.
func (f *ArticleFeed) UpdateArticle(ctx context.Context, articleID string, patch models.ArticlePatch) error {
	id, err := requireIdentity(f.viewer)
	if err != nil {
		f.state.setErr(err, MsgUpdateArticleFailed)
		return err
	}
	patch, err = validation.ValidateArticlePatch(patch)
	if err != nil {
		f.state.setErr(err, MsgUpdateArticleFailed)
		return err
	}
	article, err := f.ownArticle(ctx, id.UID, articleID)
	if err != nil {
		f.state.setErr(err, MsgUpdateArticleFailed)
		return err
	}

	edited, fields := patch.Edit(*article, f.now())
	if err := f.articles.Update(ctx, articleID, fields); err != nil {
		f.state.setErr(err, MsgUpdateArticleFailed)
		return err
	}
	f.state.update(
		func(a *models.Article) bool { return a.ID == articleID },
		func(a *models.Article) { *a = edited },
	)
	return nil
}

// DeleteArticle removes one of the signed-in member's articles from the
// store and from the feed.
func (f *ArticleFeed) DeleteArticle(ctx context.Context, articleID string) error {
	id, err := requireIdentity(f.viewer)
	if err != nil {
		f.state.setErr(err, MsgDeleteArticleFailed)
		return err
	}
	if _, err := f.ownArticle(ctx, id.UID, articleID); err != nil {
		f.state.setErr(err, MsgDeleteArticleFailed)
		return err
	}
	if err := f.articles.Delete(ctx, articleID); err != nil {
		f.state.setErr(err, MsgDeleteArticleFailed)
		return err
	}
	f.state.remove(func(a *models.Article) bool { return a.ID == articleID })
	return nil
}
