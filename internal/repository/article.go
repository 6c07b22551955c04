package repository

import (
	"context"

	"heartbridge/internal/cache"
	"heartbridge/internal/docstore"
	"heartbridge/internal/models"
	"heartbridge/internal/observability"
)

// ArticleFilter narrows an article listing. Zero values match everything.
type ArticleFilter struct {
	Role     models.Role
	AuthorID string
}

// ArticleRepository defines persistence operations for articles.
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) (string, error)
	GetByID(ctx context.Context, id string) (*models.Article, error)
	List(ctx context.Context, filter ArticleFilter, opts ListOptions) (Page[models.Article], error)
	Update(ctx context.Context, id string, fields docstore.Fields) error
	Delete(ctx context.Context, id string) error
	IncrementLikes(ctx context.Context, id string, delta int64) error
	IncrementCommentCount(ctx context.Context, id string, delta int64) error
}

type articleRepository struct {
	store  docstore.Store
	logger *observability.RepoLogger
}

// NewArticleRepository returns an ArticleRepository over store.
func NewArticleRepository(store docstore.Store) ArticleRepository {
	return &articleRepository{
		store:  store,
		logger: observability.NewRepoLogger(models.CollectionArticles),
	}
}

func articleNotFound() error { return models.NewArticleNotFoundError() }

// ArticleCursor returns a listing cursor positioned at a.
func ArticleCursor(a *models.Article) *docstore.Document {
	return &docstore.Document{
		ID:     a.ID,
		Fields: docstore.Fields{models.FieldCreatedAt: a.CreatedAt},
	}
}

func (r *articleRepository) Create(ctx context.Context, article *models.Article) (string, error) {
	id, err := r.store.Add(ctx, models.CollectionArticles, article.Fields())
	if err != nil {
		r.logger.LogError(ctx, err, "create")
		return "", models.NewInternalError(err)
	}
	r.logger.LogCreate(ctx, map[string]any{"id": id, "author_id": article.AuthorID})
	return id, nil
}

func (r *articleRepository) GetByID(ctx context.Context, id string) (*models.Article, error) {
	var article models.Article
	err := cache.Aside(ctx, cache.ArticleKey(id), &article, cache.ArticleTTL, func() error {
		doc, err := getDocument(ctx, r.store, r.logger, models.CollectionArticles, id, articleNotFound)
		if err != nil {
			return err
		}
		decoded, err := models.ArticleFromDocument(*doc)
		if err != nil {
			r.logger.LogMalformed(ctx, id, err)
			return models.NewInternalError(err)
		}
		article = *decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *articleRepository) List(ctx context.Context, filter ArticleFilter, opts ListOptions) (Page[models.Article], error) {
	q := newestFirst(models.CollectionArticles, opts)
	if filter.Role != "" {
		q = q.Where(models.FieldAuthorName, string(filter.Role))
	}
	if filter.AuthorID != "" {
		q = q.Where(models.FieldAuthorID, filter.AuthorID)
	}
	return queryPage(ctx, r.store, r.logger, q, models.ArticleFromDocument)
}

func (r *articleRepository) Update(ctx context.Context, id string, fields docstore.Fields) error {
	err := r.store.Update(ctx, models.CollectionArticles, id, fields)
	if err != nil {
		r.logger.LogError(ctx, err, "update")
		return storeError(err, articleNotFound)
	}
	cache.InvalidateArticle(ctx, id)
	r.logger.LogUpdate(ctx, map[string]any{"id": id})
	return nil
}

func (r *articleRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, models.CollectionArticles, id); err != nil {
		r.logger.LogError(ctx, err, "delete")
		return models.NewInternalError(err)
	}
	cache.InvalidateArticle(ctx, id)
	r.logger.LogDelete(ctx, map[string]any{"id": id})
	return nil
}

func (r *articleRepository) IncrementLikes(ctx context.Context, id string, delta int64) error {
	return r.increment(ctx, id, models.FieldLikes, delta)
}

func (r *articleRepository) IncrementCommentCount(ctx context.Context, id string, delta int64) error {
	return r.increment(ctx, id, models.FieldCommentCount, delta)
}

func (r *articleRepository) increment(ctx context.Context, id, field string, delta int64) error {
	err := r.store.Increment(ctx, models.CollectionArticles, id, field, delta)
	if err != nil {
		r.logger.LogError(ctx, err, "increment")
		return storeError(err, articleNotFound)
	}
	cache.InvalidateArticle(ctx, id)
	return nil
}
