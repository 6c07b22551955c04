package repository

import (
	"context"

	"heartbridge/internal/docstore"
	"heartbridge/internal/models"
	"heartbridge/internal/observability"
)

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) (string, error)
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	ListByArticle(ctx context.Context, articleID string, opts ListOptions) (Page[models.Comment], error)
	ListByAuthor(ctx context.Context, authorID string, opts ListOptions) (Page[models.Comment], error)
	Update(ctx context.Context, id string, fields docstore.Fields) error
	// SetLikes overwrites the like counter with a value computed by the caller.
	SetLikes(ctx context.Context, id string, likes int64) error
	IncrementLikes(ctx context.Context, id string, delta int64) error
	Delete(ctx context.Context, id string) error
	DeleteByArticle(ctx context.Context, articleID string) (int, error)
}

type commentRepository struct {
	store  docstore.Store
	logger *observability.RepoLogger
}

// NewCommentRepository returns a CommentRepository over store.
func NewCommentRepository(store docstore.Store) CommentRepository {
	return &commentRepository{
		store:  store,
		logger: observability.NewRepoLogger(models.CollectionComments),
	}
}

func commentNotFound() error { return models.NewCommentNotFoundError() }

// CommentCursor returns a listing cursor positioned at c.
func CommentCursor(c *models.Comment) *docstore.Document {
	return &docstore.Document{
		ID:     c.ID,
		Fields: docstore.Fields{models.FieldCreatedAt: c.CreatedAt},
	}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) (string, error) {
	id, err := r.store.Add(ctx, models.CollectionComments, comment.Fields())
	if err != nil {
		r.logger.LogError(ctx, err, "create")
		return "", models.NewInternalError(err)
	}
	r.logger.LogCreate(ctx, map[string]any{"id": id, "article_id": comment.ArticleID})
	return id, nil
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	doc, err := getDocument(ctx, r.store, r.logger, models.CollectionComments, id, commentNotFound)
	if err != nil {
		return nil, err
	}
	comment, err := models.CommentFromDocument(*doc)
	if err != nil {
		r.logger.LogMalformed(ctx, id, err)
		return nil, models.NewInternalError(err)
	}
	return comment, nil
}

func (r *commentRepository) ListByArticle(ctx context.Context, articleID string, opts ListOptions) (Page[models.Comment], error) {
	q := newestFirst(models.CollectionComments, opts).Where(models.FieldArticleID, articleID)
	return queryPage(ctx, r.store, r.logger, q, models.CommentFromDocument)
}

func (r *commentRepository) ListByAuthor(ctx context.Context, authorID string, opts ListOptions) (Page[models.Comment], error) {
	q := newestFirst(models.CollectionComments, opts).Where(models.FieldAuthorID, authorID)
	return queryPage(ctx, r.store, r.logger, q, models.CommentFromDocument)
}

func (r *commentRepository) Update(ctx context.Context, id string, fields docstore.Fields) error {
	if err := r.store.Update(ctx, models.CollectionComments, id, fields); err != nil {
		r.logger.LogError(ctx, err, "update")
		return storeError(err, commentNotFound)
	}
	r.logger.LogUpdate(ctx, map[string]any{"id": id})
	return nil
}

func (r *commentRepository) SetLikes(ctx context.Context, id string, likes int64) error {
	return r.Update(ctx, id, docstore.Fields{models.FieldLikes: likes})
}

func (r *commentRepository) IncrementLikes(ctx context.Context, id string, delta int64) error {
	err := r.store.Increment(ctx, models.CollectionComments, id, models.FieldLikes, delta)
	if err != nil {
		r.logger.LogError(ctx, err, "increment")
	}
	return storeError(err, commentNotFound)
}

func (r *commentRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, models.CollectionComments, id); err != nil {
		r.logger.LogError(ctx, err, "delete")
		return models.NewInternalError(err)
	}
	r.logger.LogDelete(ctx, map[string]any{"id": id})
	return nil
}

func (r *commentRepository) DeleteByArticle(ctx context.Context, articleID string) (int, error) {
	n, err := deleteWhere(ctx, r.store, models.CollectionComments, models.FieldArticleID, articleID)
	if err != nil {
		r.logger.LogError(ctx, err, "delete")
	}
	r.logger.LogDelete(ctx, map[string]any{"article_id": articleID, "count": n})
	return n, err
}
