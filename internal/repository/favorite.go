package repository

import (
	"context"
	"errors"
	"time"

	"heartbridge/internal/docstore"
	"heartbridge/internal/models"
	"heartbridge/internal/observability"

	"github.com/google/uuid"
)

// favoriteNamespace scopes the deterministic favorite ids.
var favoriteNamespace = uuid.MustParse("8f4b3a52-6c1e-4d0a-9a57-2f6d1c3e9b10")

// FavoriteID is the document id of userID's bookmark on articleID. One
// bookmark per pair is enforced by the id.
func FavoriteID(userID, articleID string) string {
	return uuid.NewSHA1(favoriteNamespace, []byte(userID+"/"+articleID)).String()
}

// FavoriteRepository defines persistence operations for bookmarks.
type FavoriteRepository interface {
	// Add bookmarks the article. Adding an existing bookmark returns it unchanged.
	Add(ctx context.Context, userID, articleID string, now time.Time) (*models.Favorite, error)
	Remove(ctx context.Context, userID, articleID string) error
	Get(ctx context.Context, userID, articleID string) (*models.Favorite, error)
	Exists(ctx context.Context, userID, articleID string) (bool, error)
	ListByUser(ctx context.Context, userID string, opts ListOptions) (Page[models.Favorite], error)
	DeleteByArticle(ctx context.Context, articleID string) (int, error)
}

type favoriteRepository struct {
	store  docstore.Store
	logger *observability.RepoLogger
}

// NewFavoriteRepository returns a FavoriteRepository over store.
func NewFavoriteRepository(store docstore.Store) FavoriteRepository {
	return &favoriteRepository{
		store:  store,
		logger: observability.NewRepoLogger(models.CollectionFavorites),
	}
}

func (r *favoriteRepository) Add(ctx context.Context, userID, articleID string, now time.Time) (*models.Favorite, error) {
	id := FavoriteID(userID, articleID)
	doc, err := r.store.Get(ctx, models.CollectionFavorites, id)
	switch {
	case err == nil:
		if fav, decodeErr := models.FavoriteFromDocument(*doc); decodeErr == nil {
			return fav, nil
		}
		// A malformed bookmark is overwritten below.
	case !errors.Is(err, docstore.ErrNotFound):
		r.logger.LogError(ctx, err, "get")
		return nil, models.NewInternalError(err)
	}

	fav := &models.Favorite{ID: id, UserID: userID, ArticleID: articleID, CreatedAt: now}
	if err := r.store.Set(ctx, models.CollectionFavorites, id, fav.Fields()); err != nil {
		r.logger.LogError(ctx, err, "create")
		return nil, models.NewInternalError(err)
	}
	r.logger.LogCreate(ctx, map[string]any{"id": id, "article_id": articleID})
	return fav, nil
}

func (r *favoriteRepository) Remove(ctx context.Context, userID, articleID string) error {
	id := FavoriteID(userID, articleID)
	if err := r.store.Delete(ctx, models.CollectionFavorites, id); err != nil {
		r.logger.LogError(ctx, err, "delete")
		return models.NewInternalError(err)
	}
	r.logger.LogDelete(ctx, map[string]any{"id": id})
	return nil
}

func (r *favoriteRepository) Get(ctx context.Context, userID, articleID string) (*models.Favorite, error) {
	id := FavoriteID(userID, articleID)
	doc, err := getDocument(ctx, r.store, r.logger, models.CollectionFavorites, id, func() error {
		return models.NewNotFoundError("Favorite", articleID)
	})
	if err != nil {
		return nil, err
	}
	fav, err := models.FavoriteFromDocument(*doc)
	if err != nil {
		r.logger.LogMalformed(ctx, id, err)
		return nil, models.NewInternalError(err)
	}
	return fav, nil
}

// FavoriteCursor returns a listing cursor positioned at f.
func FavoriteCursor(f *models.Favorite) *docstore.Document {
	return &docstore.Document{
		ID:     f.ID,
		Fields: docstore.Fields{models.FieldCreatedAt: f.CreatedAt},
	}
}

func (r *favoriteRepository) Exists(ctx context.Context, userID, articleID string) (bool, error) {
	_, err := r.store.Get(ctx, models.CollectionFavorites, FavoriteID(userID, articleID))
	if errors.Is(err, docstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return true, nil
}

func (r *favoriteRepository) ListByUser(ctx context.Context, userID string, opts ListOptions) (Page[models.Favorite], error) {
	q := newestFirst(models.CollectionFavorites, opts).Where(models.FieldUserID, userID)
	return queryPage(ctx, r.store, r.logger, q, models.FavoriteFromDocument)
}

func (r *favoriteRepository) DeleteByArticle(ctx context.Context, articleID string) (int, error) {
	n, err := deleteWhere(ctx, r.store, models.CollectionFavorites, models.FieldArticleID, articleID)
	if err != nil {
		r.logger.LogError(ctx, err, "delete")
	}
	r.logger.LogDelete(ctx, map[string]any{"article_id": articleID, "count": n})
	return n, err
}
