package service

import (
	"context"
	"time"

	"heartbridge/internal/models"
	"heartbridge/internal/notifications"
	"heartbridge/internal/observability"
	"heartbridge/internal/repository"
)

type FavoriteService struct {
	favoriteRepo repository.FavoriteRepository
	articleRepo  repository.ArticleRepository
	events       notifications.Publisher
	now          func() time.Time
}

// FavoritePage is one page of a member's bookmarks, newest first. The cursor
// is the article id of the last bookmark.
type FavoritePage struct {
	Articles   []models.Article `json:"articles"`
	HasMore    bool             `json:"has_more"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

func NewFavoriteService(
	favoriteRepo repository.FavoriteRepository,
	articleRepo repository.ArticleRepository,
	events notifications.Publisher,
) *FavoriteService {
	return &FavoriteService{
		favoriteRepo: favoriteRepo,
		articleRepo:  articleRepo,
		events:       events,
		now:          time.Now,
	}
}

// AddFavorite bookmarks an article. Bookmarking twice is a no-op.
func (s *FavoriteService) AddFavorite(ctx context.Context, userID, articleID string) (*models.Favorite, error) {
	if userID == "" {
		return nil, models.NewUnauthenticatedError()
	}
	if _, err := s.articleRepo.GetByID(ctx, articleID); err != nil {
		return nil, err
	}
	fav, err := s.favoriteRepo.Add(ctx, userID, articleID, s.now())
	if err != nil {
		return nil, err
	}
	publish(ctx, s.events, notifications.Event{
		Type:      notifications.EventFavoriteAdded,
		ActorID:   userID,
		ArticleID: articleID,
	})
	return fav, nil
}

func (s *FavoriteService) RemoveFavorite(ctx context.Context, userID, articleID string) error {
	if userID == "" {
		return models.NewUnauthenticatedError()
	}
	if err := s.favoriteRepo.Remove(ctx, userID, articleID); err != nil {
		return err
	}
	publish(ctx, s.events, notifications.Event{
		Type:      notifications.EventFavoriteRemoved,
		ActorID:   userID,
		ArticleID: articleID,
	})
	return nil
}

// ListFavorites returns the bookmarked articles. Bookmarks whose article is
// gone are skipped.
func (s *FavoriteService) ListFavorites(ctx context.Context, userID, after string, limit int) (*FavoritePage, error) {
	if userID == "" {
		return nil, models.NewUnauthenticatedError()
	}
	limit = clampLimit(limit, DefaultArticleLimit)
	opts := repository.ListOptions{Limit: limit}
	if after != "" {
		last, err := s.favoriteRepo.Get(ctx, userID, after)
		if models.IsNotFound(err) {
			return nil, models.NewValidationError(MsgInvalidCursor)
		}
		if err != nil {
			return nil, err
		}
		opts.After = repository.FavoriteCursor(last)
	}

	page, err := s.favoriteRepo.ListByUser(ctx, userID, opts)
	if err != nil {
		return nil, err
	}

	out := &FavoritePage{Articles: make([]models.Article, 0, len(page.Items))}
	for _, fav := range page.Items {
		article, err := s.articleRepo.GetByID(ctx, fav.ArticleID)
		if models.IsNotFound(err) {
			observability.GlobalLogger.DebugContext(ctx, "skipping favorite of deleted article",
				"user_id", userID,
				"article_id", fav.ArticleID,
			)
			continue
		}
		if err != nil {
			return nil, err
		}
		out.Articles = append(out.Articles, *article)
	}
	out.HasMore = page.Full(limit)
	if out.HasMore && len(page.Items) > 0 {
		out.NextCursor = page.Items[len(page.Items)-1].ArticleID
	}
	return out, nil
}
