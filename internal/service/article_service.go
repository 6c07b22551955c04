package service

import (
	"context"
	"time"

	"heartbridge/internal/models"
	"heartbridge/internal/notifications"
	"heartbridge/internal/observability"
	"heartbridge/internal/repository"
	"heartbridge/internal/validation"
)

type ArticleService struct {
	articleRepo  repository.ArticleRepository
	commentRepo  repository.CommentRepository
	favoriteRepo repository.FavoriteRepository
	userRepo     repository.UserRepository
	gate         *ModerationGate
	events       notifications.Publisher
	now          func() time.Time
}

type CreateArticleInput struct {
	UserID  string
	Title   string
	Content string
	Tags    []string
}

type ListArticlesInput struct {
	Role     models.Role
	AuthorID string
	// After is the id of the last article of the previous page.
	After string
	Limit int
}

type UpdateArticleInput struct {
	UserID    string
	ArticleID string
	Patch     models.ArticlePatch
}

type DeleteArticleInput struct {
	UserID    string
	ArticleID string
}

// ArticlePage is one page of an article listing.
type ArticlePage struct {
	Articles   []models.Article `json:"articles"`
	HasMore    bool             `json:"has_more"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

func NewArticleService(
	articleRepo repository.ArticleRepository,
	commentRepo repository.CommentRepository,
	favoriteRepo repository.FavoriteRepository,
	userRepo repository.UserRepository,
	gate *ModerationGate,
	events notifications.Publisher,
) *ArticleService {
	return &ArticleService{
		articleRepo:  articleRepo,
		commentRepo:  commentRepo,
		favoriteRepo: favoriteRepo,
		userRepo:     userRepo,
		gate:         gate,
		events:       events,
		now:          time.Now,
	}
}

func (s *ArticleService) CreateArticle(ctx context.Context, in CreateArticleInput) (*models.Article, error) {
	form, err := validation.ValidateArticleInput(models.ArticleInput{Title: in.Title, Content: in.Content, Tags: in.Tags})
	if err != nil {
		return nil, err
	}
	author, err := requireProfile(ctx, s.userRepo, in.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Check(ctx, in.UserID, form.Title, form.Content); err != nil {
		return nil, err
	}

	now := s.now()
	id, err := s.articleRepo.Create(ctx, &models.Article{
		AuthorID:   in.UserID,
		AuthorRole: author.Role,
		Title:      form.Title,
		Content:    form.Content,
		Tags:       form.Tags,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.events, notifications.Event{Type: notifications.EventArticleCreated, ActorID: in.UserID, ArticleID: id})
	return s.articleRepo.GetByID(ctx, id)
}

func (s *ArticleService) GetArticle(ctx context.Context, id string) (*models.Article, error) {
	return s.articleRepo.GetByID(ctx, id)
}

func (s *ArticleService) ListArticles(ctx context.Context, in ListArticlesInput) (*ArticlePage, error) {
	if in.Role != "" && !in.Role.Valid() {
		return nil, models.NewValidationError(validation.MsgRole)
	}
	limit := clampLimit(in.Limit, DefaultArticleLimit)
	opts := repository.ListOptions{Limit: limit}
	if in.After != "" {
		last, err := s.articleRepo.GetByID(ctx, in.After)
		if models.IsNotFound(err) {
			return nil, models.NewValidationError(MsgInvalidCursor)
		}
		if err != nil {
			return nil, err
		}
		opts.After = repository.ArticleCursor(last)
	}

	page, err := s.articleRepo.List(ctx, repository.ArticleFilter{Role: in.Role, AuthorID: in.AuthorID}, opts)
	if err != nil {
		return nil, err
	}
	out := &ArticlePage{Articles: page.Items, HasMore: page.Full(limit)}
	if out.HasMore && page.Last != nil {
		out.NextCursor = page.Last.ID
	}
	return out, nil
}

// ownedArticle loads an article the acting member wrote.
func (s *ArticleService) ownedArticle(ctx context.Context, userID, articleID string) (*models.Article, error) {
	article, err := s.articleRepo.GetByID(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if article.AuthorID != userID {
		return nil, models.NewForbiddenError(models.MsgNotArticleAuthor)
	}
	return article, nil
}

// UpdateArticle applies the patch and records the previous version in the
// article's edit history.
func (s *ArticleService) UpdateArticle(ctx context.Context, in UpdateArticleInput) (*models.Article, error) {
	if in.Patch.IsEmpty() {
		return nil, models.NewValidationError(MsgNothingToUpdate)
	}
	patch, err := validation.ValidateArticlePatch(in.Patch)
	if err != nil {
		return nil, err
	}
	article, err := s.ownedArticle(ctx, in.UserID, in.ArticleID)
	if err != nil {
		return nil, err
	}

	updated, fields := patch.Edit(*article, s.now())
	if patch.Title != nil || patch.Content != nil {
		if err := s.gate.Check(ctx, in.UserID, updated.Title, updated.Content); err != nil {
			return nil, err
		}
	}

	if err := s.articleRepo.Update(ctx, in.ArticleID, fields); err != nil {
		return nil, err
	}

	publish(ctx, s.events, notifications.Event{Type: notifications.EventArticleUpdated, ActorID: in.UserID, ArticleID: in.ArticleID})
	return s.articleRepo.GetByID(ctx, in.ArticleID)
}

// DeleteArticle removes the article together with its comments and
// bookmarks.
func (s *ArticleService) DeleteArticle(ctx context.Context, in DeleteArticleInput) error {
	if _, err := s.ownedArticle(ctx, in.UserID, in.ArticleID); err != nil {
		return err
	}

	comments, err := s.commentRepo.DeleteByArticle(ctx, in.ArticleID)
	if err != nil {
		return err
	}
	favorites, err := s.favoriteRepo.DeleteByArticle(ctx, in.ArticleID)
	if err != nil {
		return err
	}
	if err := s.articleRepo.Delete(ctx, in.ArticleID); err != nil {
		return err
	}

	observability.GlobalLogger.InfoContext(ctx, "article deleted",
		"article_id", in.ArticleID,
		"comments_removed", comments,
		"favorites_removed", favorites,
	)
	publish(ctx, s.events, notifications.Event{Type: notifications.EventArticleDeleted, ActorID: in.UserID, ArticleID: in.ArticleID})
	return nil
}

// LikeArticle adds one like atomically.
func (s *ArticleService) LikeArticle(ctx context.Context, userID, articleID string) (*models.Article, error) {
	if userID == "" {
		return nil, models.NewUnauthenticatedError()
	}
	if err := s.articleRepo.IncrementLikes(ctx, articleID, 1); err != nil {
		return nil, err
	}
	article, err := s.articleRepo.GetByID(ctx, articleID)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.events, notifications.Event{
		Type:        notifications.EventArticleLiked,
		ActorID:     userID,
		ArticleID:   articleID,
		RecipientID: article.AuthorID,
	})
	return article, nil
}
