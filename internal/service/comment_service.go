package service

import (
	"context"
	"time"

	"heartbridge/internal/ai"
	"heartbridge/internal/docstore"
	"heartbridge/internal/featureflags"
	"heartbridge/internal/models"
	"heartbridge/internal/notifications"
	"heartbridge/internal/observability"
	"heartbridge/internal/repository"
	"heartbridge/internal/validation"
)

// maxSummaryComments caps how many comments a summary reads.
const maxSummaryComments = 500

type CommentService struct {
	commentRepo repository.CommentRepository
	articleRepo repository.ArticleRepository
	userRepo    repository.UserRepository
	gate        *ModerationGate
	summarizer  ai.Summarizer
	flags       *featureflags.Manager
	events      notifications.Publisher
	now         func() time.Time
}

type CreateCommentInput struct {
	UserID    string
	ArticleID string
	Content   string
}

type UpdateCommentInput struct {
	UserID    string
	CommentID string
	Content   string
}

type DeleteCommentInput struct {
	UserID    string
	CommentID string
}

type ListCommentsInput struct {
	ArticleID string
	AuthorID  string
	// After is the id of the last comment of the previous page.
	After string
	Limit int
}

// CommentPage is one page of a comment listing.
type CommentPage struct {
	Comments   []models.Comment `json:"comments"`
	HasMore    bool             `json:"has_more"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	articleRepo repository.ArticleRepository,
	userRepo repository.UserRepository,
	gate *ModerationGate,
	summarizer ai.Summarizer,
	flags *featureflags.Manager,
	events notifications.Publisher,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		articleRepo: articleRepo,
		userRepo:    userRepo,
		gate:        gate,
		summarizer:  summarizer,
		flags:       flags,
		events:      events,
		now:         time.Now,
	}
}

// CreateComment posts a comment and bumps the article's comment count.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	content, err := validation.ValidateCommentInput(in.Content)
	if err != nil {
		return nil, err
	}
	author, err := requireProfile(ctx, s.userRepo, in.UserID)
	if err != nil {
		return nil, err
	}
	article, err := s.articleRepo.GetByID(ctx, in.ArticleID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Check(ctx, in.UserID, content); err != nil {
		return nil, err
	}

	now := s.now()
	id, err := s.commentRepo.Create(ctx, &models.Comment{
		ArticleID:  in.ArticleID,
		AuthorID:   in.UserID,
		AuthorName: author.DisplayName,
		AuthorRole: author.Role,
		Content:    content,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return nil, err
	}
	s.bumpCommentCount(ctx, in.ArticleID, 1)

	publish(ctx, s.events, notifications.Event{
		Type:        notifications.EventCommentCreated,
		ActorID:     in.UserID,
		ArticleID:   in.ArticleID,
		CommentID:   id,
		RecipientID: article.AuthorID,
	})
	return s.commentRepo.GetByID(ctx, id)
}

// bumpCommentCount keeps the article's counter in step. The comment write
// already succeeded, so a failure here is only logged.
func (s *CommentService) bumpCommentCount(ctx context.Context, articleID string, delta int64) {
	if err := s.articleRepo.IncrementCommentCount(ctx, articleID, delta); err != nil {
		observability.GlobalLogger.WarnContext(ctx, "failed to update comment count",
			"article_id", articleID,
			"delta", delta,
			"error", err,
		)
	}
}

// ListComments lists an article's comments or, when AuthorID is set, one
// member's comments.
func (s *CommentService) ListComments(ctx context.Context, in ListCommentsInput) (*CommentPage, error) {
	limit := clampLimit(in.Limit, DefaultCommentLimit)
	opts := repository.ListOptions{Limit: limit}
	if in.After != "" {
		last, err := s.commentRepo.GetByID(ctx, in.After)
		if models.IsNotFound(err) {
			return nil, models.NewValidationError(MsgInvalidCursor)
		}
		if err != nil {
			return nil, err
		}
		opts.After = repository.CommentCursor(last)
	}

	var (
		page repository.Page[models.Comment]
		err  error
	)
	if in.AuthorID != "" {
		page, err = s.commentRepo.ListByAuthor(ctx, in.AuthorID, opts)
	} else {
		if _, err := s.articleRepo.GetByID(ctx, in.ArticleID); err != nil {
			return nil, err
		}
		page, err = s.commentRepo.ListByArticle(ctx, in.ArticleID, opts)
	}
	if err != nil {
		return nil, err
	}

	out := &CommentPage{Comments: page.Items, HasMore: page.Full(limit)}
	if out.HasMore && page.Last != nil {
		out.NextCursor = page.Last.ID
	}
	return out, nil
}

func (s *CommentService) ownedComment(ctx context.Context, userID, commentID string) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != userID {
		return nil, models.NewForbiddenError(models.MsgNotCommentAuthor)
	}
	return comment, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	content, err := validation.ValidateCommentInput(in.Content)
	if err != nil {
		return nil, err
	}
	comment, err := s.ownedComment(ctx, in.UserID, in.CommentID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Check(ctx, in.UserID, content); err != nil {
		return nil, err
	}

	fields := docstore.Fields{"content": content, models.FieldUpdatedAt: s.now()}
	if err := s.commentRepo.Update(ctx, in.CommentID, fields); err != nil {
		return nil, err
	}
	publish(ctx, s.events, notifications.Event{
		Type:      notifications.EventCommentUpdated,
		ActorID:   in.UserID,
		ArticleID: comment.ArticleID,
		CommentID: in.CommentID,
	})
	return s.commentRepo.GetByID(ctx, in.CommentID)
}

// DeleteComment removes a comment and decrements the article's comment
// count.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) (*models.Comment, error) {
	comment, err := s.ownedComment(ctx, in.UserID, in.CommentID)
	if err != nil {
		return nil, err
	}
	if err := s.commentRepo.Delete(ctx, in.CommentID); err != nil {
		return nil, err
	}
	s.bumpCommentCount(ctx, comment.ArticleID, -1)

	publish(ctx, s.events, notifications.Event{
		Type:      notifications.EventCommentDeleted,
		ActorID:   in.UserID,
		ArticleID: comment.ArticleID,
		CommentID: in.CommentID,
	})
	return comment, nil
}

// LikeComment adds one like atomically.
func (s *CommentService) LikeComment(ctx context.Context, userID, commentID string) (*models.Comment, error) {
	if userID == "" {
		return nil, models.NewUnauthenticatedError()
	}
	if err := s.commentRepo.IncrementLikes(ctx, commentID, 1); err != nil {
		return nil, err
	}
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.events, notifications.Event{
		Type:        notifications.EventCommentLiked,
		ActorID:     userID,
		ArticleID:   comment.ArticleID,
		CommentID:   commentID,
		RecipientID: comment.AuthorID,
	})
	return comment, nil
}

// SummarizeComments groups the viewpoints on an article. It is available
// only while the comment_summary flag is on for the member.
func (s *CommentService) SummarizeComments(ctx context.Context, userID, articleID string) (*models.CommentSummary, error) {
	if s.summarizer == nil || !s.flags.Enabled(featureflags.CommentSummary, userID) {
		return nil, models.NewForbiddenError(MsgSummaryDisabled)
	}
	if _, err := s.articleRepo.GetByID(ctx, articleID); err != nil {
		return nil, err
	}

	var comments []models.Comment
	opts := repository.ListOptions{Limit: MaxLimit}
	for len(comments) < maxSummaryComments {
		page, err := s.commentRepo.ListByArticle(ctx, articleID, opts)
		if err != nil {
			return nil, err
		}
		comments = append(comments, page.Items...)
		if !page.Full(opts.Limit) {
			break
		}
		opts.After = page.Last
	}

	summary, err := s.summarizer.Summarize(ctx, comments)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &summary, nil
}
