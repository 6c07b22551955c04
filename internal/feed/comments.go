package feed

import (
	"context"
	"time"

	"heartbridge/internal/docstore"
	"heartbridge/internal/models"
	"heartbridge/internal/repository"
	"heartbridge/internal/validation"
)

// CommentThread is one view's comment list: an article's thread or the
// signed-in member's own comments.
type CommentThread struct {
	comments    repository.CommentRepository
	viewer      Viewer
	pageSize    int
	atomicLikes bool
	now         func() time.Time

	state *list[models.Comment, commentScope]
}

type commentScope struct {
	articleID string
	authorID  string
}

// ThreadOption configures a CommentThread.
type ThreadOption func(*CommentThread)

// WithAtomicLikes makes LikeComment use the store's atomic increment
// instead of writing back the cached count plus one.
func WithAtomicLikes() ThreadOption {
	return func(t *CommentThread) { t.atomicLikes = true }
}

// NewCommentThread returns an empty thread. A pageSize of zero or less uses
// DefaultCommentPageSize.
func NewCommentThread(comments repository.CommentRepository, viewer Viewer, pageSize int, opts ...ThreadOption) *CommentThread {
	if pageSize <= 0 {
		pageSize = DefaultCommentPageSize
	}
	t := &CommentThread{
		comments: comments,
		viewer:   viewer,
		pageSize: pageSize,
		now:      time.Now,
		state:    newList[models.Comment, commentScope](),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Comments returns a copy of the loaded comments.
func (t *CommentThread) Comments() []models.Comment {
	items, _, _, _ := t.state.snapshot()
	return items
}

// Loading reports whether a fetch is in flight.
func (t *CommentThread) Loading() bool {
	_, loading, _, _ := t.state.snapshot()
	return loading
}

// Err returns the last failure message, or "".
func (t *CommentThread) Err() string {
	_, _, err, _ := t.state.snapshot()
	return err
}

// HasMore reports whether the last page was full.
func (t *CommentThread) HasMore() bool {
	_, _, _, more := t.state.snapshot()
	return more
}

// Reset empties the thread and drops any response still in flight.
func (t *CommentThread) Reset() {
	t.state.reset()
}

// FetchComments loads the newest comments on an article.
func (t *CommentThread) FetchComments(ctx context.Context, articleID string) error {
	return t.fetch(ctx, commentScope{articleID: articleID})
}

// FetchUserComments loads the signed-in member's newest comments. It does
// nothing when signed out.
func (t *CommentThread) FetchUserComments(ctx context.Context) error {
	id, err := requireIdentity(t.viewer)
	if err != nil {
		return nil
	}
	return t.fetch(ctx, commentScope{authorID: id.UID})
}

func (t *CommentThread) query(ctx context.Context, scope commentScope, after *docstore.Document) (repository.Page[models.Comment], error) {
	opts := repository.ListOptions{Limit: t.pageSize, After: after}
	if scope.authorID != "" {
		return t.comments.ListByAuthor(ctx, scope.authorID, opts)
	}
	return t.comments.ListByArticle(ctx, scope.articleID, opts)
}

func (t *CommentThread) fetch(ctx context.Context, scope commentScope) error {
	gen := t.state.begin(scope)

	page, err := t.query(ctx, scope, nil)
	if err != nil {
		t.state.fail(gen, err, MsgFetchCommentsFailed)
		return err
	}
	t.state.apply(gen, page, t.pageSize, false)
	return nil
}

// LoadMore appends the next page of the current scope.
func (t *CommentThread) LoadMore(ctx context.Context) error {
	cursor, scope, gen, ok := t.state.more()
	if !ok {
		return nil
	}

	page, err := t.query(ctx, scope, cursor)
	if err != nil {
		t.state.fail(gen, err, MsgLoadMoreFailed)
		return err
	}
	t.state.apply(gen, page, t.pageSize, true)
	return nil
}

// CreateComment posts content on an article as the signed-in member and
// returns the new comment's id.
func (t *CommentThread) CreateComment(ctx context.Context, articleID, content string) (string, error) {
	id, profile, err := requireProfile(t.viewer)
	if err != nil {
		t.state.setErr(err, MsgCreateCommentFailed)
		return "", err
	}
	content, err = validation.ValidateCommentInput(content)
	if err != nil {
		t.state.setErr(err, MsgCreateCommentFailed)
		return "", err
	}

	now := t.now()
	commentID, err := t.comments.Create(ctx, &models.Comment{
		ArticleID:  articleID,
		AuthorID:   id.UID,
		AuthorName: profile.DisplayName,
		AuthorRole: profile.Role,
		Content:    content,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.state.setErr(err, MsgCreateCommentFailed)
		return "", err
	}
	return commentID, nil
}

func (t *CommentThread) ownComment(ctx context.Context, uid, commentID string) error {
	comment, err := t.comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.AuthorID != uid {
		return models.NewForbiddenError(models.MsgNotCommentAuthor)
	}
	return nil
}

// UpdateComment replaces the content of one of the signed-in member's
// comments.
func (t *CommentThread) UpdateComment(ctx context.Context, commentID, content string) error {
	id, err := requireIdentity(t.viewer)
	if err != nil {
		t.state.setErr(err, MsgUpdateCommentFailed)
		return err
	}
	content, err = validation.ValidateCommentInput(content)
	if err != nil {
		t.state.setErr(err, MsgUpdateCommentFailed)
		return err
	}
	if err := t.ownComment(ctx, id.UID, commentID); err != nil {
		t.state.setErr(err, MsgUpdateCommentFailed)
		return err
	}

	now := t.now()
	fields := docstore.Fields{"content": content, models.FieldUpdatedAt: now}
	if err := t.comments.Update(ctx, commentID, fields); err != nil {
		t.state.setErr(err, MsgUpdateCommentFailed)
		return err
	}
	t.state.update(byCommentID(commentID), func(c *models.Comment) {
		c.Content = content
		c.UpdatedAt = now
	})
	return nil
}

// DeleteComment removes one of the signed-in member's comments from the
// store and from the thread.
func (t *CommentThread) DeleteComment(ctx context.Context, commentID string) error {
	id, err := requireIdentity(t.viewer)
	if err != nil {
		t.state.setErr(err, MsgDeleteCommentFailed)
		return err
	}
	if err := t.ownComment(ctx, id.UID, commentID); err != nil {
		t.state.setErr(err, MsgDeleteCommentFailed)
		return err
	}
	if err := t.comments.Delete(ctx, commentID); err != nil {
		t.state.setErr(err, MsgDeleteCommentFailed)
		return err
	}
	t.state.remove(byCommentID(commentID))
	return nil
}

// LikeComment adds one like to a comment.
//
// By default it writes the count this thread last loaded plus one, so two
// clients liking at once can lose a like, and a comment this thread has not
// loaded is left alone. WithAtomicLikes increments in the store instead.
func (t *CommentThread) LikeComment(ctx context.Context, commentID string) error {
	if t.atomicLikes {
		if err := t.comments.IncrementLikes(ctx, commentID, 1); err != nil {
			t.state.setErr(err, MsgLikeFailed)
			return err
		}
		t.state.update(byCommentID(commentID), func(c *models.Comment) { c.Likes++ })
		return nil
	}

	cached, ok := t.state.find(byCommentID(commentID))
	if !ok {
		return nil
	}
	fields := docstore.Fields{
		models.FieldLikes:     cached.Likes + 1,
		models.FieldUpdatedAt: t.now(),
	}
	if err := t.comments.Update(ctx, commentID, fields); err != nil {
		t.state.setErr(err, MsgLikeFailed)
		return err
	}
	t.state.update(byCommentID(commentID), func(c *models.Comment) { c.Likes++ })
	return nil
}

func byCommentID(id string) func(*models.Comment) bool {
	return func(c *models.Comment) bool { return c.ID == id }
}
