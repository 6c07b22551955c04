// Package service holds the request-scoped business rules behind the HTTP
// API. Services are stateless; the acting member's uid arrives with every
// call.
package service

import (
	"context"
	"errors"
	"strings"

	"heartbridge/internal/ai"
	"heartbridge/internal/featureflags"
	"heartbridge/internal/models"
	"heartbridge/internal/notifications"
	"heartbridge/internal/observability"
	"heartbridge/internal/repository"
)

// Messages returned by the services.
const (
	MsgContentRejected = "內容包含不適當的字眼，請修改後再發布"
	MsgProfileRequired = models.MsgProfileRequired
	MsgNothingToUpdate = "沒有需要更新的內容"
	MsgInvalidCursor   = "無效的分頁游標"
	MsgSummaryDisabled = "留言摘要功能尚未開放"
)

// Paging bounds shared by every listing.
const (
	DefaultArticleLimit = 10
	DefaultCommentLimit = 20
	MaxLimit            = 50
)

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// ModerationGate screens user content when the ai_moderation flag is on for
// the author.
type ModerationGate struct {
	moderator ai.Moderator
	flags     *featureflags.Manager
}

// NewModerationGate returns a gate. A nil moderator approves everything.
func NewModerationGate(moderator ai.Moderator, flags *featureflags.Manager) *ModerationGate {
	return &ModerationGate{moderator: moderator, flags: flags}
}

// Preview moderates content regardless of the feature flag.
func (g *ModerationGate) Preview(ctx context.Context, content string) (models.ModerationResult, error) {
	if g == nil || g.moderator == nil {
		return models.ModerationResult{IsApproved: true, DetectedIssues: []string{}, Suggestions: []string{}, Severity: models.SeverityLow}, nil
	}
	result, err := g.moderator.Moderate(ctx, content)
	if err != nil {
		return result, models.NewInternalError(err)
	}
	return result, nil
}

// Check rejects content the moderator does not approve. The suggestions
// become the error details.
func (g *ModerationGate) Check(ctx context.Context, userID string, parts ...string) error {
	if g == nil || g.moderator == nil || !g.flags.Enabled(featureflags.AIModeration, userID) {
		return nil
	}
	result, err := g.Preview(ctx, strings.Join(parts, "\n"))
	if err != nil {
		return err
	}
	if result.IsApproved {
		return nil
	}
	observability.GlobalLogger.InfoContext(ctx, "content rejected by moderation",
		"user_id", userID,
		"severity", result.Severity,
	)
	return &models.AppError{
		Code:    models.CodeValidation,
		Message: MsgContentRejected,
		Err:     errors.New(strings.Join(result.Suggestions, "；")),
	}
}

// publish emits e and logs instead of failing the request.
func publish(ctx context.Context, events notifications.Publisher, e notifications.Event) {
	if events == nil {
		return
	}
	if err := events.Publish(ctx, e); err != nil {
		observability.GlobalLogger.WarnContext(ctx, "failed to publish event",
			"event_type", e.Type,
			"error", err,
		)
	}
}

// requireProfile loads the acting member's profile. Members who signed up
// but never completed their profile cannot write.
func requireProfile(ctx context.Context, users repository.UserRepository, userID string) (*models.User, error) {
	if userID == "" {
		return nil, models.NewUnauthenticatedError()
	}
	profile, err := users.GetByID(ctx, userID)
	if models.IsNotFound(err) {
		return nil, models.NewForbiddenError(MsgProfileRequired)
	}
	return profile, err
}
