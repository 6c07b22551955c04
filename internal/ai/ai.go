// Package ai defines the moderation and summarization collaborators and the
// keyword-based mocks used until a real model is wired in.
package ai

import (
	"context"
	"strconv"
	"strings"

	"heartbridge/internal/models"
	"heartbridge/internal/observability"
)

// Moderator reviews user content before it is published.
type Moderator interface {
	Moderate(ctx context.Context, content string) (models.ModerationResult, error)
}

// Summarizer groups the viewpoints in an article's comments.
type Summarizer interface {
	Summarize(ctx context.Context, comments []models.Comment) (models.CommentSummary, error)
}

// MsgOffensive is the issue reported for offensive wording.
const MsgOffensive = "攻擊性或貶低性字眼"

// DefaultOffensiveWords are flagged by MockModerator.
var DefaultOffensiveWords = []string{"笨蛋", "白痴", "廢物", "垃圾"}

// MockModerator rejects content containing any listed word.
type MockModerator struct {
	Words []string
}

// NewMockModerator returns a moderator using DefaultOffensiveWords.
func NewMockModerator() *MockModerator {
	return &MockModerator{Words: DefaultOffensiveWords}
}

// Moderate implements Moderator.
func (m *MockModerator) Moderate(ctx context.Context, content string) (models.ModerationResult, error) {
	result := models.ModerationResult{
		IsApproved:     true,
		DetectedIssues: []string{},
		Suggestions:    []string{},
		Severity:       models.SeverityLow,
	}
	for _, w := range m.Words {
		if strings.Contains(content, w) {
			result = models.ModerationResult{
				IsApproved:     false,
				DetectedIssues: []string{MsgOffensive},
				Suggestions: []string{
					"移除攻擊性用語",
					"用描述感受的方式表達（例如：我感到很挫折）",
				},
				Severity: models.SeverityHigh,
			}
			break
		}
	}

	observability.ModerationVerdicts.
		WithLabelValues(string(result.Severity), strconv.FormatBool(result.IsApproved)).
		Inc()
	observability.GlobalLogger.DebugContext(ctx, "mock moderation verdict",
		"approved", result.IsApproved,
		"severity", result.Severity,
	)
	return result, nil
}

// MockSummarizer returns a fixed summary that only counts the comments.
type MockSummarizer struct{}

// Summarize implements Summarizer.
func (MockSummarizer) Summarize(ctx context.Context, comments []models.Comment) (models.CommentSummary, error) {
	var parents, teens int
	for _, c := range comments {
		switch c.AuthorRole {
		case models.RoleParent:
			parents++
		case models.RoleTeen:
			teens++
		}
	}
	observability.GlobalLogger.DebugContext(ctx, "mock comment summary",
		"total", len(comments),
		"parents", parents,
		"teens", teens,
	)

	return models.CommentSummary{
		ParentViewpoints: []string{
			"家長們關心孩子的學業和未來發展",
			"希望能建立明確的規則和界限",
			"擔心過度使用會影響身心健康",
		},
		TeenViewpoints: []string{
			"青少年認為這是重要的社交方式",
			"希望家長能理解和尊重自己的選擇",
			"願意在合理範圍內溝通和妥協",
		},
		Consensus: []string{
			"雙方都認同需要溝通而非單方面命令",
			"都希望找到平衡點",
		},
		Conflicts: []string{
			"對於「適度」的定義有不同看法",
			"時間分配的優先順序有差異",
		},
		TotalComments: len(comments),
	}, nil
}
