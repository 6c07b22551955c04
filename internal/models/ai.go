package models

// Severity grades a moderation finding.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ModerationResult is the verdict returned for a piece of content.
type ModerationResult struct {
	IsApproved     bool     `json:"is_approved"`
	DetectedIssues []string `json:"detected_issues"`
	Suggestions    []string `json:"suggestions"`
	Severity       Severity `json:"severity"`
}

// CommentSummary groups the viewpoints expressed on an article.
type CommentSummary struct {
	ParentViewpoints []string `json:"parent_viewpoints"`
	TeenViewpoints   []string `json:"teen_viewpoints"`
	Consensus        []string `json:"consensus"`
	Conflicts        []string `json:"conflicts"`
	TotalComments    int      `json:"total_comments"`
}

// BadgeType identifies an earnable badge.
type BadgeType string

const (
	BadgeEmpathy       BadgeType = "empathy"
	BadgeBrave         BadgeType = "brave"
	BadgeBridgeBuilder BadgeType = "bridge_builder"
)

// Badge describes a badge in the catalog.
type Badge struct {
	ID          string    `json:"id"`
	Type        BadgeType `json:"type"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
}

// BadgeCatalog lists the badges members can earn.
var BadgeCatalog = []Badge{
	{ID: "empathy", Type: BadgeEmpathy, Name: "同理心徽章", Description: "留言展現理解與支持", Icon: "💗"},
	{ID: "brave", Type: BadgeBrave, Name: "勇氣徽章", Description: "勇於分享真實的心情", Icon: "🦁"},
	{ID: "bridge_builder", Type: BadgeBridgeBuilder, Name: "橋樑建造者", Description: "促成家長與青少年的對話", Icon: "🌉"},
}
