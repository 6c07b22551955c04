package server

import (
	"heartbridge/internal/featureflags"

	"github.com/gofiber/fiber/v2"
)

type featureFlagsResponse struct {
	Raw       map[string]string `json:"raw"`
	Evaluated map[string]bool   `json:"evaluated"`
	// Moderation and Summary are the flags the web client branches on.
	Moderation bool `json:"ai_moderation"`
	Summary    bool `json:"comment_summary"`
}

// GetFeatureFlags handles GET /api/feature-flags. Percentage rollouts are
// evaluated for the signed-in member and off for anonymous callers.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	uid := currentUser(c)
	return c.JSON(featureFlagsResponse{
		Raw:        s.featureFlags.Raw(),
		Evaluated:  s.featureFlags.Snapshot(uid),
		Moderation: s.featureFlags.Enabled(featureflags.AIModeration, uid),
		Summary:    s.featureFlags.Enabled(featureflags.CommentSummary, uid),
	})
}
