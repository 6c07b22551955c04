package server

import (
	"strings"

	"heartbridge/internal/models"
	"heartbridge/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// CheckModeration handles POST /api/moderation/check. It previews the
// moderator's verdict without publishing anything.
func (s *Server) CheckModeration(c *fiber.Ctx) error {
	var req struct {
		Content string `json:"content"`
	}
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	if strings.TrimSpace(req.Content) == "" {
		return respond(c, models.NewValidationError(validation.MsgRequiredFields))
	}

	result, err := s.moderation.Preview(c.UserContext(), req.Content)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(result)
}
