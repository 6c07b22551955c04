package server

import (
	"heartbridge/internal/middleware"
	"heartbridge/internal/models"
	"heartbridge/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.profileService.GetProfile(c.UserContext(), currentUser(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(user)
}

// CompleteMyProfile handles PUT /api/users/me/profile. The email comes from
// the bearer token.
func (s *Server) CompleteMyProfile(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var req struct {
		Role models.Role `json:"role"`
		models.ProfileInput
	}
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	token, _ := middleware.BearerToken(c)
	claims, err := s.tokens.Parse(ctx, token)
	if err != nil {
		return respond(c, models.NewUnauthenticatedError())
	}

	user, err := s.profileService.CompleteProfile(ctx, service.CompleteProfileInput{
		UserID:  currentUser(c),
		Email:   claims.Email,
		Role:    req.Role,
		Profile: req.ProfileInput,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(user)
}

// GetMyTheme handles GET /api/users/me/theme
func (s *Server) GetMyTheme(c *fiber.Ctx) error {
	t, err := s.profileService.Theme(c.UserContext(), currentUser(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{"theme": t})
}

// SetMyTheme handles PUT /api/users/me/theme
func (s *Server) SetMyTheme(c *fiber.Ctx) error {
	var req struct {
		Theme models.Theme `json:"theme"`
	}
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	t, err := s.profileService.SetTheme(c.UserContext(), currentUser(c), req.Theme)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{"theme": t})
}
