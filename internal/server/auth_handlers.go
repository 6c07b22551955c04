package server

import (
	"heartbridge/internal/middleware"
	"heartbridge/internal/models"

	"github.com/gofiber/fiber/v2"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register
func (s *Server) Register(c *fiber.Ctx) error {
	var req credentialsRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	result, err := s.authService.Register(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	result, err := s.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(result)
}

// LoginWithIDToken handles POST /api/auth/idp
func (s *Server) LoginWithIDToken(c *fiber.Ctx) error {
	var req struct {
		Provider string `json:"provider"`
		IDToken  string `json:"id_token"`
	}
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	result, err := s.authService.LoginWithIDToken(c.UserContext(), req.Provider, req.IDToken)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(result)
}

// Logout handles POST /api/auth/logout
func (s *Server) Logout(c *fiber.Ctx) error {
	token, ok := middleware.BearerToken(c)
	if !ok {
		return respond(c, models.NewUnauthenticatedError())
	}
	if err := s.authService.Logout(c.UserContext(), token); err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}
