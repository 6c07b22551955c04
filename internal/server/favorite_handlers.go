package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetMyFavorites handles GET /api/users/me/favorites
func (s *Server) GetMyFavorites(c *fiber.Ctx) error {
	q := parseListQuery(c, s.config.ArticlePageSize)
	page, err := s.favoriteService.ListFavorites(c.UserContext(), currentUser(c), q.After, q.Limit)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(page)
}

// AddFavorite handles POST /api/articles/:id/favorite
func (s *Server) AddFavorite(c *fiber.Ctx) error {
	fav, err := s.favoriteService.AddFavorite(c.UserContext(), currentUser(c), c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(fav)
}

// RemoveFavorite handles DELETE /api/articles/:id/favorite
func (s *Server) RemoveFavorite(c *fiber.Ctx) error {
	if err := s.favoriteService.RemoveFavorite(c.UserContext(), currentUser(c), c.Params("id")); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
