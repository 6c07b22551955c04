package server

import (
	"heartbridge/internal/models"
	"heartbridge/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetArticles handles GET /api/articles?role=&after=&limit=
func (s *Server) GetArticles(c *fiber.Ctx) error {
	q := parseListQuery(c, s.config.ArticlePageSize)
	page, err := s.articleService.ListArticles(c.UserContext(), service.ListArticlesInput{
		Role:  models.Role(c.Query("role")),
		After: q.After,
		Limit: q.Limit,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(page)
}

// GetMyArticles handles GET /api/users/me/articles
func (s *Server) GetMyArticles(c *fiber.Ctx) error {
	q := parseListQuery(c, s.config.ArticlePageSize)
	page, err := s.articleService.ListArticles(c.UserContext(), service.ListArticlesInput{
		AuthorID: currentUser(c),
		After:    q.After,
		Limit:    q.Limit,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(page)
}

// GetArticle handles GET /api/articles/:id
func (s *Server) GetArticle(c *fiber.Ctx) error {
	article, err := s.articleService.GetArticle(c.UserContext(), c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(article)
}

// CreateArticle handles POST /api/articles
func (s *Server) CreateArticle(c *fiber.Ctx) error {
	var req models.ArticleInput
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	article, err := s.articleService.CreateArticle(c.UserContext(), service.CreateArticleInput{
		UserID:  currentUser(c),
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(article)
}

// UpdateArticle handles PUT /api/articles/:id. Only the fields present in
// the body change.
func (s *Server) UpdateArticle(c *fiber.Ctx) error {
	var patch models.ArticlePatch
	if ok, err := parseBody(c, &patch); !ok {
		return err
	}

	article, err := s.articleService.UpdateArticle(c.UserContext(), service.UpdateArticleInput{
		UserID:    currentUser(c),
		ArticleID: c.Params("id"),
		Patch:     patch,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(article)
}

// DeleteArticle handles DELETE /api/articles/:id
func (s *Server) DeleteArticle(c *fiber.Ctx) error {
	err := s.articleService.DeleteArticle(c.UserContext(), service.DeleteArticleInput{
		UserID:    currentUser(c),
		ArticleID: c.Params("id"),
	})
	if err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LikeArticle handles POST /api/articles/:id/like
func (s *Server) LikeArticle(c *fiber.Ctx) error {
	article, err := s.articleService.LikeArticle(c.UserContext(), currentUser(c), c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{"id": article.ID, "likes": article.Likes})
}
