package server

import (
	"heartbridge/internal/service"

	"github.com/gofiber/fiber/v2"
)

type commentRequest struct {
	Content string `json:"content"`
}

// GetComments handles GET /api/articles/:id/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	q := parseListQuery(c, s.config.CommentPageSize)
	page, err := s.commentService.ListComments(c.UserContext(), service.ListCommentsInput{
		ArticleID: c.Params("id"),
		After:     q.After,
		Limit:     q.Limit,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(page)
}

// GetMyComments handles GET /api/users/me/comments
func (s *Server) GetMyComments(c *fiber.Ctx) error {
	q := parseListQuery(c, s.config.CommentPageSize)
	page, err := s.commentService.ListComments(c.UserContext(), service.ListCommentsInput{
		AuthorID: currentUser(c),
		After:    q.After,
		Limit:    q.Limit,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(page)
}

// GetCommentSummary handles GET /api/articles/:id/comments/summary
func (s *Server) GetCommentSummary(c *fiber.Ctx) error {
	summary, err := s.commentService.SummarizeComments(c.UserContext(), currentUser(c), c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(summary)
}

// CreateComment handles POST /api/articles/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req commentRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		UserID:    currentUser(c),
		ArticleID: c.Params("id"),
		Content:   req.Content,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// UpdateComment handles PUT /api/comments/:id
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	var req commentRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	comment, err := s.commentService.UpdateComment(c.UserContext(), service.UpdateCommentInput{
		UserID:    currentUser(c),
		CommentID: c.Params("id"),
		Content:   req.Content,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(comment)
}

// DeleteComment handles DELETE /api/comments/:id
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	_, err := s.commentService.DeleteComment(c.UserContext(), service.DeleteCommentInput{
		UserID:    currentUser(c),
		CommentID: c.Params("id"),
	})
	if err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LikeComment handles POST /api/comments/:id/like
func (s *Server) LikeComment(c *fiber.Ctx) error {
	comment, err := s.commentService.LikeComment(c.UserContext(), currentUser(c), c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{"id": comment.ID, "likes": comment.Likes})
}
