package server

import (
	"github.com/gofiber/fiber/v2"
)

type addCommentRequest struct {
	Body string `json:"body"`
}

func (s *Server) AddComment(c *fiber.Ctx) error {
	profileID, err := requireProfile(c)
	if err != nil {
		return respondError(c, err)
	}
	postID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req addCommentRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	view, err := s.commentService.AddComment(c.UserContext(), profileID, postID, req.Body)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(view)
}

// ListComments pages through a post's comments, oldest first.
func (s *Server) ListComments(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	page, err := s.commentService.ListComments(c.UserContext(), viewerProfileID(c), postID, s.parsePageRequest(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}
