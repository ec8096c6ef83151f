package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetFeed returns the viewer's home feed. Anonymous callers get an empty page.
func (s *Server) GetFeed(c *fiber.Ctx) error {
	page, err := s.feedService.Feed(c.UserContext(), viewerProfileID(c), s.parsePageRequest(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// GetTimeline returns the posts of one profile, newest first.
func (s *Server) GetTimeline(c *fiber.Ctx) error {
	page, err := s.feedService.Timeline(c.UserContext(), viewerProfileID(c), c.Params("handle"), s.parsePageRequest(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	view, err := s.feedService.GetPost(c.UserContext(), viewerProfileID(c), postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}
