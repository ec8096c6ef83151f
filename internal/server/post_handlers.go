package server

import (
	"context"
	"strings"

	"encore/internal/models"
	"encore/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type createPostRequest struct {
	Body     string   `json:"body"`
	MediaIDs []string `json:"media_ids"`
}

// CreatePost publishes a post as the caller's active profile.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	profileID, err := requireProfile(c)
	if err != nil {
		return respondError(c, err)
	}

	var req createPostRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	mediaIDs := make([]uuid.UUID, 0, len(req.MediaIDs))
	var malformed []models.InvalidID
	for _, raw := range req.MediaIDs {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			malformed = append(malformed, models.InvalidID{ID: raw, Reason: "malformed"})
			continue
		}
		mediaIDs = append(mediaIDs, id)
	}
	if len(malformed) > 0 {
		return respondError(c, models.NewInvalidIDsError("media_ids contains malformed ids", malformed))
	}

	view, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		ProfileID: profileID,
		Body:      req.Body,
		MediaIDs:  mediaIDs,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(view)
}

func (s *Server) LikePost(c *fiber.Ctx) error {
	return s.interact(c, s.overlayService.Like)
}

func (s *Server) UnlikePost(c *fiber.Ctx) error {
	return s.interact(c, s.overlayService.Unlike)
}

func (s *Server) SavePost(c *fiber.Ctx) error {
	return s.interact(c, s.overlayService.Save)
}

func (s *Server) UnsavePost(c *fiber.Ctx) error {
	return s.interact(c, s.overlayService.Unsave)
}

func (s *Server) interact(c *fiber.Ctx, apply func(context.Context, uint, uint) error) error {
	profileID, err := requireProfile(c)
	if err != nil {
		return respondError(c, err)
	}
	postID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := apply(c.UserContext(), profileID, postID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
