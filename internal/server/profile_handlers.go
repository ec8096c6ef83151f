package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

type setActiveProfileRequest struct {
	ProfileID uint `json:"profile_id"`
}

// GetProfile returns a profile with follower counts. Signed-in callers also
// learn whether they follow it.
func (s *Server) GetProfile(c *fiber.Ctx) error {
	view, err := s.profileService.GetProfile(c.UserContext(), viewerProfileID(c), c.Params("handle"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

func (s *Server) ListMyProfiles(c *fiber.Ctx) error {
	views, err := s.profileService.ListMyProfiles(c.UserContext(), userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"items": views})
}

func (s *Server) SetActiveProfile(c *fiber.Ctx) error {
	var req setActiveProfileRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	if req.ProfileID == 0 {
		return respondError(c, validationError("profile_id is required"))
	}
	if err := s.profileService.SetActiveProfile(c.UserContext(), userID(c), req.ProfileID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) Follow(c *fiber.Ctx) error {
	return s.relate(c, s.socialService.Follow)
}

func (s *Server) Unfollow(c *fiber.Ctx) error {
	return s.relate(c, s.socialService.Unfollow)
}

func (s *Server) Block(c *fiber.Ctx) error {
	return s.relate(c, s.socialService.Block)
}

func (s *Server) Unblock(c *fiber.Ctx) error {
	return s.relate(c, s.socialService.Unblock)
}

func (s *Server) relate(c *fiber.Ctx, apply func(context.Context, uint, string) error) error {
	profileID, err := requireProfile(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := apply(c.UserContext(), profileID, c.Params("handle")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
