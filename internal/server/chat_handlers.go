package server

import (
	"github.com/gofiber/fiber/v2"
)

type startConversationRequest struct {
	ProfileID uint `json:"profile_id"`
}

type postMessageRequest struct {
	Body string `json:"body"`
}

// StartConversation opens the direct conversation with another profile, or
// returns the existing one with 200.
func (s *Server) StartConversation(c *fiber.Ctx) error {
	profileID, err := requireProfile(c)
	if err != nil {
		return respondError(c, err)
	}
	var req startConversationRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	if req.ProfileID == 0 {
		return respondError(c, validationError("profile_id is required"))
	}

	view, created, err := s.chatService.StartOrGet(c.UserContext(), profileID, req.ProfileID)
	if err != nil {
		return respondError(c, err)
	}
	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(view)
}

func (s *Server) ListConversations(c *fiber.Ctx) error {
	profileID, err := requireProfile(c)
	if err != nil {
		return respondError(c, err)
	}
	views, err := s.chatService.ListConversations(c.UserContext(), profileID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"items": views})
}

func (s *Server) ListMessages(c *fiber.Ctx) error {
	profileID, err := requireProfile(c)
	if err != nil {
		return respondError(c, err)
	}
	conversationID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	page, err := s.chatService.ListMessages(c.UserContext(), profileID, conversationID, s.parsePageRequest(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

func (s *Server) PostMessage(c *fiber.Ctx) error {
	profileID, err := requireProfile(c)
	if err != nil {
		return respondError(c, err)
	}
	conversationID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req postMessageRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	msg, err := s.chatService.PostMessage(c.UserContext(), profileID, conversationID, req.Body)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}
