package server

import (
	"strconv"

	"encore/internal/models"
	"encore/internal/pagination"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// respondError is the single exit for failed requests.
func respondError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, err)
}

func (s *Server) parsePageRequest(c *fiber.Ctx) pagination.Request {
	return pagination.Request{
		Limit:  s.limits.Parse(c.Query("limit")),
		Cursor: c.Query("cursor"),
	}
}

func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(param), 10, 32)
	if err != nil || id == 0 {
		return 0, models.NewValidationError("invalid " + param)
	}
	return uint(id), nil
}

func parseUUID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, models.NewValidationError("invalid " + param)
	}
	return id, nil
}

func userID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}

// viewerProfileID is 0 for anonymous callers and users without an active profile.
func viewerProfileID(c *fiber.Ctx) uint {
	id, _ := c.Locals("profileID").(uint)
	return id
}

func requireProfile(c *fiber.Ctx) (uint, error) {
	id := viewerProfileID(c)
	if id == 0 {
		return 0, models.NewNoActiveProfileError()
	}
	return id, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return models.NewValidationError("invalid request body")
	}
	return nil
}

func validationError(msg string) error {
	return models.NewValidationError(msg)
}
