package server

import (
	"encore/internal/models"
	"encore/internal/service"

	"github.com/gofiber/fiber/v2"
)

type beginUploadRequest struct {
	Scope     models.MediaScope `json:"scope"`
	MimeType  string            `json:"mime_type"`
	SizeBytes int64             `json:"size_bytes"`
	Filename  string            `json:"filename"`
}

// BeginUpload registers a pending asset and hands back a presigned upload URL.
// The asset is attributed to the active profile when there is one.
func (s *Server) BeginUpload(c *fiber.Ctx) error {
	var req beginUploadRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	in := service.BeginUploadInput{
		UserID:    userID(c),
		Scope:     req.Scope,
		MimeType:  req.MimeType,
		SizeBytes: req.SizeBytes,
		Filename:  req.Filename,
	}
	if pid := viewerProfileID(c); pid != 0 {
		in.ProfileID = &pid
	}

	ticket, err := s.mediaService.BeginUpload(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ticket)
}

func (s *Server) ConfirmUpload(c *fiber.Ctx) error {
	assetID, err := parseUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	view, err := s.mediaService.ConfirmUpload(c.UserContext(), userID(c), assetID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

func (s *Server) GetMediaAsset(c *fiber.Ctx) error {
	assetID, err := parseUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	view, err := s.mediaService.GetAsset(c.UserContext(), userID(c), assetID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}
