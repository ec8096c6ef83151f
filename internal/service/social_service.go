package service

import (
	"context"
	"log/slog"

	"encore/internal/middleware"
	"encore/internal/models"
	"encore/internal/repository"
)

// SocialService maintains follow and block edges between profiles.
type SocialService struct {
	profiles repository.ProfileRepository
	graph    repository.GraphRepository
}

// NewSocialService returns a new SocialService.
func NewSocialService(profiles repository.ProfileRepository, graph repository.GraphRepository) *SocialService {
	return &SocialService{profiles: profiles, graph: graph}
}

// Follow makes the viewer follow handle. Following twice is a no-op.
func (s *SocialService) Follow(ctx context.Context, viewerProfileID uint, handle string) error {
	target, err := s.target(ctx, viewerProfileID, handle, "follow")
	if err != nil {
		return err
	}
	blocked, err := s.graph.IsBlockedEither(ctx, viewerProfileID, target.ID)
	if err != nil {
		return appError(err)
	}
	if blocked {
		return models.NewForbiddenError("cannot follow this profile")
	}
	return appError(s.graph.Follow(ctx, viewerProfileID, target.ID))
}

func (s *SocialService) Unfollow(ctx context.Context, viewerProfileID uint, handle string) error {
	target, err := s.target(ctx, viewerProfileID, handle, "unfollow")
	if err != nil {
		return err
	}
	return appError(s.graph.Unfollow(ctx, viewerProfileID, target.ID))
}

// Block records a block edge. Existing follows in either direction are kept.
func (s *SocialService) Block(ctx context.Context, viewerProfileID uint, handle string) error {
	target, err := s.target(ctx, viewerProfileID, handle, "block")
	if err != nil {
		return err
	}
	if err := s.graph.Block(ctx, viewerProfileID, target.ID); err != nil {
		return appError(err)
	}
	middleware.Logger.InfoContext(ctx, "profile blocked", slog.Uint64("blocked_id", uint64(target.ID)))
	return nil
}

func (s *SocialService) Unblock(ctx context.Context, viewerProfileID uint, handle string) error {
	target, err := s.target(ctx, viewerProfileID, handle, "unblock")
	if err != nil {
		return err
	}
	return appError(s.graph.Unblock(ctx, viewerProfileID, target.ID))
}

func (s *SocialService) target(ctx context.Context, viewerProfileID uint, handle, action string) (*models.Profile, error) {
	if viewerProfileID == 0 {
		return nil, models.NewNoActiveProfileError()
	}
	target, err := s.profiles.GetByHandle(ctx, handle)
	if err != nil {
		return nil, notFoundOr(err, "profile", handle)
	}
	if target.ID == viewerProfileID {
		return nil, models.NewForbiddenError("cannot " + action + " your own profile")
	}
	return target, nil
}
