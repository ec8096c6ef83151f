package service

import (
	"context"

	"encore/internal/models"
	"encore/internal/repository"
)

// ProfileService resolves profiles and the caller's active profile.
type ProfileService struct {
	profiles repository.ProfileRepository
	graph    repository.GraphRepository
}

// NewProfileService returns a new ProfileService.
func NewProfileService(profiles repository.ProfileRepository, graph repository.GraphRepository) *ProfileService {
	return &ProfileService{profiles: profiles, graph: graph}
}

// GetProfile returns a profile header. Private profiles resolve too; only their
// posts are hidden.
func (s *ProfileService) GetProfile(ctx context.Context, viewerProfileID uint, handle string) (*models.ProfileView, error) {
	profile, err := s.profiles.GetByHandle(ctx, handle)
	if err != nil {
		return nil, notFoundOr(err, "profile", handle)
	}
	followers, following, err := s.graph.FollowCounts(ctx, profile.ID)
	if err != nil {
		return nil, appError(err)
	}
	view := &models.ProfileView{Profile: *profile, FollowersCount: followers, FollowingCount: following}
	if viewerProfileID != 0 && viewerProfileID != profile.ID {
		isFollowing, err := s.graph.IsFollowing(ctx, viewerProfileID, profile.ID)
		if err != nil {
			return nil, appError(err)
		}
		view.IsFollowing = &isFollowing
	}
	return view, nil
}

// ActiveProfile returns the profile the user acts as, or 0 when none is set.
func (s *ProfileService) ActiveProfile(ctx context.Context, userID uint) (uint, error) {
	id, err := s.profiles.GetActiveProfileID(ctx, userID)
	if err != nil {
		return 0, appError(err)
	}
	return id, nil
}

// SetActiveProfile switches the user's active profile. Any membership role is enough.
func (s *ProfileService) SetActiveProfile(ctx context.Context, userID, profileID uint) error {
	ok, err := s.profiles.IsMember(ctx, userID, profileID)
	if err != nil {
		return appError(err)
	}
	if !ok {
		return models.NewForbiddenError("not a member of this profile")
	}
	return appError(s.profiles.SetActiveProfile(ctx, userID, profileID))
}

// ListMyProfiles lists every profile the user can act as.
func (s *ProfileService) ListMyProfiles(ctx context.Context, userID uint) ([]models.MembershipView, error) {
	memberships, err := s.profiles.ListMemberships(ctx, userID)
	if err != nil {
		return nil, appError(err)
	}
	views := make([]models.MembershipView, 0, len(memberships))
	if len(memberships) == 0 {
		return views, nil
	}

	ids := make([]uint, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.ProfileID)
	}
	profiles, err := s.profiles.GetByIDs(ctx, ids)
	if err != nil {
		return nil, appError(err)
	}
	active, err := s.ActiveProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, m := range memberships {
		p, ok := profiles[m.ProfileID]
		if !ok {
			continue
		}
		views = append(views, models.MembershipView{
			Profile: p.Summary(),
			Role:    m.Role,
			Active:  m.ProfileID == active,
		})
	}
	return views, nil
}
