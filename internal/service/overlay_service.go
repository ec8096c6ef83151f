package service

import (
	"context"

	"encore/internal/repository"

	"golang.org/x/sync/errgroup"
)

// Overlay is the viewer-specific state of one post.
type Overlay struct {
	Liked bool
	Saved bool
}

// OverlayService computes and mutates the like/save edges of a viewer.
type OverlayService struct {
	interactions repository.InteractionRepository
	access       postAccess
}

// NewOverlayService returns a new OverlayService.
func NewOverlayService(interactions repository.InteractionRepository, posts repository.PostRepository, profiles repository.ProfileRepository) *OverlayService {
	return &OverlayService{
		interactions: interactions,
		access:       postAccess{posts: posts, profiles: profiles},
	}
}

// Compute returns the overlay of every post id for the viewer using one
// membership lookup per edge kind. Posts the viewer never touched map to the
// zero Overlay.
func (s *OverlayService) Compute(ctx context.Context, viewerProfileID uint, postIDs []uint) (map[uint]Overlay, error) {
	out := make(map[uint]Overlay, len(postIDs))
	if viewerProfileID == 0 || len(postIDs) == 0 {
		return out, nil
	}

	var liked, saved []uint
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		liked, err = s.interactions.LikedPostIDs(gctx, viewerProfileID, postIDs)
		return err
	})
	g.Go(func() error {
		var err error
		saved, err = s.interactions.SavedPostIDs(gctx, viewerProfileID, postIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, appError(err)
	}

	for _, id := range postIDs {
		out[id] = Overlay{}
	}
	for _, id := range liked {
		o := out[id]
		o.Liked = true
		out[id] = o
	}
	for _, id := range saved {
		o := out[id]
		o.Saved = true
		out[id] = o
	}
	return out, nil
}

func (s *OverlayService) Like(ctx context.Context, profileID, postID uint) error {
	return s.toggle(ctx, profileID, postID, s.interactions.Like)
}

func (s *OverlayService) Unlike(ctx context.Context, profileID, postID uint) error {
	return s.toggle(ctx, profileID, postID, s.interactions.Unlike)
}

func (s *OverlayService) Save(ctx context.Context, profileID, postID uint) error {
	return s.toggle(ctx, profileID, postID, s.interactions.Save)
}

func (s *OverlayService) Unsave(ctx context.Context, profileID, postID uint) error {
	return s.toggle(ctx, profileID, postID, s.interactions.Unsave)
}

func (s *OverlayService) toggle(ctx context.Context, profileID, postID uint, apply func(context.Context, uint, uint) error) error {
	if _, _, err := s.access.visiblePost(ctx, profileID, postID); err != nil {
		return err
	}
	return appError(apply(ctx, profileID, postID))
}
