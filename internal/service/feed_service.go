package service

import (
	"context"

	"encore/internal/models"
	"encore/internal/observability"
	"encore/internal/pagination"
	"encore/internal/repository"
	"encore/internal/storage"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// FeedService assembles post listings: the home feed, profile timelines and
// single posts.
type FeedService struct {
	posts    repository.PostRepository
	profiles repository.ProfileRepository
	overlay  *OverlayService
	store    storage.ObjectStore
	access   postAccess
}

// NewFeedService returns a new FeedService.
func NewFeedService(posts repository.PostRepository, profiles repository.ProfileRepository, overlay *OverlayService, store storage.ObjectStore) *FeedService {
	return &FeedService{
		posts:    posts,
		profiles: profiles,
		overlay:  overlay,
		store:    store,
		access:   postAccess{posts: posts, profiles: profiles},
	}
}

// Feed lists posts by the viewer and the profiles it follows, newest first.
// Without a viewer the feed is an empty page.
func (s *FeedService) Feed(ctx context.Context, viewerProfileID uint, req pagination.Request) (pagination.Page[models.PostView], error) {
	if viewerProfileID == 0 {
		return pagination.Empty[models.PostView](), nil
	}
	page, err := s.posts.ListFeed(ctx, viewerProfileID, req)
	if err != nil {
		return pagination.Page[models.PostView]{}, appError(err)
	}
	return s.assemblePage(ctx, "feed", viewerProfileID, page)
}

// Timeline lists one profile's posts, newest first. Private profiles are only
// visible to themselves.
func (s *FeedService) Timeline(ctx context.Context, viewerProfileID uint, handle string, req pagination.Request) (pagination.Page[models.PostView], error) {
	profile, err := s.profiles.GetByHandle(ctx, handle)
	if err != nil {
		return pagination.Page[models.PostView]{}, notFoundOr(err, "profile", handle)
	}
	if !canView(viewerProfileID, profile) {
		return pagination.Page[models.PostView]{}, models.NewNotFoundError("profile", handle)
	}
	page, err := s.posts.ListByProfile(ctx, profile.ID, req)
	if err != nil {
		return pagination.Page[models.PostView]{}, appError(err)
	}
	return s.assemblePage(ctx, "timeline", viewerProfileID, page)
}

// GetPost returns one post as the viewer sees it.
func (s *FeedService) GetPost(ctx context.Context, viewerProfileID, postID uint) (*models.PostView, error) {
	post, _, err := s.access.visiblePost(ctx, viewerProfileID, postID)
	if err != nil {
		return nil, err
	}
	views, err := s.assemble(ctx, viewerProfileID, []models.Post{*post})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *FeedService) assemblePage(ctx context.Context, listing string, viewerProfileID uint, page pagination.Page[models.Post]) (pagination.Page[models.PostView], error) {
	views, err := s.assemble(ctx, viewerProfileID, page.Items)
	if err != nil {
		return pagination.Page[models.PostView]{}, err
	}
	observability.PageItems.WithLabelValues(listing).Observe(float64(len(views)))
	return pagination.Page[models.PostView]{Items: views, NextCursor: page.NextCursor, HasMore: page.HasMore}, nil
}

// assemble enriches posts with authors, media, counts and the overlay. Each
// kind of data is fetched once for the whole batch.
func (s *FeedService) assemble(ctx context.Context, viewerProfileID uint, posts []models.Post) ([]models.PostView, error) {
	views := make([]models.PostView, 0, len(posts))
	if len(posts) == 0 {
		return views, nil
	}

	span, ctx := observability.NewSpan(ctx, "feed.assemble", attribute.Int("posts", len(posts)))
	defer span.End()

	postIDs := make([]uint, 0, len(posts))
	authorSet := make(map[uint]struct{}, len(posts))
	authorIDs := make([]uint, 0, len(posts))
	for _, p := range posts {
		postIDs = append(postIDs, p.ID)
		if _, ok := authorSet[p.ProfileID]; !ok {
			authorSet[p.ProfileID] = struct{}{}
			authorIDs = append(authorIDs, p.ProfileID)
		}
	}

	var (
		authors  map[uint]*models.Profile
		media    map[uint][]repository.AttachedMedia
		counts   map[uint]repository.PostCounts
		overlays map[uint]Overlay
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		authors, err = s.profiles.GetByIDs(gctx, authorIDs)
		return err
	})
	g.Go(func() error {
		var err error
		media, err = s.posts.MediaFor(gctx, postIDs)
		return err
	})
	g.Go(func() error {
		var err error
		counts, err = s.posts.CountsFor(gctx, postIDs)
		return err
	})
	g.Go(func() error {
		var err error
		overlays, err = s.overlay.Compute(gctx, viewerProfileID, postIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		span.SetError(err)
		return nil, appError(err)
	}

	for _, p := range posts {
		v := models.PostView{
			ID:        p.ID,
			Body:      p.Body,
			Media:     make([]models.MediaView, 0, len(media[p.ID])),
			CreatedAt: p.CreatedAt,
		}
		if author, ok := authors[p.ProfileID]; ok {
			v.Author = author.Summary()
		}
		for _, m := range media[p.ID] {
			v.Media = append(v.Media, models.MediaView{
				AssetID:  m.AssetID,
				Position: m.Position,
				MimeType: m.MimeType,
				URL:      s.store.PublicURL(m.StorageKey),
			})
		}
		c := counts[p.ID]
		v.LikesCount, v.SavesCount, v.CommentsCount = c.LikesCount, c.SavesCount, c.CommentsCount
		if viewerProfileID != 0 {
			o := overlays[p.ID]
			liked, saved := o.Liked, o.Saved
			v.Liked, v.Saved = &liked, &saved
		}
		views = append(views, v)
	}
	return views, nil
}
