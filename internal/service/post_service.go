package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"encore/internal/events"
	"encore/internal/models"
	"encore/internal/repository"

	"github.com/google/uuid"
)

const (
	MaxPostBodyRunes = 5000
	MaxPostMedia     = 10
)

// CreatePostInput is the input for publishing a post as a profile.
type CreatePostInput struct {
	ProfileID uint
	Body      string
	MediaIDs  []uuid.UUID
}

type PostService struct {
	posts     repository.PostRepository
	media     *MediaService
	feed      *FeedService
	publisher events.Publisher
}

func NewPostService(posts repository.PostRepository, media *MediaService, feed *FeedService, publisher events.Publisher) *PostService {
	return &PostService{
		posts:     posts,
		media:     media,
		feed:      feed,
		publisher: publisher,
	}
}

// CreatePost validates the body and attachments, stores the post with its
// ordered media and returns it as its author sees it.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.PostView, error) {
	if in.ProfileID == 0 {
		return nil, models.NewNoActiveProfileError()
	}

	body := strings.TrimSpace(in.Body)
	if utf8.RuneCountInString(body) > MaxPostBodyRunes {
		return nil, models.NewValidationError("Body too long (max 5000 characters)")
	}
	if body == "" && len(in.MediaIDs) == 0 {
		return nil, models.NewValidationError("A post needs a body or media")
	}
	if len(in.MediaIDs) > MaxPostMedia {
		return nil, models.NewValidationError("Too many media items (max 10)")
	}

	seen := make(map[uuid.UUID]struct{}, len(in.MediaIDs))
	var dupes []models.InvalidID
	for _, id := range in.MediaIDs {
		if _, ok := seen[id]; ok {
			dupes = append(dupes, models.InvalidID{ID: id.String(), Reason: "duplicate"})
			continue
		}
		seen[id] = struct{}{}
	}
	if len(dupes) > 0 {
		return nil, models.NewInvalidIDsError("media ids must be unique", dupes)
	}

	if len(in.MediaIDs) > 0 {
		if _, err := s.media.ValidateForPost(ctx, in.MediaIDs, in.ProfileID); err != nil {
			return nil, err
		}
	}

	post := &models.Post{ProfileID: in.ProfileID}
	if body != "" {
		post.Body = &body
	}
	if err := s.posts.Create(ctx, post, in.MediaIDs); err != nil {
		return nil, appError(err)
	}

	events.Emit(ctx, s.publisher, events.SubjectPostCreated, events.PostCreated{
		PostID:    post.ID,
		ProfileID: post.ProfileID,
		MediaIDs:  in.MediaIDs,
		Timestamp: time.Now().UTC(),
	})

	return s.feed.GetPost(ctx, in.ProfileID, post.ID)
}
