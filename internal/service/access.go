package service

import (
	"context"

	"encore/internal/models"
	"encore/internal/repository"
)

// postAccess resolves posts together with their author and applies the
// visibility rule: a private author's posts are only visible to that author.
type postAccess struct {
	posts    repository.PostRepository
	profiles repository.ProfileRepository
}

func canView(viewerProfileID uint, author *models.Profile) bool {
	return !author.IsPrivate || viewerProfileID == author.ID
}

// visiblePost returns the post and its author, or NotFound when the post does
// not exist or is hidden from the viewer.
func (a postAccess) visiblePost(ctx context.Context, viewerProfileID, postID uint) (*models.Post, *models.Profile, error) {
	post, err := a.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, nil, notFoundOr(err, "post", postID)
	}
	author, err := a.profiles.GetByID(ctx, post.ProfileID)
	if err != nil {
		return nil, nil, notFoundOr(err, "post", postID)
	}
	if !canView(viewerProfileID, author) {
		return nil, nil, models.NewNotFoundError("post", postID)
	}
	return post, author, nil
}
