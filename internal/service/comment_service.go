package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"encore/internal/models"
	"encore/internal/observability"
	"encore/internal/pagination"
	"encore/internal/repository"
)

const MaxCommentRunes = 2000

// CommentService provides comment business logic.
type CommentService struct {
	comments repository.CommentRepository
	profiles repository.ProfileRepository
	graph    repository.GraphRepository
	access   postAccess
}

// NewCommentService returns a new CommentService.
func NewCommentService(comments repository.CommentRepository, posts repository.PostRepository, profiles repository.ProfileRepository, graph repository.GraphRepository) *CommentService {
	return &CommentService{
		comments: comments,
		profiles: profiles,
		graph:    graph,
		access:   postAccess{posts: posts, profiles: profiles},
	}
}

// AddComment comments on a post visible to the profile.
func (s *CommentService) AddComment(ctx context.Context, profileID, postID uint, body string) (*models.CommentView, error) {
	if profileID == 0 {
		return nil, models.NewNoActiveProfileError()
	}
	post, _, err := s.access.visiblePost(ctx, profileID, postID)
	if err != nil {
		return nil, err
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, models.NewValidationError("Comment cannot be empty")
	}
	if utf8.RuneCountInString(body) > MaxCommentRunes {
		return nil, models.NewValidationError("Comment too long (max 2000 characters)")
	}

	blocked, err := s.graph.IsBlockedEither(ctx, profileID, post.ProfileID)
	if err != nil {
		return nil, appError(err)
	}
	if blocked {
		return nil, models.NewForbiddenError("cannot comment on this post")
	}

	comment := &models.Comment{PostID: postID, ProfileID: profileID, Body: body}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, appError(err)
	}

	author, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return nil, appError(err)
	}
	return &models.CommentView{
		ID:        comment.ID,
		PostID:    comment.PostID,
		Author:    author.Summary(),
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt,
	}, nil
}

// ListComments pages through a post's comments, oldest first.
func (s *CommentService) ListComments(ctx context.Context, viewerProfileID, postID uint, req pagination.Request) (pagination.Page[models.CommentView], error) {
	if _, _, err := s.access.visiblePost(ctx, viewerProfileID, postID); err != nil {
		return pagination.Page[models.CommentView]{}, err
	}
	page, err := s.comments.ListByPost(ctx, postID, req)
	if err != nil {
		return pagination.Page[models.CommentView]{}, appError(err)
	}

	ids := make([]uint, 0, len(page.Items))
	for _, c := range page.Items {
		ids = append(ids, c.ProfileID)
	}
	authors, err := s.profiles.GetByIDs(ctx, ids)
	if err != nil {
		return pagination.Page[models.CommentView]{}, appError(err)
	}

	observability.PageItems.WithLabelValues("comments").Observe(float64(len(page.Items)))
	return pagination.Map(page, func(c models.Comment) models.CommentView {
		v := models.CommentView{ID: c.ID, PostID: c.PostID, Body: c.Body, CreatedAt: c.CreatedAt}
		if a, ok := authors[c.ProfileID]; ok {
			v.Author = a.Summary()
		}
		return v
	}), nil
}
