package repository

import (
	"context"

	"encore/internal/models"
	"encore/internal/pagination"

	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByPost(ctx context.Context, postID uint, req pagination.Request) (pagination.Page[models.Comment], error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

var commentKeyset = pagination.NewKeyset("comments", pagination.Ascending)

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *commentRepository) ListByPost(ctx context.Context, postID uint, req pagination.Request) (pagination.Page[models.Comment], error) {
	q := r.db.Model(&models.Comment{}).Where("comments.post_id = ?", postID)
	return pagination.Paginate(ctx, q, commentKeyset, req, func(c models.Comment) uint { return c.ID })
}
