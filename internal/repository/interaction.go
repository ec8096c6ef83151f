package repository

import (
	"context"

	"encore/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InteractionRepository stores like and save edges and answers batched
// membership questions about them.
type InteractionRepository interface {
	Like(ctx context.Context, profileID, postID uint) error
	Unlike(ctx context.Context, profileID, postID uint) error
	Save(ctx context.Context, profileID, postID uint) error
	Unsave(ctx context.Context, profileID, postID uint) error
	LikedPostIDs(ctx context.Context, profileID uint, postIDs []uint) ([]uint, error)
	SavedPostIDs(ctx context.Context, profileID uint, postIDs []uint) ([]uint, error)
}

type interactionRepository struct {
	db *gorm.DB
}

// NewInteractionRepository creates a new like/save repository
func NewInteractionRepository(db *gorm.DB) InteractionRepository {
	return &interactionRepository{db: db}
}

// Like inserts the edge; an existing edge is left untouched.
func (r *interactionRepository) Like(ctx context.Context, profileID, postID uint) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Like{ProfileID: profileID, PostID: postID}).Error
}

func (r *interactionRepository) Unlike(ctx context.Context, profileID, postID uint) error {
	return r.db.WithContext(ctx).
		Where("profile_id = ? AND post_id = ?", profileID, postID).
		Delete(&models.Like{}).Error
}

func (r *interactionRepository) Save(ctx context.Context, profileID, postID uint) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Save{ProfileID: profileID, PostID: postID}).Error
}

func (r *interactionRepository) Unsave(ctx context.Context, profileID, postID uint) error {
	return r.db.WithContext(ctx).
		Where("profile_id = ? AND post_id = ?", profileID, postID).
		Delete(&models.Save{}).Error
}

func (r *interactionRepository) LikedPostIDs(ctx context.Context, profileID uint, postIDs []uint) ([]uint, error) {
	return r.memberIDs(ctx, &models.Like{}, profileID, postIDs)
}

func (r *interactionRepository) SavedPostIDs(ctx context.Context, profileID uint, postIDs []uint) ([]uint, error) {
	return r.memberIDs(ctx, &models.Save{}, profileID, postIDs)
}

func (r *interactionRepository) memberIDs(ctx context.Context, model any, profileID uint, postIDs []uint) ([]uint, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(model).
		Where("profile_id = ? AND post_id IN ?", profileID, postIDs).
		Pluck("post_id", &ids).Error
	return ids, err
}
