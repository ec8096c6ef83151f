package repository

import (
	"context"
	"time"

	"encore/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MediaRepository persists media assets and their lifecycle transitions.
type MediaRepository interface {
	Create(ctx context.Context, asset *models.MediaAsset) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.MediaAsset, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.MediaAsset, error)
	MarkReady(ctx context.Context, id uuid.UUID, size int64, at time.Time) (bool, error)
}

type mediaRepository struct {
	db *gorm.DB
}

// NewMediaRepository creates a new media asset repository
func NewMediaRepository(db *gorm.DB) MediaRepository {
	return &mediaRepository{db: db}
}

func (r *mediaRepository) Create(ctx context.Context, asset *models.MediaAsset) error {
	return r.db.WithContext(ctx).Create(asset).Error
}

func (r *mediaRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.MediaAsset, error) {
	var asset models.MediaAsset
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&asset).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *mediaRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.MediaAsset, error) {
	out := make(map[uuid.UUID]*models.MediaAsset, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var assets []models.MediaAsset
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&assets).Error; err != nil {
		return nil, err
	}
	for i := range assets {
		out[assets[i].ID] = &assets[i]
	}
	return out, nil
}

// MarkReady moves a PENDING asset to READY with its observed size in a single
// conditional update. It reports false when the asset was no longer PENDING.
func (r *mediaRepository) MarkReady(ctx context.Context, id uuid.UUID, size int64, at time.Time) (bool, error) {
	var updated bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.MediaAsset{}).
			Where("id = ? AND status = ?", id, models.MediaStatusPending).
			Updates(map[string]any{
				"status":       models.MediaStatusReady,
				"size_bytes":   size,
				"confirmed_at": at,
				"updated_at":   at,
			})
		if res.Error != nil {
			return res.Error
		}
		updated = res.RowsAffected == 1
		return nil
	})
	return updated, err
}
