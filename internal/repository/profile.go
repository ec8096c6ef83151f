package repository

import (
	"context"
	"errors"

	"encore/internal/cache"
	"encore/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepository defines the interface for profile and membership data operations
type ProfileRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Profile, error)
	GetByHandle(ctx context.Context, handle string) (*models.Profile, error)
	GetByIDs(ctx context.Context, ids []uint) (map[uint]*models.Profile, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Create(ctx context.Context, profile *models.Profile, ownerUserID uint) error
	ListMemberships(ctx context.Context, userID uint) ([]models.ProfileMembership, error)
	IsMember(ctx context.Context, userID, profileID uint) (bool, error)
	GetActiveProfileID(ctx context.Context, userID uint) (uint, error)
	SetActiveProfile(ctx context.Context, userID, profileID uint) error
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) GetByID(ctx context.Context, id uint) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).First(&profile, id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetByHandle resolves handle to an id, cached since handles never change,
// and then loads the profile row live so privacy and display fields are
// never served stale.
func (r *profileRepository) GetByHandle(ctx context.Context, handle string) (*models.Profile, error) {
	handle = models.NormalizeHandle(handle)
	var id uint
	err := cache.Aside(ctx, cache.ProfileHandleKey(handle), &id, cache.ProfileHandleTTL, func() error {
		return r.db.WithContext(ctx).Model(&models.Profile{}).
			Where("handle = ?", handle).
			Select("id").
			First(&id).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *profileRepository) GetByIDs(ctx context.Context, ids []uint) (map[uint]*models.Profile, error) {
	out := make(map[uint]*models.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var profiles []models.Profile
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, err
	}
	for i := range profiles {
		out[profiles[i].ID] = &profiles[i]
	}
	return out, nil
}

func (r *profileRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts the profile and an OWNER membership for ownerUserID.
func (r *profileRepository) Create(ctx context.Context, profile *models.Profile, ownerUserID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(profile).Error; err != nil {
			return err
		}
		return tx.Create(&models.ProfileMembership{
			UserID:    ownerUserID,
			ProfileID: profile.ID,
			Role:      models.MembershipRoleOwner,
		}).Error
	})
}

func (r *profileRepository) ListMemberships(ctx context.Context, userID uint) ([]models.ProfileMembership, error) {
	var memberships []models.ProfileMembership
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, profile_id ASC").
		Find(&memberships).Error
	return memberships, err
}

func (r *profileRepository) IsMember(ctx context.Context, userID, profileID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ProfileMembership{}).
		Where("user_id = ? AND profile_id = ?", userID, profileID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetActiveProfileID returns 0 when the user has not selected a profile.
func (r *profileRepository) GetActiveProfileID(ctx context.Context, userID uint) (uint, error) {
	var profileID uint
	err := cache.Aside(ctx, cache.ActiveProfileKey(userID), &profileID, cache.ActiveProfileTTL, func() error {
		var active models.ActiveProfile
		err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&active).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			profileID = 0
			return nil
		}
		if err != nil {
			return err
		}
		profileID = active.ProfileID
		return nil
	})
	return profileID, err
}

func (r *profileRepository) SetActiveProfile(ctx context.Context, userID, profileID uint) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"profile_id", "updated_at"}),
	}).Create(&models.ActiveProfile{UserID: userID, ProfileID: profileID}).Error
	if err == nil {
		cache.InvalidateActiveProfile(ctx, userID)
	}
	return err
}
