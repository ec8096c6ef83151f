package repository

import (
	"context"

	"encore/internal/models"
	"encore/internal/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostCounts are the derived cardinalities shown on a post.
type PostCounts struct {
	PostID        uint  `gorm:"column:id"`
	LikesCount    int64 `gorm:"column:likes_count"`
	SavesCount    int64 `gorm:"column:saves_count"`
	CommentsCount int64 `gorm:"column:comments_count"`
}

// AttachedMedia is a post_media row joined with its asset.
type AttachedMedia struct {
	PostID     uint
	Position   int
	AssetID    uuid.UUID
	MimeType   string
	StorageKey string
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post, assetIDs []uuid.UUID) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	ListFeed(ctx context.Context, viewerProfileID uint, req pagination.Request) (pagination.Page[models.Post], error)
	ListByProfile(ctx context.Context, profileID uint, req pagination.Request) (pagination.Page[models.Post], error)
	CountsFor(ctx context.Context, postIDs []uint) (map[uint]PostCounts, error)
	MediaFor(ctx context.Context, postIDs []uint) (map[uint][]AttachedMedia, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

var postKeyset = pagination.NewKeyset("posts", pagination.Descending)

func postID(p models.Post) uint { return p.ID }

// Create inserts the post and its ordered media rows in one transaction.
func (r *postRepository) Create(ctx context.Context, post *models.Post, assetIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		if len(assetIDs) == 0 {
			return nil
		}
		rows := make([]models.PostMedia, 0, len(assetIDs))
		for i, id := range assetIDs {
			rows = append(rows, models.PostMedia{PostID: post.ID, Position: i, AssetID: id})
		}
		return tx.Create(&rows).Error
	})
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// ListFeed pages through posts by the viewer and everyone the viewer follows,
// skipping authors whose profile is private.
func (r *postRepository) ListFeed(ctx context.Context, viewerProfileID uint, req pagination.Request) (pagination.Page[models.Post], error) {
	q := r.db.Model(&models.Post{}).
		Where("(posts.profile_id = ? OR posts.profile_id IN (SELECT follows.followed_id FROM follows WHERE follows.follower_id = ?))", viewerProfileID, viewerProfileID).
		Where("NOT EXISTS (SELECT 1 FROM profiles WHERE profiles.id = posts.profile_id AND profiles.is_private = ?)", true)
	return pagination.Paginate(ctx, q, postKeyset, req, postID)
}

func (r *postRepository) ListByProfile(ctx context.Context, profileID uint, req pagination.Request) (pagination.Page[models.Post], error) {
	q := r.db.Model(&models.Post{}).Where("posts.profile_id = ?", profileID)
	return pagination.Paginate(ctx, q, postKeyset, req, postID)
}

// CountsFor returns like, save and comment counts for every id in one query.
func (r *postRepository) CountsFor(ctx context.Context, postIDs []uint) (map[uint]PostCounts, error) {
	out := make(map[uint]PostCounts, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}

	var rows []PostCounts
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select("posts.id, "+
			"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS likes_count, "+
			"(SELECT COUNT(*) FROM saves WHERE saves.post_id = posts.id) AS saves_count, "+
			"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comments_count").
		Where("posts.id IN ?", postIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.PostID] = row
	}
	return out, nil
}

// MediaFor returns the attached media of every id, each list in position order.
func (r *postRepository) MediaFor(ctx context.Context, postIDs []uint) (map[uint][]AttachedMedia, error) {
	out := make(map[uint][]AttachedMedia, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}

	var rows []AttachedMedia
	err := r.db.WithContext(ctx).
		Table("post_media").
		Select("post_media.post_id, post_media.position, post_media.asset_id, media_assets.mime_type, media_assets.storage_key").
		Joins("JOIN media_assets ON media_assets.id = post_media.asset_id").
		Where("post_media.post_id IN ?", postIDs).
		Order("post_media.post_id ASC, post_media.position ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.PostID] = append(out[row.PostID], row)
	}
	return out, nil
}
