package models

import (
	"time"

	"github.com/google/uuid"
)

// Post is an immutable piece of content authored by a profile.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProfileID uint      `gorm:"not null;index:idx_posts_profile_created,priority:1" json:"profile_id"`
	Body      *string   `gorm:"type:text" json:"body,omitempty"`
	CreatedAt time.Time `gorm:"index:idx_posts_profile_created,priority:2" json:"created_at"`
}

// TableName specifies the table name for GORM
func (Post) TableName() string {
	return "posts"
}

// PostMedia attaches an asset to a post at a 0-based position.
type PostMedia struct {
	PostID   uint      `gorm:"primaryKey;autoIncrement:false" json:"post_id"`
	Position int       `gorm:"primaryKey;autoIncrement:false" json:"position"`
	AssetID  uuid.UUID `gorm:"type:uuid;not null" json:"asset_id"`
}

// TableName specifies the table name for GORM
func (PostMedia) TableName() string {
	return "post_media"
}

// Like is a membership edge between a profile and a post.
type Like struct {
	ProfileID uint      `gorm:"primaryKey;autoIncrement:false" json:"profile_id"`
	PostID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Like) TableName() string {
	return "likes"
}

// Save is a bookmark edge between a profile and a post.
type Save struct {
	ProfileID uint      `gorm:"primaryKey;autoIncrement:false" json:"profile_id"`
	PostID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Save) TableName() string {
	return "saves"
}

// Comment is a text reply on a post.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index:idx_comments_post_created,priority:1" json:"post_id"`
	ProfileID uint      `gorm:"not null" json:"profile_id"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `gorm:"index:idx_comments_post_created,priority:2" json:"created_at"`
}

// TableName specifies the table name for GORM
func (Comment) TableName() string {
	return "comments"
}

// MediaView is an attached asset as rendered in a post.
type MediaView struct {
	AssetID  uuid.UUID `json:"asset_id"`
	Position int       `json:"position"`
	MimeType string    `json:"mime_type"`
	URL      string    `json:"url"`
}

// PostView is a post enriched with author, media, counts and the viewer overlay.
// Liked and Saved are nil when there is no viewer.
type PostView struct {
	ID            uint           `json:"id"`
	Author        ProfileSummary `json:"author"`
	Body          *string        `json:"body,omitempty"`
	Media         []MediaView    `json:"media"`
	LikesCount    int64          `json:"likes_count"`
	SavesCount    int64          `json:"saves_count"`
	CommentsCount int64          `json:"comments_count"`
	Liked         *bool          `json:"liked,omitempty"`
	Saved         *bool          `json:"saved,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// CommentView is a comment with its author.
type CommentView struct {
	ID        uint           `json:"id"`
	PostID    uint           `json:"post_id"`
	Author    ProfileSummary `json:"author"`
	Body      string         `json:"body"`
	CreatedAt time.Time      `json:"created_at"`
}
