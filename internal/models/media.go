package models

import (
	"time"

	"github.com/google/uuid"
)

// MediaScope selects the allow-list and size ceiling for an upload.
type MediaScope string

const (
	MediaScopePostAttachment MediaScope = "POST_ATTACHMENT"
	MediaScopeProfileAvatar  MediaScope = "PROFILE_AVATAR"
	MediaScopeGeneric        MediaScope = "GENERIC"
)

// MediaStatus is the upload lifecycle state. PENDING -> READY only.
type MediaStatus string

const (
	MediaStatusPending MediaStatus = "PENDING"
	MediaStatusReady   MediaStatus = "READY"
)

// MediaAsset tracks one object in the store from presign to confirmation.
type MediaAsset struct {
	ID               uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uint        `gorm:"not null;index" json:"user_id"`
	ProfileID        *uint       `gorm:"index" json:"profile_id,omitempty"`
	StorageKey       string      `gorm:"type:varchar(512);uniqueIndex;not null" json:"key"`
	Bucket           string      `gorm:"type:varchar(128);not null" json:"bucket"`
	MimeType         string      `gorm:"type:varchar(128);not null" json:"mime_type"`
	Scope            MediaScope  `gorm:"type:varchar(32);not null" json:"scope"`
	DeclaredSize     int64       `gorm:"not null" json:"declared_size"`
	SizeBytes        *int64      `json:"size_bytes,omitempty"`
	OriginalFilename string      `gorm:"type:varchar(255)" json:"original_filename"`
	Status           MediaStatus `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"status"`
	UploadExpiresAt  time.Time   `json:"upload_expires_at"`
	ConfirmedAt      *time.Time  `json:"confirmed_at,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (MediaAsset) TableName() string {
	return "media_assets"
}

// IsReady reports whether the asset may be attached to content.
func (a *MediaAsset) IsReady() bool {
	return a.Status == MediaStatusReady
}

// MediaAssetView is an asset as returned to its uploader. URL is set once READY.
type MediaAssetView struct {
	ID          uuid.UUID   `json:"id"`
	Key         string      `json:"key"`
	Scope       MediaScope  `json:"scope"`
	MimeType    string      `json:"mime_type"`
	Status      MediaStatus `json:"status"`
	SizeBytes   *int64      `json:"size_bytes,omitempty"`
	URL         string      `json:"url,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	ConfirmedAt *time.Time  `json:"confirmed_at,omitempty"`
}
