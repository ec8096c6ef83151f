// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// ProfileKind is the closed set of profile flavours sharing one record shape.
type ProfileKind string

const (
	ProfileKindArtist      ProfileKind = "artist"
	ProfileKindGroup       ProfileKind = "group"
	ProfileKindInstitution ProfileKind = "institution"
	ProfileKindLabel       ProfileKind = "label"
)

// Valid reports whether k is one of the known kinds.
func (k ProfileKind) Valid() bool {
	switch k {
	case ProfileKindArtist, ProfileKindGroup, ProfileKindInstitution, ProfileKindLabel:
		return true
	}
	return false
}

// ProfileLink is an external link shown on a profile.
type ProfileLink struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Profile is the public identity that posts, follows, likes and messages.
type Profile struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	Kind        ProfileKind   `gorm:"type:varchar(20);not null" json:"kind"`
	Handle      string        `gorm:"type:varchar(64);uniqueIndex;not null" json:"handle"`
	DisplayName string        `gorm:"type:varchar(120);not null" json:"display_name"`
	Bio         string        `gorm:"type:text" json:"bio,omitempty"`
	AvatarURL   string        `json:"avatar_url,omitempty"`
	IsPrivate   bool          `gorm:"not null;default:false" json:"is_private"`
	IsVerified  bool          `gorm:"not null;default:false" json:"is_verified"`
	Instruments []string      `gorm:"serializer:json;type:text" json:"instruments,omitempty"`
	Links       []ProfileLink `gorm:"serializer:json;type:text" json:"links,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Profile) TableName() string {
	return "profiles"
}

// NormalizeHandle returns the canonical stored form of a handle. Handles
// compare case-insensitively, so they are stored lowercased and the unique
// index on handle enforces that comparison.
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}

// BeforeSave canonicalizes the handle on every insert and full save.
func (p *Profile) BeforeSave(*gorm.DB) error {
	p.Handle = NormalizeHandle(p.Handle)
	return nil
}

// ProfileSummary is the compact author/member shape embedded in listings.
type ProfileSummary struct {
	ID          uint        `json:"id"`
	Kind        ProfileKind `json:"kind"`
	Handle      string      `json:"handle"`
	DisplayName string      `json:"display_name"`
	AvatarURL   string      `json:"avatar_url,omitempty"`
	IsVerified  bool        `json:"is_verified"`
}

// Summary returns the compact form of p.
func (p *Profile) Summary() ProfileSummary {
	return ProfileSummary{
		ID:          p.ID,
		Kind:        p.Kind,
		Handle:      p.Handle,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
		IsVerified:  p.IsVerified,
	}
}

// MembershipRole defines a user's role on a profile.
type MembershipRole string

const (
	MembershipRoleOwner  MembershipRole = "OWNER"
	MembershipRoleAdmin  MembershipRole = "ADMIN"
	MembershipRoleMember MembershipRole = "MEMBER"
)

// ProfileMembership grants a user the right to act as a profile.
type ProfileMembership struct {
	UserID    uint           `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	ProfileID uint           `gorm:"primaryKey;autoIncrement:false;index" json:"profile_id"`
	Role      MembershipRole `gorm:"type:varchar(20);not null;default:'MEMBER'" json:"role"`
	CreatedAt time.Time      `json:"created_at"`
}

// TableName specifies the table name for GORM
func (ProfileMembership) TableName() string {
	return "profile_memberships"
}

// ActiveProfile records which profile a user currently acts as.
type ActiveProfile struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	ProfileID uint      `gorm:"not null" json:"profile_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (ActiveProfile) TableName() string {
	return "active_profiles"
}

// ProfileView is a profile page header with its follow counts.
type ProfileView struct {
	Profile
	FollowersCount int64 `json:"followers_count"`
	FollowingCount int64 `json:"following_count"`
	IsFollowing    *bool `json:"is_following,omitempty"`
}

// MembershipView is one of the caller's profiles with the caller's role on it.
type MembershipView struct {
	Profile ProfileSummary `json:"profile"`
	Role    MembershipRole `json:"role"`
	Active  bool           `json:"active"`
}
