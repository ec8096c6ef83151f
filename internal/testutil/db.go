// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"encore/internal/database"
	"encore/internal/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var handleSeq atomic.Uint64

// NewTestDB opens a private in-memory SQLite database with every table migrated.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// Each connection to :memory: is its own database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// ProfileOption customizes CreateProfile.
type ProfileOption func(*models.Profile)

// Private marks the profile private.
func Private() ProfileOption {
	return func(p *models.Profile) { p.IsPrivate = true }
}

// Handle sets an explicit handle.
func Handle(h string) ProfileOption {
	return func(p *models.Profile) { p.Handle = h }
}

// CreateProfile inserts an artist profile owned by ownerUserID.
func CreateProfile(t testing.TB, db *gorm.DB, ownerUserID uint, opts ...ProfileOption) *models.Profile {
	t.Helper()
	n := handleSeq.Add(1)
	p := &models.Profile{
		Kind:        models.ProfileKindArtist,
		Handle:      fmt.Sprintf("artist%d", n),
		DisplayName: fmt.Sprintf("Artist %d", n),
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create profile: %v", err)
	}
	if ownerUserID != 0 {
		m := &models.ProfileMembership{UserID: ownerUserID, ProfileID: p.ID, Role: models.MembershipRoleOwner}
		if err := db.Create(m).Error; err != nil {
			t.Fatalf("create membership: %v", err)
		}
	}
	return p
}

// Follow stores a follow edge.
func Follow(t testing.TB, db *gorm.DB, follower, followed uint) {
	t.Helper()
	if err := db.Create(&models.Follow{FollowerID: follower, FollowedID: followed}).Error; err != nil {
		t.Fatalf("follow: %v", err)
	}
}

// Block stores a block edge.
func Block(t testing.TB, db *gorm.DB, blocker, blocked uint) {
	t.Helper()
	if err := db.Create(&models.Block{BlockerID: blocker, BlockedID: blocked}).Error; err != nil {
		t.Fatalf("block: %v", err)
	}
}

// CreatePost inserts a text post at the given time (zero means now).
func CreatePost(t testing.TB, db *gorm.DB, profileID uint, at time.Time) *models.Post {
	t.Helper()
	body := fmt.Sprintf("post by %d", profileID)
	p := &models.Post{ProfileID: profileID, Body: &body, CreatedAt: at}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}

// CreateAsset inserts a media asset in the given status.
func CreateAsset(t testing.TB, db *gorm.DB, userID uint, profileID *uint, status models.MediaStatus) *models.MediaAsset {
	t.Helper()
	id := uuid.New()
	a := &models.MediaAsset{
		ID:              id,
		UserID:          userID,
		ProfileID:       profileID,
		StorageKey:      fmt.Sprintf("media/%d/%s/photo.png", userID, id),
		Bucket:          "media",
		MimeType:        "image/png",
		Scope:           models.MediaScopePostAttachment,
		DeclaredSize:    1024,
		Status:          status,
		UploadExpiresAt: time.Now().Add(15 * time.Minute),
	}
	if status == models.MediaStatusReady {
		size := int64(1024)
		a.SizeBytes = &size
	}
	if err := db.Create(a).Error; err != nil {
		t.Fatalf("create asset: %v", err)
	}
	return a
}
