package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"encore/internal/events"
	"encore/internal/models"
	"encore/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	long := strings.Repeat("a", 150) + ".jpeg"
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "photo.png", "photo.png"},
		{"unix path", "/etc/passwd", "passwd"},
		{"windows path", `C:\Users\me\song.mp3`, "song.mp3"},
		{"spaces and symbols", "my song (final)!.wav", "my_song__final__.wav"},
		{"leading dots", "...hidden", "hidden"},
		{"traversal", "../../x.gif", "x.gif"},
		{"unicode", "café.jpg", "caf_.jpg"},
		{"empty", "", "file"},
		{"only dots", "..", "file"},
		{"long keeps extension", long, strings.Repeat("a", 95) + ".jpeg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeFilename(tt.in)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), MaxFilenameBytes)
		})
	}
}

func TestMediaService_BeginUpload(t *testing.T) {
	f := newFixture(t)
	profile := testutil.CreateProfile(t, f.db, 7)

	ticket, err := f.media.BeginUpload(context.Background(), BeginUploadInput{
		UserID:    7,
		ProfileID: &profile.ID,
		Scope:     models.MediaScopePostAttachment,
		MimeType:  "Audio/MPEG",
		SizeBytes: 3 << 20,
		Filename:  "My Demo.mp3",
	})
	require.NoError(t, err)

	assert.Equal(t, models.MediaStatusPending, ticket.Status)
	assert.Equal(t, fmt.Sprintf("media/7/%s/My_Demo.mp3", ticket.AssetID), ticket.Key)
	assert.Contains(t, ticket.UploadURL, "expires=900")
	assert.Equal(t, []string{ticket.Key}, f.store.Presigned())

	var stored models.MediaAsset
	require.NoError(t, f.db.First(&stored, "id = ?", ticket.AssetID).Error)
	assert.Equal(t, "audio/mpeg", stored.MimeType)
	assert.Equal(t, models.MediaStatusPending, stored.Status)
	assert.Nil(t, stored.SizeBytes)
}

func TestMediaService_BeginUploadStoreDownLeavesNoAsset(t *testing.T) {
	f := newFixture(t)
	f.store.PresignErr = errors.New("dial tcp: connection refused")

	_, err := f.media.BeginUpload(context.Background(), BeginUploadInput{
		UserID:    7,
		Scope:     models.MediaScopeGeneric,
		MimeType:  "image/png",
		SizeBytes: 1024,
		Filename:  "me.png",
	})
	assertAppError(t, err, models.CodeUnavailable)

	var count int64
	require.NoError(t, f.db.Model(&models.MediaAsset{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestMediaService_BeginUploadValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		in       BeginUploadInput
		contains []string
	}{
		{
			name:     "unknown scope and bad size reported together",
			in:       BeginUploadInput{UserID: 1, Scope: "BANNER", MimeType: "image/png", SizeBytes: 0},
			contains: []string{"scope", "size_bytes"},
		},
		{
			name:     "video not allowed as avatar",
			in:       BeginUploadInput{UserID: 1, Scope: models.MediaScopeProfileAvatar, MimeType: "video/mp4", SizeBytes: 10},
			contains: []string{"mime_type"},
		},
		{
			name:     "avatar too large",
			in:       BeginUploadInput{UserID: 1, Scope: models.MediaScopeProfileAvatar, MimeType: "image/png", SizeBytes: DefaultAvatarMaxBytes + 1},
			contains: []string{"limit"},
		},
		{
			name:     "mime and size both wrong",
			in:       BeginUploadInput{UserID: 1, Scope: models.MediaScopeGeneric, MimeType: "application/zip", SizeBytes: -5},
			contains: []string{"mime_type", "size_bytes"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.media.BeginUpload(ctx, tt.in)
			appErr := assertAppError(t, err, models.CodeValidation)
			for _, s := range tt.contains {
				assert.Contains(t, appErr.Message, s)
			}
		})
	}
	assert.Empty(t, f.store.Presigned())
}

func TestMediaService_ConfirmUpload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	profile := testutil.CreateProfile(t, f.db, 7)
	ticket, err := f.media.BeginUpload(ctx, BeginUploadInput{
		UserID: 7, ProfileID: &profile.ID, Scope: models.MediaScopeProfileAvatar,
		MimeType: "image/png", SizeBytes: 2048, Filename: "me.png",
	})
	require.NoError(t, err)

	t.Run("other user is forbidden", func(t *testing.T) {
		_, err := f.media.ConfirmUpload(ctx, 8, ticket.AssetID)
		assertAppError(t, err, models.CodeForbidden)
	})

	t.Run("unknown asset", func(t *testing.T) {
		_, err := f.media.ConfirmUpload(ctx, 7, uuid.New())
		assertAppError(t, err, models.CodeNotFound)
	})

	t.Run("store failure is unavailable", func(t *testing.T) {
		f.store.HeadErr = errors.New("connection refused")
		defer func() { f.store.HeadErr = nil }()
		_, err := f.media.ConfirmUpload(ctx, 7, ticket.AssetID)
		assertAppError(t, err, models.CodeUnavailable)
	})

	t.Run("not uploaded yet is a conflict", func(t *testing.T) {
		_, err := f.media.ConfirmUpload(ctx, 7, ticket.AssetID)
		assertAppError(t, err, models.CodeConflict)
	})

	t.Run("uploaded becomes ready", func(t *testing.T) {
		f.store.Put(ticket.Key, 2001)
		view, err := f.media.ConfirmUpload(ctx, 7, ticket.AssetID)
		require.NoError(t, err)
		assert.Equal(t, models.MediaStatusReady, view.Status)
		require.NotNil(t, view.SizeBytes)
		assert.Equal(t, int64(2001), *view.SizeBytes)
		assert.Equal(t, "https://cdn.test/"+ticket.Key, view.URL)
		assert.NotNil(t, view.ConfirmedAt)
		assert.Equal(t, []string{events.SubjectMediaReady}, f.publisher.Subjects())
	})

	t.Run("confirming again has no side effect", func(t *testing.T) {
		calls := f.store.HeadCalls
		view, err := f.media.ConfirmUpload(ctx, 7, ticket.AssetID)
		require.NoError(t, err)
		assert.Equal(t, models.MediaStatusReady, view.Status)
		assert.Equal(t, calls, f.store.HeadCalls)
		assert.Len(t, f.publisher.Subjects(), 1)
	})
}

func TestMediaService_GetAsset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pending := testutil.CreateAsset(t, f.db, 3, nil, models.MediaStatusPending)

	view, err := f.media.GetAsset(ctx, 3, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MediaStatusPending, view.Status)
	assert.Empty(t, view.URL)

	_, err = f.media.GetAsset(ctx, 4, pending.ID)
	assertAppError(t, err, models.CodeForbidden)
}

func TestMediaService_ValidateForPostReportsEveryInvalidID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mine := testutil.CreateProfile(t, f.db, 1)
	theirs := testutil.CreateProfile(t, f.db, 2)

	ready := testutil.CreateAsset(t, f.db, 1, &mine.ID, models.MediaStatusReady)
	pending := testutil.CreateAsset(t, f.db, 1, &mine.ID, models.MediaStatusPending)
	foreign := testutil.CreateAsset(t, f.db, 2, &theirs.ID, models.MediaStatusReady)
	unowned := testutil.CreateAsset(t, f.db, 1, nil, models.MediaStatusReady)
	missing := uuid.New()

	assets, err := f.media.ValidateForPost(ctx, []uuid.UUID{ready.ID}, mine.ID)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, ready.ID, assets[0].ID)

	_, err = f.media.ValidateForPost(ctx, []uuid.UUID{ready.ID, pending.ID, foreign.ID, unowned.ID, missing}, mine.ID)
	appErr := assertAppError(t, err, models.CodeValidation)
	assert.Equal(t, []models.InvalidID{
		{ID: pending.ID.String(), Reason: "not_ready"},
		{ID: foreign.ID.String(), Reason: "not_owned"},
		{ID: unowned.ID.String(), Reason: "not_owned"},
		{ID: missing.String(), Reason: "not_found"},
	}, appErr.InvalidIDs)

	_, err = f.media.ValidateForPost(ctx, nil, mine.ID)
	assertAppError(t, err, models.CodeValidation)
}
