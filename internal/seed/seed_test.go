package seed

import (
	"os"
	"path/filepath"
	"testing"

	"encore/internal/models"
	"encore/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresets(t *testing.T) {
	presets, err := Presets()
	require.NoError(t, err)
	for _, name := range []string{"minimal", "scene", "festival"} {
		opts, ok := presets[name]
		require.True(t, ok, name)
		assert.GreaterOrEqual(t, opts.Profiles, 2, name)
	}
}

func TestParsePresets_Invalid(t *testing.T) {
	_, err := ParsePresets([]byte("minimal: [not, a, map]"))
	assert.Error(t, err)
}

func TestApplyPreset_Minimal(t *testing.T) {
	db := testutil.NewTestDB(t)
	s := NewSeeder(db, 7)

	res, err := s.ApplyPreset("Minimal")
	require.NoError(t, err)
	require.Len(t, res.Profiles, 4)
	assert.Equal(t, 12, res.Posts)
	assert.Equal(t, 12, res.Comments)
	assert.Equal(t, 2, res.Conversations)
	assert.Equal(t, 6, res.Messages)

	var active int64
	require.NoError(t, db.Model(&models.ActiveProfile{}).Count(&active).Error)
	assert.Equal(t, int64(4), active)

	var convs []models.Conversation
	require.NoError(t, db.Find(&convs).Error)
	for _, c := range convs {
		assert.Less(t, c.MemberLowID, c.MemberHighID)
		assert.NotNil(t, c.LastMessageAt)
	}

	handles := make(map[string]bool)
	for _, p := range res.Profiles {
		assert.True(t, p.Kind.Valid())
		assert.False(t, handles[p.Handle], "duplicate handle %s", p.Handle)
		handles[p.Handle] = true
	}
}

func TestApplyPreset_Unknown(t *testing.T) {
	s := NewSeeder(testutil.NewTestDB(t), 1)
	_, err := s.ApplyPreset("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "minimal")
}

func TestClearAll(t *testing.T) {
	db := testutil.NewTestDB(t)
	s := NewSeeder(db, 3)
	_, err := s.Run(Options{Profiles: 3, PostsPerProfile: 2, FollowRatio: 1, LikeRatio: 1, Conversations: 1, MessagesPerChat: 1})
	require.NoError(t, err)

	require.NoError(t, s.ClearAll())
	for _, m := range []any{&models.Profile{}, &models.Post{}, &models.Follow{}, &models.Like{}, &models.Message{}} {
		var n int64
		require.NoError(t, db.Model(m).Count(&n).Error)
		assert.Zero(t, n, "%T", m)
	}
}

func TestRun_RequiresTwoProfiles(t *testing.T) {
	_, err := NewSeeder(testutil.NewTestDB(t), 1).Run(Options{Profiles: 1})
	assert.Error(t, err)
}

func TestApplyPreset_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny.yml")
	require.NoError(t, os.WriteFile(path, []byte("profiles: 2\nposts_per_profile: 1\nconversations: 1\nmessages_per_conversation: 2\nseed: 9\n"), 0o600))

	res, err := NewSeeder(testutil.NewTestDB(t), 0).ApplyPreset(path)
	require.NoError(t, err)
	assert.Len(t, res.Profiles, 2)
	assert.Equal(t, 2, res.Posts)
	assert.Equal(t, 1, res.Conversations)
	assert.Equal(t, 2, res.Messages)

	_, err = NewSeeder(testutil.NewTestDB(t), 0).ApplyPreset(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
