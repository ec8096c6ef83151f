package repository

import (
	"context"
	"testing"

	"encore/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphRepository_FollowAndBlockEdges(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewGraphRepository(db)
	ctx := context.Background()
	a := testutil.CreateProfile(t, db, 1)
	b := testutil.CreateProfile(t, db, 2)

	require.NoError(t, repo.Follow(ctx, a.ID, b.ID))
	require.NoError(t, repo.Follow(ctx, a.ID, b.ID))
	followers, following, err := repo.FollowCounts(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), followers)
	assert.Equal(t, int64(0), following)

	blocked, err := repo.IsBlockedEither(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, blocked)

	require.NoError(t, repo.Block(ctx, b.ID, a.ID))
	require.NoError(t, repo.Block(ctx, b.ID, a.ID))
	for _, pair := range [][2]uint{{a.ID, b.ID}, {b.ID, a.ID}} {
		blocked, err = repo.IsBlockedEither(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.True(t, blocked)
	}

	// A block leaves existing follows alone.
	isFollowing, err := repo.IsFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, isFollowing)

	require.NoError(t, repo.Unblock(ctx, b.ID, a.ID))
	require.NoError(t, repo.Unblock(ctx, b.ID, a.ID))
	require.NoError(t, repo.Unfollow(ctx, a.ID, b.ID))
	blocked, _ = repo.IsBlockedEither(ctx, a.ID, b.ID)
	assert.False(t, blocked)
	isFollowing, _ = repo.IsFollowing(ctx, a.ID, b.ID)
	assert.False(t, isFollowing)
}
