package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"encore/internal/models"
	"encore/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInteractionRepository_LikeIsIdempotent(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewInteractionRepository(db)
	ctx := context.Background()
	viewer := testutil.CreateProfile(t, db, 1)
	post := testutil.CreatePost(t, db, viewer.ID, time.Time{})

	require.NoError(t, repo.Like(ctx, viewer.ID, post.ID))
	require.NoError(t, repo.Like(ctx, viewer.ID, post.ID))

	var count int64
	db.Model(&models.Like{}).Where("post_id = ?", post.ID).Count(&count)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.Unlike(ctx, viewer.ID, post.ID))
	require.NoError(t, repo.Unlike(ctx, viewer.ID, post.ID))
	db.Model(&models.Like{}).Where("post_id = ?", post.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestInteractionRepository_BatchedMembership(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewInteractionRepository(db)
	ctx := context.Background()
	viewer := testutil.CreateProfile(t, db, 1)
	other := testutil.CreateProfile(t, db, 2)
	p1 := testutil.CreatePost(t, db, other.ID, time.Time{})
	p2 := testutil.CreatePost(t, db, other.ID, time.Time{})
	p3 := testutil.CreatePost(t, db, other.ID, time.Time{})

	require.NoError(t, repo.Like(ctx, viewer.ID, p1.ID))
	require.NoError(t, repo.Like(ctx, other.ID, p2.ID))
	require.NoError(t, repo.Save(ctx, viewer.ID, p2.ID))
	require.NoError(t, repo.Save(ctx, viewer.ID, p3.ID))

	liked, err := repo.LikedPostIDs(ctx, viewer.ID, []uint{p1.ID, p2.ID, p3.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{p1.ID}, liked)

	saved, err := repo.SavedPostIDs(ctx, viewer.ID, []uint{p1.ID, p2.ID, p3.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{p2.ID, p3.ID}, saved)

	none, err := repo.LikedPostIDs(ctx, viewer.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestInteractionRepository_LikeUsesOnConflictDoNothing(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewInteractionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "likes" ("profile_id","post_id","created_at") VALUES ($1,$2,$3) ON CONFLICT DO NOTHING`)).
		WithArgs(3, 9, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, repo.Like(context.Background(), 3, 9))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInteractionRepository_SavedPostIDsQuery(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewInteractionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "post_id" FROM "saves" WHERE profile_id = $1 AND post_id IN ($2,$3)`)).
		WithArgs(3, 10, 11).
		WillReturnRows(sqlmock.NewRows([]string{"post_id"}).AddRow(11))

	ids, err := repo.SavedPostIDs(context.Background(), 3, []uint{10, 11})
	require.NoError(t, err)
	assert.Equal(t, []uint{11}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInteractionRepository_PropagatesErrors(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewInteractionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "likes"`)).WillReturnError(errors.New("conn reset"))
	mock.ExpectRollback()

	assert.Error(t, repo.Unlike(context.Background(), 1, 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}
