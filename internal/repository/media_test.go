package repository

import (
	"context"
	"testing"
	"time"

	"encore/internal/models"
	"encore/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaRepository_MarkReadyIsConditional(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewMediaRepository(db)
	ctx := context.Background()
	asset := testutil.CreateAsset(t, db, 1, nil, models.MediaStatusPending)

	updated, err := repo.MarkReady(ctx, asset.ID, 4096, time.Now())
	require.NoError(t, err)
	assert.True(t, updated)

	updated, err = repo.MarkReady(ctx, asset.ID, 1, time.Now())
	require.NoError(t, err)
	assert.False(t, updated)

	got, err := repo.GetByID(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MediaStatusReady, got.Status)
	require.NotNil(t, got.SizeBytes)
	assert.Equal(t, int64(4096), *got.SizeBytes)
	assert.NotNil(t, got.ConfirmedAt)
}

func TestMediaRepository_GetByIDs(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewMediaRepository(db)
	a := testutil.CreateAsset(t, db, 1, nil, models.MediaStatusPending)
	b := testutil.CreateAsset(t, db, 1, nil, models.MediaStatusReady)

	got, err := repo.GetByIDs(context.Background(), []uuid.UUID{a.ID, b.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, models.MediaStatusReady, got[b.ID].Status)
}

func TestMediaRepository_GetByIDNotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewMediaRepository(db)

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.True(t, IsNotFound(err))
}
