package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"encore/internal/models"
	"encore/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// interactionRepoStub is a stub for repository.InteractionRepository.
type interactionRepoStub struct {
	calls          atomic.Int32
	likedPostIDsFn func(context.Context, uint, []uint) ([]uint, error)
	savedPostIDsFn func(context.Context, uint, []uint) ([]uint, error)
}

func (s *interactionRepoStub) Like(context.Context, uint, uint) error   { return nil }
func (s *interactionRepoStub) Unlike(context.Context, uint, uint) error { return nil }
func (s *interactionRepoStub) Save(context.Context, uint, uint) error   { return nil }
func (s *interactionRepoStub) Unsave(context.Context, uint, uint) error { return nil }
func (s *interactionRepoStub) LikedPostIDs(ctx context.Context, profileID uint, postIDs []uint) ([]uint, error) {
	s.calls.Add(1)
	return s.likedPostIDsFn(ctx, profileID, postIDs)
}
func (s *interactionRepoStub) SavedPostIDs(ctx context.Context, profileID uint, postIDs []uint) ([]uint, error) {
	s.calls.Add(1)
	return s.savedPostIDsFn(ctx, profileID, postIDs)
}

func TestOverlayService_ComputeUsesTwoLookups(t *testing.T) {
	stub := &interactionRepoStub{
		likedPostIDsFn: func(_ context.Context, _ uint, _ []uint) ([]uint, error) { return []uint{1, 3}, nil },
		savedPostIDsFn: func(_ context.Context, _ uint, _ []uint) ([]uint, error) { return []uint{3}, nil },
	}
	svc := NewOverlayService(stub, nil, nil)

	got, err := svc.Compute(context.Background(), 9, []uint{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, map[uint]Overlay{
		1: {Liked: true},
		2: {},
		3: {Liked: true, Saved: true},
	}, got)
	assert.Equal(t, int32(2), stub.calls.Load())
}

func TestOverlayService_ComputeWithoutViewerSkipsQueries(t *testing.T) {
	stub := &interactionRepoStub{}
	svc := NewOverlayService(stub, nil, nil)

	got, err := svc.Compute(context.Background(), 0, []uint{1, 2})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, stub.calls.Load())
}

func TestOverlayService_ComputePropagatesErrors(t *testing.T) {
	stub := &interactionRepoStub{
		likedPostIDsFn: func(_ context.Context, _ uint, _ []uint) ([]uint, error) { return nil, nil },
		savedPostIDsFn: func(_ context.Context, _ uint, _ []uint) ([]uint, error) { return nil, errors.New("db down") },
	}
	svc := NewOverlayService(stub, nil, nil)

	_, err := svc.Compute(context.Background(), 9, []uint{1})
	assertAppError(t, err, models.CodeInternal)
}

func TestOverlayService_LikeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := testutil.CreateProfile(t, f.db, 1)
	fan := testutil.CreateProfile(t, f.db, 2)
	post := testutil.CreatePost(t, f.db, author.ID, time.Time{})

	require.NoError(t, f.overlay.Like(ctx, fan.ID, post.ID))
	require.NoError(t, f.overlay.Like(ctx, fan.ID, post.ID))
	require.NoError(t, f.overlay.Save(ctx, fan.ID, post.ID))

	view, err := f.feed.GetPost(ctx, fan.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), view.LikesCount)
	assert.Equal(t, ptr(true), view.Liked)
	assert.Equal(t, ptr(true), view.Saved)

	require.NoError(t, f.overlay.Unlike(ctx, fan.ID, post.ID))
	require.NoError(t, f.overlay.Unlike(ctx, fan.ID, post.ID))
	require.NoError(t, f.overlay.Unsave(ctx, fan.ID, post.ID))

	view, err = f.feed.GetPost(ctx, fan.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), view.LikesCount)
	assert.Equal(t, ptr(false), view.Liked)
	assert.Equal(t, ptr(false), view.Saved)
}

func TestOverlayService_HiddenOrMissingPostIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hidden := testutil.CreateProfile(t, f.db, 1, testutil.Private())
	fan := testutil.CreateProfile(t, f.db, 2)
	post := testutil.CreatePost(t, f.db, hidden.ID, time.Time{})

	assertAppError(t, f.overlay.Like(ctx, fan.ID, post.ID), models.CodeNotFound)
	assertAppError(t, f.overlay.Save(ctx, fan.ID, 4040), models.CodeNotFound)

	// The author can still like their own private post.
	require.NoError(t, f.overlay.Like(ctx, hidden.ID, post.ID))
}
