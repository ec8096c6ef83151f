package service

import (
	"errors"
	"testing"

	"encore/internal/models"
	"encore/internal/repository"
	"encore/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fixture wires every service over one SQLite database.
type fixture struct {
	db        *gorm.DB
	store     *testutil.FakeObjectStore
	publisher *testutil.RecordingPublisher

	media    *MediaService
	overlay  *OverlayService
	feed     *FeedService
	posts    *PostService
	comments *CommentService
	chat     *ChatService
	social   *SocialService
	profiles *ProfileService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	store := testutil.NewFakeObjectStore()
	pub := &testutil.RecordingPublisher{}

	profileRepo := repository.NewProfileRepository(db)
	postRepo := repository.NewPostRepository(db)
	graphRepo := repository.NewGraphRepository(db)

	f := &fixture{db: db, store: store, publisher: pub}
	f.media = NewMediaService(repository.NewMediaRepository(db), store, pub, nil)
	f.overlay = NewOverlayService(repository.NewInteractionRepository(db), postRepo, profileRepo)
	f.feed = NewFeedService(postRepo, profileRepo, f.overlay, store)
	f.posts = NewPostService(postRepo, f.media, f.feed, pub)
	f.comments = NewCommentService(repository.NewCommentRepository(db), postRepo, profileRepo, graphRepo)
	f.chat = NewChatService(repository.NewChatRepository(db), profileRepo, graphRepo, pub)
	f.social = NewSocialService(profileRepo, graphRepo)
	f.profiles = NewProfileService(profileRepo, graphRepo)
	return f
}

// assertAppError asserts that err is an AppError with the given code.
func assertAppError(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code, appErr.Message)
	return appErr
}

func ptr[T any](v T) *T { return &v }
