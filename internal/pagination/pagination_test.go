package pagination

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"encore/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Post{}))
	return db
}

func postID(p models.Post) uint { return p.ID }

// seedPosts inserts n posts for profileID; every third post shares its
// predecessor's timestamp so the id tie-break is exercised.
func seedPosts(t *testing.T, db *gorm.DB, profileID uint, n int, start time.Time) []uint {
	t.Helper()
	ids := make([]uint, 0, n)
	ts := start
	for i := 0; i < n; i++ {
		if i%3 != 2 {
			ts = ts.Add(time.Second)
		}
		p := models.Post{ProfileID: profileID, CreatedAt: ts}
		require.NoError(t, db.Create(&p).Error)
		ids = append(ids, p.ID)
	}
	return ids
}

func collect(t *testing.T, db *gorm.DB, k Keyset, limit int, scope func(*gorm.DB) *gorm.DB) []uint {
	t.Helper()
	var got []uint
	cursor := ""
	for pages := 0; pages < 100; pages++ {
		page, err := Paginate(context.Background(), scope(db.Model(&models.Post{})), k, Request{Limit: limit, Cursor: cursor}, postID)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(page.Items), limit)
		for _, p := range page.Items {
			got = append(got, p.ID)
		}
		if !page.HasMore {
			assert.Nil(t, page.NextCursor)
			return got
		}
		require.NotNil(t, page.NextCursor)
		cursor = *page.NextCursor
	}
	t.Fatal("pagination did not terminate")
	return nil
}

func all(db *gorm.DB) *gorm.DB { return db }

func TestLimits_Parse(t *testing.T) {
	l := Limits{Default: 20, Max: 100}
	tests := []struct {
		raw  string
		want int
	}{
		{"", 20},
		{"abc", 20},
		{"10", 10},
		{" 7 ", 7},
		{"0", 1},
		{"-4", 1},
		{"100", 100},
		{"5000", 100},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, l.Parse(tt.raw))
		})
	}
}

func TestCursor_RoundTripAndMalformed(t *testing.T) {
	id, err := DecodeCursor(EncodeCursor(4242))
	require.NoError(t, err)
	assert.Equal(t, uint(4242), id)

	for _, bad := range []string{"!!!", encodeRaw("abc"), encodeRaw("0")} {
		_, err := DecodeCursor(bad)
		assert.Error(t, err, bad)
	}
}

func TestPaginate_DescendingVisitsEveryRowOnce(t *testing.T) {
	db := setupTestDB(t)
	ids := seedPosts(t, db, 1, 25, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	got := collect(t, db, NewKeyset("posts", Descending), 10, all)

	want := make([]uint, len(ids))
	for i, id := range ids {
		want[len(ids)-1-i] = id
	}
	assert.Equal(t, want, got)
}

func TestPaginate_AscendingVisitsEveryRowOnce(t *testing.T) {
	db := setupTestDB(t)
	ids := seedPosts(t, db, 1, 12, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	got := collect(t, db, NewKeyset("posts", Ascending), 5, all)
	assert.Equal(t, ids, got)
}

func TestPaginate_InsertsAheadOfCursorDoNotDisturbLaterPages(t *testing.T) {
	db := setupTestDB(t)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedPosts(t, db, 1, 9, start)
	k := NewKeyset("posts", Descending)
	ctx := context.Background()

	first, err := Paginate(ctx, db.Model(&models.Post{}), k, Request{Limit: 4}, postID)
	require.NoError(t, err)
	require.True(t, first.HasMore)

	// Newer posts land at the head of the listing, before the cursor.
	seedPosts(t, db, 1, 3, start.Add(time.Hour))

	seen := map[uint]bool{}
	for _, p := range first.Items {
		seen[p.ID] = true
	}
	cursor := *first.NextCursor
	total := len(first.Items)
	for {
		page, err := Paginate(ctx, db.Model(&models.Post{}), k, Request{Limit: 4, Cursor: cursor}, postID)
		require.NoError(t, err)
		for _, p := range page.Items {
			assert.False(t, seen[p.ID], "duplicate %d", p.ID)
			assert.True(t, p.CreatedAt.Before(start.Add(time.Hour)), "new post leaked into old pages")
			seen[p.ID] = true
		}
		total += len(page.Items)
		if !page.HasMore {
			break
		}
		cursor = *page.NextCursor
	}
	assert.Equal(t, 9, total)
}

func TestPaginate_ScopedListing(t *testing.T) {
	db := setupTestDB(t)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mine := seedPosts(t, db, 1, 6, start)
	seedPosts(t, db, 2, 6, start)

	got := collect(t, db, NewKeyset("posts", Ascending), 4, func(q *gorm.DB) *gorm.DB {
		return q.Where("profile_id = ?", 1)
	})
	assert.Equal(t, mine, got)
}

func TestPaginate_InvalidCursors(t *testing.T) {
	db := setupTestDB(t)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedPosts(t, db, 1, 3, start)
	k := NewKeyset("posts", Descending)

	tests := map[string]string{
		"garbage":     "not-a-cursor!",
		"unknown row": EncodeCursor(9999),
	}
	for name, cursor := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Paginate(context.Background(), db.Model(&models.Post{}).Where("profile_id = ?", 1), k, Request{Limit: 2, Cursor: cursor}, postID)
			require.Error(t, err)
			assert.True(t, models.IsCode(err, models.CodeValidation))
		})
	}
}

func TestPaginate_AnchorOutsideScopeResumes(t *testing.T) {
	db := setupTestDB(t)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mine := seedPosts(t, db, 1, 4, start)
	theirs := models.Post{ProfileID: 2, CreatedAt: start.Add(2500 * time.Millisecond)}
	require.NoError(t, db.Create(&theirs).Error)

	page, err := Paginate(context.Background(), db.Model(&models.Post{}).Where("profile_id = ?", 1), NewKeyset("posts", Ascending), Request{Limit: 10, Cursor: EncodeCursor(theirs.ID)}, postID)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, mine[3], page.Items[0].ID)
	assert.False(t, page.HasMore)
}

func TestPaginate_EmptyListing(t *testing.T) {
	db := setupTestDB(t)

	page, err := Paginate(context.Background(), db.Model(&models.Post{}), NewKeyset("posts", Descending), Request{Limit: 10}, postID)
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.False(t, page.HasMore)
	assert.Nil(t, page.NextCursor)
}

func TestMap_KeepsCursor(t *testing.T) {
	next := "abc"
	p := Page[int]{Items: []int{1, 2}, NextCursor: &next, HasMore: true}

	out := Map(p, func(i int) string { return string(rune('a' + i)) })
	assert.Equal(t, []string{"b", "c"}, out.Items)
	assert.Equal(t, &next, out.NextCursor)
	assert.True(t, out.HasMore)
}

func encodeRaw(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}
