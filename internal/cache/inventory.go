package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	ActiveProfileKeyPrefix = "user:%d:active_profile"
	ProfileHandleKeyPrefix = "profile:handle:%s"
)

const (
	ActiveProfileTTL = 10 * time.Minute
	// Handles are immutable, so a handle->id entry only goes stale when the
	// profile is deleted and the lookup by id then misses.
	ProfileHandleTTL = time.Hour
)

func ActiveProfileKey(userID uint) string {
	return fmt.Sprintf(ActiveProfileKeyPrefix, userID)
}

func ProfileHandleKey(handle string) string {
	return fmt.Sprintf(ProfileHandleKeyPrefix, strings.ToLower(handle))
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateActiveProfile(ctx context.Context, userID uint) {
	Invalidate(ctx, ActiveProfileKey(userID))
}
