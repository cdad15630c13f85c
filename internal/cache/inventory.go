package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	profileKeyPrefix = "user:%d:profile"
	likedKeyPrefix   = "user:%d:liked"
)

const (
	ProfileTTL = 5 * time.Minute
	LikedTTL   = 5 * time.Minute
)

func ProfileKey(userID uint) string {
	return fmt.Sprintf(profileKeyPrefix, userID)
}

func LikedKey(userID uint) string {
	return fmt.Sprintf(likedKeyPrefix, userID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

// InvalidateUser drops the cached profile aggregate and liked listing for a
// user. Called after every favorites or profile mutation.
func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, ProfileKey(userID))
	Invalidate(ctx, LikedKey(userID))
}
