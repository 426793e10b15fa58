package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix     = "user:%s"
	UserNameKeyPrefix = "username:%s"
)

const (
	UserTTL     = 5 * time.Minute
	UserNameTTL = 10 * time.Minute
)

func UserKey(userID string) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func UserNameKey(userID string) string {
	return fmt.Sprintf(UserNameKeyPrefix, userID)
}

func InvalidateUser(ctx context.Context, userID string) {
	Invalidate(ctx, UserKey(userID))
	Invalidate(ctx, UserNameKey(userID))
}
