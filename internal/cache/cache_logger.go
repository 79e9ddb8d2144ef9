package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern invalidates a cache pattern with error logging.
// Invalidation failures must not fail the write that triggered them, so
// the error is logged and swallowed.
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if helper == nil {
		return
	}

	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.WarnContext(ctx, "Cache invalidation failed",
			"pattern", pattern,
			"error", err)
	}
}

// SafeDelete deletes cache keys with error logging.
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if helper == nil || len(keys) == 0 {
		return
	}

	if err := helper.Delete(ctx, keys...); err != nil {
		slog.WarnContext(ctx, "Cache delete failed",
			"keys", keys,
			"error", err)
	}
}

// InvalidateModuleCache invalidates every cache entry touched by a change
// to the given module: the module record itself, cached listings, and the
// aggregate stats that count enrollments per module.
func InvalidateModuleCache(ctx context.Context, cm *CacheManager, moduleID uint) {
	if cm == nil {
		return
	}

	SafeDelete(ctx, cm.Module, fmt.Sprintf("id:%d", moduleID))
	SafeInvalidatePattern(ctx, cm.Module, "list:*")
	SafeInvalidatePattern(ctx, cm.Stats, "*")
	SafeInvalidatePattern(ctx, cm.Exists, fmt.Sprintf("module:%d*", moduleID))
}

// InvalidateUserCache invalidates cached user data after role or profile
// changes so the auth middleware sees the new role immediately.
func InvalidateUserCache(ctx context.Context, cm *CacheManager, userID string) {
	if cm == nil {
		return
	}

	SafeDelete(ctx, cm.User, fmt.Sprintf("id:%s", userID))
	SafeInvalidatePattern(ctx, cm.Stats, "*")
}
