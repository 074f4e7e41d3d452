package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// BatchInvalidate invalidates multiple patterns in batch
func BatchInvalidate(ctx context.Context, helper *CacheHelper, patterns []string) error {
	var lastErr error
	for _, pattern := range patterns {
		if err := helper.InvalidatePattern(ctx, pattern); err != nil {
			lastErr = err
			slog.ErrorContext(ctx, "Failed to invalidate pattern in batch",
				"error", err,
				"pattern", pattern)
		}
	}
	return lastErr
}

// InvalidateExamCache invalidates all exam-related caches using pipeline
func InvalidateExamCache(ctx context.Context, cm *CacheManager, examID uint) {
	// Delete specific keys using single call
	SafeDelete(ctx, cm.Exam,
		fmt.Sprintf("id:%d", examID),
		fmt.Sprintf("resolved:%d", examID))

	// Invalidate patterns
	SafeInvalidatePattern(ctx, cm.Exam, "list:*")
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("exam:%d:*", examID))
}

// InvalidateTaskCache invalidates all task-related caches
func InvalidateTaskCache(ctx context.Context, cm *CacheManager, taskID uint, creatorID string) {
	SafeDelete(ctx, cm.Task, fmt.Sprintf("id:%d", taskID))
	SafeInvalidatePattern(ctx, cm.Task, fmt.Sprintf("creator:%s:*", creatorID))
	SafeInvalidatePattern(ctx, cm.Task, "list:*")
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("task:%d:*", taskID))
}

// InvalidateStatsCache drops leaderboard and summary projections after a
// progress or result write.
func InvalidateStatsCache(ctx context.Context, cm *CacheManager, userID string) {
	SafeInvalidatePattern(ctx, cm.Stats, "leaderboard:*")
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("summary:%s:*", userID))
}
