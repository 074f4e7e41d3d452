package repositories

import (
	"context"

	"github.com/studyforge/practice-service/internal/models"
	"gorm.io/gorm"
)

// StatsRepository interface for read-only analytics projections. No
// method here mutates anything.
type StatsRepository interface {
	// Per-user summary inputs
	GetExamStats(ctx context.Context, tx *gorm.DB, userID string) (*models.ExamStats, error)

	// Leaderboards. "All" combines games-mode earned points with a point
	// equivalent derived from each exam result: floor(percent/10)*5.
	// Kind-specific boards sum games-mode earned points on tasks of that
	// kind only. Entries are ranked descending by points.
	GetLeaderboard(ctx context.Context, tx *gorm.DB, kind LeaderboardKind, limit int) ([]models.LeaderboardEntry, error)

	// Totals
	GetTotalTasks(ctx context.Context, tx *gorm.DB) (int64, error)
	GetTotalExams(ctx context.Context, tx *gorm.DB) (int64, error)
	GetTotalResults(ctx context.Context, tx *gorm.DB) (int64, error)
	GetActiveUsers(ctx context.Context, tx *gorm.DB, days int) (int64, error)
}
