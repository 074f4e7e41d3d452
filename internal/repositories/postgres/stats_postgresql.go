package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/studyforge/practice-service/internal/models"
	"github.com/studyforge/practice-service/internal/repositories"
)

type statsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) repositories.StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// ===== SUMMARY PROJECTIONS =====

func (r *statsRepository) GetExamStats(ctx context.Context, tx *gorm.DB, userID string) (*models.ExamStats, error) {
	db := r.getDB(tx)

	var row struct {
		Attempts    int64
		AvgPercent  float64
		BestPercent float64
	}
	if err := db.WithContext(ctx).
		Model(&models.ResultRecord{}).
		Select("COUNT(*) as attempts, COALESCE(AVG(percent), 0) as avg_percent, COALESCE(MAX(percent), 0) as best_percent").
		Where("user_id = ?", userID).
		Scan(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to get exam stats: %w", err)
	}

	return &models.ExamStats{
		Attempts:    row.Attempts,
		AvgPercent:  row.AvgPercent,
		BestPercent: row.BestPercent,
	}, nil
}

// ===== LEADERBOARDS =====

// GetLeaderboard ranks users descending by combined points. The "all"
// board adds each user's games-mode earned points to a point equivalent
// of every exam result, floor(percent/10)*5. Kind-specific boards sum
// games-mode earned points on tasks of that kind only.
func (r *statsRepository) GetLeaderboard(ctx context.Context, tx *gorm.DB, kind repositories.LeaderboardKind, limit int) ([]models.LeaderboardEntry, error) {
	db := r.getDB(tx)
	if limit <= 0 {
		limit = 50
	}

	var entries []models.LeaderboardEntry
	var err error

	switch kind {
	case repositories.LeaderboardAll:
		query := `
			SELECT user_id, SUM(points) AS points FROM (
				SELECT user_id, SUM(earned_points) AS points
				FROM progress_records
				WHERE mode = ?
				GROUP BY user_id
				UNION ALL
				SELECT user_id, SUM(FLOOR(percent / 10) * 5) AS points
				FROM result_records
				GROUP BY user_id
			) combined
			GROUP BY user_id
			ORDER BY points DESC
			LIMIT ?`
		err = db.WithContext(ctx).Raw(query, models.ModeGames, limit).Scan(&entries).Error

	case repositories.LeaderboardOpen, repositories.LeaderboardClosed:
		taskKind := models.TaskKindOpen
		if kind == repositories.LeaderboardClosed {
			taskKind = models.TaskKindClosed
		}
		query := `
			SELECT pr.user_id, SUM(pr.earned_points) AS points
			FROM progress_records pr
			JOIN tasks t ON t.id = pr.task_id
			WHERE pr.mode = ? AND t.kind = ?
			GROUP BY pr.user_id
			ORDER BY points DESC
			LIMIT ?`
		err = db.WithContext(ctx).Raw(query, models.ModeGames, taskKind, limit).Scan(&entries).Error

	default:
		return nil, fmt.Errorf("unknown leaderboard kind: %s", kind)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}

	for i := range entries {
		entries[i].Rank = i + 1
	}

	return entries, nil
}

// ===== TOTALS =====

func (r *statsRepository) GetTotalTasks(ctx context.Context, tx *gorm.DB) (int64, error) {
	db := r.getDB(tx)
	var count int64

	if err := db.WithContext(ctx).
		Model(&models.Task{}).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to get total tasks: %w", err)
	}

	return count, nil
}

func (r *statsRepository) GetTotalExams(ctx context.Context, tx *gorm.DB) (int64, error) {
	db := r.getDB(tx)
	var count int64

	if err := db.WithContext(ctx).
		Model(&models.Exam{}).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to get total exams: %w", err)
	}

	return count, nil
}

func (r *statsRepository) GetTotalResults(ctx context.Context, tx *gorm.DB) (int64, error) {
	db := r.getDB(tx)
	var count int64

	if err := db.WithContext(ctx).
		Model(&models.ResultRecord{}).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to get total results: %w", err)
	}

	return count, nil
}

func (r *statsRepository) GetActiveUsers(ctx context.Context, tx *gorm.DB, days int) (int64, error) {
	db := r.getDB(tx)
	var count int64

	startDate := time.Now().AddDate(0, 0, -days)

	if err := db.WithContext(ctx).
		Model(&models.ProgressRecord{}).
		Where("updated_at >= ?", startDate).
		Distinct("user_id").
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to get active users: %w", err)
	}

	return count, nil
}
