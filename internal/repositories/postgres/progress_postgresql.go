package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/studyforge/practice-service/internal/cache"
	"github.com/studyforge/practice-service/internal/models"
	"github.com/studyforge/practice-service/internal/repositories"
)

type ProgressPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewProgressPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ProgressRepository {
	return &ProgressPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// Upsert performs one atomic conditional write keyed on the composite
// unique index (user_id, task_id, mode): insert, or overwrite is_correct
// and earned_points when the row already exists. Duplicate concurrent
// submissions for the same key therefore converge on the last write
// instead of producing duplicates. The supplied values are stored
// verbatim; consistency between is_correct and earned_points is the
// caller's concern.
func (p *ProgressPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, record *models.ProgressRecord) error {
	db := p.getDB(tx)
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "task_id"},
			{Name: "mode"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"is_correct", "earned_points", "updated_at"}),
	}).Create(record).Error
	if err != nil {
		return fmt.Errorf("failed to upsert progress record: %w", err)
	}

	cache.InvalidateStatsCache(ctx, p.cacheManager, record.UserID)

	return nil
}

// ResetForUser deletes every record for (user, mode). Rows in the other
// mode are untouched.
func (p *ProgressPostgreSQL) ResetForUser(ctx context.Context, tx *gorm.DB, userID string, mode models.PracticeMode) error {
	db := p.getDB(tx)
	if err := db.WithContext(ctx).
		Where("user_id = ? AND mode = ?", userID, mode).
		Delete(&models.ProgressRecord{}).Error; err != nil {
		return fmt.Errorf("failed to reset progress: %w", err)
	}

	cache.InvalidateStatsCache(ctx, p.cacheManager, userID)

	return nil
}

// DeleteByTask removes every record referencing a task, used by the task
// delete cascade.
func (p *ProgressPostgreSQL) DeleteByTask(ctx context.Context, tx *gorm.DB, taskID uint) error {
	db := p.getDB(tx)
	if err := db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Delete(&models.ProgressRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete progress records by task: %w", err)
	}

	return nil
}

// ===== AGGREGATE READS =====

// CountByOutcome returns total/correct/wrong counts for (user, mode)
func (p *ProgressPostgreSQL) CountByOutcome(ctx context.Context, tx *gorm.DB, userID string, mode models.PracticeMode) (*models.OutcomeCounts, error) {
	db := p.getDB(tx)

	var row struct {
		Total   int64
		Correct int64
	}
	err := db.WithContext(ctx).
		Model(&models.ProgressRecord{}).
		Select("COUNT(*) as total, COUNT(*) FILTER (WHERE is_correct) as correct").
		Where("user_id = ? AND mode = ?", userID, mode).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count progress outcomes: %w", err)
	}

	return &models.OutcomeCounts{
		Total:   row.Total,
		Correct: row.Correct,
		Wrong:   row.Total - row.Correct,
	}, nil
}

// CountByOutcomeAndKind breaks the outcome counts down by task kind
func (p *ProgressPostgreSQL) CountByOutcomeAndKind(ctx context.Context, tx *gorm.DB, userID string, mode models.PracticeMode) ([]models.KindOutcomeCounts, error) {
	db := p.getDB(tx)

	var rows []models.KindOutcomeCounts
	err := db.WithContext(ctx).
		Table("progress_records pr").
		Select("t.kind as kind, COUNT(*) as total, COUNT(*) FILTER (WHERE pr.is_correct) as correct").
		Joins("JOIN tasks t ON t.id = pr.task_id").
		Where("pr.user_id = ? AND pr.mode = ?", userID, mode).
		Group("t.kind").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count progress outcomes by kind: %w", err)
	}

	return rows, nil
}

// SolvedTaskIDs lists the task ids the user has any record for in the mode
func (p *ProgressPostgreSQL) SolvedTaskIDs(ctx context.Context, tx *gorm.DB, userID string, mode models.PracticeMode) ([]uint, error) {
	db := p.getDB(tx)

	var ids []uint
	if err := db.WithContext(ctx).
		Model(&models.ProgressRecord{}).
		Where("user_id = ? AND mode = ?", userID, mode).
		Pluck("task_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to get solved task ids: %w", err)
	}

	return ids, nil
}

// GetByUserTaskMode fetches one ledger row, nil when absent
func (p *ProgressPostgreSQL) GetByUserTaskMode(ctx context.Context, tx *gorm.DB, userID string, taskID uint, mode models.PracticeMode) (*models.ProgressRecord, error) {
	db := p.getDB(tx)

	var record models.ProgressRecord
	err := db.WithContext(ctx).
		Where("user_id = ? AND task_id = ? AND mode = ?", userID, taskID, mode).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get progress record: %w", err)
	}

	return &record, nil
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (p *ProgressPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return p.db
}
