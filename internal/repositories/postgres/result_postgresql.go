package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/studyforge/practice-service/internal/cache"
	"github.com/studyforge/practice-service/internal/models"
	"github.com/studyforge/practice-service/internal/repositories"
)

type ResultPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewResultPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ResultRepository {
	return &ResultPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// Append inserts one result row. The log is append-only: there is no
// uniqueness constraint, so re-attempts of the same exam each get a row.
func (r *ResultPostgreSQL) Append(ctx context.Context, tx *gorm.DB, record *models.ResultRecord) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to append result record: %w", err)
	}

	cache.InvalidateStatsCache(ctx, r.cacheManager, record.UserID)

	return nil
}

// ListByUser retrieves a user's results, newest first
func (r *ResultPostgreSQL) ListByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.ResultFilters) ([]*models.ResultRecord, int64, error) {
	db := r.getDB(tx)
	query := db.WithContext(ctx).
		Model(&models.ResultRecord{}).
		Where("user_id = ?", userID)

	if filters.ExamID != nil {
		query = query.Where("exam_id = ?", *filters.ExamID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count result records: %w", err)
	}

	query = query.Order("created_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var records []*models.ResultRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list result records: %w", err)
	}

	return records, total, nil
}

// DeleteByExam removes every result referencing an exam, used by the exam
// delete cascade.
func (r *ResultPostgreSQL) DeleteByExam(ctx context.Context, tx *gorm.DB, examID uint) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Delete(&models.ResultRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete result records by exam: %w", err)
	}

	return nil
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (r *ResultPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
