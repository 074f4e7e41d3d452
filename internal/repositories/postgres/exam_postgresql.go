package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/studyforge/practice-service/internal/cache"
	"github.com/studyforge/practice-service/internal/models"
	"github.com/studyforge/practice-service/internal/repositories"
)

type ExamPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewExamPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ExamRepository {
	return &ExamPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// ===== BASIC CRUD OPERATIONS =====

// Create inserts a new exam and invalidates the list cache
func (e *ExamPostgreSQL) Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	db := e.getDB(tx)
	if err := db.WithContext(ctx).Create(exam).Error; err != nil {
		return fmt.Errorf("failed to create exam: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, e.cacheManager.Exam, "list:*")

	return nil
}

// GetByID retrieves an exam by ID with caching
func (e *ExamPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	db := e.getDB(tx)
	cacheKey := fmt.Sprintf("id:%d", id)
	var exam models.Exam

	err := e.cacheManager.Exam.CacheOrExecute(ctx, cacheKey, &exam, cache.ExamCacheConfig.TTL, func() (interface{}, error) {
		var dbExam models.Exam
		if err := db.WithContext(ctx).First(&dbExam, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("exam %d: %w", id, gorm.ErrRecordNotFound)
			}
			return nil, fmt.Errorf("failed to get exam: %w", err)
		}
		return &dbExam, nil
	})

	if err != nil {
		return nil, err
	}

	return &exam, nil
}

// Rename updates an exam's name
func (e *ExamPostgreSQL) Rename(ctx context.Context, tx *gorm.DB, id uint, name string) error {
	db := e.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.Exam{}).
		Where("id = ?", id).
		Update("name", name)
	if result.Error != nil {
		return fmt.Errorf("failed to rename exam: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("exam %d: %w", id, gorm.ErrRecordNotFound)
	}

	cache.InvalidateExamCache(ctx, e.cacheManager, id)

	return nil
}

// Delete removes the exam's result records first, then the exam, in one
// transaction.
func (e *ExamPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := e.getDB(tx)

	var exam models.Exam
	if err := db.WithContext(ctx).Select("id").First(&exam, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("exam %d: %w", id, gorm.ErrRecordNotFound)
		}
		return fmt.Errorf("failed to get exam before delete: %w", err)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Where("exam_id = ?", id).Delete(&models.ResultRecord{}).Error; err != nil {
			return fmt.Errorf("failed to delete result records for exam: %w", err)
		}

		if err := tx.WithContext(ctx).Delete(&models.Exam{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete exam: %w", err)
		}

		return nil
	})

	if err != nil {
		return err
	}

	cache.InvalidateExamCache(ctx, e.cacheManager, id)

	return nil
}

// ===== QUERY OPERATIONS =====

// List retrieves all exams. Ordering is a presentation concern: callers
// sort by the domain tokens embedded in the name.
func (e *ExamPostgreSQL) List(ctx context.Context, tx *gorm.DB) ([]*models.Exam, error) {
	db := e.getDB(tx)
	var exams []*models.Exam
	if err := db.WithContext(ctx).Find(&exams).Error; err != nil {
		return nil, fmt.Errorf("failed to list exams: %w", err)
	}

	return exams, nil
}

// GetResolved returns the exam with its task ids resolved against the
// tasks table, in exactly the stored order. Ids with no matching task are
// dropped silently rather than erroring the whole response.
func (e *ExamPostgreSQL) GetResolved(ctx context.Context, tx *gorm.DB, id uint) (*models.ResolvedExam, error) {
	db := e.getDB(tx)

	exam, err := e.GetByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	ids, err := exam.OrderedTaskIDs()
	if err != nil {
		return nil, err
	}

	var tasks []models.Task
	if len(ids) > 0 {
		if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&tasks).Error; err != nil {
			return nil, fmt.Errorf("failed to resolve exam tasks: %w", err)
		}
	}

	byID := make(map[uint]models.Task, len(tasks))
	for _, task := range tasks {
		byID[task.ID] = task
	}

	ordered := make([]models.Task, 0, len(ids))
	for _, taskID := range ids {
		if task, ok := byID[taskID]; ok {
			ordered = append(ordered, task)
		}
	}

	return &models.ResolvedExam{
		ID:        exam.ID,
		Name:      exam.Name,
		Tasks:     ordered,
		CreatedAt: exam.CreatedAt,
	}, nil
}

// ===== VALIDATION AND CHECKS =====

// ExistsByName checks if an exam with the given name exists
func (e *ExamPostgreSQL) ExistsByName(ctx context.Context, tx *gorm.DB, name string, excludeID *uint) (bool, error) {
	db := e.getDB(tx)
	query := db.WithContext(ctx).
		Model(&models.Exam{}).
		Where("name = ?", name)

	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check exam name existence: %w", err)
	}

	return count > 0, nil
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (e *ExamPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return e.db
}
