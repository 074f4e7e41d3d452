package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/studyforge/practice-service/internal/cache"
	"github.com/studyforge/practice-service/internal/models"
	"github.com/studyforge/practice-service/internal/repositories"
)

type TaskPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewTaskPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.TaskRepository {
	return &TaskPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// ===== BASIC CRUD OPERATIONS =====

// Create creates a new task and invalidates cache
func (t *TaskPostgreSQL) Create(ctx context.Context, tx *gorm.DB, task *models.Task) error {
	db := t.getDB(tx)
	if err := db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, t.cacheManager.Task, fmt.Sprintf("creator:%s:*", task.CreatedBy))
	cache.SafeInvalidatePattern(ctx, t.cacheManager.Task, "list:*")

	return nil
}

// GetByID retrieves a task by ID with caching
func (t *TaskPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Task, error) {
	db := t.getDB(tx)
	cacheKey := fmt.Sprintf("id:%d", id)
	var task models.Task

	err := t.cacheManager.Task.CacheOrExecute(ctx, cacheKey, &task, cache.TaskCacheConfig.TTL, func() (interface{}, error) {
		var dbTask models.Task
		if err := db.WithContext(ctx).First(&dbTask, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("task %d: %w", id, gorm.ErrRecordNotFound)
			}
			return nil, fmt.Errorf("failed to get task: %w", err)
		}
		return &dbTask, nil
	})

	if err != nil {
		return nil, err
	}

	return &task, nil
}

// Update updates a task
func (t *TaskPostgreSQL) Update(ctx context.Context, tx *gorm.DB, task *models.Task) error {
	db := t.getDB(tx)
	if err := db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	cache.InvalidateTaskCache(ctx, t.cacheManager, task.ID, task.CreatedBy)

	return nil
}

// Delete removes the task's progress records first, then the task, in one
// transaction so a partial cascade never survives.
func (t *TaskPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := t.getDB(tx)

	// Fetch creator for cache invalidation before the row disappears.
	var task models.Task
	if err := db.WithContext(ctx).Select("id, created_by").First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("task %d: %w", id, gorm.ErrRecordNotFound)
		}
		return fmt.Errorf("failed to get task before delete: %w", err)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Where("task_id = ?", id).Delete(&models.ProgressRecord{}).Error; err != nil {
			return fmt.Errorf("failed to delete progress records for task: %w", err)
		}

		if err := tx.WithContext(ctx).Delete(&models.Task{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}

		return nil
	})

	if err != nil {
		return err
	}

	cache.InvalidateTaskCache(ctx, t.cacheManager, id, task.CreatedBy)

	return nil
}

// ===== BULK OPERATIONS =====

// CreateBatch creates multiple tasks atomically: one bad row rolls back
// the whole batch.
func (t *TaskPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, tasks []*models.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	db := t.getDB(tx)
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).CreateInBatches(tasks, 100).Error; err != nil {
			return fmt.Errorf("failed to create tasks batch: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	cache.SafeInvalidatePattern(ctx, t.cacheManager.Task, "list:*")
	return nil
}

// GetByIDs retrieves multiple tasks by their IDs
func (t *TaskPostgreSQL) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Task, error) {
	if len(ids) == 0 {
		return []*models.Task{}, nil
	}

	db := t.getDB(tx)
	var tasks []*models.Task
	if err := db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to get tasks by IDs: %w", err)
	}

	return tasks, nil
}

// ===== QUERY OPERATIONS =====

// List retrieves tasks with filtering and pagination, newest id first by
// default. SearchText matches as a substring of the task id or sheet tag.
func (t *TaskPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.TaskFilters) ([]*models.Task, int64, error) {
	db := t.getDB(tx)
	query := db.WithContext(ctx).Model(&models.Task{})

	query = t.helpers.ApplyTaskFilters(query, filters)

	if filters.SearchText != "" {
		searchTerm := "%" + strings.ToLower(filters.SearchText) + "%"
		query = query.Where("CAST(id AS TEXT) LIKE ? OR LOWER(COALESCE(sheet_tag, '')) LIKE ?", searchTerm, searchTerm)
	}

	// Count total records
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	// Apply pagination and sorting
	query = t.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var tasks []*models.Task
	if err := query.Find(&tasks).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetUnseenRandom picks one task uniformly at random from the candidate
// set described by filters. An empty candidate set is a success signal
// ("nothing left to practice") and returns (nil, nil).
func (t *TaskPostgreSQL) GetUnseenRandom(ctx context.Context, tx *gorm.DB, filters repositories.RandomTaskFilters) (*models.Task, error) {
	db := t.getDB(tx)
	query := db.WithContext(ctx).Model(&models.Task{})

	if filters.Kind != nil {
		query = query.Where("kind = ?", *filters.Kind)
	}

	progressed := db.WithContext(ctx).
		Model(&models.ProgressRecord{}).
		Select("task_id").
		Where("user_id = ? AND mode = ?", filters.UserID, filters.Mode)

	if filters.OnlyIncorrect {
		// Retry mode: only tasks already answered incorrectly in this mode.
		query = query.Where("id IN (?)", progressed.Where("is_correct = ?", false))
	} else {
		query = query.Where("id NOT IN (?)", progressed)
	}

	var task models.Task
	err := query.Order("RANDOM()").Limit(1).First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get random task: %w", err)
	}

	return &task, nil
}

// TagBySheet stamps a sheet tag onto every task in ids
func (t *TaskPostgreSQL) TagBySheet(ctx context.Context, tx *gorm.DB, ids []uint, sheetTag string) error {
	if len(ids) == 0 {
		return nil
	}

	db := t.getDB(tx)
	if err := db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id IN ?", ids).
		Update("sheet_tag", sheetTag).Error; err != nil {
		return fmt.Errorf("failed to tag tasks by sheet: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, t.cacheManager.Task, "list:*")
	return nil
}

// ===== VALIDATION AND CHECKS =====

// Exists checks whether a task id is present
func (t *TaskPostgreSQL) Exists(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	db := t.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check task existence: %w", err)
	}

	return count > 0, nil
}

// Count returns the total number of tasks
func (t *TaskPostgreSQL) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	db := t.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).Model(&models.Task{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	return count, nil
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (t *TaskPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return t.db
}
