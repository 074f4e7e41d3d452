package repositories

import (
	"context"

	"github.com/studyforge/practice-service/internal/models"
	"gorm.io/gorm"
)

// TaskRepository interface for task bank operations
type TaskRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, task *models.Task) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Task, error)
	Update(ctx context.Context, tx *gorm.DB, task *models.Task) error

	// Delete removes all progress records referencing the task, then the
	// task itself, in one transaction.
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Bulk operations
	CreateBatch(ctx context.Context, tx *gorm.DB, tasks []*models.Task) error
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Task, error)

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters TaskFilters) ([]*models.Task, int64, error)

	// GetUnseenRandom picks one task uniformly at random from the tasks
	// the user has no progress record for in the given mode (or, with
	// OnlyIncorrect, from the tasks recorded incorrect in that mode).
	// An empty candidate set returns (nil, nil).
	GetUnseenRandom(ctx context.Context, tx *gorm.DB, filters RandomTaskFilters) (*models.Task, error)

	// TagBySheet stamps a sheet tag onto every task in ids.
	TagBySheet(ctx context.Context, tx *gorm.DB, ids []uint, sheetTag string) error

	// Validation and checks
	Exists(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

// ExamRepository interface for exam operations
type ExamRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error)
	Rename(ctx context.Context, tx *gorm.DB, id uint, name string) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB) ([]*models.Exam, error)

	// GetResolved returns the exam with task references resolved in
	// stored order; ids without a matching task are dropped silently.
	GetResolved(ctx context.Context, tx *gorm.DB, id uint) (*models.ResolvedExam, error)

	// Validation and checks
	ExistsByName(ctx context.Context, tx *gorm.DB, name string, excludeID *uint) (bool, error)
}
