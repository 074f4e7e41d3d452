package repositories

import (
	"context"

	"github.com/studyforge/practice-service/internal/models"
	"gorm.io/gorm"
)

// ProgressRepository is the ledger of per-(user, task, mode) outcomes.
type ProgressRepository interface {
	// Upsert inserts the record or, when a row for (user, task, mode)
	// already exists, overwrites is_correct and earned_points. It must be
	// one atomic conditional write against the composite unique index,
	// never a read-then-write, so concurrent duplicate submissions from
	// the same user stay correct.
	Upsert(ctx context.Context, tx *gorm.DB, record *models.ProgressRecord) error

	// ResetForUser deletes every record for (user, mode). Records in
	// other modes are untouched.
	ResetForUser(ctx context.Context, tx *gorm.DB, userID string, mode models.PracticeMode) error

	// DeleteByTask removes every record referencing a task, any user,
	// any mode. Used by the task delete cascade.
	DeleteByTask(ctx context.Context, tx *gorm.DB, taskID uint) error

	// Aggregate reads
	CountByOutcome(ctx context.Context, tx *gorm.DB, userID string, mode models.PracticeMode) (*models.OutcomeCounts, error)
	CountByOutcomeAndKind(ctx context.Context, tx *gorm.DB, userID string, mode models.PracticeMode) ([]models.KindOutcomeCounts, error)

	// SolvedTaskIDs lists the task ids the user has any record for in
	// the given mode.
	SolvedTaskIDs(ctx context.Context, tx *gorm.DB, userID string, mode models.PracticeMode) ([]uint, error)

	GetByUserTaskMode(ctx context.Context, tx *gorm.DB, userID string, taskID uint, mode models.PracticeMode) (*models.ProgressRecord, error)
}

// ResultRepository is the append-only exam result log.
type ResultRepository interface {
	Append(ctx context.Context, tx *gorm.DB, record *models.ResultRecord) error
	ListByUser(ctx context.Context, tx *gorm.DB, userID string, filters ResultFilters) ([]*models.ResultRecord, int64, error)

	// DeleteByExam removes every result referencing an exam. Used by the
	// exam delete cascade.
	DeleteByExam(ctx context.Context, tx *gorm.DB, examID uint) error
}
