package models

import "time"

type PracticeMode string

const (
	ModeStandard PracticeMode = "standard"
	ModeGames    PracticeMode = "games"
)

func (m PracticeMode) Valid() bool {
	return m == ModeStandard || m == ModeGames
}

// ProgressRecord tracks one user's outcome on one task in one practice
// mode. The composite unique index is the invariant: at most one row per
// (user, task, mode); resubmission overwrites rather than duplicates.
// IsCorrect and EarnedPoints are stored exactly as supplied by the caller
// and are not cross-validated against each other.
type ProgressRecord struct {
	ID           uint         `json:"id" gorm:"primaryKey"`
	UserID       string       `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_user_task_mode"`
	TaskID       uint         `json:"task_id" gorm:"not null;uniqueIndex:idx_user_task_mode"`
	Mode         PracticeMode `json:"mode" gorm:"not null;size:20;uniqueIndex:idx_user_task_mode" validate:"required,practice_mode"`
	IsCorrect    bool         `json:"is_correct" gorm:"not null"`
	EarnedPoints int          `json:"earned_points" gorm:"not null;default:0" validate:"min=0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Task Task `json:"-" gorm:"foreignKey:TaskID"`
	User User `json:"-" gorm:"foreignKey:UserID"`
}

func (ProgressRecord) TableName() string {
	return "progress_records"
}

// OutcomeCounts is the per-(user, mode) aggregate over progress records.
type OutcomeCounts struct {
	Total   int64 `json:"total"`
	Correct int64 `json:"correct"`
	Wrong   int64 `json:"wrong"`
}

// KindOutcomeCounts breaks OutcomeCounts down by task kind.
type KindOutcomeCounts struct {
	Kind    TaskKind `json:"kind"`
	Total   int64    `json:"total"`
	Correct int64    `json:"correct"`
}
