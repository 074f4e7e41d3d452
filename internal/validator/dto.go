package validator

import (
	"github.com/studyforge/practice-service/internal/models"
)

// TaskCreateRequest represents the request structure for creating tasks
type TaskCreateRequest struct {
	Kind          models.TaskKind   `json:"kind" validate:"required,task_kind"`
	PromptRef     string            `json:"prompt_ref" validate:"required,max=500"`
	CorrectAnswer string            `json:"correct_answer" validate:"required,max=2000"`
	Options       models.OptionList `json:"options" validate:"omitempty,max=10,dive,max=500"`
	Points        int               `json:"points" validate:"omitempty,points_range"`
	SheetTag      *string           `json:"sheet_tag" validate:"omitempty,max=100"`
}

// TaskUpdateRequest represents the request structure for updating tasks
type TaskUpdateRequest struct {
	CorrectAnswer *string           `json:"correct_answer" validate:"omitempty,min=1,max=2000"`
	Points        *int              `json:"points" validate:"omitempty,points_range"`
	Options       models.OptionList `json:"options" validate:"omitempty,max=10,dive,max=500"`
	SheetTag      *string           `json:"sheet_tag" validate:"omitempty,max=100"`
}

// TaskBulkCreateRequest carries a batch of tasks to insert in one
// transaction, typically from a spreadsheet import
type TaskBulkCreateRequest struct {
	Tasks []TaskCreateRequest `json:"tasks" validate:"required,min=1,max=500,dive"`
}

// ExamCreateRequest represents the request structure for creating exams
type ExamCreateRequest struct {
	Name     string  `json:"name" validate:"required,min=1,max=255"`
	TaskIDs  []uint  `json:"task_ids" validate:"required,min=1,dive,min=1"`
	SheetTag *string `json:"sheet_tag" validate:"omitempty,max=100"`
}

// ExamRenameRequest represents the request structure for renaming exams
type ExamRenameRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

// ProgressSubmitRequest records the outcome of one answered task
type ProgressSubmitRequest struct {
	TaskID       uint                `json:"task_id" validate:"required"`
	Mode         models.PracticeMode `json:"mode" validate:"required,practice_mode"`
	IsCorrect    bool                `json:"is_correct"`
	EarnedPoints *int                `json:"earned_points" validate:"omitempty,min=0"`
}

// ProgressBatchSubmitRequest records several outcomes at once, used
// when a client flushes buffered answers after reconnecting
type ProgressBatchSubmitRequest struct {
	Mode     models.PracticeMode     `json:"mode" validate:"required,practice_mode"`
	Outcomes []ProgressSubmitRequest `json:"outcomes" validate:"required,min=1,max=200,dive"`
}

// ProgressResetRequest wipes the caller's progress for one mode
type ProgressResetRequest struct {
	Mode models.PracticeMode `json:"mode" validate:"required,practice_mode"`
}

// ResultSubmitRequest appends a finished exam run to the result log
type ResultSubmitRequest struct {
	ExamID       *uint   `json:"exam_id" validate:"omitempty,min=1"`
	ExamName     string  `json:"exam_name" validate:"required,max=255"`
	EarnedPoints int     `json:"earned_points" validate:"min=0"`
	TotalPoints  int     `json:"total_points" validate:"min=0"`
	WrongCount   int     `json:"wrong_count" validate:"min=0"`
	Percent      float64 `json:"percent" validate:"min=0,max=100"`
}
