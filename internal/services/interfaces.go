package services

import (
	"context"
	"io"

	"github.com/studyforge/practice-service/internal/models"
	"github.com/studyforge/practice-service/internal/repositories"
	"github.com/studyforge/practice-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type CreateTaskRequest = validator.TaskCreateRequest
type UpdateTaskRequest = validator.TaskUpdateRequest
type BulkCreateTasksRequest = validator.TaskBulkCreateRequest

type CreateExamRequest = validator.ExamCreateRequest
type RenameExamRequest = validator.ExamRenameRequest

type SubmitProgressRequest = validator.ProgressSubmitRequest
type BatchSubmitProgressRequest = validator.ProgressBatchSubmitRequest
type ResetProgressRequest = validator.ProgressResetRequest

type SubmitResultRequest = validator.ResultSubmitRequest

type TaskResponse struct {
	*models.Task
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
}

type TaskListResponse struct {
	Tasks []*TaskResponse `json:"tasks"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Size  int             `json:"size"`
}

type ExamResponse struct {
	*models.Exam
	TaskCount int  `json:"task_count"`
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
}

type ExamListResponse struct {
	Exams []*ExamResponse `json:"exams"`
	Total int64           `json:"total"`
}

type ResultListResponse struct {
	Results []*models.ResultRecord `json:"results"`
	Total   int64                  `json:"total"`
	Page    int                    `json:"page"`
	Size    int                    `json:"size"`
}

type LeaderboardResponse struct {
	Kind    repositories.LeaderboardKind `json:"kind"`
	Entries []models.LeaderboardEntry    `json:"entries"`
}

type OverviewResponse struct {
	TotalTasks   int64 `json:"total_tasks"`
	TotalExams   int64 `json:"total_exams"`
	TotalResults int64 `json:"total_results"`
	ActiveUsers  int64 `json:"active_users"`
}

// ImportRowError reports one rejected spreadsheet row; the remaining
// rows are still imported.
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type ImportResult struct {
	Created   int              `json:"created"`
	Skipped   int              `json:"skipped"`
	RowErrors []ImportRowError `json:"row_errors,omitempty"`
}

// ===== SERVICE INTERFACES =====

type TaskService interface {
	// Core CRUD operations
	Create(ctx context.Context, req *CreateTaskRequest, creatorID string) (*TaskResponse, error)
	GetByID(ctx context.Context, id uint, userID string) (*TaskResponse, error)
	Update(ctx context.Context, id uint, req *UpdateTaskRequest, userID string) (*TaskResponse, error)
	Delete(ctx context.Context, id uint, userID string) error

	// Bulk operations
	CreateBatch(ctx context.Context, req *BulkCreateTasksRequest, creatorID string) ([]*TaskResponse, error)

	// List and search operations
	List(ctx context.Context, filters repositories.TaskFilters, userID string) (*TaskListResponse, error)

	// GetRandom draws one unseen (or, with OnlyIncorrect, previously
	// missed) task for the user. Done is set when nothing qualifies.
	GetRandom(ctx context.Context, req *models.RandomTaskRequest, userID string) (*models.RandomTaskResponse, error)
}

type ExamService interface {
	// Create stores the exam and, when SheetTag is set, stamps the tag
	// onto every referenced task in the same transaction.
	Create(ctx context.Context, req *CreateExamRequest, creatorID string) (*ExamResponse, error)
	GetByID(ctx context.Context, id uint, userID string) (*ExamResponse, error)
	GetResolved(ctx context.Context, id uint, userID string) (*models.ResolvedExam, error)
	Rename(ctx context.Context, id uint, req *RenameExamRequest, userID string) (*ExamResponse, error)

	// Delete removes the exam and every result referencing it.
	Delete(ctx context.Context, id uint, userID string) error

	List(ctx context.Context, userID string) (*ExamListResponse, error)
}

type ProgressService interface {
	// Submit records one task outcome; resubmission for the same
	// (user, task, mode) overwrites the previous outcome.
	Submit(ctx context.Context, req *SubmitProgressRequest, userID string) error

	// SubmitBatch records several outcomes in one transaction.
	SubmitBatch(ctx context.Context, req *BatchSubmitProgressRequest, userID string) error

	// Reset wipes the user's ledger for one mode only.
	Reset(ctx context.Context, req *ResetProgressRequest, userID string) error

	SolvedTaskIDs(ctx context.Context, userID string, mode models.PracticeMode) ([]uint, error)
}

type ResultService interface {
	// Submit appends a finished exam run to the log. When ExamID is set
	// the exam must exist; the stored name is snapshotted from the
	// request so later renames do not rewrite history.
	Submit(ctx context.Context, req *SubmitResultRequest, userID string) (*models.ResultRecord, error)

	ListByUser(ctx context.Context, userID string, filters repositories.ResultFilters) (*ResultListResponse, error)
}

type StatsService interface {
	GetUserSummary(ctx context.Context, userID string) (*repositories.UserSummary, error)
	GetLeaderboard(ctx context.Context, kind repositories.LeaderboardKind, limit int) (*LeaderboardResponse, error)
	GetOverview(ctx context.Context, userID string) (*OverviewResponse, error)
}

type ImportExportService interface {
	// ImportTasks reads an xlsx sheet of tasks and inserts the valid
	// rows in one transaction; bad rows are reported, not fatal.
	ImportTasks(ctx context.Context, r io.Reader, creatorID string) (*ImportResult, error)

	// ExportTasks writes the full task bank as an xlsx workbook.
	ExportTasks(ctx context.Context, w io.Writer, filters repositories.TaskFilters, userID string) error

	// ExportResults writes the user's exam history as an xlsx workbook.
	ExportResults(ctx context.Context, w io.Writer, userID string) error
}

type UploadService interface {
	// Upload stores prompt attachments and returns their public URLs in
	// input order.
	Upload(ctx context.Context, files []UploadFile, userID string) (*models.UploadResponse, error)
}

type UploadFile struct {
	Name   string
	Reader io.Reader
	Size   int64
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	// Core service getters
	Task() TaskService
	Exam() ExamService
	Progress() ProgressService
	Result() ResultService
	Stats() StatsService

	// Additional service getters
	ImportExport() ImportExportService
	Upload() UploadService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
