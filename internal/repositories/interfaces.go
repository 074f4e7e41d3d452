package repositories

import (
	"github.com/studyforge/practice-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type TaskFilters struct {
	SearchText string           `json:"search_text"` // substring match against id and sheet tag
	Kind       *models.TaskKind `json:"kind"`
	SheetTag   *string          `json:"sheet_tag"`
	CreatedBy  *string          `json:"created_by"`
	Limit      int              `json:"limit"`
	Offset     int              `json:"offset"`
	SortBy     string           `json:"sort_by"`    // "id", "created_at", "points"
	SortOrder  string           `json:"sort_order"` // "asc", "desc"
}

type RandomTaskFilters struct {
	UserID        string              `json:"user_id"`
	Mode          models.PracticeMode `json:"mode"`
	Kind          *models.TaskKind    `json:"kind"`
	OnlyIncorrect bool                `json:"only_incorrect"`
}

type ResultFilters struct {
	ExamID *uint `json:"exam_id"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// ===== SHARED STATISTICS STRUCTS =====

// LeaderboardKind selects which leaderboard projection to compute.
type LeaderboardKind string

const (
	LeaderboardAll    LeaderboardKind = "all"
	LeaderboardOpen   LeaderboardKind = "open"
	LeaderboardClosed LeaderboardKind = "closed"
)

func (k LeaderboardKind) Valid() bool {
	return k == LeaderboardAll || k == LeaderboardOpen || k == LeaderboardClosed
}

// UserSummary is the per-user dashboard projection: standard-mode
// practice totals, per-kind accuracy, and exam history stats.
type UserSummary struct {
	Practice models.OutcomeCounts       `json:"practice"`
	ByKind   []models.KindOutcomeCounts `json:"by_kind"`
	Exams    models.ExamStats           `json:"exams"`
}
