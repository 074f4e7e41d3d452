// Package events publishes domain events to Kafka so downstream
// consumers (gamification, reporting) can react to practice activity
// without coupling to this service's database.
package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	source  = "practice-service"
	version = "1.0"
)

// Event types carried on the practice topic.
const (
	TypeResultSubmitted = "practice.result_submitted"
	TypeProgressReset   = "practice.progress_reset"
	TypeTasksImported   = "practice.tasks_imported"
	TypeExamDeleted     = "practice.exam_deleted"
)

// Event is the envelope shared by all published events.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func NewEvent(eventType string, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    source,
		Version:   version,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// ResultSubmittedEvent is emitted after an exam result is appended to
// the log.
type ResultSubmittedEvent struct {
	UserID       string  `json:"user_id"`
	ExamID       *uint   `json:"exam_id,omitempty"`
	ExamName     string  `json:"exam_name"`
	EarnedPoints int     `json:"earned_points"`
	TotalPoints  int     `json:"total_points"`
	Percent      float64 `json:"percent"`
}

// ProgressResetEvent is emitted when a user wipes their ledger for a
// mode.
type ProgressResetEvent struct {
	UserID string `json:"user_id"`
	Mode   string `json:"mode"`
}

// TasksImportedEvent is emitted after a spreadsheet import commits.
type TasksImportedEvent struct {
	CreatorID string `json:"creator_id"`
	Created   int    `json:"created"`
	Skipped   int    `json:"skipped"`
}

// ExamDeletedEvent is emitted after an exam and its results are
// removed.
type ExamDeletedEvent struct {
	ExamID    uint   `json:"exam_id"`
	DeletedBy string `json:"deleted_by"`
}
