package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

type Exam struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"uniqueIndex;not null;size:255" validate:"required,max=255"`

	// Ordered task ids stored as a JSONB array. Order is significant and
	// preserved exactly as given at creation time.
	TaskOrder datatypes.JSON `json:"task_order" gorm:"type:jsonb;not null"`

	CreatedBy string    `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Creator User `json:"-" gorm:"foreignKey:CreatedBy"`
}

func (Exam) TableName() string {
	return "exams"
}

// OrderedTaskIDs decodes the stored task id sequence.
func (e *Exam) OrderedTaskIDs() ([]uint, error) {
	var ids []uint
	if err := json.Unmarshal(e.TaskOrder, &ids); err != nil {
		return nil, fmt.Errorf("decode exam task order: %w", err)
	}
	return ids, nil
}

// SetOrderedTaskIDs encodes the task id sequence for storage.
func (e *Exam) SetOrderedTaskIDs(ids []uint) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode exam task order: %w", err)
	}
	e.TaskOrder = datatypes.JSON(data)
	return nil
}

// ResolvedExam is an exam with its task references resolved against the
// task bank, in stored order. Ids with no matching task are dropped.
type ResolvedExam struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Tasks     []Task    `json:"tasks"`
	CreatedAt time.Time `json:"created_at"`
}
