package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

type TaskKind string

const (
	TaskKindOpen   TaskKind = "open"
	TaskKindClosed TaskKind = "closed"
)

func (k TaskKind) Valid() bool {
	return k == TaskKindOpen || k == TaskKindClosed
}

type Task struct {
	ID            uint     `json:"id" gorm:"primaryKey"`
	Kind          TaskKind `json:"kind" gorm:"not null;index" validate:"required,task_kind"`
	PromptRef     string   `json:"prompt_ref" gorm:"not null;size:500" validate:"required"`
	CorrectAnswer string   `json:"correct_answer" gorm:"type:text;not null" validate:"required"`
	Points        int      `json:"points" gorm:"default:1" validate:"min=1,max=100"`

	// Options stored as JSONB, canonical []string. Present iff kind=closed.
	Options datatypes.JSON `json:"options" gorm:"type:jsonb"`

	// Label grouping tasks that came from the same source exam paper.
	SheetTag *string `json:"sheet_tag" gorm:"index;size:100"`

	CreatedBy string    `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Creator User `json:"-" gorm:"foreignKey:CreatedBy"`
}

func (Task) TableName() string {
	return "tasks"
}

// DecodedOptions returns the stored options column as a string slice.
func (t *Task) DecodedOptions() ([]string, error) {
	if len(t.Options) == 0 {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal(t.Options, &out); err != nil {
		return nil, fmt.Errorf("decode task options: %w", err)
	}
	return out, nil
}

// OptionList is the answer-option payload for closed tasks. Inbound JSON
// arrives in two shapes depending on the producer: a native array
// (["A","B"]) or a string containing a JSON-encoded array ("[\"A\",\"B\"]").
// Unmarshal normalizes both to one canonical slice; a value that is already
// structured is never decoded a second time.
type OptionList []string

func (o *OptionList) UnmarshalJSON(data []byte) error {
	var native []string
	if err := json.Unmarshal(data, &native); err == nil {
		*o = native
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("options must be a string array or an encoded string array")
	}
	var decoded []string
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return fmt.Errorf("options string is not an encoded string array: %w", err)
	}
	*o = decoded
	return nil
}

// ToJSON renders the canonical form for JSONB storage.
func (o OptionList) ToJSON() (datatypes.JSON, error) {
	if o == nil {
		return nil, nil
	}
	data, err := json.Marshal([]string(o))
	if err != nil {
		return nil, fmt.Errorf("encode task options: %w", err)
	}
	return datatypes.JSON(data), nil
}
