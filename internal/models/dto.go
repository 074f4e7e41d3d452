package models

// RandomTaskRequest is bound from query parameters on the random-task
// endpoint.
type RandomTaskRequest struct {
	Mode          PracticeMode `json:"mode" form:"mode" validate:"required,practice_mode"`
	Kind          *TaskKind    `json:"kind" form:"kind" validate:"omitempty,task_kind"`
	OnlyIncorrect bool         `json:"only_incorrect" form:"only_incorrect"`
}

// RandomTaskResponse distinguishes "nothing left to practice" from an
// error: Done is true and Task nil when the candidate set is empty.
type RandomTaskResponse struct {
	Task *Task `json:"task"`
	Done bool  `json:"done"`
}

type UploadResponse struct {
	URLs []string `json:"urls"`
}
