package services

import (
	"github.com/studyforge/practice-service/internal/models"
	"github.com/studyforge/practice-service/internal/session"
)

// SessionTasksFromResolvedExam converts a resolved exam into the task
// view an exam session runs on, preserving the stored order.
func SessionTasksFromResolvedExam(exam *models.ResolvedExam) []session.Task {
	tasks := make([]session.Task, 0, len(exam.Tasks))
	for _, t := range exam.Tasks {
		options, _ := t.DecodedOptions()
		tasks = append(tasks, session.Task{
			ID:            t.ID,
			Kind:          t.Kind,
			PromptRef:     t.PromptRef,
			CorrectAnswer: t.CorrectAnswer,
			Options:       options,
			Points:        t.Points,
		})
	}
	return tasks
}

// RequestsFromSessionOutcome converts a completed session outcome into
// the two persistence calls an attempt produces: one batch of progress
// upserts and one result record.
func RequestsFromSessionOutcome(outcome *session.Outcome, mode models.PracticeMode) (*BatchSubmitProgressRequest, *SubmitResultRequest) {
	batch := &BatchSubmitProgressRequest{
		Mode:     mode,
		Outcomes: make([]SubmitProgressRequest, 0, len(outcome.PerTask)),
	}
	for _, t := range outcome.PerTask {
		earned := t.EarnedPoints
		batch.Outcomes = append(batch.Outcomes, SubmitProgressRequest{
			TaskID:       t.TaskID,
			Mode:         mode,
			IsCorrect:    t.IsCorrect,
			EarnedPoints: &earned,
		})
	}

	result := &SubmitResultRequest{
		ExamID:       outcome.ExamID,
		ExamName:     outcome.ExamName,
		EarnedPoints: outcome.EarnedPoints,
		TotalPoints:  outcome.TotalPoints,
		WrongCount:   outcome.WrongCount,
		Percent:      outcome.Percent,
	}

	return batch, result
}
