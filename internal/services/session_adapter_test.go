package services

import (
	"context"
	"encoding/json"
	"testing"

	"gorm.io/datatypes"

	"github.com/studyforge/practice-service/internal/models"
	"github.com/studyforge/practice-service/internal/session"
)

func TestSessionTasksFromResolvedExamPreservesOrderAndOptions(t *testing.T) {
	options, _ := json.Marshal([]string{"red", "green"})
	resolved := &models.ResolvedExam{
		ID:   7,
		Name: "Colors",
		Tasks: []models.Task{
			{ID: 3, Kind: models.TaskKindClosed, PromptRef: "p3", CorrectAnswer: "red", Options: datatypes.JSON(options), Points: 1},
			{ID: 1, Kind: models.TaskKindOpen, PromptRef: "p1", CorrectAnswer: "essay", Points: 4},
		},
	}

	tasks := SessionTasksFromResolvedExam(resolved)
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].ID != 3 || tasks[1].ID != 1 {
		t.Errorf("task order not preserved: got %d, %d", tasks[0].ID, tasks[1].ID)
	}
	if len(tasks[0].Options) != 2 || tasks[0].Options[0] != "red" {
		t.Errorf("closed task options not carried over: %v", tasks[0].Options)
	}
	if tasks[1].Points != 4 {
		t.Errorf("open task points not carried over: %d", tasks[1].Points)
	}
}

// A completed attempt flows into the ledger and the result log through
// the ordinary service calls.
func TestSessionOutcomePersistsThroughServices(t *testing.T) {
	repo := newMockRepository()
	ctx := context.Background()

	closed := seedTask(t, repo, models.TaskKindClosed)
	open := seedTask(t, repo, models.TaskKindOpen)

	sess := session.New(nil, "Evening drill")
	tasks := []session.Task{
		{ID: closed.ID, Kind: models.TaskKindClosed, CorrectAnswer: "42", Points: 1},
		{ID: open.ID, Kind: models.TaskKindOpen, CorrectAnswer: "essay", Points: 3},
	}
	if err := sess.Start(tasks, 0); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := sess.Navigate(" 42 ", 1); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	if err := sess.Finish("my essay"); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if err := sess.SubmitGrade(2); err != nil {
		t.Fatalf("grade: %v", err)
	}

	outcome, err := sess.Result()
	if err != nil {
		t.Fatalf("result: %v", err)
	}

	batch, result := RequestsFromSessionOutcome(outcome, models.ModeStandard)

	progressSvc, _ := newProgressTestService(repo)
	if err := progressSvc.SubmitBatch(ctx, batch, "u1"); err != nil {
		t.Fatalf("submit batch: %v", err)
	}

	resultSvc, _ := newResultTestService(repo)
	stored, err := resultSvc.Submit(ctx, result, "u1")
	if err != nil {
		t.Fatalf("submit result: %v", err)
	}

	closedRecord, err := repo.progress.GetByUserTaskMode(ctx, nil, "u1", closed.ID, models.ModeStandard)
	if err != nil {
		t.Fatalf("closed record: %v", err)
	}
	if !closedRecord.IsCorrect || closedRecord.EarnedPoints != 1 {
		t.Errorf("closed outcome wrong: correct=%v points=%d", closedRecord.IsCorrect, closedRecord.EarnedPoints)
	}

	openRecord, err := repo.progress.GetByUserTaskMode(ctx, nil, "u1", open.ID, models.ModeStandard)
	if err != nil {
		t.Fatalf("open record: %v", err)
	}
	if openRecord.IsCorrect || openRecord.EarnedPoints != 2 {
		t.Errorf("open outcome wrong: correct=%v points=%d", openRecord.IsCorrect, openRecord.EarnedPoints)
	}

	if stored.EarnedPoints != 3 || stored.TotalPoints != 4 || stored.WrongCount != 1 {
		t.Errorf("stored result mismatch: earned=%d total=%d wrong=%d",
			stored.EarnedPoints, stored.TotalPoints, stored.WrongCount)
	}
	if stored.Percent != 75 {
		t.Errorf("expected 75 percent, got %v", stored.Percent)
	}
}
