package services

import (
	"context"
	"errors"
	"testing"

	"github.com/studyforge/practice-service/internal/events"
	"github.com/studyforge/practice-service/internal/models"
)

func newProgressTestService(repo *mockRepository) (ProgressService, *events.MockEventPublisher) {
	logger := newTestLogger()
	publisher := events.NewMockEventPublisher(logger)
	svc := NewProgressService(repo, nil, logger, newTestValidator(), publisher)
	return svc, publisher
}

func seedTask(t *testing.T, repo *mockRepository, kind models.TaskKind) *models.Task {
	t.Helper()
	task := &models.Task{Kind: kind, PromptRef: "p", CorrectAnswer: "42", Points: 3, CreatedBy: "admin"}
	if err := repo.tasks.Create(context.Background(), nil, task); err != nil {
		t.Fatalf("seed task: %v", err)
	}
	return task
}

func TestProgressSubmitOverwritesPriorOutcome(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newProgressTestService(repo)
	task := seedTask(t, repo, models.TaskKindOpen)
	ctx := context.Background()

	wrong := &SubmitProgressRequest{TaskID: task.ID, Mode: models.ModeStandard, IsCorrect: false}
	if err := svc.Submit(ctx, wrong, "u1"); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	points := 3
	right := &SubmitProgressRequest{TaskID: task.ID, Mode: models.ModeStandard, IsCorrect: true, EarnedPoints: &points}
	if err := svc.Submit(ctx, right, "u1"); err != nil {
		t.Fatalf("second submit: %v", err)
	}

	if got := len(repo.progress.records); got != 1 {
		t.Fatalf("expected exactly 1 record after resubmission, got %d", got)
	}
	record, err := repo.progress.GetByUserTaskMode(ctx, nil, "u1", task.ID, models.ModeStandard)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if !record.IsCorrect || record.EarnedPoints != 3 {
		t.Errorf("record not overwritten: correct=%v points=%d", record.IsCorrect, record.EarnedPoints)
	}
}

func TestProgressSubmitKeepsModesSeparate(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newProgressTestService(repo)
	task := seedTask(t, repo, models.TaskKindClosed)
	ctx := context.Background()

	if err := svc.Submit(ctx, &SubmitProgressRequest{TaskID: task.ID, Mode: models.ModeStandard, IsCorrect: true}, "u1"); err != nil {
		t.Fatalf("standard submit: %v", err)
	}
	if err := svc.Submit(ctx, &SubmitProgressRequest{TaskID: task.ID, Mode: models.ModeGames, IsCorrect: false}, "u1"); err != nil {
		t.Fatalf("games submit: %v", err)
	}

	if got := len(repo.progress.records); got != 2 {
		t.Fatalf("expected one record per mode, got %d", got)
	}
}

func TestProgressSubmitDefaultsEarnedPoints(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newProgressTestService(repo)
	task := seedTask(t, repo, models.TaskKindClosed)
	ctx := context.Background()

	if err := svc.Submit(ctx, &SubmitProgressRequest{TaskID: task.ID, Mode: models.ModeGames, IsCorrect: true}, "u1"); err != nil {
		t.Fatalf("correct submit: %v", err)
	}
	record, _ := repo.progress.GetByUserTaskMode(ctx, nil, "u1", task.ID, models.ModeGames)
	if record.EarnedPoints != 1 {
		t.Errorf("correct answer without explicit points should earn 1, got %d", record.EarnedPoints)
	}

	if err := svc.Submit(ctx, &SubmitProgressRequest{TaskID: task.ID, Mode: models.ModeGames, IsCorrect: false}, "u1"); err != nil {
		t.Fatalf("wrong submit: %v", err)
	}
	record, _ = repo.progress.GetByUserTaskMode(ctx, nil, "u1", task.ID, models.ModeGames)
	if record.EarnedPoints != 0 {
		t.Errorf("wrong answer without explicit points should earn 0, got %d", record.EarnedPoints)
	}
}

func TestProgressSubmitUnknownTask(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newProgressTestService(repo)

	err := svc.Submit(context.Background(), &SubmitProgressRequest{TaskID: 999, Mode: models.ModeStandard}, "u1")
	if !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestProgressBatchUsesBatchMode(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newProgressTestService(repo)
	t1 := seedTask(t, repo, models.TaskKindClosed)
	t2 := seedTask(t, repo, models.TaskKindOpen)
	ctx := context.Background()

	req := &BatchSubmitProgressRequest{
		Mode: models.ModeGames,
		Outcomes: []SubmitProgressRequest{
			// Per-outcome mode is deliberately wrong; the batch mode wins
			{TaskID: t1.ID, Mode: models.ModeStandard, IsCorrect: true},
			{TaskID: t2.ID, Mode: models.ModeStandard, IsCorrect: false},
		},
	}
	if err := svc.SubmitBatch(ctx, req, "u1"); err != nil {
		t.Fatalf("batch submit: %v", err)
	}

	for _, task := range []*models.Task{t1, t2} {
		record, _ := repo.progress.GetByUserTaskMode(ctx, nil, "u1", task.ID, models.ModeGames)
		if record == nil {
			t.Errorf("task %d: expected games-mode record", task.ID)
		}
	}
}

func TestProgressBatchRejectsUnknownTaskEntirely(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newProgressTestService(repo)
	task := seedTask(t, repo, models.TaskKindClosed)

	req := &BatchSubmitProgressRequest{
		Mode: models.ModeStandard,
		Outcomes: []SubmitProgressRequest{
			{TaskID: task.ID, Mode: models.ModeStandard, IsCorrect: true},
			{TaskID: 999, Mode: models.ModeStandard, IsCorrect: true},
		},
	}
	err := svc.SubmitBatch(context.Background(), req, "u1")
	if !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestProgressResetScopedToUserAndMode(t *testing.T) {
	repo := newMockRepository()
	svc, publisher := newProgressTestService(repo)
	task := seedTask(t, repo, models.TaskKindClosed)
	ctx := context.Background()

	submits := []struct {
		user string
		mode models.PracticeMode
	}{
		{"u1", models.ModeStandard},
		{"u1", models.ModeGames},
		{"u2", models.ModeStandard},
	}
	for _, sub := range submits {
		if err := svc.Submit(ctx, &SubmitProgressRequest{TaskID: task.ID, Mode: sub.mode, IsCorrect: true}, sub.user); err != nil {
			t.Fatalf("submit %s/%s: %v", sub.user, sub.mode, err)
		}
	}

	if err := svc.Reset(ctx, &ResetProgressRequest{Mode: models.ModeStandard}, "u1"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if record, _ := repo.progress.GetByUserTaskMode(ctx, nil, "u1", task.ID, models.ModeStandard); record != nil {
		t.Error("u1 standard record should be gone")
	}
	if record, _ := repo.progress.GetByUserTaskMode(ctx, nil, "u1", task.ID, models.ModeGames); record == nil {
		t.Error("u1 games record must survive a standard reset")
	}
	if record, _ := repo.progress.GetByUserTaskMode(ctx, nil, "u2", task.ID, models.ModeStandard); record == nil {
		t.Error("u2 record must survive u1's reset")
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 || published[0].Type != events.TypeProgressReset {
		t.Errorf("expected one progress reset event, got %v", published)
	}
}

func TestProgressSolvedTaskIDsRejectsBadMode(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newProgressTestService(repo)

	if _, err := svc.SolvedTaskIDs(context.Background(), "u1", "speedrun"); err == nil {
		t.Fatal("expected validation error for unknown mode")
	}
}
