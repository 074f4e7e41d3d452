package services

import (
	"context"
	"errors"
	"testing"

	"github.com/studyforge/practice-service/internal/models"
)

func newTaskTestService(repo *mockRepository) TaskService {
	return NewTaskService(repo, nil, newTestLogger(), newTestValidator())
}

func TestTaskServiceCreate(t *testing.T) {
	repo := newMockRepository()
	repo.users.admins["admin"] = true
	svc := newTaskTestService(repo)
	ctx := context.Background()

	t.Run("ClosedTask", func(t *testing.T) {
		req := &CreateTaskRequest{
			Kind:          models.TaskKindClosed,
			PromptRef:     "sheets/alg-01.png",
			CorrectAnswer: "B",
			Options:       models.OptionList{"A", "B", "C"},
		}
		resp, err := svc.Create(ctx, req, "admin")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if resp.ID == 0 {
			t.Error("expected assigned id")
		}
		if resp.Points != 1 {
			t.Errorf("points should default to 1, got %d", resp.Points)
		}
		if !resp.CanEdit {
			t.Error("creator with admin role should be able to edit")
		}
	})

	t.Run("ClosedTaskWithoutOptions", func(t *testing.T) {
		req := &CreateTaskRequest{
			Kind:          models.TaskKindClosed,
			PromptRef:     "sheets/alg-02.png",
			CorrectAnswer: "B",
		}
		if _, err := svc.Create(ctx, req, "admin"); !IsValidationError(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("OpenTaskWithOptions", func(t *testing.T) {
		req := &CreateTaskRequest{
			Kind:          models.TaskKindOpen,
			PromptRef:     "sheets/geo-01.png",
			CorrectAnswer: "x = 4",
			Options:       models.OptionList{"A", "B"},
		}
		if _, err := svc.Create(ctx, req, "admin"); !IsValidationError(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("NonAdminDenied", func(t *testing.T) {
		req := &CreateTaskRequest{
			Kind:          models.TaskKindOpen,
			PromptRef:     "sheets/geo-02.png",
			CorrectAnswer: "7",
			Points:        5,
		}
		if _, err := svc.Create(ctx, req, "student"); !IsPermissionError(err) {
			t.Fatalf("expected permission error, got %v", err)
		}
	})
}

func TestTaskServiceUpdate(t *testing.T) {
	repo := newMockRepository()
	repo.users.admins["admin"] = true
	svc := newTaskTestService(repo)
	task := seedTask(t, repo, models.TaskKindOpen)
	ctx := context.Background()

	answer := "43"
	points := 5
	resp, err := svc.Update(ctx, task.ID, &UpdateTaskRequest{CorrectAnswer: &answer, Points: &points}, "admin")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if resp.CorrectAnswer != "43" || resp.Points != 5 {
		t.Errorf("update not applied: answer=%q points=%d", resp.CorrectAnswer, resp.Points)
	}

	if _, err := svc.Update(ctx, 999, &UpdateTaskRequest{CorrectAnswer: &answer}, "admin"); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestTaskServiceDelete(t *testing.T) {
	repo := newMockRepository()
	repo.users.admins["admin"] = true
	svc := newTaskTestService(repo)
	task := seedTask(t, repo, models.TaskKindClosed)
	ctx := context.Background()

	if err := svc.Delete(ctx, task.ID, "student"); !IsPermissionError(err) {
		t.Fatalf("expected permission error, got %v", err)
	}

	if err := svc.Delete(ctx, task.ID, "admin"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, task.ID, "admin"); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound on second delete, got %v", err)
	}
}

func TestTaskServiceCreateBatch(t *testing.T) {
	repo := newMockRepository()
	repo.users.admins["admin"] = true
	svc := newTaskTestService(repo)

	req := &BulkCreateTasksRequest{Tasks: []CreateTaskRequest{
		{Kind: models.TaskKindOpen, PromptRef: "a", CorrectAnswer: "1"},
		{Kind: models.TaskKindClosed, PromptRef: "b", CorrectAnswer: "x", Options: models.OptionList{"x", "y"}},
	}}
	responses, err := svc.CreateBatch(context.Background(), req, "admin")
	if err != nil {
		t.Fatalf("batch create: %v", err)
	}
	if len(responses) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(responses))
	}
	if count, _ := repo.tasks.Count(context.Background(), nil); count != 2 {
		t.Errorf("expected 2 stored tasks, got %d", count)
	}
}

func TestTaskServiceCreateBatchRejectsWholeBatchOnOneBadTask(t *testing.T) {
	repo := newMockRepository()
	repo.users.admins["admin"] = true
	svc := newTaskTestService(repo)

	req := &BulkCreateTasksRequest{Tasks: []CreateTaskRequest{
		{Kind: models.TaskKindOpen, PromptRef: "a", CorrectAnswer: "1"},
		{Kind: models.TaskKindOpen, PromptRef: "b", CorrectAnswer: "2"},
		// closed task without options is invalid
		{Kind: models.TaskKindClosed, PromptRef: "c", CorrectAnswer: "x"},
	}}
	_, err := svc.CreateBatch(context.Background(), req, "admin")
	if !IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if count, _ := repo.tasks.Count(context.Background(), nil); count != 0 {
		t.Errorf("expected zero tasks persisted, got %d", count)
	}
}

func TestTaskServiceGetRandom(t *testing.T) {
	repo := newMockRepository()
	svc := newTaskTestService(repo)
	ctx := context.Background()

	t.Run("Exhausted", func(t *testing.T) {
		repo.tasks.randomNext = nil
		resp, err := svc.GetRandom(ctx, &models.RandomTaskRequest{Mode: models.ModeStandard}, "u1")
		if err != nil {
			t.Fatalf("get random: %v", err)
		}
		if !resp.Done || resp.Task != nil {
			t.Errorf("empty pool must report done, got done=%v task=%v", resp.Done, resp.Task)
		}
	})

	t.Run("Available", func(t *testing.T) {
		task := seedTask(t, repo, models.TaskKindClosed)
		repo.tasks.randomNext = task
		resp, err := svc.GetRandom(ctx, &models.RandomTaskRequest{Mode: models.ModeGames}, "u1")
		if err != nil {
			t.Fatalf("get random: %v", err)
		}
		if resp.Done || resp.Task == nil || resp.Task.ID != task.ID {
			t.Errorf("expected task %d, got done=%v task=%v", task.ID, resp.Done, resp.Task)
		}
	})

	t.Run("BadMode", func(t *testing.T) {
		if _, err := svc.GetRandom(ctx, &models.RandomTaskRequest{Mode: "speedrun"}, "u1"); err == nil {
			t.Fatal("expected validation error for unknown mode")
		}
	})
}
