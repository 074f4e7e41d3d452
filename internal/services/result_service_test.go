package services

import (
	"context"
	"errors"
	"testing"

	"github.com/studyforge/practice-service/internal/events"
	"github.com/studyforge/practice-service/internal/models"
	"github.com/studyforge/practice-service/internal/repositories"
)

func newResultTestService(repo *mockRepository) (ResultService, *events.MockEventPublisher) {
	logger := newTestLogger()
	publisher := events.NewMockEventPublisher(logger)
	svc := NewResultService(repo, nil, logger, newTestValidator(), publisher)
	return svc, publisher
}

func TestResultSubmit(t *testing.T) {
	repo := newMockRepository()
	svc, publisher := newResultTestService(repo)
	ctx := context.Background()

	req := &SubmitResultRequest{
		ExamName:     "Midterm",
		EarnedPoints: 8,
		TotalPoints:  10,
		WrongCount:   2,
		Percent:      80,
	}
	record, err := svc.Submit(ctx, req, "u1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if record.ID == 0 {
		t.Error("expected assigned id")
	}
	if record.ExamName != "Midterm" || record.Percent != 80 {
		t.Errorf("record fields not stored: %+v", record)
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 {
		t.Fatalf("expected 1 event, got %d", len(published))
	}
	event := published[0]
	if event.Type != events.TypeResultSubmitted {
		t.Errorf("expected result event type, got %s", event.Type)
	}
	if event.Source != "practice-service" || event.Version != "1.0" {
		t.Errorf("bad envelope: source=%s version=%s", event.Source, event.Version)
	}
}

func TestResultSubmitUnknownExam(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newResultTestService(repo)

	examID := uint(999)
	req := &SubmitResultRequest{ExamID: &examID, ExamName: "Ghost", Percent: 50}
	if _, err := svc.Submit(context.Background(), req, "u1"); !errors.Is(err, ErrExamNotFound) {
		t.Fatalf("expected ErrExamNotFound, got %v", err)
	}
}

func TestResultSubmitSnapshotsExamName(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newResultTestService(repo)
	ctx := context.Background()

	exam := &models.Exam{Name: "Original", CreatedBy: "admin"}
	if err := repo.exams.Create(ctx, nil, exam); err != nil {
		t.Fatalf("seed exam: %v", err)
	}

	req := &SubmitResultRequest{ExamID: &exam.ID, ExamName: "Original", Percent: 90}
	record, err := svc.Submit(ctx, req, "u1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	// A rename after the fact must not rewrite history
	if err := repo.exams.Rename(ctx, nil, exam.ID, "Renamed"); err != nil {
		t.Fatalf("rename: %v", err)
	}

	list, err := svc.ListByUser(ctx, "u1", repositories.ResultFilters{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(list.Results))
	}
	if list.Results[0].ID != record.ID || list.Results[0].ExamName != "Original" {
		t.Errorf("stored name must stay %q, got %q", "Original", list.Results[0].ExamName)
	}
}

func TestResultListScopedToUser(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newResultTestService(repo)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, &SubmitResultRequest{ExamName: "A", Percent: 10}, "u1"); err != nil {
		t.Fatalf("submit u1: %v", err)
	}
	if _, err := svc.Submit(ctx, &SubmitResultRequest{ExamName: "B", Percent: 20}, "u2"); err != nil {
		t.Fatalf("submit u2: %v", err)
	}

	list, err := svc.ListByUser(ctx, "u1", repositories.ResultFilters{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list.Total != 1 || len(list.Results) != 1 || list.Results[0].ExamName != "A" {
		t.Errorf("expected only u1's result, got %+v", list.Results)
	}
}
