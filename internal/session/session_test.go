package session

import (
	"testing"
	"time"

	"github.com/studyforge/practice-service/internal/models"
)

func closedTask(id uint, answer string) Task {
	return Task{ID: id, Kind: models.TaskKindClosed, CorrectAnswer: answer, Options: []string{"A", "B", "C"}, Points: 1}
}

func openTask(id uint, points int) Task {
	return Task{ID: id, Kind: models.TaskKindOpen, CorrectAnswer: "reference", Points: points}
}

func examID(id uint) *uint { return &id }

func TestStartEmptyTaskList(t *testing.T) {
	s := New(examID(1), "May 2024")

	if err := s.Start(nil, 0); err != ErrNoTasks {
		t.Fatalf("expected ErrNoTasks, got %v", err)
	}
	if s.State() != StateNotStarted {
		t.Errorf("failed start must leave the session in NotStarted, got %s", s.State())
	}

	// A later start with tasks must still work.
	if err := s.Start([]Task{closedTask(1, "A")}, 0); err != nil {
		t.Fatalf("Start after failed start: %v", err)
	}
	if s.State() != StateInProgress {
		t.Errorf("got state %s", s.State())
	}
}

func TestStartTwice(t *testing.T) {
	s := New(nil, "ad-hoc")
	if err := s.Start([]Task{closedTask(1, "A")}, 0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start([]Task{closedTask(2, "B")}, 0); err != ErrAlreadyStarted {
		t.Errorf("expected ErrAlreadyStarted, got %v", err)
	}
}

func TestAnswerBlankDoesNotClobber(t *testing.T) {
	s := New(examID(1), "May 2024")
	if err := s.Start([]Task{closedTask(1, "A"), closedTask(2, "B")}, 0); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := s.Answer(1, "B"); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	// Blank and whitespace-only submissions must not erase the value.
	if err := s.Answer(1, ""); err != nil {
		t.Fatalf("Answer blank: %v", err)
	}
	if err := s.Answer(1, "   "); err != nil {
		t.Fatalf("Answer whitespace: %v", err)
	}

	if err := s.Finish(""); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	result, err := s.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if result.PerTask[0].IsCorrect {
		t.Error("task 1 should score against the preserved answer \"B\", which is wrong")
	}
	if result.PerTask[0].EarnedPoints != 0 {
		t.Errorf("earned = %d, want 0", result.PerTask[0].EarnedPoints)
	}
}

func TestAnswerUnknownTask(t *testing.T) {
	s := New(nil, "x")
	if err := s.Start([]Task{closedTask(1, "A")}, 0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Answer(99, "A"); err != ErrUnknownTask {
		t.Errorf("expected ErrUnknownTask, got %v", err)
	}
}

func TestNavigate(t *testing.T) {
	s := New(examID(3), "June 2023")
	tasks := []Task{closedTask(1, "A"), closedTask(2, "B"), closedTask(3, "C")}
	if err := s.Start(tasks, 0); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Backward at index 0 is a no-op.
	if err := s.Navigate("", -1); err != nil {
		t.Fatalf("Navigate back at 0: %v", err)
	}
	if s.CurrentIndex() != 0 {
		t.Errorf("index = %d, want 0", s.CurrentIndex())
	}

	// Forward saves the pending input for the visible task.
	if err := s.Navigate("A", +1); err != nil {
		t.Fatalf("Navigate forward: %v", err)
	}
	if s.CurrentIndex() != 1 {
		t.Errorf("index = %d, want 1", s.CurrentIndex())
	}
	if s.AnsweredCount() != 1 {
		t.Errorf("answered = %d, want 1", s.AnsweredCount())
	}

	// Backward then forward keeps the buffered answer.
	if err := s.Navigate("B", -1); err != nil {
		t.Fatalf("Navigate back: %v", err)
	}
	if err := s.Navigate("", +1); err != nil {
		t.Fatalf("Navigate forward again: %v", err)
	}
	if s.AnsweredCount() != 2 {
		t.Errorf("answered = %d, want 2", s.AnsweredCount())
	}

	// Forward past the last task finishes.
	if err := s.Navigate("C", +1); err != nil {
		t.Fatalf("Navigate past end: %v", err)
	}
	if err := s.Navigate("wrong", +1); err != nil { // still at last task
		t.Fatalf("Navigate to trigger finish: %v", err)
	}
	if s.State() != StateCompleted {
		t.Fatalf("state = %s, want completed", s.State())
	}

	result, err := s.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if result.EarnedPoints != 3 {
		t.Errorf("earned = %d, want 3 (all three answered correctly)", result.EarnedPoints)
	}
}

func TestScoringMixedExam(t *testing.T) {
	// Two closed tasks (weight 1 each) and one open task worth 3 points:
	// correct, wrong, self-assessed 2/3 -> earned 3 of max 5 = 60%.
	s := New(examID(7), "November 2022")
	tasks := []Task{closedTask(1, "Paris"), closedTask(2, "Berlin"), openTask(3, 3)}
	if err := s.Start(tasks, 0); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := s.Answer(1, "  paris "); err != nil { // case and whitespace insensitive
		t.Fatalf("Answer: %v", err)
	}
	if err := s.Answer(2, "Munich"); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if err := s.Answer(3, "a long essay"); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	if err := s.Finish(""); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if s.State() != StateGrading {
		t.Fatalf("state = %s, want grading (open task present)", s.State())
	}

	task, err := s.CurrentGradingTask()
	if err != nil {
		t.Fatalf("CurrentGradingTask: %v", err)
	}
	if task.ID != 3 {
		t.Errorf("grading task = %d, want 3", task.ID)
	}

	// Out-of-range grades are rejected and do not advance.
	if err := s.SubmitGrade(4); err != ErrGradeOutOfRange {
		t.Errorf("expected ErrGradeOutOfRange for 4/3, got %v", err)
	}
	if err := s.SubmitGrade(-1); err != ErrGradeOutOfRange {
		t.Errorf("expected ErrGradeOutOfRange for -1, got %v", err)
	}
	if _, err := s.CurrentGradingTask(); err != nil {
		t.Fatalf("sub-phase must not advance on rejected grade: %v", err)
	}

	if err := s.SubmitGrade(2); err != nil {
		t.Fatalf("SubmitGrade: %v", err)
	}
	if s.State() != StateCompleted {
		t.Fatalf("state = %s, want completed", s.State())
	}

	result, err := s.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if result.EarnedPoints != 3 {
		t.Errorf("earned = %d, want 3", result.EarnedPoints)
	}
	if result.TotalPoints != 5 {
		t.Errorf("total = %d, want 5", result.TotalPoints)
	}
	if result.Percent != 60.0 {
		t.Errorf("percent = %v, want 60.0", result.Percent)
	}
	if result.WrongCount != 2 {
		// closed task 2 is wrong; open task at 2/3 is not full marks
		t.Errorf("wrong = %d, want 2", result.WrongCount)
	}
	if result.ExamName != "November 2022" {
		t.Errorf("exam name %q", result.ExamName)
	}
}

func TestClosedTaskWeightIsAlwaysOne(t *testing.T) {
	// A closed task configured with a high solo-practice point value still
	// contributes exactly 1 to the exam maximum.
	s := New(nil, "weights")
	heavy := closedTask(1, "A")
	heavy.Points = 5
	if err := s.Start([]Task{heavy}, 0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Finish("A"); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	result, err := s.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if result.EarnedPoints != 1 || result.TotalPoints != 1 {
		t.Errorf("earned/total = %d/%d, want 1/1", result.EarnedPoints, result.TotalPoints)
	}
	if result.Percent != 100.0 {
		t.Errorf("percent = %v, want 100", result.Percent)
	}
}

func TestGradingTasksPresentedInExamOrder(t *testing.T) {
	s := New(nil, "order")
	tasks := []Task{openTask(10, 2), closedTask(11, "A"), openTask(12, 4)}
	if err := s.Start(tasks, 0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Finish(""); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	first, err := s.CurrentGradingTask()
	if err != nil {
		t.Fatalf("CurrentGradingTask: %v", err)
	}
	if first.ID != 10 {
		t.Errorf("first grading task = %d, want 10", first.ID)
	}
	if err := s.SubmitGrade(2); err != nil {
		t.Fatalf("SubmitGrade: %v", err)
	}

	second, err := s.CurrentGradingTask()
	if err != nil {
		t.Fatalf("CurrentGradingTask: %v", err)
	}
	if second.ID != 12 {
		t.Errorf("second grading task = %d, want 12", second.ID)
	}
	if err := s.SubmitGrade(0); err != nil {
		t.Fatalf("SubmitGrade: %v", err)
	}

	result, err := s.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	// open 2/2 + closed 0/1 + open 0/4
	if result.EarnedPoints != 2 || result.TotalPoints != 7 {
		t.Errorf("earned/total = %d/%d, want 2/7", result.EarnedPoints, result.TotalPoints)
	}
}

func TestAbandonCancelsTimerAndPersistsNothing(t *testing.T) {
	s := New(examID(9), "abandoned")
	if err := s.Start([]Task{closedTask(1, "A")}, time.Hour); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := s.Abandon(); err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	if s.State() != StateAbandoned {
		t.Errorf("state = %s, want abandoned", s.State())
	}
	if _, err := s.Result(); err != ErrNotCompleted {
		t.Errorf("abandoned session must not produce a result, got %v", err)
	}
	if err := s.Abandon(); err != ErrTerminal {
		t.Errorf("second abandon: expected ErrTerminal, got %v", err)
	}
}

func TestTimerExpiryAutoFinishes(t *testing.T) {
	s := New(examID(2), "timed")
	if err := s.Start([]Task{closedTask(1, "A")}, 10*time.Millisecond); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Answer(1, "A"); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for s.State() != StateCompleted && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if s.State() != StateCompleted {
		t.Fatalf("timer did not finish the session, state = %s", s.State())
	}

	result, err := s.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if result.EarnedPoints != 1 {
		t.Errorf("earned = %d, want 1", result.EarnedPoints)
	}
}

func TestTimerExpiryEntersGradingForOpenTasks(t *testing.T) {
	s := New(nil, "timed-open")
	if err := s.Start([]Task{openTask(1, 3)}, 10*time.Millisecond); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for s.State() != StateGrading && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if s.State() != StateGrading {
		t.Fatalf("expiry with open tasks must enter grading, state = %s", s.State())
	}
}

func TestExpiryFiresFinishAtMostOnce(t *testing.T) {
	s := New(nil, "race")
	if err := s.Start([]Task{closedTask(1, "A")}, 5*time.Millisecond); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Race the timer with a manual finish; exactly one side wins and the
	// second expiry/finish is a guarded no-op.
	_ = s.Finish("A")
	time.Sleep(20 * time.Millisecond)
	s.expire()

	if s.State() != StateCompleted {
		t.Fatalf("state = %s, want completed", s.State())
	}
	if _, err := s.Result(); err != nil {
		t.Errorf("Result: %v", err)
	}
}

func TestZeroMaxScoresZeroPercent(t *testing.T) {
	s := New(nil, "zero")
	if err := s.Start([]Task{openTask(1, 0)}, 0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Finish(""); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := s.SubmitGrade(0); err != nil {
		t.Fatalf("SubmitGrade: %v", err)
	}

	result, err := s.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if result.Percent != 0 {
		t.Errorf("percent = %v, want 0 when max is 0", result.Percent)
	}
}

func TestRemainingSeconds(t *testing.T) {
	s := New(nil, "countdown")
	if s.RemainingSeconds() != -1 {
		t.Error("unstarted session should report -1")
	}
	if err := s.Start([]Task{closedTask(1, "A")}, time.Hour); err != nil {
		t.Fatalf("Start: %v", err)
	}
	remaining := s.RemainingSeconds()
	if remaining < 3595 || remaining > 3600 {
		t.Errorf("remaining = %d, want ~3600", remaining)
	}

	untimed := New(nil, "untimed")
	if err := untimed.Start([]Task{closedTask(1, "A")}, 0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if untimed.RemainingSeconds() != -1 {
		t.Error("untimed session should report -1")
	}
}
