// Package session implements the client-resident exam attempt state
// machine: task traversal, answer buffering, the self-grading sub-phase
// for open tasks, and final scoring. Nothing here touches storage; a
// completed session emits one Outcome that the caller persists as a
// batch of progress upserts plus one result record.
package session

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/studyforge/practice-service/internal/models"
)

type State string

const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StateGrading    State = "grading"
	StateCompleted  State = "completed"
	StateAbandoned  State = "abandoned"
)

var (
	ErrNoTasks         = errors.New("exam has no tasks")
	ErrAlreadyStarted  = errors.New("session already started")
	ErrNotInProgress   = errors.New("session is not in progress")
	ErrNotGrading      = errors.New("session is not in the grading phase")
	ErrNotCompleted    = errors.New("session is not completed")
	ErrUnknownTask     = errors.New("task is not part of this exam")
	ErrGradeOutOfRange = errors.New("self-assessed points are out of range")
	ErrTerminal        = errors.New("session has ended")
)

// Task is the session's read-only view of one exam task.
type Task struct {
	ID            uint
	Kind          models.TaskKind
	PromptRef     string
	CorrectAnswer string
	Options       []string
	Points        int
}

// TaskOutcome is the per-task result of a completed attempt.
type TaskOutcome struct {
	TaskID       uint
	Kind         models.TaskKind
	IsCorrect    bool
	EarnedPoints int
	MaxPoints    int
}

// Outcome is the final result of a completed attempt.
type Outcome struct {
	ExamID       *uint
	ExamName     string
	EarnedPoints int
	TotalPoints  int
	WrongCount   int
	Percent      float64
	PerTask      []TaskOutcome
}

// Session drives one timed exam attempt. All methods are safe for
// concurrent use: the expiry timer fires on its own goroutine and races
// user input.
type Session struct {
	mu sync.Mutex

	state    State
	examID   *uint
	examName string

	tasks   []Task
	current int
	answers map[uint]string

	// Grading sub-phase: open-kind task indexes in exam order.
	grades     map[uint]int
	gradeQueue []int
	gradePos   int

	deadline time.Time
	timer    *time.Timer

	// afterFunc exists so tests can control the clock.
	afterFunc func(time.Duration, func()) *time.Timer

	outcome *Outcome
}

// New creates a session for the given exam in the NotStarted state.
// examID may be nil for ad-hoc task sets.
func New(examID *uint, examName string) *Session {
	return &Session{
		state:     StateNotStarted,
		examID:    examID,
		examName:  examName,
		answers:   make(map[uint]string),
		grades:    make(map[uint]int),
		afterFunc: time.AfterFunc,
	}
}

// Start loads the ordered task list and begins the attempt. An empty
// task list is rejected and the session stays in NotStarted. A positive
// duration starts a countdown whose expiry triggers Finish exactly once.
func (s *Session) Start(tasks []Task, duration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateNotStarted {
		return ErrAlreadyStarted
	}
	if len(tasks) == 0 {
		return ErrNoTasks
	}

	s.tasks = tasks
	s.current = 0
	s.state = StateInProgress

	if duration > 0 {
		s.deadline = time.Now().Add(duration)
		s.timer = s.afterFunc(duration, s.expire)
	}

	return nil
}

// Answer buffers a raw answer for a task. A blank or whitespace-only
// value is not recorded, so an earlier answer for the task survives.
// Answers are never validated against correctness here.
func (s *Session) Answer(taskID uint, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return ErrNotInProgress
	}
	if !s.hasTask(taskID) {
		return ErrUnknownTask
	}

	if strings.TrimSpace(value) == "" {
		return nil
	}
	s.answers[taskID] = value
	return nil
}

// Navigate saves the visible task's pending input, then moves the cursor
// by delta. Moving forward past the last task finishes the attempt;
// moving before index 0 is a no-op.
func (s *Session) Navigate(input string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return ErrNotInProgress
	}

	s.recordLocked(input)

	switch {
	case delta > 0:
		if s.current >= len(s.tasks)-1 {
			s.finishLocked()
			return nil
		}
		s.current++
	case delta < 0:
		if s.current > 0 {
			s.current--
		}
	}

	return nil
}

// Finish saves the pending input and ends the answering phase: if the
// exam contains open-kind tasks the session enters the self-grading
// sub-phase, otherwise the final result is computed immediately.
func (s *Session) Finish(input string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return ErrNotInProgress
	}

	s.recordLocked(input)
	s.finishLocked()
	return nil
}

// CurrentGradingTask returns the open task currently awaiting a
// self-assessed grade. Tasks are presented once each, in exam order.
func (s *Session) CurrentGradingTask() (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateGrading {
		return nil, ErrNotGrading
	}

	task := s.tasks[s.gradeQueue[s.gradePos]]
	return &task, nil
}

// SubmitGrade records the self-assessed points for the current open task
// and advances the sub-phase. Points outside [0, task.points] are
// rejected and the sub-phase does not advance, so the caller can retry.
// Grading the last open task computes the final result.
func (s *Session) SubmitGrade(points int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateGrading {
		return ErrNotGrading
	}

	task := s.tasks[s.gradeQueue[s.gradePos]]
	if points < 0 || points > task.Points {
		return ErrGradeOutOfRange
	}

	s.grades[task.ID] = points
	s.gradePos++

	if s.gradePos >= len(s.gradeQueue) {
		s.computeLocked()
	}

	return nil
}

// Abandon discards the session without persisting anything and cancels
// any running timer. Terminal.
func (s *Session) Abandon() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress && s.state != StateGrading {
		return ErrTerminal
	}

	s.stopTimerLocked()
	s.state = StateAbandoned
	return nil
}

// Result returns the final outcome of a completed attempt.
func (s *Session) Result() (*Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCompleted {
		return nil, ErrNotCompleted
	}
	return s.outcome, nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentTask returns the task at the cursor during the answering phase.
func (s *Session) CurrentTask() (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return nil, ErrNotInProgress
	}
	task := s.tasks[s.current]
	return &task, nil
}

// CurrentIndex returns the cursor position.
func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// RemainingSeconds reports the countdown, or -1 for untimed sessions.
func (s *Session) RemainingSeconds() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer == nil || s.state != StateInProgress {
		return -1
	}
	remaining := time.Until(s.deadline)
	if remaining < 0 {
		return 0
	}
	return int(remaining.Round(time.Second) / time.Second)
}

// AnsweredCount reports how many tasks have a buffered answer.
func (s *Session) AnsweredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}

// ===== INTERNAL =====

// expire is the timer callback. The state guard makes the auto-finish
// fire at most once even if the timer races a manual Finish or Abandon.
func (s *Session) expire() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return
	}
	s.finishLocked()
}

func (s *Session) recordLocked(input string) {
	if strings.TrimSpace(input) == "" {
		return
	}
	s.answers[s.tasks[s.current].ID] = input
}

func (s *Session) finishLocked() {
	s.stopTimerLocked()

	s.gradeQueue = s.gradeQueue[:0]
	for i, task := range s.tasks {
		if task.Kind == models.TaskKindOpen {
			s.gradeQueue = append(s.gradeQueue, i)
		}
	}

	if len(s.gradeQueue) > 0 {
		s.gradePos = 0
		s.state = StateGrading
		return
	}

	s.computeLocked()
}

// computeLocked scores the attempt. Closed tasks weigh exactly 1 point
// regardless of their configured points value (that value applies to
// solo practice, not exam scoring); the match against the reference
// answer is case-insensitive and ignores surrounding whitespace. Open
// tasks earn the self-assessed value out of task.Points.
func (s *Session) computeLocked() {
	outcome := &Outcome{
		ExamID:   s.examID,
		ExamName: s.examName,
		PerTask:  make([]TaskOutcome, 0, len(s.tasks)),
	}

	for _, task := range s.tasks {
		var result TaskOutcome
		result.TaskID = task.ID
		result.Kind = task.Kind

		switch task.Kind {
		case models.TaskKindOpen:
			result.MaxPoints = task.Points
			result.EarnedPoints = s.grades[task.ID]
			result.IsCorrect = result.EarnedPoints == task.Points
		default:
			result.MaxPoints = 1
			if answersMatch(s.answers[task.ID], task.CorrectAnswer) {
				result.EarnedPoints = 1
				result.IsCorrect = true
			}
		}

		outcome.EarnedPoints += result.EarnedPoints
		outcome.TotalPoints += result.MaxPoints
		if !result.IsCorrect {
			outcome.WrongCount++
		}
		outcome.PerTask = append(outcome.PerTask, result)
	}

	if outcome.TotalPoints > 0 {
		outcome.Percent = float64(outcome.EarnedPoints) / float64(outcome.TotalPoints) * 100
	}

	s.outcome = outcome
	s.state = StateCompleted
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}
}

func (s *Session) hasTask(taskID uint) bool {
	for _, task := range s.tasks {
		if task.ID == taskID {
			return true
		}
	}
	return false
}

func answersMatch(given, correct string) bool {
	return strings.EqualFold(strings.TrimSpace(given), strings.TrimSpace(correct))
}
