package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/studyforge/practice-service/internal/models"
	"github.com/studyforge/practice-service/internal/repositories"
	"github.com/studyforge/practice-service/internal/validator"
	"gorm.io/gorm"
)

// In-memory fakes backing the service tests. They honor the same
// contracts as the postgres implementations: not-found errors wrap
// gorm.ErrRecordNotFound, upserts are keyed on (user, task, mode).

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type mockRepository struct {
	tasks    *fakeTaskRepo
	exams    *fakeExamRepo
	progress *fakeProgressRepo
	results  *fakeResultRepo
	stats    *fakeStatsRepo
	users    *fakeUserRepo
}

func newMockRepository() *mockRepository {
	tasks := &fakeTaskRepo{byID: make(map[uint]*models.Task)}
	progress := &fakeProgressRepo{records: make(map[string]*models.ProgressRecord), tasks: tasks}
	return &mockRepository{
		tasks:    tasks,
		exams:    &fakeExamRepo{byID: make(map[uint]*models.Exam), tasks: tasks},
		progress: progress,
		results:  &fakeResultRepo{},
		stats:    &fakeStatsRepo{},
		users:    &fakeUserRepo{admins: make(map[string]bool)},
	}
}

func (m *mockRepository) Task() repositories.TaskRepository         { return m.tasks }
func (m *mockRepository) Exam() repositories.ExamRepository         { return m.exams }
func (m *mockRepository) Progress() repositories.ProgressRepository { return m.progress }
func (m *mockRepository) Result() repositories.ResultRepository     { return m.results }
func (m *mockRepository) Stats() repositories.StatsRepository       { return m.stats }
func (m *mockRepository) User() repositories.UserRepository         { return m.users }
func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}
func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }

func newTestValidator() *validator.Validator { return validator.New() }

// ===== TASK FAKE =====

type fakeTaskRepo struct {
	byID   map[uint]*models.Task
	nextID uint

	// randomNext is returned by GetUnseenRandom; nil means exhausted
	randomNext *models.Task
}

func (f *fakeTaskRepo) Create(_ context.Context, _ *gorm.DB, task *models.Task) error {
	f.nextID++
	task.ID = f.nextID
	f.byID[task.ID] = task
	return nil
}

func (f *fakeTaskRepo) GetByID(_ context.Context, _ *gorm.DB, id uint) (*models.Task, error) {
	task, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("task %d: %w", id, gorm.ErrRecordNotFound)
	}
	return task, nil
}

func (f *fakeTaskRepo) Update(_ context.Context, _ *gorm.DB, task *models.Task) error {
	if _, ok := f.byID[task.ID]; !ok {
		return fmt.Errorf("task %d: %w", task.ID, gorm.ErrRecordNotFound)
	}
	f.byID[task.ID] = task
	return nil
}

func (f *fakeTaskRepo) Delete(_ context.Context, _ *gorm.DB, id uint) error {
	if _, ok := f.byID[id]; !ok {
		return fmt.Errorf("task %d: %w", id, gorm.ErrRecordNotFound)
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeTaskRepo) CreateBatch(ctx context.Context, tx *gorm.DB, tasks []*models.Task) error {
	for _, task := range tasks {
		if err := f.Create(ctx, tx, task); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeTaskRepo) GetByIDs(_ context.Context, _ *gorm.DB, ids []uint) ([]*models.Task, error) {
	var out []*models.Task
	for _, id := range ids {
		if task, ok := f.byID[id]; ok {
			out = append(out, task)
		}
	}
	return out, nil
}

func (f *fakeTaskRepo) List(_ context.Context, _ *gorm.DB, _ repositories.TaskFilters) ([]*models.Task, int64, error) {
	ids := make([]uint, 0, len(f.byID))
	for id := range f.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]*models.Task, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.byID[id])
	}
	return out, int64(len(out)), nil
}

func (f *fakeTaskRepo) GetUnseenRandom(_ context.Context, _ *gorm.DB, _ repositories.RandomTaskFilters) (*models.Task, error) {
	return f.randomNext, nil
}

func (f *fakeTaskRepo) TagBySheet(_ context.Context, _ *gorm.DB, ids []uint, sheetTag string) error {
	for _, id := range ids {
		if task, ok := f.byID[id]; ok {
			tag := sheetTag
			task.SheetTag = &tag
		}
	}
	return nil
}

func (f *fakeTaskRepo) Exists(_ context.Context, _ *gorm.DB, id uint) (bool, error) {
	_, ok := f.byID[id]
	return ok, nil
}

func (f *fakeTaskRepo) Count(_ context.Context, _ *gorm.DB) (int64, error) {
	return int64(len(f.byID)), nil
}

// ===== EXAM FAKE =====

type fakeExamRepo struct {
	byID   map[uint]*models.Exam
	nextID uint
	tasks  *fakeTaskRepo
}

func (f *fakeExamRepo) Create(_ context.Context, _ *gorm.DB, exam *models.Exam) error {
	f.nextID++
	exam.ID = f.nextID
	f.byID[exam.ID] = exam
	return nil
}

func (f *fakeExamRepo) GetByID(_ context.Context, _ *gorm.DB, id uint) (*models.Exam, error) {
	exam, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("exam %d: %w", id, gorm.ErrRecordNotFound)
	}
	return exam, nil
}

func (f *fakeExamRepo) Rename(_ context.Context, _ *gorm.DB, id uint, name string) error {
	exam, ok := f.byID[id]
	if !ok {
		return fmt.Errorf("exam %d: %w", id, gorm.ErrRecordNotFound)
	}
	exam.Name = name
	return nil
}

func (f *fakeExamRepo) Delete(_ context.Context, _ *gorm.DB, id uint) error {
	if _, ok := f.byID[id]; !ok {
		return fmt.Errorf("exam %d: %w", id, gorm.ErrRecordNotFound)
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeExamRepo) List(_ context.Context, _ *gorm.DB) ([]*models.Exam, error) {
	out := make([]*models.Exam, 0, len(f.byID))
	for _, exam := range f.byID {
		out = append(out, exam)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeExamRepo) GetResolved(ctx context.Context, tx *gorm.DB, id uint) (*models.ResolvedExam, error) {
	exam, err := f.GetByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	ids, err := exam.OrderedTaskIDs()
	if err != nil {
		return nil, err
	}
	resolved := &models.ResolvedExam{ID: exam.ID, Name: exam.Name, CreatedAt: exam.CreatedAt}
	for _, taskID := range ids {
		if task, ok := f.tasks.byID[taskID]; ok {
			resolved.Tasks = append(resolved.Tasks, *task)
		}
	}
	return resolved, nil
}

func (f *fakeExamRepo) ExistsByName(_ context.Context, _ *gorm.DB, name string, excludeID *uint) (bool, error) {
	for id, exam := range f.byID {
		if excludeID != nil && id == *excludeID {
			continue
		}
		if strings.EqualFold(exam.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

// ===== PROGRESS FAKE =====

type fakeProgressRepo struct {
	records map[string]*models.ProgressRecord
	tasks   *fakeTaskRepo
}

func progressKey(userID string, taskID uint, mode models.PracticeMode) string {
	return fmt.Sprintf("%s|%d|%s", userID, taskID, mode)
}

func (f *fakeProgressRepo) Upsert(_ context.Context, _ *gorm.DB, record *models.ProgressRecord) error {
	copied := *record
	f.records[progressKey(record.UserID, record.TaskID, record.Mode)] = &copied
	return nil
}

func (f *fakeProgressRepo) ResetForUser(_ context.Context, _ *gorm.DB, userID string, mode models.PracticeMode) error {
	for key, record := range f.records {
		if record.UserID == userID && record.Mode == mode {
			delete(f.records, key)
		}
	}
	return nil
}

func (f *fakeProgressRepo) DeleteByTask(_ context.Context, _ *gorm.DB, taskID uint) error {
	for key, record := range f.records {
		if record.TaskID == taskID {
			delete(f.records, key)
		}
	}
	return nil
}

func (f *fakeProgressRepo) CountByOutcome(_ context.Context, _ *gorm.DB, userID string, mode models.PracticeMode) (*models.OutcomeCounts, error) {
	counts := &models.OutcomeCounts{}
	for _, record := range f.records {
		if record.UserID != userID || record.Mode != mode {
			continue
		}
		counts.Total++
		if record.IsCorrect {
			counts.Correct++
		} else {
			counts.Wrong++
		}
	}
	return counts, nil
}

func (f *fakeProgressRepo) CountByOutcomeAndKind(_ context.Context, _ *gorm.DB, userID string, mode models.PracticeMode) ([]models.KindOutcomeCounts, error) {
	byKind := make(map[models.TaskKind]*models.KindOutcomeCounts)
	for _, record := range f.records {
		if record.UserID != userID || record.Mode != mode {
			continue
		}
		task, ok := f.tasks.byID[record.TaskID]
		if !ok {
			continue
		}
		counts, ok := byKind[task.Kind]
		if !ok {
			counts = &models.KindOutcomeCounts{Kind: task.Kind}
			byKind[task.Kind] = counts
		}
		counts.Total++
		if record.IsCorrect {
			counts.Correct++
		}
	}
	out := make([]models.KindOutcomeCounts, 0, len(byKind))
	for _, counts := range byKind {
		out = append(out, *counts)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out, nil
}

func (f *fakeProgressRepo) SolvedTaskIDs(_ context.Context, _ *gorm.DB, userID string, mode models.PracticeMode) ([]uint, error) {
	var ids []uint
	for _, record := range f.records {
		if record.UserID == userID && record.Mode == mode {
			ids = append(ids, record.TaskID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *fakeProgressRepo) GetByUserTaskMode(_ context.Context, _ *gorm.DB, userID string, taskID uint, mode models.PracticeMode) (*models.ProgressRecord, error) {
	record, ok := f.records[progressKey(userID, taskID, mode)]
	if !ok {
		return nil, nil
	}
	return record, nil
}

// ===== RESULT FAKE =====

type fakeResultRepo struct {
	records []*models.ResultRecord
	nextID  uint
}

func (f *fakeResultRepo) Append(_ context.Context, _ *gorm.DB, record *models.ResultRecord) error {
	f.nextID++
	record.ID = f.nextID
	copied := *record
	f.records = append(f.records, &copied)
	return nil
}

func (f *fakeResultRepo) ListByUser(_ context.Context, _ *gorm.DB, userID string, _ repositories.ResultFilters) ([]*models.ResultRecord, int64, error) {
	var out []*models.ResultRecord
	for _, record := range f.records {
		if record.UserID == userID {
			out = append(out, record)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeResultRepo) DeleteByExam(_ context.Context, _ *gorm.DB, examID uint) error {
	kept := f.records[:0]
	for _, record := range f.records {
		if record.ExamID == nil || *record.ExamID != examID {
			kept = append(kept, record)
		}
	}
	f.records = kept
	return nil
}

// ===== STATS FAKE =====

type fakeStatsRepo struct {
	examStats   models.ExamStats
	leaderboard []models.LeaderboardEntry

	lastKind  repositories.LeaderboardKind
	lastLimit int
}

func (f *fakeStatsRepo) GetExamStats(_ context.Context, _ *gorm.DB, _ string) (*models.ExamStats, error) {
	stats := f.examStats
	return &stats, nil
}

func (f *fakeStatsRepo) GetLeaderboard(_ context.Context, _ *gorm.DB, kind repositories.LeaderboardKind, limit int) ([]models.LeaderboardEntry, error) {
	f.lastKind = kind
	f.lastLimit = limit
	return f.leaderboard, nil
}

func (f *fakeStatsRepo) GetTotalTasks(_ context.Context, _ *gorm.DB) (int64, error)   { return 0, nil }
func (f *fakeStatsRepo) GetTotalExams(_ context.Context, _ *gorm.DB) (int64, error)   { return 0, nil }
func (f *fakeStatsRepo) GetTotalResults(_ context.Context, _ *gorm.DB) (int64, error) { return 0, nil }
func (f *fakeStatsRepo) GetActiveUsers(_ context.Context, _ *gorm.DB, _ int) (int64, error) {
	return 0, nil
}

// ===== USER FAKE =====

type fakeUserRepo struct {
	admins map[string]bool
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	return &models.User{ID: id}, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, _ string) (*models.User, error) {
	return nil, fmt.Errorf("user: %w", gorm.ErrRecordNotFound)
}

func (f *fakeUserRepo) GetByIDs(_ context.Context, ids []string) ([]*models.User, error) {
	out := make([]*models.User, len(ids))
	for i, id := range ids {
		out[i] = &models.User{ID: id}
	}
	return out, nil
}

func (f *fakeUserRepo) List(_ context.Context, _ repositories.UserFilters) ([]*models.User, int64, error) {
	return nil, 0, nil
}

func (f *fakeUserRepo) ExistsByID(_ context.Context, id string) (bool, error) { return true, nil }

func (f *fakeUserRepo) HasRole(_ context.Context, id string, role models.UserRole) (bool, error) {
	if role == models.RoleAdmin {
		return f.admins[id], nil
	}
	return true, nil
}
