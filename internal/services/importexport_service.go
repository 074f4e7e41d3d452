package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/studyforge/practice-service/internal/events"
	"github.com/studyforge/practice-service/internal/models"
	"github.com/studyforge/practice-service/internal/repositories"
	"github.com/studyforge/practice-service/internal/validator"
	"github.com/xuri/excelize/v2"
)

const (
	importSheetName  = "Tasks"
	resultsSheetName = "Results"

	// Column layout for task import/export:
	// kind | prompt_ref | correct_answer | options (| separated) | points | sheet_tag
	colKind    = 0
	colPrompt  = 1
	colAnswer  = 2
	colOptions = 3
	colPoints  = 4
	colSheet   = 5
)

type importExportService struct {
	repo           repositories.Repository
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
}

func NewImportExportService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, eventPublisher events.EventPublisher) ImportExportService {
	return &importExportService{
		repo:           repo,
		logger:         logger,
		validator:      validator,
		eventPublisher: eventPublisher,
	}
}

// ===== IMPORT =====

func (s *importExportService) ImportTasks(ctx context.Context, r io.Reader, creatorID string) (*ImportResult, error) {
	s.logger.Info("Importing tasks from spreadsheet", "creator_id", creatorID)

	canManage, err := s.repo.User().HasRole(ctx, creatorID, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("permission check failed: %w", err)
	}
	if !canManage {
		return nil, NewPermissionError(creatorID, 0, "task", "import", "insufficient role permissions")
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := importSheetName
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) <= 1 {
		return nil, ErrEmptyBatch
	}

	result := &ImportResult{}
	var tasks []*models.Task

	// Row 0 is the header
	for i, row := range rows[1:] {
		rowNum := i + 2

		req, err := s.parseTaskRow(row)
		if err != nil {
			result.Skipped++
			result.RowErrors = append(result.RowErrors, ImportRowError{Row: rowNum, Message: err.Error()})
			continue
		}

		if errs := s.validator.GetBusinessValidator().ValidateTaskCreate(req); len(errs) > 0 {
			result.Skipped++
			result.RowErrors = append(result.RowErrors, ImportRowError{Row: rowNum, Message: errs.Error()})
			continue
		}

		options, err := req.Options.ToJSON()
		if err != nil {
			result.Skipped++
			result.RowErrors = append(result.RowErrors, ImportRowError{Row: rowNum, Message: err.Error()})
			continue
		}

		points := req.Points
		if points <= 0 {
			points = 1
		}

		tasks = append(tasks, &models.Task{
			Kind:          req.Kind,
			PromptRef:     req.PromptRef,
			CorrectAnswer: req.CorrectAnswer,
			Options:       options,
			Points:        points,
			SheetTag:      req.SheetTag,
			CreatedBy:     creatorID,
		})
	}

	if len(tasks) > 0 {
		if err := s.repo.Task().CreateBatch(ctx, nil, tasks); err != nil {
			return nil, fmt.Errorf("failed to insert imported tasks: %w", err)
		}
		result.Created = len(tasks)
	}

	event := events.NewEvent(events.TypeTasksImported, events.TasksImportedEvent{
		CreatorID: creatorID,
		Created:   result.Created,
		Skipped:   result.Skipped,
	})
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish import event", "creator_id", creatorID, "error", err)
	}

	s.logger.Info("Task import finished", "created", result.Created, "skipped", result.Skipped)

	return result, nil
}

func (s *importExportService) parseTaskRow(row []string) (*CreateTaskRequest, error) {
	cell := func(col int) string {
		if col < len(row) {
			return strings.TrimSpace(row[col])
		}
		return ""
	}

	kind := models.TaskKind(strings.ToLower(cell(colKind)))
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown task kind %q", cell(colKind))
	}

	req := &CreateTaskRequest{
		Kind:          kind,
		PromptRef:     cell(colPrompt),
		CorrectAnswer: cell(colAnswer),
	}

	if raw := cell(colOptions); raw != "" {
		for _, opt := range strings.Split(raw, "|") {
			if opt = strings.TrimSpace(opt); opt != "" {
				req.Options = append(req.Options, opt)
			}
		}
	}

	if raw := cell(colPoints); raw != "" {
		points, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid points %q", raw)
		}
		req.Points = points
	}

	if tag := cell(colSheet); tag != "" {
		req.SheetTag = &tag
	}

	return req, nil
}

// ===== EXPORT =====

func (s *importExportService) ExportTasks(ctx context.Context, w io.Writer, filters repositories.TaskFilters, userID string) error {
	s.logger.Info("Exporting tasks", "user_id", userID)

	canManage, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("permission check failed: %w", err)
	}
	if !canManage {
		return NewPermissionError(userID, 0, "task", "export", "insufficient role permissions")
	}

	// Export ignores pagination; pull everything in one pass
	filters.Limit = 0
	filters.Offset = 0

	tasks, _, err := s.repo.Task().List(ctx, nil, filters)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName(f.GetSheetName(0), importSheetName)

	header := []interface{}{"kind", "prompt_ref", "correct_answer", "options", "points", "sheet_tag"}
	if err := f.SetSheetRow(importSheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, task := range tasks {
		options, err := task.DecodedOptions()
		if err != nil {
			s.logger.Warn("Skipping task with bad options during export", "task_id", task.ID, "error", err)
			options = nil
		}

		sheetTag := ""
		if task.SheetTag != nil {
			sheetTag = *task.SheetTag
		}

		row := []interface{}{
			string(task.Kind),
			task.PromptRef,
			task.CorrectAnswer,
			strings.Join(options, "|"),
			task.Points,
			sheetTag,
		}
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to compute cell ref: %w", err)
		}
		if err := f.SetSheetRow(importSheetName, cellRef, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.Info("Task export finished", "count", len(tasks))

	return nil
}

func (s *importExportService) ExportResults(ctx context.Context, w io.Writer, userID string) error {
	s.logger.Info("Exporting results", "user_id", userID)

	results, _, err := s.repo.Result().ListByUser(ctx, nil, userID, repositories.ResultFilters{})
	if err != nil {
		return fmt.Errorf("failed to list results: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName(f.GetSheetName(0), resultsSheetName)

	header := []interface{}{"exam_name", "earned_points", "total_points", "wrong_count", "percent", "taken_at"}
	if err := f.SetSheetRow(resultsSheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, result := range results {
		row := []interface{}{
			result.ExamName,
			result.EarnedPoints,
			result.TotalPoints,
			result.WrongCount,
			result.Percent,
			result.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to compute cell ref: %w", err)
		}
		if err := f.SetSheetRow(resultsSheetName, cellRef, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.Info("Result export finished", "count", len(results))

	return nil
}
