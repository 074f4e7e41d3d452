package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/studyforge/practice-service/internal/models"
	"github.com/studyforge/practice-service/internal/repositories"
	"github.com/studyforge/practice-service/internal/validator"
	"gorm.io/gorm"
)

type taskService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewTaskService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) TaskService {
	return &taskService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *taskService) Create(ctx context.Context, req *CreateTaskRequest, creatorID string) (*TaskResponse, error) {
	s.logger.Info("Creating task", "creator_id", creatorID, "kind", req.Kind)

	// Validate request with business rules
	if errors := s.validator.GetBusinessValidator().ValidateTaskCreate(req); len(errors) > 0 {
		return nil, NewValidationError(errors)
	}

	// Check user permissions
	canManage, err := s.canManageTasks(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("permission check failed: %w", err)
	}
	if !canManage {
		return nil, NewPermissionError(creatorID, 0, "task", "create", "insufficient role permissions")
	}

	task, err := s.buildTask(req, creatorID)
	if err != nil {
		return nil, err
	}

	if err = s.repo.Task().Create(ctx, nil, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Info("Task created successfully", "task_id", task.ID)

	return s.buildTaskResponse(task, true), nil
}

func (s *taskService) GetByID(ctx context.Context, id uint, userID string) (*TaskResponse, error) {
	task, err := s.repo.Task().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	canManage, err := s.canManageTasks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("permission check failed: %w", err)
	}

	return s.buildTaskResponse(task, canManage), nil
}

func (s *taskService) Update(ctx context.Context, id uint, req *UpdateTaskRequest, userID string) (*TaskResponse, error) {
	s.logger.Info("Updating task", "task_id", id, "user_id", userID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	canManage, err := s.canManageTasks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("permission check failed: %w", err)
	}
	if !canManage {
		return nil, NewPermissionError(userID, id, "task", "update", "insufficient role permissions")
	}

	task, err := s.repo.Task().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	if err := s.applyTaskUpdates(task, req); err != nil {
		return nil, err
	}

	if err = s.repo.Task().Update(ctx, nil, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.logger.Info("Task updated successfully", "task_id", task.ID)

	return s.buildTaskResponse(task, true), nil
}

func (s *taskService) Delete(ctx context.Context, id uint, userID string) error {
	s.logger.Info("Deleting task", "task_id", id, "user_id", userID)

	canManage, err := s.canManageTasks(ctx, userID)
	if err != nil {
		return fmt.Errorf("permission check failed: %w", err)
	}
	if !canManage {
		return NewPermissionError(userID, id, "task", "delete", "insufficient role permissions")
	}

	// Cascades progress record removal inside the repository transaction
	if err = s.repo.Task().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.logger.Info("Task deleted successfully", "task_id", id)

	return nil
}

// ===== BULK OPERATIONS =====

func (s *taskService) CreateBatch(ctx context.Context, req *BulkCreateTasksRequest, creatorID string) ([]*TaskResponse, error) {
	s.logger.Info("Creating task batch", "creator_id", creatorID, "count", len(req.Tasks))

	if len(req.Tasks) == 0 {
		return nil, ErrEmptyBatch
	}

	canManage, err := s.canManageTasks(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("permission check failed: %w", err)
	}
	if !canManage {
		return nil, NewPermissionError(creatorID, 0, "task", "create", "insufficient role permissions")
	}

	tasks := make([]*models.Task, 0, len(req.Tasks))
	for i := range req.Tasks {
		if errors := s.validator.GetBusinessValidator().ValidateTaskCreate(&req.Tasks[i]); len(errors) > 0 {
			return nil, fmt.Errorf("task %d: %w", i, NewValidationError(errors))
		}
		task, err := s.buildTask(&req.Tasks[i], creatorID)
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", i, err)
		}
		tasks = append(tasks, task)
	}

	if err = s.repo.Task().CreateBatch(ctx, nil, tasks); err != nil {
		return nil, fmt.Errorf("failed to create task batch: %w", err)
	}

	s.logger.Info("Task batch created successfully", "count", len(tasks))

	responses := make([]*TaskResponse, len(tasks))
	for i, task := range tasks {
		responses[i] = s.buildTaskResponse(task, true)
	}
	return responses, nil
}

// ===== LIST AND SEARCH OPERATIONS =====

func (s *taskService) List(ctx context.Context, filters repositories.TaskFilters, userID string) (*TaskListResponse, error) {
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 20
	}

	tasks, total, err := s.repo.Task().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	canManage, err := s.canManageTasks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("permission check failed: %w", err)
	}

	responses := make([]*TaskResponse, len(tasks))
	for i, task := range tasks {
		responses[i] = s.buildTaskResponse(task, canManage)
	}

	return &TaskListResponse{
		Tasks: responses,
		Total: total,
		Page:  (filters.Offset / filters.Limit) + 1,
		Size:  filters.Limit,
	}, nil
}

func (s *taskService) GetRandom(ctx context.Context, req *models.RandomTaskRequest, userID string) (*models.RandomTaskResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	task, err := s.repo.Task().GetUnseenRandom(ctx, nil, repositories.RandomTaskFilters{
		UserID:        userID,
		Mode:          req.Mode,
		Kind:          req.Kind,
		OnlyIncorrect: req.OnlyIncorrect,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to pick random task: %w", err)
	}

	// Exhausted candidate pool is a normal outcome, not an error
	if task == nil {
		return &models.RandomTaskResponse{Done: true}, nil
	}

	return &models.RandomTaskResponse{Task: task}, nil
}

// ===== HELPERS =====

func (s *taskService) canManageTasks(ctx context.Context, userID string) (bool, error) {
	return s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
}

func (s *taskService) buildTask(req *CreateTaskRequest, creatorID string) (*models.Task, error) {
	points := req.Points
	if points <= 0 {
		points = 1
	}

	options, err := req.Options.ToJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal options: %w", err)
	}

	return &models.Task{
		Kind:          req.Kind,
		PromptRef:     req.PromptRef,
		CorrectAnswer: req.CorrectAnswer,
		Options:       options,
		Points:        points,
		SheetTag:      req.SheetTag,
		CreatedBy:     creatorID,
	}, nil
}

func (s *taskService) applyTaskUpdates(task *models.Task, req *UpdateTaskRequest) error {
	if req.CorrectAnswer != nil {
		task.CorrectAnswer = *req.CorrectAnswer
	}
	if req.Points != nil {
		task.Points = *req.Points
	}
	if req.SheetTag != nil {
		task.SheetTag = req.SheetTag
	}
	if req.Options != nil {
		options, err := req.Options.ToJSON()
		if err != nil {
			return fmt.Errorf("failed to marshal options: %w", err)
		}
		task.Options = options
	}
	return nil
}

func (s *taskService) buildTaskResponse(task *models.Task, canManage bool) *TaskResponse {
	return &TaskResponse{
		Task:      task,
		CanEdit:   canManage,
		CanDelete: canManage,
	}
}
