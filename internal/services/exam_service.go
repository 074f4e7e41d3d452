package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/studyforge/practice-service/internal/events"
	"github.com/studyforge/practice-service/internal/models"
	"github.com/studyforge/practice-service/internal/repositories"
	"github.com/studyforge/practice-service/internal/validator"
	"gorm.io/gorm"
)

type examService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
}

func NewExamService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, eventPublisher events.EventPublisher) ExamService {
	return &examService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      validator,
		eventPublisher: eventPublisher,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *examService) Create(ctx context.Context, req *CreateExamRequest, creatorID string) (*ExamResponse, error) {
	s.logger.Info("Creating exam", "creator_id", creatorID, "name", req.Name, "task_count", len(req.TaskIDs))

	// Validate request with business rules
	if errors := s.validator.GetBusinessValidator().ValidateExamCreate(req); len(errors) > 0 {
		return nil, NewValidationError(errors)
	}

	canManage, err := s.canManageExams(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("permission check failed: %w", err)
	}
	if !canManage {
		return nil, NewPermissionError(creatorID, 0, "exam", "create", "insufficient role permissions")
	}

	exam := &models.Exam{
		Name:      req.Name,
		CreatedBy: creatorID,
	}
	if err := exam.SetOrderedTaskIDs(req.TaskIDs); err != nil {
		return nil, fmt.Errorf("failed to encode task order: %w", err)
	}

	// Exam row and sheet tagging commit or roll back together
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		taken, err := txRepo.Exam().ExistsByName(ctx, nil, req.Name, nil)
		if err != nil {
			return fmt.Errorf("failed to check exam name: %w", err)
		}
		if taken {
			return ErrExamNameTaken
		}

		tasks, err := txRepo.Task().GetByIDs(ctx, nil, req.TaskIDs)
		if err != nil {
			return fmt.Errorf("failed to load referenced tasks: %w", err)
		}
		if len(tasks) != len(req.TaskIDs) {
			return fmt.Errorf("exam references missing tasks: %w", ErrTaskNotFound)
		}

		if err := txRepo.Exam().Create(ctx, nil, exam); err != nil {
			return fmt.Errorf("failed to create exam: %w", err)
		}

		if req.SheetTag != nil {
			if err := txRepo.Task().TagBySheet(ctx, nil, req.TaskIDs, *req.SheetTag); err != nil {
				return fmt.Errorf("failed to tag tasks: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Exam created successfully", "exam_id", exam.ID)

	return s.buildExamResponse(exam, true), nil
}

func (s *examService) GetByID(ctx context.Context, id uint, userID string) (*ExamResponse, error) {
	exam, err := s.repo.Exam().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	canManage, err := s.canManageExams(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("permission check failed: %w", err)
	}

	return s.buildExamResponse(exam, canManage), nil
}

func (s *examService) GetResolved(ctx context.Context, id uint, userID string) (*models.ResolvedExam, error) {
	resolved, err := s.repo.Exam().GetResolved(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to resolve exam: %w", err)
	}
	return resolved, nil
}

func (s *examService) Rename(ctx context.Context, id uint, req *RenameExamRequest, userID string) (*ExamResponse, error) {
	s.logger.Info("Renaming exam", "exam_id", id, "user_id", userID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	canManage, err := s.canManageExams(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("permission check failed: %w", err)
	}
	if !canManage {
		return nil, NewPermissionError(userID, id, "exam", "rename", "insufficient role permissions")
	}

	taken, err := s.repo.Exam().ExistsByName(ctx, nil, req.Name, &id)
	if err != nil {
		return nil, fmt.Errorf("failed to check exam name: %w", err)
	}
	if taken {
		return nil, ErrExamNameTaken
	}

	if err = s.repo.Exam().Rename(ctx, nil, id, req.Name); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to rename exam: %w", err)
	}

	exam, err := s.repo.Exam().GetByID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	s.logger.Info("Exam renamed successfully", "exam_id", id, "name", req.Name)

	return s.buildExamResponse(exam, true), nil
}

func (s *examService) Delete(ctx context.Context, id uint, userID string) error {
	s.logger.Info("Deleting exam", "exam_id", id, "user_id", userID)

	canManage, err := s.canManageExams(ctx, userID)
	if err != nil {
		return fmt.Errorf("permission check failed: %w", err)
	}
	if !canManage {
		return NewPermissionError(userID, id, "exam", "delete", "insufficient role permissions")
	}

	// Cascades result removal inside the repository transaction
	if err = s.repo.Exam().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrExamNotFound
		}
		return fmt.Errorf("failed to delete exam: %w", err)
	}

	event := events.NewEvent(events.TypeExamDeleted, events.ExamDeletedEvent{
		ExamID:    id,
		DeletedBy: userID,
	})
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		// The delete already committed; losing the event is not fatal
		s.logger.Error("Failed to publish exam deleted event", "exam_id", id, "error", err)
	}

	s.logger.Info("Exam deleted successfully", "exam_id", id)

	return nil
}

func (s *examService) List(ctx context.Context, userID string) (*ExamListResponse, error) {
	exams, err := s.repo.Exam().List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list exams: %w", err)
	}

	canManage, err := s.canManageExams(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("permission check failed: %w", err)
	}

	responses := make([]*ExamResponse, len(exams))
	for i, exam := range exams {
		responses[i] = s.buildExamResponse(exam, canManage)
	}

	return &ExamListResponse{
		Exams: responses,
		Total: int64(len(responses)),
	}, nil
}

// ===== HELPERS =====

func (s *examService) canManageExams(ctx context.Context, userID string) (bool, error) {
	return s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
}

func (s *examService) buildExamResponse(exam *models.Exam, canManage bool) *ExamResponse {
	ids, err := exam.OrderedTaskIDs()
	if err != nil {
		s.logger.Warn("Failed to decode exam task order", "exam_id", exam.ID, "error", err)
	}
	return &ExamResponse{
		Exam:      exam,
		TaskCount: len(ids),
		CanEdit:   canManage,
		CanDelete: canManage,
	}
}
