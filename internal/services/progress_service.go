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

type progressService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
}

func NewProgressService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, eventPublisher events.EventPublisher) ProgressService {
	return &progressService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      validator,
		eventPublisher: eventPublisher,
	}
}

// ===== SUBMIT OPERATIONS =====

func (s *progressService) Submit(ctx context.Context, req *SubmitProgressRequest, userID string) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	exists, err := s.repo.Task().Exists(ctx, nil, req.TaskID)
	if err != nil {
		return fmt.Errorf("failed to check task: %w", err)
	}
	if !exists {
		return ErrTaskNotFound
	}

	record := s.buildRecord(req, userID, req.Mode)

	// Atomic upsert keyed on (user, task, mode); a resubmission
	// overwrites the stored outcome
	if err = s.repo.Progress().Upsert(ctx, nil, record); err != nil {
		return fmt.Errorf("failed to record progress: %w", err)
	}

	s.logger.Debug("Progress recorded", "user_id", userID, "task_id", req.TaskID, "mode", req.Mode, "correct", req.IsCorrect)

	return nil
}

func (s *progressService) SubmitBatch(ctx context.Context, req *BatchSubmitProgressRequest, userID string) error {
	s.logger.Info("Recording progress batch", "user_id", userID, "mode", req.Mode, "count", len(req.Outcomes))

	if err := s.validator.Validate(req); err != nil {
		return err
	}

	return s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		for i := range req.Outcomes {
			outcome := &req.Outcomes[i]

			exists, err := txRepo.Task().Exists(ctx, nil, outcome.TaskID)
			if err != nil {
				return fmt.Errorf("failed to check task %d: %w", outcome.TaskID, err)
			}
			if !exists {
				return fmt.Errorf("task %d: %w", outcome.TaskID, ErrTaskNotFound)
			}

			// The batch-level mode wins over any per-outcome mode
			record := s.buildRecord(outcome, userID, req.Mode)
			if err := txRepo.Progress().Upsert(ctx, nil, record); err != nil {
				return fmt.Errorf("failed to record progress for task %d: %w", outcome.TaskID, err)
			}
		}
		return nil
	})
}

// ===== RESET =====

func (s *progressService) Reset(ctx context.Context, req *ResetProgressRequest, userID string) error {
	s.logger.Info("Resetting progress", "user_id", userID, "mode", req.Mode)

	if err := s.validator.Validate(req); err != nil {
		return err
	}

	if err := s.repo.Progress().ResetForUser(ctx, nil, userID, req.Mode); err != nil {
		return fmt.Errorf("failed to reset progress: %w", err)
	}

	event := events.NewEvent(events.TypeProgressReset, events.ProgressResetEvent{
		UserID: userID,
		Mode:   string(req.Mode),
	})
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish progress reset event", "user_id", userID, "error", err)
	}

	s.logger.Info("Progress reset successfully", "user_id", userID, "mode", req.Mode)

	return nil
}

func (s *progressService) SolvedTaskIDs(ctx context.Context, userID string, mode models.PracticeMode) ([]uint, error) {
	if !mode.Valid() {
		return nil, NewValidationError(validator.ValidationErrors{{
			Field:   "mode",
			Message: "must be one of: standard, games",
			Value:   mode,
			Rule:    "practice_mode",
		}})
	}

	ids, err := s.repo.Progress().SolvedTaskIDs(ctx, nil, userID, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to list solved tasks: %w", err)
	}
	return ids, nil
}

// ===== HELPERS =====

func (s *progressService) buildRecord(req *SubmitProgressRequest, userID string, mode models.PracticeMode) *models.ProgressRecord {
	earned := 0
	if req.EarnedPoints != nil {
		earned = *req.EarnedPoints
	} else if req.IsCorrect {
		earned = 1
	}

	return &models.ProgressRecord{
		UserID:       userID,
		TaskID:       req.TaskID,
		Mode:         mode,
		IsCorrect:    req.IsCorrect,
		EarnedPoints: earned,
	}
}
