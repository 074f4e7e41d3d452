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

type resultService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
}

func NewResultService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, eventPublisher events.EventPublisher) ResultService {
	return &resultService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      validator,
		eventPublisher: eventPublisher,
	}
}

func (s *resultService) Submit(ctx context.Context, req *SubmitResultRequest, userID string) (*models.ResultRecord, error) {
	s.logger.Info("Recording exam result", "user_id", userID, "exam_name", req.ExamName, "percent", req.Percent)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if req.ExamID != nil {
		_, err := s.repo.Exam().GetByID(ctx, nil, *req.ExamID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrExamNotFound
			}
			return nil, fmt.Errorf("failed to check exam: %w", err)
		}
	}

	record := &models.ResultRecord{
		UserID:       userID,
		ExamID:       req.ExamID,
		ExamName:     req.ExamName,
		EarnedPoints: req.EarnedPoints,
		TotalPoints:  req.TotalPoints,
		WrongCount:   req.WrongCount,
		Percent:      req.Percent,
	}

	if err := s.repo.Result().Append(ctx, nil, record); err != nil {
		return nil, fmt.Errorf("failed to append result: %w", err)
	}

	event := events.NewEvent(events.TypeResultSubmitted, events.ResultSubmittedEvent{
		UserID:       userID,
		ExamID:       req.ExamID,
		ExamName:     req.ExamName,
		EarnedPoints: req.EarnedPoints,
		TotalPoints:  req.TotalPoints,
		Percent:      req.Percent,
	})
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		// The result is already stored; consumers catch up elsewhere
		s.logger.Error("Failed to publish result event", "user_id", userID, "error", err)
	}

	s.logger.Info("Exam result recorded", "result_id", record.ID, "user_id", userID)

	return record, nil
}

func (s *resultService) ListByUser(ctx context.Context, userID string, filters repositories.ResultFilters) (*ResultListResponse, error) {
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 20
	}

	results, total, err := s.repo.Result().ListByUser(ctx, nil, userID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	return &ResultListResponse{
		Results: results,
		Total:   total,
		Page:    (filters.Offset / filters.Limit) + 1,
		Size:    filters.Limit,
	}, nil
}
