package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/studyforge/practice-service/internal/models"
	"github.com/studyforge/practice-service/internal/repositories"
	"gorm.io/gorm"
)

const defaultLeaderboardLimit = 25

type statsService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewStatsService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) StatsService {
	return &statsService{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

// GetUserSummary assembles the per-user dashboard: standard-mode
// practice totals, accuracy split by task kind, and exam aggregates.
func (s *statsService) GetUserSummary(ctx context.Context, userID string) (*repositories.UserSummary, error) {
	practice, err := s.repo.Progress().CountByOutcome(ctx, nil, userID, models.ModeStandard)
	if err != nil {
		return nil, fmt.Errorf("failed to count practice outcomes: %w", err)
	}

	byKind, err := s.repo.Progress().CountByOutcomeAndKind(ctx, nil, userID, models.ModeStandard)
	if err != nil {
		return nil, fmt.Errorf("failed to count outcomes by kind: %w", err)
	}

	examStats, err := s.repo.Stats().GetExamStats(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get exam stats: %w", err)
	}

	return &repositories.UserSummary{
		Practice: *practice,
		ByKind:   byKind,
		Exams:    *examStats,
	}, nil
}

func (s *statsService) GetLeaderboard(ctx context.Context, kind repositories.LeaderboardKind, limit int) (*LeaderboardResponse, error) {
	if !kind.Valid() {
		kind = repositories.LeaderboardAll
	}
	if limit <= 0 || limit > 100 {
		limit = defaultLeaderboardLimit
	}

	entries, err := s.repo.Stats().GetLeaderboard(ctx, nil, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to build leaderboard: %w", err)
	}

	return &LeaderboardResponse{
		Kind:    kind,
		Entries: entries,
	}, nil
}

func (s *statsService) GetOverview(ctx context.Context, userID string) (*OverviewResponse, error) {
	isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("permission check failed: %w", err)
	}
	if !isAdmin {
		return nil, NewPermissionError(userID, 0, "stats", "overview", "insufficient role permissions")
	}

	totalTasks, err := s.repo.Stats().GetTotalTasks(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	totalExams, err := s.repo.Stats().GetTotalExams(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count exams: %w", err)
	}
	totalResults, err := s.repo.Stats().GetTotalResults(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count results: %w", err)
	}
	activeUsers, err := s.repo.Stats().GetActiveUsers(ctx, nil, 30)
	if err != nil {
		return nil, fmt.Errorf("failed to count active users: %w", err)
	}

	return &OverviewResponse{
		TotalTasks:   totalTasks,
		TotalExams:   totalExams,
		TotalResults: totalResults,
		ActiveUsers:  activeUsers,
	}, nil
}
