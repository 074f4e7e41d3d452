package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/studyforge/practice-service/internal/models"
	"github.com/studyforge/practice-service/internal/repositories"
	"github.com/studyforge/practice-service/internal/storage"
)

const maxUploadSize = 10 << 20 // 10 MiB per file

var allowedUploadExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".svg":  true,
	".webp": true,
	".pdf":  true,
}

type uploadService struct {
	repo   repositories.Repository
	store  storage.BlobStore
	logger *slog.Logger
}

func NewUploadService(repo repositories.Repository, store storage.BlobStore, logger *slog.Logger) UploadService {
	return &uploadService{
		repo:   repo,
		store:  store,
		logger: logger,
	}
}

func (s *uploadService) Upload(ctx context.Context, files []UploadFile, userID string) (*models.UploadResponse, error) {
	s.logger.Info("Uploading files", "user_id", userID, "count", len(files))

	if len(files) == 0 {
		return nil, ErrEmptyBatch
	}

	canManage, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("permission check failed: %w", err)
	}
	if !canManage {
		return nil, NewPermissionError(userID, 0, "upload", "create", "insufficient role permissions")
	}

	urls := make([]string, 0, len(files))
	for _, file := range files {
		ext := strings.ToLower(filepath.Ext(file.Name))
		if !allowedUploadExtensions[ext] {
			return nil, fmt.Errorf("file type %q is not allowed", ext)
		}
		if file.Size > maxUploadSize {
			return nil, fmt.Errorf("file %q exceeds the %d byte limit", file.Name, maxUploadSize)
		}

		// Random key prevents collisions and path probing
		key := uuid.NewString() + ext
		if err := s.store.Put(ctx, key, file.Reader); err != nil {
			return nil, fmt.Errorf("failed to store %q: %w", file.Name, err)
		}

		urls = append(urls, s.store.URL(key))
	}

	s.logger.Info("Files uploaded successfully", "user_id", userID, "count", len(urls))

	return &models.UploadResponse{URLs: urls}, nil
}
