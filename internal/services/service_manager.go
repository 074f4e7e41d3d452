package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/studyforge/practice-service/internal/events"
	"github.com/studyforge/practice-service/internal/repositories"
	"github.com/studyforge/practice-service/internal/storage"
	"github.com/studyforge/practice-service/internal/validator"
	"gorm.io/gorm"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	// Logging configuration
	EnableDebugLogging bool
	LogLevel           slog.Level

	// Service-specific configurations
	Task     ServiceConfig
	Exam     ServiceConfig
	Progress ServiceConfig
	Result   ServiceConfig
	Stats    ServiceConfig

	// Global settings
	DefaultTimeout time.Duration
}

type ServiceConfig struct {
	Enabled      bool
	CacheEnabled bool
	CacheTTL     time.Duration
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	db             *gorm.DB
	repo           repositories.Repository
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
	blobStore      storage.BlobStore
	config         ServiceManagerConfig

	// Service instances
	taskService         TaskService
	examService         ExamService
	progressService     ProgressService
	resultService       ResultService
	statsService        StatsService
	importExportService ImportExportService
	uploadService       UploadService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, eventPublisher events.EventPublisher, blobStore storage.BlobStore, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		db:             db,
		repo:           repo,
		logger:         logger,
		validator:      validator,
		eventPublisher: eventPublisher,
		blobStore:      blobStore,
		config:         config,
	}
}

// NewDefaultServiceManager creates a service manager with default configuration
func NewDefaultServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, eventPublisher events.EventPublisher, blobStore storage.BlobStore) ServiceManager {
	config := ServiceManagerConfig{
		EnableDebugLogging: false,
		LogLevel:           slog.LevelInfo,

		Task: ServiceConfig{
			Enabled:      true,
			CacheEnabled: true,
			CacheTTL:     10 * time.Minute,
		},
		Exam: ServiceConfig{
			Enabled:      true,
			CacheEnabled: true,
			CacheTTL:     10 * time.Minute,
		},
		Progress: ServiceConfig{
			Enabled:      true,
			CacheEnabled: false, // Real-time data
			CacheTTL:     0,
		},
		Result: ServiceConfig{
			Enabled:      true,
			CacheEnabled: false,
			CacheTTL:     0,
		},
		Stats: ServiceConfig{
			Enabled:      true,
			CacheEnabled: true,
			CacheTTL:     5 * time.Minute,
		},

		DefaultTimeout: 30 * time.Second,
	}

	return NewServiceManager(db, repo, logger, validator, eventPublisher, blobStore, config)
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	if err := sm.initializeServices(ctx); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

func (sm *serviceManager) initializeServices(_ context.Context) error {
	if sm.config.Task.Enabled {
		sm.taskService = NewTaskService(sm.repo, sm.db, sm.logger, sm.validator)
		sm.logger.Info("Task service initialized")
	}

	if sm.config.Exam.Enabled {
		sm.examService = NewExamService(sm.repo, sm.db, sm.logger, sm.validator, sm.eventPublisher)
		sm.logger.Info("Exam service initialized")
	}

	if sm.config.Progress.Enabled {
		sm.progressService = NewProgressService(sm.repo, sm.db, sm.logger, sm.validator, sm.eventPublisher)
		sm.logger.Info("Progress service initialized")
	}

	if sm.config.Result.Enabled {
		sm.resultService = NewResultService(sm.repo, sm.db, sm.logger, sm.validator, sm.eventPublisher)
		sm.logger.Info("Result service initialized")
	}

	if sm.config.Stats.Enabled {
		sm.statsService = NewStatsService(sm.repo, sm.db, sm.logger)
		sm.logger.Info("Stats service initialized")
	}

	sm.importExportService = NewImportExportService(sm.repo, sm.logger, sm.validator, sm.eventPublisher)
	sm.logger.Info("ImportExport service initialized")

	sm.uploadService = NewUploadService(sm.repo, sm.blobStore, sm.logger)
	sm.logger.Info("Upload service initialized")

	return nil
}

// Service getters
func (sm *serviceManager) Task() TaskService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.config.Task.Enabled && sm.taskService != nil {
		return sm.taskService
	}

	panic("task service not enabled or not initialized")
}

func (sm *serviceManager) Exam() ExamService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.config.Exam.Enabled && sm.examService != nil {
		return sm.examService
	}

	panic("exam service not enabled or not initialized")
}

func (sm *serviceManager) Progress() ProgressService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.config.Progress.Enabled && sm.progressService != nil {
		return sm.progressService
	}

	panic("progress service not enabled or not initialized")
}

func (sm *serviceManager) Result() ResultService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.config.Result.Enabled && sm.resultService != nil {
		return sm.resultService
	}

	panic("result service not enabled or not initialized")
}

func (sm *serviceManager) Stats() StatsService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.config.Stats.Enabled && sm.statsService != nil {
		return sm.statsService
	}

	panic("stats service not enabled or not initialized")
}

func (sm *serviceManager) ImportExport() ImportExportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.importExportService != nil {
		return sm.importExportService
	}

	panic("import/export service not initialized")
}

func (sm *serviceManager) Upload() UploadService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.uploadService != nil {
		return sm.uploadService
	}

	panic("upload service not initialized")
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if err := sm.eventPublisher.Close(); err != nil {
		sm.logger.Error("Failed to close event publisher", "error", err)
	}

	if repoManager, ok := sm.repo.(repositories.RepositoryManager); ok {
		if err := repoManager.Shutdown(ctx); err != nil {
			sm.logger.Error("Failed to shutdown repository manager", "error", err)
		}
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return nil
}

// WithTimeout creates a context with the default timeout
func (sm *serviceManager) WithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, sm.config.DefaultTimeout)
}
