package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/studyforge/practice-service/internal/config"
	"github.com/studyforge/practice-service/internal/models"
	"github.com/studyforge/practice-service/internal/repositories"
	"github.com/studyforge/practice-service/internal/services"
	"github.com/studyforge/practice-service/internal/utils"
	"github.com/studyforge/practice-service/internal/validator"
)

type HandlerManager struct {
	taskHandler         *TaskHandler
	examHandler         *ExamHandler
	progressHandler     *ProgressHandler
	resultHandler       *ResultHandler
	statsHandler        *StatsHandler
	importExportHandler *ImportExportHandler
	uploadHandler       *UploadHandler
	userHandler         *UserHandler
	authMiddleware      *CasdoorAuthMiddleware
	uploadConfig        config.UploadConfig
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	uploadConfig config.UploadConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		taskHandler:         NewTaskHandler(serviceManager.Task(), validator, logger),
		examHandler:         NewExamHandler(serviceManager.Exam(), validator, logger),
		progressHandler:     NewProgressHandler(serviceManager.Progress(), validator, logger),
		resultHandler:       NewResultHandler(serviceManager.Result(), validator, logger),
		statsHandler:        NewStatsHandler(serviceManager.Stats(), logger),
		importExportHandler: NewImportExportHandler(serviceManager.ImportExport(), logger),
		uploadHandler:       NewUploadHandler(serviceManager.Upload(), logger),
		userHandler:         NewUserHandler(userRepo, logger),
		authMiddleware:      authMiddleware,
		uploadConfig:        uploadConfig,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// API v1 routes with authentication
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Task routes
		tasks := v1.Group("/tasks")
		{
			// Task bank management - Admins only
			tasks.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.taskHandler.CreateTask)
			tasks.POST("/batch", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.taskHandler.CreateTasksBatch)
			tasks.PUT("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.taskHandler.UpdateTask)
			tasks.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.taskHandler.DeleteTask)

			// Spreadsheet import/export - Admins only
			tasks.POST("/import", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.importExportHandler.ImportTasks)
			tasks.GET("/export", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.importExportHandler.ExportTasks)

			// Practice - all authenticated users
			tasks.GET("", hm.taskHandler.ListTasks)
			tasks.GET("/random", hm.taskHandler.GetRandomTask)
			tasks.GET("/:id", hm.taskHandler.GetTask)
		}

		// Exam routes
		exams := v1.Group("/exams")
		{
			exams.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.examHandler.CreateExam)
			exams.PUT("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.examHandler.RenameExam)
			exams.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.examHandler.DeleteExam)

			exams.GET("", hm.examHandler.ListExams)
			exams.GET("/:id", hm.examHandler.GetExam)
			exams.GET("/:id/tasks", hm.examHandler.GetExamResolved)
		}

		// Progress routes - the caller's own ledger
		progress := v1.Group("/progress")
		{
			progress.POST("", hm.progressHandler.SubmitProgress)
			progress.POST("/batch", hm.progressHandler.SubmitProgressBatch)
			progress.POST("/reset", hm.progressHandler.ResetProgress)
			progress.GET("/solved", hm.progressHandler.GetSolvedTasks)
		}

		// Result routes - the caller's own exam history
		results := v1.Group("/results")
		{
			results.POST("", hm.resultHandler.SubmitResult)
			results.GET("", hm.resultHandler.ListResults)
			results.GET("/export", hm.importExportHandler.ExportResults)
		}

		// Stats routes
		stats := v1.Group("/stats")
		{
			stats.GET("/summary", hm.statsHandler.GetUserSummary)
			stats.GET("/leaderboard", hm.statsHandler.GetLeaderboard)
			stats.GET("/overview", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.statsHandler.GetOverview)
		}

		// Upload routes - Admins only
		uploads := v1.Group("/uploads")
		{
			uploads.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.uploadHandler.UploadFiles)
		}

		// User routes
		users := v1.Group("/users")
		{
			users.GET("/me", hm.userHandler.GetCurrentUser)
			users.GET("", hm.userHandler.ListUsers)
			users.GET("/:id", hm.userHandler.GetUser)
		}
	}

	// Uploaded files are served directly when the public URL is a local path
	if strings.HasPrefix(hm.uploadConfig.PublicURL, "/") {
		router.Static(hm.uploadConfig.PublicURL, hm.uploadConfig.Dir)
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "practice-service",
		})
	})
}
