package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studyforge/practice-service/internal/repositories"
	"github.com/studyforge/practice-service/internal/services"
	"github.com/studyforge/practice-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ImportExportHandler struct {
	BaseHandler
	importExportService services.ImportExportService
}

func NewImportExportHandler(importExportService services.ImportExportService, logger utils.Logger) *ImportExportHandler {
	return &ImportExportHandler{
		BaseHandler:         NewBaseHandler(logger),
		importExportService: importExportService,
	}
}

// ImportTasks imports tasks from an uploaded xlsx workbook
// @Summary Import tasks
// @Description Imports tasks from an xlsx workbook; invalid rows are skipped and reported
// @Tags import-export
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "xlsx workbook"
// @Success 200 {object} services.ImportResult
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /tasks/import [post]
func (h *ImportExportHandler) ImportTasks(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing file upload",
			Details: err.Error(),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Failed to read uploaded file",
			Details: err.Error(),
		})
		return
	}
	defer file.Close()

	h.LogRequest(c, "Importing tasks", "filename", fileHeader.Filename, "size", fileHeader.Size)

	result, err := h.importExportService.ImportTasks(c.Request.Context(), file, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportTasks downloads the task bank as an xlsx workbook
// @Summary Export tasks
// @Description Streams the full task bank as an xlsx workbook
// @Tags import-export
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /tasks/export [get]
func (h *ImportExportHandler) ExportTasks(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	h.LogRequest(c, "Exporting tasks")

	filename := fmt.Sprintf("tasks-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", xlsxContentType)

	err := h.importExportService.ExportTasks(c.Request.Context(), c.Writer, repositories.TaskFilters{}, userID.(string))
	if err != nil {
		// Headers may already be written; log and abort rather than
		// emitting a JSON body into a half-sent workbook.
		h.LogError(c, err, "Task export failed")
		c.Abort()
	}
}

// ExportResults downloads the current user's exam history as xlsx
// @Summary Export results
// @Description Streams the current user's exam history as an xlsx workbook
// @Tags import-export
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /results/export [get]
func (h *ImportExportHandler) ExportResults(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	h.LogRequest(c, "Exporting results")

	filename := fmt.Sprintf("results-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", xlsxContentType)

	if err := h.importExportService.ExportResults(c.Request.Context(), c.Writer, userID.(string)); err != nil {
		h.LogError(c, err, "Result export failed")
		c.Abort()
	}
}
