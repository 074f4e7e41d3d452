package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyforge/practice-service/internal/services"
	"github.com/studyforge/practice-service/internal/utils"
)

type UploadHandler struct {
	BaseHandler
	uploadService services.UploadService
}

func NewUploadHandler(uploadService services.UploadService, logger utils.Logger) *UploadHandler {
	return &UploadHandler{
		BaseHandler:   NewBaseHandler(logger),
		uploadService: uploadService,
	}
}

// UploadFiles stores prompt attachments and returns their public URLs
// @Summary Upload files
// @Description Stores prompt attachments (images, PDFs) and returns their public URLs in input order
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Files to upload"
// @Success 201 {object} models.UploadResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /uploads [post]
func (h *UploadHandler) UploadFiles(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid multipart form",
			Details: err.Error(),
		})
		return
	}

	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "No files provided",
		})
		return
	}

	files := make([]services.UploadFile, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Failed to read uploaded file",
				Details: err.Error(),
			})
			return
		}
		defer f.Close()
		files = append(files, services.UploadFile{
			Name:   fh.Filename,
			Reader: f,
			Size:   fh.Size,
		})
	}

	h.LogRequest(c, "Uploading files", "count", len(files))

	response, err := h.uploadService.Upload(c.Request.Context(), files, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}
