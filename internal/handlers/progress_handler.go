package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyforge/practice-service/internal/models"
	"github.com/studyforge/practice-service/internal/services"
	"github.com/studyforge/practice-service/internal/utils"
	"github.com/studyforge/practice-service/internal/validator"
)

type ProgressHandler struct {
	BaseHandler
	progressService services.ProgressService
	validator       *validator.Validator
}

func NewProgressHandler(
	progressService services.ProgressService,
	validator *validator.Validator,
	logger utils.Logger,
) *ProgressHandler {
	return &ProgressHandler{
		BaseHandler:     NewBaseHandler(logger),
		progressService: progressService,
		validator:       validator,
	}
}

// SubmitProgress records a single task outcome
// @Summary Submit progress
// @Description Records one task outcome; resubmitting the same task in the same mode overwrites the previous outcome
// @Tags progress
// @Accept json
// @Produce json
// @Param progress body services.SubmitProgressRequest true "Outcome data"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /progress [post]
func (h *ProgressHandler) SubmitProgress(c *gin.Context) {
	var req services.SubmitProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	if err := h.progressService.Submit(c.Request.Context(), &req, userID.(string)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Progress recorded",
	})
}

// SubmitProgressBatch records several task outcomes in one transaction
// @Summary Submit progress (batch)
// @Description Records several task outcomes atomically; one unknown task rejects the whole batch
// @Tags progress
// @Accept json
// @Produce json
// @Param progress body services.BatchSubmitProgressRequest true "Batch of outcomes"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /progress/batch [post]
func (h *ProgressHandler) SubmitProgressBatch(c *gin.Context) {
	var req services.BatchSubmitProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	h.LogRequest(c, "Submitting progress batch", "count", len(req.Outcomes))

	if err := h.progressService.SubmitBatch(c.Request.Context(), &req, userID.(string)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Progress recorded",
	})
}

// ResetProgress wipes the user's ledger for one mode
// @Summary Reset progress
// @Description Removes all of the user's progress records in the given mode; other modes are untouched
// @Tags progress
// @Accept json
// @Produce json
// @Param reset body services.ResetProgressRequest true "Mode to reset"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /progress/reset [post]
func (h *ProgressHandler) ResetProgress(c *gin.Context) {
	var req services.ResetProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	h.LogRequest(c, "Resetting progress", "mode", req.Mode)

	if err := h.progressService.Reset(c.Request.Context(), &req, userID.(string)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Progress reset",
	})
}

// GetSolvedTasks lists the IDs of tasks the user has answered in a mode
// @Summary Get solved task IDs
// @Description Lists the IDs of tasks the user has already answered in the given mode
// @Tags progress
// @Accept json
// @Produce json
// @Param mode query string true "Practice mode (standard|games)"
// @Success 200 {object} SuccessResponse{data=[]uint}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /progress/solved [get]
func (h *ProgressHandler) GetSolvedTasks(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	mode := models.PracticeMode(c.Query("mode"))

	ids, err := h.progressService.SolvedTaskIDs(c.Request.Context(), userID.(string), mode)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Data: ids,
	})
}
