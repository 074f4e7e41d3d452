package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/studyforge/practice-service/internal/repositories"
	"github.com/studyforge/practice-service/internal/services"
	"github.com/studyforge/practice-service/internal/utils"
	"github.com/studyforge/practice-service/internal/validator"
)

type ResultHandler struct {
	BaseHandler
	resultService services.ResultService
	validator     *validator.Validator
}

func NewResultHandler(
	resultService services.ResultService,
	validator *validator.Validator,
	logger utils.Logger,
) *ResultHandler {
	return &ResultHandler{
		BaseHandler:   NewBaseHandler(logger),
		resultService: resultService,
		validator:     validator,
	}
}

// SubmitResult appends a finished exam run to the result log
// @Summary Submit result
// @Description Records a finished exam run; the exam name is snapshotted so later renames do not rewrite history
// @Tags results
// @Accept json
// @Produce json
// @Param result body services.SubmitResultRequest true "Result data"
// @Success 201 {object} models.ResultRecord
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /results [post]
func (h *ResultHandler) SubmitResult(c *gin.Context) {
	var req services.SubmitResultRequest
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

	h.LogRequest(c, "Submitting result", "exam_name", req.ExamName)

	result, err := h.resultService.Submit(c.Request.Context(), &req, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// ListResults lists the current user's exam history
// @Summary List results
// @Description Lists the current user's exam results, newest first
// @Tags results
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Param exam_id query uint false "Filter by exam"
// @Success 200 {object} services.ResultListResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /results [get]
func (h *ResultHandler) ListResults(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	h.LogRequest(c, "Listing results")

	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 20)

	filters := repositories.ResultFilters{
		Limit:  size,
		Offset: (page - 1) * size,
	}
	if examIDStr := c.Query("exam_id"); examIDStr != "" {
		if examID, err := strconv.ParseUint(examIDStr, 10, 32); err == nil {
			id := uint(examID)
			filters.ExamID = &id
		}
	}

	results, err := h.resultService.ListByUser(c.Request.Context(), userID.(string), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}
