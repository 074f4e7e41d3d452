package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyforge/practice-service/internal/models"
	"github.com/studyforge/practice-service/internal/repositories"
	"github.com/studyforge/practice-service/internal/services"
	"github.com/studyforge/practice-service/internal/utils"
	"github.com/studyforge/practice-service/internal/validator"
)

type TaskHandler struct {
	BaseHandler
	taskService services.TaskService
	validator   *validator.Validator
}

func NewTaskHandler(
	taskService services.TaskService,
	validator *validator.Validator,
	logger utils.Logger,
) *TaskHandler {
	return &TaskHandler{
		BaseHandler: NewBaseHandler(logger),
		taskService: taskService,
		validator:   validator,
	}
}

// CreateTask creates a new task
// @Summary Create task
// @Description Creates a new open or closed task in the task bank
// @Tags tasks
// @Accept json
// @Produce json
// @Param task body services.CreateTaskRequest true "Task data"
// @Success 201 {object} services.TaskResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /tasks [post]
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req services.CreateTaskRequest
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

	task, err := h.taskService.Create(c.Request.Context(), &req, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, task)
}

// GetTask retrieves a task by ID
// @Summary Get task
// @Description Retrieves a task by its ID
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path uint true "Task ID"
// @Success 200 {object} services.TaskResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /tasks/{id} [get]
func (h *TaskHandler) GetTask(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting task", "task_id", id)

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	task, err := h.taskService.GetByID(c.Request.Context(), id, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// UpdateTask updates an existing task
// @Summary Update task
// @Description Updates the prompt, answer, options, points or sheet tag of a task
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path uint true "Task ID"
// @Param task body services.UpdateTaskRequest true "Fields to update"
// @Success 200 {object} services.TaskResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /tasks/{id} [put]
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating task", "task_id", id)

	var req services.UpdateTaskRequest
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

	task, err := h.taskService.Update(c.Request.Context(), id, &req, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// DeleteTask deletes a task
// @Summary Delete task
// @Description Deletes a task along with its progress records and exam references
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path uint true "Task ID"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting task", "task_id", id)

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	if err := h.taskService.Delete(c.Request.Context(), id, userID.(string)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Task deleted successfully",
	})
}

// CreateTasksBatch creates multiple tasks in one transaction
// @Summary Create tasks (batch)
// @Description Creates multiple tasks in a single transaction; any invalid task rejects the whole batch
// @Tags tasks
// @Accept json
// @Produce json
// @Param tasks body services.BulkCreateTasksRequest true "Tasks to create"
// @Success 201 {object} SuccessResponse{data=[]services.TaskResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /tasks/batch [post]
func (h *TaskHandler) CreateTasksBatch(c *gin.Context) {
	var req services.BulkCreateTasksRequest
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

	h.LogRequest(c, "Creating task batch", "count", len(req.Tasks))

	tasks, err := h.taskService.CreateBatch(c.Request.Context(), &req, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Message: "Tasks created successfully",
		Data:    tasks,
	})
}

// ListTasks lists tasks with filters and pagination
// @Summary List tasks
// @Description Lists tasks filtered by kind, sheet tag or search text
// @Tags tasks
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Param kind query string false "Task kind (open|closed)"
// @Param sheet query string false "Sheet tag"
// @Param q query string false "Search text"
// @Success 200 {object} services.TaskListResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /tasks [get]
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	h.LogRequest(c, "Listing tasks")

	filters := h.parseTaskFilters(c)
	tasks, err := h.taskService.List(c.Request.Context(), filters, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, tasks)
}

// GetRandomTask draws a random unseen task for the current user
// @Summary Get random task
// @Description Draws a random task the user has not yet answered in the given mode
// @Tags tasks
// @Accept json
// @Produce json
// @Param mode query string true "Practice mode (standard|games)"
// @Param kind query string false "Task kind (open|closed)"
// @Param only_incorrect query bool false "Only redraw previously missed tasks"
// @Success 200 {object} models.RandomTaskResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /tasks/random [get]
func (h *TaskHandler) GetRandomTask(c *gin.Context) {
	var req models.RandomTaskRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid query parameters",
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

	h.LogRequest(c, "Drawing random task", "mode", req.Mode, "only_incorrect", req.OnlyIncorrect)

	task, err := h.taskService.GetRandom(c.Request.Context(), &req, userID.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) parseTaskFilters(c *gin.Context) repositories.TaskFilters {
	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 20)

	filters := repositories.TaskFilters{
		SearchText: c.Query("q"),
		Limit:      size,
		Offset:     (page - 1) * size,
		SortBy:     c.Query("sort_by"),
		SortOrder:  c.Query("sort_order"),
	}

	if kind := c.Query("kind"); kind != "" {
		taskKind := models.TaskKind(kind)
		filters.Kind = &taskKind
	}

	if sheet := c.Query("sheet"); sheet != "" {
		filters.SheetTag = &sheet
	}

	return filters
}
