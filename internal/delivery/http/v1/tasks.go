package v1

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/luminahq/lumina/internal/models"
	"github.com/luminahq/lumina/internal/services"
)

const dueDateFormat = "2006-01-02"

type taskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Category    string     `json:"category"`
	Tags        []string   `json:"tags"`
	DueDate     *string    `json:"due_date,omitempty"`
	DueTime     *string    `json:"due_time,omitempty"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func newTaskResponse(task *models.Task) taskResponse {
	resp := taskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Priority:    task.Priority,
		Category:    task.Category,
		Tags:        task.Tags,
		DueTime:     task.DueTime,
		Completed:   task.Completed,
		CompletedAt: task.CompletedAt,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if task.DueDate != nil {
		dueDate := task.DueDate.Format(dueDateFormat)
		resp.DueDate = &dueDate
	}
	return resp
}

func newTaskListResponse(tasks []*models.Task) []taskResponse {
	response := make([]taskResponse, len(tasks))
	for i, task := range tasks {
		response[i] = newTaskResponse(task)
	}
	return response
}

type taskCountsResponse struct {
	All       int `json:"all"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
}

type createTaskRequest struct {
	Title       string   `json:"title" binding:"required,max=200"`
	Description string   `json:"description" binding:"max=1000"`
	Priority    string   `json:"priority"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	DueDate     string   `json:"due_date"`
	DueTime     *string  `json:"due_time"`
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var req createTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	dueDate, ok := parseDueDateParam(c, req.DueDate)
	if !ok {
		return
	}

	task, err := h.tasks.CreateTask(c, services.CreateTaskParams{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Category:    req.Category,
		Tags:        req.Tags,
		DueDate:     dueDate,
		DueTime:     req.DueTime,
	})
	if err != nil {
		h.abortTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newTaskResponse(task))
}

type taskListResponse struct {
	Tasks  []taskResponse     `json:"tasks"`
	Counts taskCountsResponse `json:"counts"`
}

func (h *handlerImpl) HandleGetTasks(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	params := services.ListTasksParams{
		UserID:   userID,
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Priority: c.Query("priority"),
	}
	params.Page, ok = parseUintParam(c, "page")
	if !ok {
		return
	}
	params.PageSize, ok = parseUintParam(c, "page_size")
	if !ok {
		return
	}

	list, err := h.tasks.GetTasks(c, params)
	if err != nil {
		h.abortTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, taskListResponse{
		Tasks: newTaskListResponse(list.Tasks),
		Counts: taskCountsResponse{
			All:       list.Counts.All,
			Pending:   list.Counts.Pending,
			Completed: list.Counts.Completed,
		},
	})
}

func (h *handlerImpl) HandleGetTask(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(c, userID, c.Param("id"))
	if err != nil {
		h.abortTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task))
}

type updateTaskRequest struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Priority    *string   `json:"priority,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	DueDate     *string   `json:"due_date,omitempty"`
	DueTime     *string   `json:"due_time,omitempty"`
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var req updateTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	params := services.UpdateTaskParams{
		ID:          c.Param("id"),
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Category:    req.Category,
		Tags:        req.Tags,
	}

	// An explicit empty string clears the date or time, absence
	// leaves it alone.
	if req.DueDate != nil {
		if *req.DueDate == "" {
			params.ClearDueDate = true
		} else {
			dueDate, ok := parseDueDateParam(c, *req.DueDate)
			if !ok {
				return
			}
			params.DueDate = dueDate
		}
	}
	if req.DueTime != nil {
		if *req.DueTime == "" {
			params.ClearDueTime = true
		} else {
			params.DueTime = req.DueTime
		}
	}

	task, err := h.tasks.UpdateTask(c, params)
	if err != nil {
		h.abortTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task))
}

func (h *handlerImpl) HandleCompleteTask(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	task, err := h.tasks.ToggleTaskCompletion(c, userID, c.Param("id"))
	if err != nil {
		h.abortTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task))
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	err := h.tasks.DeleteTask(c, userID, c.Param("id"))
	if err != nil {
		h.abortTaskError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handlerImpl) HandleSearchTasks(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	query := c.Query("q")
	if query == "" {
		abort(c, newBadRequestError("query parameter q is required"))
		return
	}

	tasks, err := h.tasks.SearchTasks(c, userID, query)
	if err != nil {
		h.abortTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": newTaskListResponse(tasks)})
}

func (h *handlerImpl) abortTaskError(c *gin.Context, err error) {
	h.logger.Error().
		Err(err).
		Str("path", c.FullPath()).
		Msg("task operation failed")

	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
	case errors.Is(err, services.ErrInvalidTaskTitle),
		errors.Is(err, services.ErrInvalidTaskDesc),
		errors.Is(err, services.ErrInvalidTaskPriority),
		errors.Is(err, services.ErrInvalidTaskCategory),
		errors.Is(err, services.ErrInvalidTaskDueTime):
		abort(c, newBadRequestError(err.Error()))
	default:
		abort(c, newInternalError())
	}
}

func parseDueDateParam(c *gin.Context, value string) (*time.Time, bool) {
	if value == "" {
		return nil, true
	}
	dueDate, err := time.Parse(dueDateFormat, value)
	if err != nil {
		abort(c, newBadRequestError("due_date must be in YYYY-MM-DD form"))
		return nil, false
	}
	return &dueDate, true
}

func parseUintParam(c *gin.Context, name string) (uint32, bool) {
	value := c.Query(name)
	if value == "" {
		return 0, true
	}
	parsed, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		abort(c, newBadRequestError(name+" must be a positive integer"))
		return 0, false
	}
	return uint32(parsed), true
}
