package mcptools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/luminahq/lumina/internal/models"
	"github.com/luminahq/lumina/internal/services"
)

// UpdateTaskTool handles the update_task MCP tool.
type UpdateTaskTool struct {
	tasks services.TaskService
}

// NewUpdateTaskTool creates an UpdateTaskTool backed by the task service.
func NewUpdateTaskTool(tasks services.TaskService) *UpdateTaskTool {
	return &UpdateTaskTool{tasks: tasks}
}

// Definition returns the MCP tool definition for update_task.
func (t *UpdateTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("update_task",
		mcp.WithDescription("Update fields of an existing task. Only provided fields change."),
		mcp.WithString("user_id",
			mcp.Required(),
			mcp.Description("ID of the user who owns the task"),
		),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("ID of the task to update"),
		),
		mcp.WithString("title",
			mcp.Description("New task title"),
		),
		mcp.WithString("description",
			mcp.Description("New description"),
		),
		mcp.WithString("priority",
			mcp.Description("New priority"),
			mcp.Enum(models.PriorityHigh, models.PriorityMedium, models.PriorityLow),
		),
		mcp.WithString("category",
			mcp.Description("New category"),
			mcp.Enum(models.CategoryWork, models.CategoryPersonal,
				models.CategoryShopping, models.CategoryHealth, models.CategoryOther),
		),
		mcp.WithString("tags",
			mcp.Description("Comma-separated tags replacing the current set"),
		),
		mcp.WithString("due_date",
			mcp.Description("New due date in YYYY-MM-DD form, or 'none' to clear it"),
		),
		mcp.WithString("due_time",
			mcp.Description("New due time in HH:MM form, or 'none' to clear it"),
		),
	)
}

// Handle processes the update_task tool call.
func (t *UpdateTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := req.GetString("user_id", "")
	if userID == "" {
		return mcp.NewToolResultError("'user_id' is required"), nil
	}
	taskID := req.GetString("task_id", "")
	if taskID == "" {
		return mcp.NewToolResultError("'task_id' is required"), nil
	}

	params := services.UpdateTaskParams{
		ID:     taskID,
		UserID: userID,
	}

	args := req.GetArguments()
	if _, ok := args["title"]; ok {
		title := req.GetString("title", "")
		params.Title = &title
	}
	if _, ok := args["description"]; ok {
		description := req.GetString("description", "")
		params.Description = &description
	}
	if priority := req.GetString("priority", ""); priority != "" {
		params.Priority = &priority
	}
	if category := req.GetString("category", ""); category != "" {
		params.Category = &category
	}
	if _, ok := args["tags"]; ok {
		tags := splitTags(req.GetString("tags", ""))
		if tags == nil {
			tags = []string{}
		}
		params.Tags = &tags
	}

	switch dueDateStr := req.GetString("due_date", ""); dueDateStr {
	case "":
	case "none":
		params.ClearDueDate = true
	default:
		dueDate, err := time.Parse("2006-01-02", dueDateStr)
		if err != nil {
			return mcp.NewToolResultError("'due_date' must be in YYYY-MM-DD form"), nil
		}
		params.DueDate = &dueDate
	}
	switch dueTime := req.GetString("due_time", ""); dueTime {
	case "":
	case "none":
		params.ClearDueTime = true
	default:
		params.DueTime = &dueTime
	}

	task, err := t.tasks.UpdateTask(ctx, params)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			return mcp.NewToolResultError("task not found"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to update task: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Updated task %q", task.Title)), nil
}
