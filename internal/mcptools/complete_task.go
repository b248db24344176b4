package mcptools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/luminahq/lumina/internal/services"
)

// CompleteTaskTool handles the complete_task MCP tool.
type CompleteTaskTool struct {
	tasks services.TaskService
}

// NewCompleteTaskTool creates a CompleteTaskTool backed by the task service.
func NewCompleteTaskTool(tasks services.TaskService) *CompleteTaskTool {
	return &CompleteTaskTool{tasks: tasks}
}

// Definition returns the MCP tool definition for complete_task.
func (t *CompleteTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("complete_task",
		mcp.WithDescription("Mark a task as completed, or reopen it if it is already completed."),
		mcp.WithString("user_id",
			mcp.Required(),
			mcp.Description("ID of the user who owns the task"),
		),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("ID of the task to complete"),
		),
	)
}

// Handle processes the complete_task tool call.
func (t *CompleteTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := req.GetString("user_id", "")
	if userID == "" {
		return mcp.NewToolResultError("'user_id' is required"), nil
	}
	taskID := req.GetString("task_id", "")
	if taskID == "" {
		return mcp.NewToolResultError("'task_id' is required"), nil
	}

	task, err := t.tasks.ToggleTaskCompletion(ctx, userID, taskID)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			return mcp.NewToolResultError("task not found"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to complete task: %v", err)), nil
	}

	if task.Completed {
		return mcp.NewToolResultText(fmt.Sprintf("Marked task %q as completed", task.Title)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Reopened task %q", task.Title)), nil
}
