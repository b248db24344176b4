package mcptools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/luminahq/lumina/internal/services"
)

// DeleteTaskTool handles the delete_task MCP tool.
type DeleteTaskTool struct {
	tasks services.TaskService
}

// NewDeleteTaskTool creates a DeleteTaskTool backed by the task service.
func NewDeleteTaskTool(tasks services.TaskService) *DeleteTaskTool {
	return &DeleteTaskTool{tasks: tasks}
}

// Definition returns the MCP tool definition for delete_task.
func (t *DeleteTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("delete_task",
		mcp.WithDescription("Delete a task permanently."),
		mcp.WithString("user_id",
			mcp.Required(),
			mcp.Description("ID of the user who owns the task"),
		),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("ID of the task to delete"),
		),
	)
}

// Handle processes the delete_task tool call.
func (t *DeleteTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := req.GetString("user_id", "")
	if userID == "" {
		return mcp.NewToolResultError("'user_id' is required"), nil
	}
	taskID := req.GetString("task_id", "")
	if taskID == "" {
		return mcp.NewToolResultError("'task_id' is required"), nil
	}

	task, err := t.tasks.GetTask(ctx, userID, taskID)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			return mcp.NewToolResultError("task not found"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete task: %v", err)), nil
	}

	err = t.tasks.DeleteTask(ctx, userID, taskID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete task: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Deleted task %q", task.Title)), nil
}
