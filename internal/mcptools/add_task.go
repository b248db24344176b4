// Package mcptools exposes task management over the Model Context
// Protocol so MCP-capable clients can drive the todo list directly.
//
// Every tool takes an explicit user_id: the stdio transport has no
// authentication layer, so the caller is trusted to scope requests.
package mcptools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/luminahq/lumina/internal/models"
	"github.com/luminahq/lumina/internal/services"
)

// AddTaskTool handles the add_task MCP tool.
type AddTaskTool struct {
	tasks services.TaskService
}

// NewAddTaskTool creates an AddTaskTool backed by the task service.
func NewAddTaskTool(tasks services.TaskService) *AddTaskTool {
	return &AddTaskTool{tasks: tasks}
}

// Definition returns the MCP tool definition for add_task.
func (t *AddTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("add_task",
		mcp.WithDescription("Create a new todo task for a user."),
		mcp.WithString("user_id",
			mcp.Required(),
			mcp.Description("ID of the user who owns the task"),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short task title"),
		),
		mcp.WithString("description",
			mcp.Description("Optional longer description"),
		),
		mcp.WithString("priority",
			mcp.Description("Task priority"),
			mcp.Enum(models.PriorityHigh, models.PriorityMedium, models.PriorityLow),
			mcp.DefaultString(models.PriorityMedium),
		),
		mcp.WithString("category",
			mcp.Description("Task category"),
			mcp.Enum(models.CategoryWork, models.CategoryPersonal,
				models.CategoryShopping, models.CategoryHealth, models.CategoryOther),
			mcp.DefaultString(models.CategoryOther),
		),
		mcp.WithString("tags",
			mcp.Description("Comma-separated tags (e.g. 'errands,weekend')"),
		),
		mcp.WithString("due_date",
			mcp.Description("Due date in YYYY-MM-DD form"),
		),
		mcp.WithString("due_time",
			mcp.Description("Due time in HH:MM form"),
		),
	)
}

// Handle processes the add_task tool call.
func (t *AddTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := req.GetString("user_id", "")
	if userID == "" {
		return mcp.NewToolResultError("'user_id' is required"), nil
	}
	title := req.GetString("title", "")
	if title == "" {
		return mcp.NewToolResultError("'title' is required"), nil
	}

	params := services.CreateTaskParams{
		UserID:      userID,
		Title:       title,
		Description: req.GetString("description", ""),
		Priority:    req.GetString("priority", models.PriorityMedium),
		Category:    req.GetString("category", models.CategoryOther),
		Tags:        splitTags(req.GetString("tags", "")),
	}

	if dueDateStr := req.GetString("due_date", ""); dueDateStr != "" {
		dueDate, err := time.Parse("2006-01-02", dueDateStr)
		if err != nil {
			return mcp.NewToolResultError("'due_date' must be in YYYY-MM-DD form"), nil
		}
		params.DueDate = &dueDate
	}
	if dueTime := req.GetString("due_time", ""); dueTime != "" {
		params.DueTime = &dueTime
	}

	task, err := t.tasks.CreateTask(ctx, params)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create task: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Created task %q (id %s, priority %s, category %s)",
		task.Title, task.ID, task.Priority, task.Category)), nil
}

// splitTags turns a comma-separated tag string into a slice, dropping
// empty entries.
func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
