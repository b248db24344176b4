package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/luminahq/lumina/internal/models"
	"github.com/luminahq/lumina/internal/services"
)

// ListTasksTool handles the list_tasks MCP tool.
type ListTasksTool struct {
	tasks services.TaskService
}

// NewListTasksTool creates a ListTasksTool backed by the task service.
func NewListTasksTool(tasks services.TaskService) *ListTasksTool {
	return &ListTasksTool{tasks: tasks}
}

// Definition returns the MCP tool definition for list_tasks.
func (t *ListTasksTool) Definition() mcp.Tool {
	return mcp.NewTool("list_tasks",
		mcp.WithDescription("List a user's tasks, optionally filtered by status, category or priority."),
		mcp.WithString("user_id",
			mcp.Required(),
			mcp.Description("ID of the user whose tasks to list"),
		),
		mcp.WithString("status",
			mcp.Description("Filter by completion status"),
			mcp.Enum("pending", "completed", "all"),
			mcp.DefaultString("all"),
		),
		mcp.WithString("category",
			mcp.Description("Filter by category"),
			mcp.Enum(models.CategoryWork, models.CategoryPersonal,
				models.CategoryShopping, models.CategoryHealth, models.CategoryOther),
		),
		mcp.WithString("priority",
			mcp.Description("Filter by priority"),
			mcp.Enum(models.PriorityHigh, models.PriorityMedium, models.PriorityLow),
		),
	)
}

// Handle processes the list_tasks tool call.
func (t *ListTasksTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := req.GetString("user_id", "")
	if userID == "" {
		return mcp.NewToolResultError("'user_id' is required"), nil
	}

	status := req.GetString("status", "all")
	if status == "all" {
		status = ""
	}

	list, err := t.tasks.GetTasks(ctx, services.ListTasksParams{
		UserID:   userID,
		Status:   status,
		Category: req.GetString("category", ""),
		Priority: req.GetString("priority", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list tasks: %v", err)), nil
	}
	if len(list.Tasks) == 0 {
		return mcp.NewToolResultText("No tasks found."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d task(s) (%d pending, %d completed):\n",
		list.Counts.All, list.Counts.Pending, list.Counts.Completed)
	for _, task := range list.Tasks {
		sb.WriteString(formatTask(task))
		sb.WriteByte('\n')
	}

	return mcp.NewToolResultText(strings.TrimRight(sb.String(), "\n")), nil
}

func formatTask(task *models.Task) string {
	var sb strings.Builder
	if task.Completed {
		sb.WriteString("[x] ")
	} else {
		sb.WriteString("[ ] ")
	}
	fmt.Fprintf(&sb, "%s (id %s, %s, %s", task.Title, task.ID, task.Priority, task.Category)
	if len(task.Tags) > 0 {
		fmt.Fprintf(&sb, ", tags: %s", strings.Join(task.Tags, ","))
	}
	if task.DueDate != nil {
		fmt.Fprintf(&sb, ", due %s", task.DueDate.Format("2006-01-02"))
		if task.DueTime != nil {
			fmt.Fprintf(&sb, " %s", *task.DueTime)
		}
	}
	sb.WriteString(")")
	return sb.String()
}
