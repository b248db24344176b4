package mcptools

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/luminahq/lumina/internal/services"
)

// Version is set at build time via ldflags.
var Version = "dev"

// NewServer creates the MCP server with all task tools registered.
func NewServer(tasks services.TaskService) *server.MCPServer {
	s := server.NewMCPServer(
		"lumina",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	addTool := NewAddTaskTool(tasks)
	s.AddTool(addTool.Definition(), addTool.Handle)

	listTool := NewListTasksTool(tasks)
	s.AddTool(listTool.Definition(), listTool.Handle)

	completeTool := NewCompleteTaskTool(tasks)
	s.AddTool(completeTool.Definition(), completeTool.Handle)

	deleteTool := NewDeleteTaskTool(tasks)
	s.AddTool(deleteTool.Definition(), deleteTool.Handle)

	updateTool := NewUpdateTaskTool(tasks)
	s.AddTool(updateTool.Definition(), updateTool.Handle)

	return s
}

func serverInstructions() string {
	return `You have access to Lumina, a todo list MCP server.

Use the tools to manage the user's tasks:
- add_task creates a task. Only title is required; priority defaults to medium and category to other.
- list_tasks shows tasks with pending/completed counts. Filter by status, category or priority.
- complete_task toggles completion: completing an open task marks it done, completing a done task reopens it.
- update_task changes only the fields you pass. Pass 'none' for due_date or due_time to clear them.
- delete_task removes a task permanently. Confirm with the user before deleting.

Every tool requires user_id. Use the task ids returned by list_tasks, never invent them.`
}
