package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/luminahq/lumina/internal/metrics"
	"github.com/luminahq/lumina/internal/models"
	"github.com/luminahq/lumina/internal/services"
)

const (
	toolAddTask      = "add_task"
	toolListTasks    = "list_tasks"
	toolCompleteTask = "complete_task"
	toolDeleteTask   = "delete_task"
	toolUpdateTask   = "update_task"
)

var priorityValues = []string{models.PriorityHigh, models.PriorityMedium, models.PriorityLow}

var categoryValues = []string{
	models.CategoryWork,
	models.CategoryPersonal,
	models.CategoryShopping,
	models.CategoryHealth,
	models.CategoryOther,
}

// toolDefinitions returns the function schemas offered to the model.
// Task ownership is not part of the schema: the executor scopes every
// call to the authenticated user.
func toolDefinitions() []Tool {
	taskFields := map[string]any{
		"title": map[string]any{
			"type":        "string",
			"description": "Short task title",
		},
		"description": map[string]any{
			"type":        "string",
			"description": "Optional longer description",
		},
		"priority": map[string]any{
			"type": "string",
			"enum": priorityValues,
		},
		"category": map[string]any{
			"type": "string",
			"enum": categoryValues,
		},
		"tags": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "Free-form tags",
		},
		"due_date": map[string]any{
			"type":        "string",
			"description": "Due date in YYYY-MM-DD form",
		},
		"due_time": map[string]any{
			"type":        "string",
			"description": "Due time in HH:MM form",
		},
	}

	updateFields := map[string]any{
		"task_id": map[string]any{
			"type":        "string",
			"description": "ID of the task to update",
		},
	}
	for name, schema := range taskFields {
		updateFields[name] = schema
	}

	return []Tool{
		{
			Type: "function",
			Function: ToolFunction{
				Name:        toolAddTask,
				Description: "Create a new todo task for the user.",
				Parameters: map[string]any{
					"type":       "object",
					"properties": taskFields,
					"required":   []string{"title"},
				},
			},
		},
		{
			Type: "function",
			Function: ToolFunction{
				Name:        toolListTasks,
				Description: "List the user's tasks, optionally filtered by status, category or priority.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"status": map[string]any{
							"type": "string",
							"enum": []string{"pending", "completed", "all"},
						},
						"category": map[string]any{
							"type": "string",
							"enum": categoryValues,
						},
						"priority": map[string]any{
							"type": "string",
							"enum": priorityValues,
						},
					},
				},
			},
		},
		{
			Type: "function",
			Function: ToolFunction{
				Name:        toolCompleteTask,
				Description: "Mark a task as completed, or reopen it if it is already completed.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"task_id": map[string]any{
							"type":        "string",
							"description": "ID of the task to complete",
						},
					},
					"required": []string{"task_id"},
				},
			},
		},
		{
			Type: "function",
			Function: ToolFunction{
				Name:        toolDeleteTask,
				Description: "Delete a task permanently.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"task_id": map[string]any{
							"type":        "string",
							"description": "ID of the task to delete",
						},
					},
					"required": []string{"task_id"},
				},
			},
		},
		{
			Type: "function",
			Function: ToolFunction{
				Name:        toolUpdateTask,
				Description: "Update fields of an existing task.",
				Parameters: map[string]any{
					"type":       "object",
					"properties": updateFields,
					"required":   []string{"task_id"},
				},
			},
		},
	}
}

// Executor runs tool calls issued by the model against the task
// service under the authenticated user's identity.
type Executor struct {
	logger zerolog.Logger
	tasks  services.TaskService
}

func NewExecutor(logger zerolog.Logger, tasks services.TaskService) *Executor {
	return &Executor{
		logger: logger,
		tasks:  tasks,
	}
}

// Execute runs one tool call and returns text for the model to read.
// Errors become readable messages instead of failing the chat turn.
func (e *Executor) Execute(ctx context.Context, userID string, call ToolCall) string {
	result, err := e.execute(ctx, userID, call)
	if err != nil {
		metrics.ToolExecutions.WithLabelValues(call.Function.Name, "error").Inc()
		e.logger.Warn().
			Err(err).
			Str("tool", call.Function.Name).
			Msg("tool call failed")

		switch {
		case errors.Is(err, services.ErrTaskNotFound):
			return "I couldn't find that task. It may have been deleted already."
		default:
			return "Error: " + err.Error()
		}
	}

	metrics.ToolExecutions.WithLabelValues(call.Function.Name, "ok").Inc()
	return result
}

func (e *Executor) execute(ctx context.Context, userID string, call ToolCall) (string, error) {
	switch call.Function.Name {
	case toolAddTask:
		return e.addTask(ctx, userID, call.Function.Arguments)
	case toolListTasks:
		return e.listTasks(ctx, userID, call.Function.Arguments)
	case toolCompleteTask:
		return e.completeTask(ctx, userID, call.Function.Arguments)
	case toolDeleteTask:
		return e.deleteTask(ctx, userID, call.Function.Arguments)
	case toolUpdateTask:
		return e.updateTask(ctx, userID, call.Function.Arguments)
	default:
		return "", fmt.Errorf("unknown tool %q", call.Function.Name)
	}
}

type taskArgs struct {
	TaskID      string   `json:"task_id"`
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Priority    *string  `json:"priority"`
	Category    *string  `json:"category"`
	Tags        []string `json:"tags"`
	DueDate     string   `json:"due_date"`
	DueTime     *string  `json:"due_time"`
	Status      string   `json:"status"`
}

func parseTaskArgs(raw string) (*taskArgs, error) {
	var args taskArgs
	err := json.Unmarshal([]byte(raw), &args)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal tool arguments: %w", err)
	}
	return &args, nil
}

func parseDueDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	dueDate, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("due_date must be in YYYY-MM-DD form")
	}
	return &dueDate, nil
}

func (e *Executor) addTask(ctx context.Context, userID, raw string) (string, error) {
	args, err := parseTaskArgs(raw)
	if err != nil {
		return "", err
	}
	dueDate, err := parseDueDate(args.DueDate)
	if err != nil {
		return "", err
	}

	params := services.CreateTaskParams{
		UserID:  userID,
		Tags:    args.Tags,
		DueDate: dueDate,
		DueTime: args.DueTime,
	}
	if args.Title != nil {
		params.Title = *args.Title
	}
	if args.Description != nil {
		params.Description = *args.Description
	}
	if args.Priority != nil {
		params.Priority = *args.Priority
	}
	if args.Category != nil {
		params.Category = *args.Category
	}

	task, err := e.tasks.CreateTask(ctx, params)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Created task %q (id %s, priority %s, category %s)",
		task.Title, task.ID, task.Priority, task.Category), nil
}

func (e *Executor) listTasks(ctx context.Context, userID, raw string) (string, error) {
	args, err := parseTaskArgs(raw)
	if err != nil {
		return "", err
	}

	status := args.Status
	if status == "all" {
		status = ""
	}
	params := services.ListTasksParams{
		UserID: userID,
		Status: status,
	}
	if args.Category != nil {
		params.Category = *args.Category
	}
	if args.Priority != nil {
		params.Priority = *args.Priority
	}

	list, err := e.tasks.GetTasks(ctx, params)
	if err != nil {
		return "", err
	}
	if len(list.Tasks) == 0 {
		return "No tasks found.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d task(s):\n", len(list.Tasks))
	for _, task := range list.Tasks {
		sb.WriteString(formatTaskLine(task))
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func formatTaskLine(task *models.Task) string {
	var sb strings.Builder
	if task.Completed {
		sb.WriteString("[x] ")
	} else {
		sb.WriteString("[ ] ")
	}
	fmt.Fprintf(&sb, "%s (id %s, %s, %s", task.Title, task.ID, task.Priority, task.Category)
	if task.DueDate != nil {
		fmt.Fprintf(&sb, ", due %s", task.DueDate.Format("2006-01-02"))
		if task.DueTime != nil {
			fmt.Fprintf(&sb, " %s", *task.DueTime)
		}
	}
	sb.WriteString(")")
	return sb.String()
}

func (e *Executor) completeTask(ctx context.Context, userID, raw string) (string, error) {
	args, err := parseTaskArgs(raw)
	if err != nil {
		return "", err
	}

	task, err := e.tasks.ToggleTaskCompletion(ctx, userID, args.TaskID)
	if err != nil {
		return "", err
	}
	if task.Completed {
		return fmt.Sprintf("Marked task %q as completed", task.Title), nil
	}
	return fmt.Sprintf("Reopened task %q", task.Title), nil
}

func (e *Executor) deleteTask(ctx context.Context, userID, raw string) (string, error) {
	args, err := parseTaskArgs(raw)
	if err != nil {
		return "", err
	}

	task, err := e.tasks.GetTask(ctx, userID, args.TaskID)
	if err != nil {
		return "", err
	}
	err = e.tasks.DeleteTask(ctx, userID, args.TaskID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Deleted task %q", task.Title), nil
}

func (e *Executor) updateTask(ctx context.Context, userID, raw string) (string, error) {
	args, err := parseTaskArgs(raw)
	if err != nil {
		return "", err
	}
	dueDate, err := parseDueDate(args.DueDate)
	if err != nil {
		return "", err
	}

	params := services.UpdateTaskParams{
		ID:          args.TaskID,
		UserID:      userID,
		Title:       args.Title,
		Description: args.Description,
		Priority:    args.Priority,
		Category:    args.Category,
		DueDate:     dueDate,
		DueTime:     args.DueTime,
	}
	if args.Tags != nil {
		params.Tags = &args.Tags
	}

	task, err := e.tasks.UpdateTask(ctx, params)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Updated task %q", task.Title), nil
}
