package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/luminahq/lumina/internal/models"
)

// App dispatches parsed commands against the store.
type App struct {
	store *Store
	out   io.Writer
}

func NewApp(store *Store, out io.Writer) *App {
	return &App{
		store: store,
		out:   out,
	}
}

// Run executes one command. It returns false when the user asked to
// exit.
func (a *App) Run(cmd *Command) bool {
	switch cmd.Name {
	case "add":
		a.runAdd(cmd)
	case "list":
		a.runList()
	case "show":
		a.runShow(cmd)
	case "update":
		a.runUpdate(cmd)
	case "complete":
		a.runComplete(cmd)
	case "delete":
		a.runDelete(cmd)
	case "search":
		a.runSearch(cmd)
	case "stats":
		a.runStats()
	case "help":
		a.runHelp()
	case "exit", "quit":
		fmt.Fprintln(a.out, "Bye!")
		return false
	default:
		fmt.Fprintf(a.out, "Unknown command /%s. Type /help for the command list.\n", cmd.Name)
	}
	return true
}

func (a *App) runAdd(cmd *Command) {
	if cmd.RawArgs == "" {
		fmt.Fprintln(a.out, "Usage: /add <task description> (e.g. /add Buy milk tomorrow morning #shopping)")
		return
	}

	parsed := ParseNaturalLanguage(cmd.RawArgs)
	if parsed.Title == "" {
		fmt.Fprintln(a.out, "The task needs a title.")
		return
	}

	task := &models.Task{
		Title:    parsed.Title,
		Priority: parsed.Priority,
		Category: parsed.Category,
		DueDate:  parsed.DueDate,
		DueTime:  parsed.DueTime,
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if task.Category == "" {
		task.Category = models.CategoryOther
	}

	a.store.Create(task)
	fmt.Fprintf(a.out, "Added task %s: %s\n", task.ID, task.Title)
}

func (a *App) runList() {
	tasks := a.store.List()
	if len(tasks) == 0 {
		fmt.Fprintln(a.out, "No tasks yet. Use /add to create one.")
		return
	}
	renderTaskTable(a.out, tasks)
}

func (a *App) runShow(cmd *Command) {
	if len(cmd.Args) == 0 {
		fmt.Fprintln(a.out, "Usage: /show <id>")
		return
	}

	task, ok := a.store.Get(strings.ToLower(cmd.Args[0]))
	if !ok {
		fmt.Fprintf(a.out, "Task %q not found. Use /list to see all tasks.\n", cmd.Args[0])
		return
	}
	renderTaskDetail(a.out, task)
}

func (a *App) runUpdate(cmd *Command) {
	if len(cmd.Args) < 2 {
		fmt.Fprintln(a.out, `Usage: /update <id> field=value ... (fields: title, description, priority, category, tags, due_date, due_time)`)
		return
	}

	id := strings.ToLower(cmd.Args[0])
	updates := map[string]string{}
	for _, arg := range cmd.Args[1:] {
		key, value, found := strings.Cut(arg, "=")
		if !found {
			fmt.Fprintf(a.out, "Invalid argument %q, expected field=value.\n", arg)
			return
		}
		updates[strings.ToLower(key)] = value
	}

	var applyErr error
	task, ok := a.store.Update(id, func(task *models.Task) {
		applyErr = applyUpdates(task, updates)
	})
	if !ok {
		fmt.Fprintf(a.out, "Task %q not found. Use /list to see all tasks.\n", id)
		return
	}
	if applyErr != nil {
		fmt.Fprintln(a.out, applyErr.Error())
		return
	}
	fmt.Fprintf(a.out, "Updated task %s.\n", task.ID)
}

func applyUpdates(task *models.Task, updates map[string]string) error {
	for key, value := range updates {
		switch key {
		case "title":
			if strings.TrimSpace(value) == "" {
				return fmt.Errorf("title cannot be empty")
			}
			task.Title = strings.TrimSpace(value)
		case "description":
			task.Description = value
		case "priority":
			priority := strings.ToLower(value)
			if !models.ValidPriority(priority) {
				return fmt.Errorf("priority must be one of high, medium, low")
			}
			task.Priority = priority
		case "category":
			category := strings.ToLower(value)
			if !models.ValidCategory(category) {
				return fmt.Errorf("category must be one of work, personal, shopping, health, other")
			}
			task.Category = category
		case "tags":
			task.Tags = models.CleanTags(strings.Split(value, ","))
		case "due_date":
			if value == "" || value == "none" {
				task.DueDate = nil
				break
			}
			dueDate, ok := ParseDate(value)
			if !ok {
				return fmt.Errorf("could not parse due_date %q", value)
			}
			task.DueDate = &dueDate
		case "due_time":
			if value == "" || value == "none" {
				task.DueTime = nil
				break
			}
			dueTime, ok := ParseTime(value)
			if !ok {
				return fmt.Errorf("could not parse due_time %q", value)
			}
			task.DueTime = &dueTime
		default:
			return fmt.Errorf("unknown field %q", key)
		}
	}
	return nil
}

func (a *App) runComplete(cmd *Command) {
	if len(cmd.Args) == 0 {
		fmt.Fprintln(a.out, "Usage: /complete <id>")
		return
	}

	id := strings.ToLower(cmd.Args[0])
	task, ok := a.store.Update(id, func(task *models.Task) {
		task.Completed = !task.Completed
		if task.Completed {
			now := time.Now()
			task.CompletedAt = &now
		} else {
			task.CompletedAt = nil
		}
	})
	if !ok {
		fmt.Fprintf(a.out, "Task %q not found. Use /list to see all tasks.\n", id)
		return
	}

	if task.Completed {
		fmt.Fprintf(a.out, "Completed task %s: %s\n", task.ID, task.Title)
	} else {
		fmt.Fprintf(a.out, "Reopened task %s: %s\n", task.ID, task.Title)
	}
}

func (a *App) runDelete(cmd *Command) {
	if len(cmd.Args) == 0 {
		fmt.Fprintln(a.out, "Usage: /delete <id>")
		return
	}

	id := strings.ToLower(cmd.Args[0])
	if !a.store.Delete(id) {
		fmt.Fprintf(a.out, "Task %q not found. Use /list to see all tasks.\n", id)
		return
	}
	fmt.Fprintf(a.out, "Deleted task %s.\n", id)
}

func (a *App) runSearch(cmd *Command) {
	if cmd.RawArgs == "" {
		fmt.Fprintln(a.out, "Usage: /search <keyword>")
		return
	}

	results := a.store.Search(cmd.RawArgs)
	if len(results) == 0 {
		fmt.Fprintf(a.out, "No tasks match %q.\n", cmd.RawArgs)
		return
	}
	renderTaskTable(a.out, results)
}

func (a *App) runStats() {
	tasks := a.store.List()
	if len(tasks) == 0 {
		fmt.Fprintln(a.out, "No tasks yet, nothing to report.")
		return
	}
	renderStats(a.out, tasks)
}

func (a *App) runHelp() {
	fmt.Fprint(a.out, `Commands:
  /add <description>          Add a task. Dates ("tomorrow"), times ("morning"),
                              priorities ("urgent") and #hashtags are picked up.
  /list                       Show all tasks
  /show <id>                  Show one task in detail
  /update <id> field=value    Edit a task (title, description, priority,
                              category, tags, due_date, due_time)
  /complete <id>              Toggle completion
  /delete <id>                Delete a task
  /search <keyword>           Search title, description, tags and category
  /stats                      Show totals by priority and category
  /help                       Show this help
  /exit                       Leave
`)
}
