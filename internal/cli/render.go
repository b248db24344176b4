package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/luminahq/lumina/internal/models"
)

func renderTaskTable(out io.Writer, tasks []*models.Task) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"ID", "Done", "Title", "Priority", "Category", "Tags", "Due"})
	table.SetAutoWrapText(false)

	for _, task := range tasks {
		done := " "
		if task.Completed {
			done = "x"
		}
		table.Append([]string{
			task.ID,
			done,
			task.Title,
			task.Priority,
			task.Category,
			strings.Join(task.Tags, ","),
			formatDue(task),
		})
	}
	table.Render()
}

func formatDue(task *models.Task) string {
	if task.DueDate == nil {
		return ""
	}
	due := task.DueDate.Format("2006-01-02")
	if task.DueTime != nil {
		due += " " + *task.DueTime
	}
	return due
}

func renderTaskDetail(out io.Writer, task *models.Task) {
	status := "pending"
	if task.Completed {
		status = "completed"
	}

	fmt.Fprintf(out, "Task %s\n", task.ID)
	fmt.Fprintf(out, "  Title:       %s\n", task.Title)
	if task.Description != "" {
		fmt.Fprintf(out, "  Description: %s\n", task.Description)
	}
	fmt.Fprintf(out, "  Status:      %s\n", status)
	fmt.Fprintf(out, "  Priority:    %s\n", task.Priority)
	fmt.Fprintf(out, "  Category:    %s\n", task.Category)
	if len(task.Tags) > 0 {
		fmt.Fprintf(out, "  Tags:        %s\n", strings.Join(task.Tags, ", "))
	}
	if due := formatDue(task); due != "" {
		fmt.Fprintf(out, "  Due:         %s\n", due)
	}
	if task.CompletedAt != nil {
		fmt.Fprintf(out, "  Completed:   %s\n", task.CompletedAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(out, "  Created:     %s\n", task.CreatedAt.Format("2006-01-02 15:04"))
}

func renderStats(out io.Writer, tasks []*models.Task) {
	total := len(tasks)
	completed := 0
	byPriority := map[string]int{}
	byCategory := map[string]int{}
	for _, task := range tasks {
		if task.Completed {
			completed++
		}
		byPriority[task.Priority]++
		byCategory[task.Category]++
	}

	fmt.Fprintf(out, "Total: %d  Pending: %d  Completed: %d\n\n", total, total-completed, completed)

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Priority", "Count"})
	for _, priority := range []string{models.PriorityHigh, models.PriorityMedium, models.PriorityLow} {
		if count := byPriority[priority]; count > 0 {
			table.Append([]string{priority, fmt.Sprintf("%d", count)})
		}
	}
	table.Render()

	table = tablewriter.NewWriter(out)
	table.SetHeader([]string{"Category", "Count"})
	for _, category := range []string{
		models.CategoryWork, models.CategoryPersonal, models.CategoryShopping,
		models.CategoryHealth, models.CategoryOther,
	} {
		if count := byCategory[category]; count > 0 {
			table.Append([]string{category, fmt.Sprintf("%d", count)})
		}
	}
	table.Render()
}
