package mq

import "time"

// Routing keys for task lifecycle events.
const (
	RoutingKeyTaskCreated     = "task.created"
	RoutingKeyTaskCompleted   = "task.completed"
	RoutingKeyTaskDueReminder = "task.due_reminder"
)

type TaskCreatedEvent struct {
	TaskID    string    `json:"task_id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type TaskCompletedEvent struct {
	TaskID      string    `json:"task_id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	CompletedAt time.Time `json:"completed_at"`
}

// TaskDueReminderEvent is published by the reminder sweep for every
// notification it creates. Type carries the notification type, either
// TASK_DUE_SOON or TASK_OVERDUE.
type TaskDueReminderEvent struct {
	TaskID  string    `json:"task_id"`
	UserID  string    `json:"user_id"`
	Title   string    `json:"title"`
	Type    string    `json:"type"`
	DueDate time.Time `json:"due_date"`
}
