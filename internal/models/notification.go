package models

import "time"

const (
	NotificationTaskDueSoon   = "TASK_DUE_SOON"
	NotificationTaskOverdue   = "TASK_OVERDUE"
	NotificationTaskCompleted = "TASK_COMPLETED"
)

const NotificationMessageMaxLen = 500

type Notification struct {
	ID        string
	UserID    string
	TaskID    *string
	Type      string
	Message   string
	IsRead    bool
	CreatedAt time.Time
}
