package services

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/luminahq/lumina/internal/metrics"
	"github.com/luminahq/lumina/internal/models"
	"github.com/luminahq/lumina/internal/mq"
)

type notificationServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
	// events is optional: the REST binary only reads notifications
	// and may pass nil.
	events EventPublisher
}

func NewNotificationService(logger zerolog.Logger, pgPool *pgxpool.Pool, events EventPublisher) NotificationService {
	return &notificationServiceImpl{
		logger: logger,
		pgPool: pgPool,
		events: events,
	}
}

// truncateMessage caps the message at max bytes. Cutting inside a
// multi-byte rune would store invalid UTF-8, so the cut backs up to
// the nearest rune boundary.
func truncateMessage(message string, max int) string {
	if len(message) <= max {
		return message
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(message[cut]) {
		cut--
	}
	return message[:cut]
}

func (s *notificationServiceImpl) CreateNotification(ctx context.Context, params CreateNotificationParams) (*models.Notification, error) {
	message := truncateMessage(params.Message, models.NotificationMessageMaxLen)

	notificationUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate notification uuid")
		return nil, err
	}

	notification := &models.Notification{
		ID:        notificationUUID.String(),
		UserID:    params.UserID,
		TaskID:    params.TaskID,
		Type:      params.Type,
		Message:   message,
		CreatedAt: time.Now(),
	}

	const insertNotificationQuery = `
INSERT INTO notifications (id, user_id, task_id, type, message, is_read, created_at)
VALUES ($1, $2, $3, $4, $5, FALSE, $6)
`
	_, err = s.pgPool.Exec(
		ctx,
		insertNotificationQuery,
		notification.ID,
		notification.UserID,
		notification.TaskID,
		notification.Type,
		notification.Message,
		notification.CreatedAt,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert notification")
		return nil, err
	}
	metrics.NotificationsCreated.WithLabelValues(notification.Type).Inc()

	s.logger.Info().
		Str("notification_id", notification.ID).
		Str("user_id", notification.UserID).
		Str("type", notification.Type).
		Msg("created notification")
	return notification, nil
}

func (s *notificationServiceImpl) GetNotifications(ctx context.Context, userID string, unreadOnly bool) ([]*models.Notification, error) {
	query := `
SELECT id, task_id, type, message, is_read, created_at
FROM notifications
WHERE user_id = $1`
	if unreadOnly {
		query += " AND NOT is_read"
	}
	query += "\nORDER BY created_at DESC"

	rows, err := s.pgPool.Query(ctx, query, userID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to select notifications")
		return nil, err
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		notification := &models.Notification{UserID: userID}
		err = rows.Scan(
			&notification.ID,
			&notification.TaskID,
			&notification.Type,
			&notification.Message,
			&notification.IsRead,
			&notification.CreatedAt,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan notification")
			return nil, err
		}
		notifications = append(notifications, notification)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}
	return notifications, nil
}

func (s *notificationServiceImpl) MarkNotificationRead(ctx context.Context, userID, notificationID string) error {
	const markNotificationReadQuery = `
UPDATE notifications
SET is_read = TRUE
WHERE id = $1 AND user_id = $2
`
	tag, err := s.pgPool.Exec(
		ctx,
		markNotificationReadQuery,
		notificationID,
		userID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("notification_id", notificationID).
			Msg("failed to mark notification read")
		return err
	}
	if tag.RowsAffected() == 0 {
		s.logger.Warn().
			Str("notification_id", notificationID).
			Str("user_id", userID).
			Msg("notification not found")
		return ErrNotificationNotFound
	}

	return nil
}

func (s *notificationServiceImpl) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	const markAllNotificationsReadQuery = `
UPDATE notifications
SET is_read = TRUE
WHERE user_id = $1 AND NOT is_read
`
	tag, err := s.pgPool.Exec(
		ctx,
		markAllNotificationsReadQuery,
		userID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to mark all notifications read")
		return err
	}

	s.logger.Info().
		Str("user_id", userID).
		Int64("count", tag.RowsAffected()).
		Msg("marked all notifications read")
	return nil
}

// dueTask is a reminder sweep row.
type dueTask struct {
	id      string
	userID  string
	title   string
	dueDate time.Time
	dueTime *string
}

func (s *notificationServiceImpl) GenerateDueSoonNotifications(ctx context.Context) (int, error) {
	// Open tasks due within the next 24 hours that have no
	// TASK_DUE_SOON row yet. Tasks without a due time are treated as
	// due at end of day.
	const selectDueSoonTasksQuery = `
SELECT t.id, t.user_id, t.title, t.due_date, to_char(t.due_time, 'HH24:MI')
FROM tasks t
WHERE NOT t.completed AND
      t.due_date IS NOT NULL AND
      t.due_date + COALESCE(t.due_time, '23:59'::time) BETWEEN now() AND now() + INTERVAL '24 hours' AND
      NOT EXISTS (SELECT 1
                  FROM notifications n
                  WHERE n.task_id = t.id AND n.type = $1)
`
	return s.generate(ctx, selectDueSoonTasksQuery, models.NotificationTaskDueSoon, func(task dueTask) string {
		if task.dueTime != nil {
			return fmt.Sprintf("Task %q is due on %s at %s", task.title, task.dueDate.Format("2006-01-02"), *task.dueTime)
		}
		return fmt.Sprintf("Task %q is due on %s", task.title, task.dueDate.Format("2006-01-02"))
	})
}

func (s *notificationServiceImpl) GenerateOverdueNotifications(ctx context.Context) (int, error) {
	const selectOverdueTasksQuery = `
SELECT t.id, t.user_id, t.title, t.due_date, to_char(t.due_time, 'HH24:MI')
FROM tasks t
WHERE NOT t.completed AND
      t.due_date IS NOT NULL AND
      t.due_date + COALESCE(t.due_time, '23:59'::time) < now() AND
      NOT EXISTS (SELECT 1
                  FROM notifications n
                  WHERE n.task_id = t.id AND n.type = $1)
`
	return s.generate(ctx, selectOverdueTasksQuery, models.NotificationTaskOverdue, func(task dueTask) string {
		return fmt.Sprintf("Task %q was due on %s", task.title, task.dueDate.Format("2006-01-02"))
	})
}

func (s *notificationServiceImpl) generate(ctx context.Context, query, notificationType string, message func(dueTask) string) (int, error) {
	rows, err := s.pgPool.Query(ctx, query, notificationType)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("type", notificationType).
			Msg("failed to select tasks for reminder sweep")
		return 0, err
	}

	tasks, err := s.scanDueTasks(rows)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, task := range tasks {
		taskID := task.id
		_, err = s.CreateNotification(ctx, CreateNotificationParams{
			UserID:  task.userID,
			TaskID:  &taskID,
			Type:    notificationType,
			Message: message(task),
		})
		if err != nil {
			return created, err
		}
		created++
		s.publishDueReminder(task, notificationType)
	}

	s.logger.Info().
		Str("type", notificationType).
		Int("created", created).
		Msg("finished reminder sweep")
	return created, nil
}

// publishDueReminder mirrors the best-effort publishing of the task
// write path: a broker outage never fails the sweep.
func (s *notificationServiceImpl) publishDueReminder(task dueTask, notificationType string) {
	if s.events == nil {
		return
	}

	err := s.events.Publish(mq.RoutingKeyTaskDueReminder, mq.TaskDueReminderEvent{
		TaskID:  task.id,
		UserID:  task.userID,
		Title:   task.title,
		Type:    notificationType,
		DueDate: task.dueDate,
	})
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("task_id", task.id).
			Msg("failed to publish due reminder event")
	}
}

func (s *notificationServiceImpl) scanDueTasks(rows pgx.Rows) ([]dueTask, error) {
	defer rows.Close()

	var tasks []dueTask
	for rows.Next() {
		var task dueTask
		err := rows.Scan(
			&task.id,
			&task.userID,
			&task.title,
			&task.dueDate,
			&task.dueTime,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan task for reminder sweep")
			return nil, err
		}
		tasks = append(tasks, task)
	}

	err := rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}
	return tasks, nil
}

func (s *notificationServiceImpl) CleanupOldNotifications(ctx context.Context, olderThan time.Duration) (int, error) {
	const deleteOldNotificationsQuery = `
DELETE FROM notifications
WHERE created_at < $1
`
	tag, err := s.pgPool.Exec(
		ctx,
		deleteOldNotificationsQuery,
		time.Now().Add(-olderThan),
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to delete old notifications")
		return 0, err
	}

	deleted := int(tag.RowsAffected())
	s.logger.Info().
		Int("deleted", deleted).
		Msg("cleaned up old notifications")
	return deleted, nil
}
