// Package worker runs the background side of the system: it turns
// task events from the broker into notifications and sweeps tasks
// for due-soon and overdue reminders.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/luminahq/lumina/internal/models"
	"github.com/luminahq/lumina/internal/mq"
	"github.com/luminahq/lumina/internal/services"
)

const (
	reminderInterval      = time.Hour
	cleanupInterval       = 24 * time.Hour
	notificationRetention = 30 * 24 * time.Hour
)

type Worker struct {
	logger        zerolog.Logger
	notifications services.NotificationService
}

func New(logger zerolog.Logger, notifications services.NotificationService) *Worker {
	return &Worker{
		logger:        logger,
		notifications: notifications,
	}
}

// HandleTaskCompleted is the consumer handler for task.completed
// events. Failures are returned so the delivery is retried once
// before landing in the nack path.
func (w *Worker) HandleTaskCompleted(ctx context.Context, body json.RawMessage) error {
	var event mq.TaskCompletedEvent
	err := json.Unmarshal(body, &event)
	if err != nil {
		return fmt.Errorf("failed to unmarshal task completed event: %w", err)
	}

	_, err = w.notifications.CreateNotification(ctx, services.CreateNotificationParams{
		UserID:  event.UserID,
		TaskID:  &event.TaskID,
		Type:    models.NotificationTaskCompleted,
		Message: fmt.Sprintf("Task %q completed", event.Title),
	})
	if err != nil {
		return fmt.Errorf("failed to create completion notification: %w", err)
	}

	w.logger.Info().
		Str("task_id", event.TaskID).
		Str("user_id", event.UserID).
		Msg("handled task completed event")
	return nil
}

// RunReminderLoop generates reminder notifications every hour and
// prunes old notifications once a day. It blocks until the context
// is canceled.
func (w *Worker) RunReminderLoop(ctx context.Context) {
	reminderTicker := time.NewTicker(reminderInterval)
	defer reminderTicker.Stop()
	cleanupTicker := time.NewTicker(cleanupInterval)
	defer cleanupTicker.Stop()

	w.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("stopping reminder loop")
			return
		case <-reminderTicker.C:
			w.sweep(ctx)
		case <-cleanupTicker.C:
			w.cleanup(ctx)
		}
	}
}

func (w *Worker) sweep(ctx context.Context) {
	dueSoon, err := w.notifications.GenerateDueSoonNotifications(ctx)
	if err != nil {
		w.logger.Error().
			Err(err).
			Msg("due soon sweep failed")
	}

	overdue, err := w.notifications.GenerateOverdueNotifications(ctx)
	if err != nil {
		w.logger.Error().
			Err(err).
			Msg("overdue sweep failed")
	}

	w.logger.Info().
		Int("due_soon", dueSoon).
		Int("overdue", overdue).
		Msg("finished reminder sweep")
}

func (w *Worker) cleanup(ctx context.Context) {
	deleted, err := w.notifications.CleanupOldNotifications(ctx, notificationRetention)
	if err != nil {
		w.logger.Error().
			Err(err).
			Msg("notification cleanup failed")
		return
	}

	w.logger.Info().
		Int("deleted", deleted).
		Msg("finished notification cleanup")
}
