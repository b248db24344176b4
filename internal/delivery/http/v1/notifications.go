package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/luminahq/lumina/internal/models"
	"github.com/luminahq/lumina/internal/services"
)

type notificationResponse struct {
	ID        string    `json:"id"`
	TaskID    *string   `json:"task_id,omitempty"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func newNotificationResponse(notification *models.Notification) notificationResponse {
	return notificationResponse{
		ID:        notification.ID,
		TaskID:    notification.TaskID,
		Type:      notification.Type,
		Message:   notification.Message,
		IsRead:    notification.IsRead,
		CreatedAt: notification.CreatedAt,
	}
}

func (h *handlerImpl) HandleGetNotifications(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	unreadOnly := c.Query("unread") == "true"
	notifications, err := h.notifications.GetNotifications(c, userID, unreadOnly)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to get notifications")
		abort(c, newInternalError())
		return
	}

	response := make([]notificationResponse, len(notifications))
	for i, notification := range notifications {
		response[i] = newNotificationResponse(notification)
	}
	c.JSON(http.StatusOK, gin.H{"notifications": response})
}

func (h *handlerImpl) HandleMarkNotificationRead(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	err := h.notifications.MarkNotificationRead(c, userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrNotificationNotFound) {
			abort(c, newNotFoundError(services.ErrNotificationNotFound.Error()))
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to mark notification read")
		abort(c, newInternalError())
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handlerImpl) HandleMarkAllNotificationsRead(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	err := h.notifications.MarkAllNotificationsRead(c, userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to mark all notifications read")
		abort(c, newInternalError())
		return
	}

	c.Status(http.StatusNoContent)
}
