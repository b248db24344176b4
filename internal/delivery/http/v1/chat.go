package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/luminahq/lumina/internal/models"
	"github.com/luminahq/lumina/internal/services"
)

type chatRequest struct {
	Message        string `json:"message" binding:"required,max=2000"`
	ConversationID string `json:"conversation_id"`
}

type chatResponse struct {
	ConversationID string `json:"conversation_id"`
	Response       string `json:"response"`
}

func (h *handlerImpl) HandleChat(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var req chatRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	if h.cache != nil && !h.cache.AllowChat(c, userID, h.chatRateLimit) {
		h.logger.Warn().
			Str("user_id", userID).
			Msg("chat rate limit exceeded")
		abort(c, newTooManyRequestsError("too many chat requests, slow down"))
		return
	}

	result, err := h.agent.ProcessChat(c, userID, req.ConversationID, req.Message)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to process chat")
		abort(c, newInternalError())
		return
	}

	c.JSON(http.StatusOK, chatResponse{
		ConversationID: result.ConversationID,
		Response:       result.Response,
	})
}

type conversationResponse struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

func (h *handlerImpl) HandleListConversations(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	conversations, err := h.conversations.ListConversations(c, userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list conversations")
		abort(c, newInternalError())
		return
	}

	response := make([]conversationResponse, len(conversations))
	for i, conversation := range conversations {
		response[i] = conversationResponse{
			ID:           conversation.ID,
			CreatedAt:    conversation.CreatedAt,
			LastActivity: conversation.LastActivity,
		}
	}
	c.JSON(http.StatusOK, gin.H{"conversations": response})
}

type messageResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func newMessageResponse(message *models.Message) messageResponse {
	return messageResponse{
		ID:        message.ID,
		Role:      message.Role,
		Content:   message.Content,
		CreatedAt: message.CreatedAt,
	}
}

func (h *handlerImpl) HandleGetConversationMessages(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	messages, err := h.conversations.GetMessages(c, userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrConversationNotFound) {
			abort(c, newNotFoundError(services.ErrConversationNotFound.Error()))
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to get conversation messages")
		abort(c, newInternalError())
		return
	}

	response := make([]messageResponse, len(messages))
	for i, message := range messages {
		response[i] = newMessageResponse(message)
	}
	c.JSON(http.StatusOK, gin.H{"messages": response})
}
