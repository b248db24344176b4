package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/luminahq/lumina/internal/models"
)

type conversationServiceImpl struct {
	logger         zerolog.Logger
	pgPool         *pgxpool.Pool
	sessionTimeout time.Duration
	contextLimit   int
}

func NewConversationService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
	sessionTimeout time.Duration,
	contextLimit int,
) ConversationService {
	return &conversationServiceImpl{
		logger:         logger,
		pgPool:         pgPool,
		sessionTimeout: sessionTimeout,
		contextLimit:   contextLimit,
	}
}

func (s *conversationServiceImpl) GetOrCreateConversation(ctx context.Context, userID, conversationID string) (*models.Conversation, error) {
	activeSince := time.Now().Add(-s.sessionTimeout)

	if conversationID != "" {
		conversation, err := s.selectConversation(ctx, userID, conversationID, activeSince)
		if err != nil && !errors.Is(err, ErrConversationNotFound) {
			return nil, err
		}
		if conversation != nil {
			return conversation, nil
		}
		// Fall through: an expired or foreign conversation id starts
		// the user over instead of erroring.
	}

	conversation, err := s.selectLatestConversation(ctx, userID, activeSince)
	if err != nil && !errors.Is(err, ErrConversationNotFound) {
		return nil, err
	}
	if conversation != nil {
		return conversation, nil
	}

	return s.createConversation(ctx, userID)
}

func (s *conversationServiceImpl) selectConversation(ctx context.Context, userID, conversationID string, activeSince time.Time) (*models.Conversation, error) {
	conversation := &models.Conversation{
		ID:     conversationID,
		UserID: userID,
	}

	const selectConversationQuery = `
SELECT created_at, last_activity
FROM conversations
WHERE id = $1 AND user_id = $2 AND last_activity >= $3
`
	err := s.pgPool.QueryRow(
		ctx,
		selectConversationQuery,
		conversation.ID,
		conversation.UserID,
		activeSince,
	).Scan(
		&conversation.CreatedAt,
		&conversation.LastActivity,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConversationNotFound
		}

		s.logger.Error().
			Err(err).
			Str("conversation_id", conversationID).
			Msg("failed to select conversation")
		return nil, err
	}

	return conversation, nil
}

func (s *conversationServiceImpl) selectLatestConversation(ctx context.Context, userID string, activeSince time.Time) (*models.Conversation, error) {
	conversation := &models.Conversation{UserID: userID}

	const selectLatestConversationQuery = `
SELECT id, created_at, last_activity
FROM conversations
WHERE user_id = $1 AND last_activity >= $2
ORDER BY last_activity DESC
LIMIT 1
`
	err := s.pgPool.QueryRow(
		ctx,
		selectLatestConversationQuery,
		conversation.UserID,
		activeSince,
	).Scan(
		&conversation.ID,
		&conversation.CreatedAt,
		&conversation.LastActivity,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConversationNotFound
		}

		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to select latest conversation")
		return nil, err
	}

	return conversation, nil
}

func (s *conversationServiceImpl) createConversation(ctx context.Context, userID string) (*models.Conversation, error) {
	conversationUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate conversation uuid")
		return nil, err
	}

	now := time.Now()
	conversation := &models.Conversation{
		ID:           conversationUUID.String(),
		UserID:       userID,
		CreatedAt:    now,
		LastActivity: now,
	}

	const insertConversationQuery = `
INSERT INTO conversations (id, user_id, created_at, last_activity)
VALUES ($1, $2, $3, $4)
`
	_, err = s.pgPool.Exec(
		ctx,
		insertConversationQuery,
		conversation.ID,
		conversation.UserID,
		conversation.CreatedAt,
		conversation.LastActivity,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert conversation")
		return nil, err
	}

	s.logger.Info().
		Str("conversation_id", conversation.ID).
		Str("user_id", userID).
		Msg("created conversation")
	return conversation, nil
}

func (s *conversationServiceImpl) ContextMessages(ctx context.Context, conversationID string) ([]*models.Message, error) {
	// The inner query grabs the newest messages, the outer one puts
	// them back in chronological order for the model.
	const selectContextMessagesQuery = `
SELECT id, role, content, created_at
FROM (SELECT id, role, content, created_at
      FROM messages
      WHERE conversation_id = $1
      ORDER BY created_at DESC
      LIMIT $2) AS recent
ORDER BY created_at
`
	rows, err := s.pgPool.Query(
		ctx,
		selectContextMessagesQuery,
		conversationID,
		s.contextLimit,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("conversation_id", conversationID).
			Msg("failed to select context messages")
		return nil, err
	}
	defer rows.Close()

	return s.scanMessages(rows, conversationID)
}

func (s *conversationServiceImpl) StoreMessage(ctx context.Context, conversationID, role, content string) (*models.Message, error) {
	messageUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate message uuid")
		return nil, err
	}

	message := &models.Message{
		ID:             messageUUID.String(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now(),
	}

	const insertMessageQuery = `
INSERT INTO messages (id, conversation_id, role, content, created_at)
VALUES ($1, $2, $3, $4, $5)
`
	_, err = s.pgPool.Exec(
		ctx,
		insertMessageQuery,
		message.ID,
		message.ConversationID,
		message.Role,
		message.Content,
		message.CreatedAt,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("conversation_id", conversationID).
			Msg("failed to insert message")
		return nil, err
	}
	s.logger.Debug().
		Str("message_id", message.ID).
		Str("role", role).
		Msg("stored message")

	return message, nil
}

func (s *conversationServiceImpl) TouchConversation(ctx context.Context, conversationID string) error {
	const touchConversationQuery = `
UPDATE conversations
SET last_activity = $1
WHERE id = $2
`
	tag, err := s.pgPool.Exec(
		ctx,
		touchConversationQuery,
		time.Now(),
		conversationID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("conversation_id", conversationID).
			Msg("failed to touch conversation")
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConversationNotFound
	}

	return nil
}

func (s *conversationServiceImpl) ListConversations(ctx context.Context, userID string) ([]*models.Conversation, error) {
	const selectConversationsQuery = `
SELECT id, created_at, last_activity
FROM conversations
WHERE user_id = $1
ORDER BY last_activity DESC
`
	rows, err := s.pgPool.Query(
		ctx,
		selectConversationsQuery,
		userID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to select conversations")
		return nil, err
	}
	defer rows.Close()

	var conversations []*models.Conversation
	for rows.Next() {
		conversation := &models.Conversation{UserID: userID}
		err = rows.Scan(
			&conversation.ID,
			&conversation.CreatedAt,
			&conversation.LastActivity,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan conversation")
			return nil, err
		}
		conversations = append(conversations, conversation)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}
	return conversations, nil
}

func (s *conversationServiceImpl) GetMessages(ctx context.Context, userID, conversationID string) ([]*models.Message, error) {
	const checkConversationOwnerQuery = `
SELECT EXISTS (SELECT 1 FROM conversations WHERE id = $1 AND user_id = $2)
`
	var owned bool
	err := s.pgPool.QueryRow(
		ctx,
		checkConversationOwnerQuery,
		conversationID,
		userID,
	).Scan(&owned)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("conversation_id", conversationID).
			Msg("failed to check conversation owner")
		return nil, err
	}
	if !owned {
		s.logger.Warn().
			Str("conversation_id", conversationID).
			Str("user_id", userID).
			Msg("conversation not found")
		return nil, ErrConversationNotFound
	}

	const selectMessagesQuery = `
SELECT id, role, content, created_at
FROM messages
WHERE conversation_id = $1
ORDER BY created_at
`
	rows, err := s.pgPool.Query(
		ctx,
		selectMessagesQuery,
		conversationID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("conversation_id", conversationID).
			Msg("failed to select messages")
		return nil, err
	}
	defer rows.Close()

	return s.scanMessages(rows, conversationID)
}

func (s *conversationServiceImpl) scanMessages(rows pgx.Rows, conversationID string) ([]*models.Message, error) {
	var messages []*models.Message
	for rows.Next() {
		message := &models.Message{ConversationID: conversationID}
		err := rows.Scan(
			&message.ID,
			&message.Role,
			&message.Content,
			&message.CreatedAt,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan message")
			return nil, err
		}
		messages = append(messages, message)
	}

	err := rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}
	return messages, nil
}
