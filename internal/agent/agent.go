package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/luminahq/lumina/internal/models"
	"github.com/luminahq/lumina/internal/services"
)

// FallbackResponse is returned to the user when the model cannot be
// reached or keeps failing mid-conversation.
const FallbackResponse = "Something went wrong. Please try again."

const systemPromptFormat = `You are Lumina, a todo list assistant. You help the user manage their tasks through the provided tools.

Rules:
- Use the tools to create, list, update, complete and delete tasks. Never invent task ids.
- When the user asks about their tasks, call list_tasks before answering.
- Keep answers short and conversational.
- Today's date is %s.`

type ChatResult struct {
	ConversationID string
	Response       string
}

// Agent drives a tool-calling chat loop over the completion client.
type Agent struct {
	logger        zerolog.Logger
	client        CompletionClient
	conversations services.ConversationService
	executor      *Executor
	maxToolRounds int
}

func New(
	logger zerolog.Logger,
	client CompletionClient,
	conversations services.ConversationService,
	executor *Executor,
	maxToolRounds int,
) *Agent {
	return &Agent{
		logger:        logger,
		client:        client,
		conversations: conversations,
		executor:      executor,
		maxToolRounds: maxToolRounds,
	}
}

// ProcessChat stores the user's message, runs the completion loop and
// stores the assistant's reply. Tool calls are executed between
// rounds until the model answers without requesting any, or the round
// cap is reached.
func (a *Agent) ProcessChat(ctx context.Context, userID, conversationID, userMessage string) (*ChatResult, error) {
	conversation, err := a.conversations.GetOrCreateConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve conversation: %w", err)
	}

	_, err = a.conversations.StoreMessage(ctx, conversation.ID, models.RoleUser, userMessage)
	if err != nil {
		return nil, fmt.Errorf("failed to store user message: %w", err)
	}

	history, err := a.conversations.ContextMessages(ctx, conversation.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load context messages: %w", err)
	}

	messages := make([]Message, 0, len(history)+1)
	messages = append(messages, Message{
		Role:    "system",
		Content: fmt.Sprintf(systemPromptFormat, time.Now().Format("2006-01-02")),
	})
	for _, msg := range history {
		messages = append(messages, Message{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	response := a.runCompletionLoop(ctx, userID, messages)

	_, err = a.conversations.StoreMessage(ctx, conversation.ID, models.RoleAssistant, response)
	if err != nil {
		return nil, fmt.Errorf("failed to store assistant message: %w", err)
	}
	err = a.conversations.TouchConversation(ctx, conversation.ID)
	if err != nil {
		a.logger.Warn().
			Err(err).
			Str("conversation_id", conversation.ID).
			Msg("failed to touch conversation")
	}

	return &ChatResult{
		ConversationID: conversation.ID,
		Response:       response,
	}, nil
}

func (a *Agent) runCompletionLoop(ctx context.Context, userID string, messages []Message) string {
	tools := toolDefinitions()

	for round := 0; round < a.maxToolRounds; round++ {
		completion, err := a.client.CreateChatCompletion(ctx, messages, tools)
		if err != nil {
			a.logger.Error().
				Err(err).
				Int("round", round).
				Msg("chat completion failed")
			return FallbackResponse
		}

		reply := completion.Choices[0].Message
		if len(reply.ToolCalls) == 0 {
			return reply.Content
		}

		messages = append(messages, reply)
		for _, call := range reply.ToolCalls {
			result := a.executor.Execute(ctx, userID, call)
			a.logger.Debug().
				Str("tool", call.Function.Name).
				Str("result", result).
				Msg("executed tool call")

			messages = append(messages, Message{
				Role:       "tool",
				Content:    result,
				ToolCallID: call.ID,
			})
		}
	}

	// The round cap is exhausted: one last call without tools forces
	// the model to answer with what it has.
	completion, err := a.client.CreateChatCompletion(ctx, messages, nil)
	if err != nil {
		a.logger.Error().
			Err(err).
			Msg("final chat completion failed")
		return FallbackResponse
	}
	return completion.Choices[0].Message.Content
}
