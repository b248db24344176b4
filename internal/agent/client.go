package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/luminahq/lumina/internal/config"
	"github.com/luminahq/lumina/internal/metrics"
)

// Message is a chat completion message in the OpenAI wire format.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

type ToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type ChatCompletion struct {
	Choices []Choice `json:"choices"`
}

type Choice struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type chatCompletionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Tools    []Tool    `json:"tools,omitempty"`
}

// CompletionClient talks to an OpenAI-compatible chat completions
// endpoint.
type CompletionClient interface {
	CreateChatCompletion(ctx context.Context, messages []Message, tools []Tool) (*ChatCompletion, error)
}

type httpCompletionClient struct {
	logger     zerolog.Logger
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

func NewCompletionClient(logger zerolog.Logger, cfg config.AgentConfig) CompletionClient {
	return &httpCompletionClient{
		logger:     logger,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
	}
}

func (c *httpCompletionClient) CreateChatCompletion(ctx context.Context, messages []Message, tools []Tool) (*ChatCompletion, error) {
	start := time.Now()
	status := "error"
	defer func() {
		metrics.AgentCallDuration.WithLabelValues(c.model, status).Observe(time.Since(start).Seconds())
	}()

	body, err := json.Marshal(chatCompletionRequest{
		Model:    c.model,
		Messages: messages,
		Tools:    tools,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().
			Err(err).
			Msg("chat completion request failed")
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("body", string(respBody)).
			Msg("chat completion returned non-200")
		return nil, fmt.Errorf("chat completion returned status %d", resp.StatusCode)
	}

	var completion ChatCompletion
	err = json.Unmarshal(respBody, &completion)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	status = "ok"
	return &completion, nil
}
