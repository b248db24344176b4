// Package cache wraps redis for the small amount of shared hot state
// lumina keeps outside postgres: per-user task counts and the chat
// rate limiter window.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type Client struct {
	logger zerolog.Logger
	rdb    *redis.Client
}

func New(logger zerolog.Logger, rdb *redis.Client) *Client {
	return &Client{
		logger: logger,
		rdb:    rdb,
	}
}

// TaskCounts mirrors the counts block of the task list response.
type TaskCounts struct {
	All       int `json:"all"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
}

const taskCountsTTL = 5 * time.Minute

func taskCountsKey(userID string) string {
	return "lumina:task_counts:" + userID
}

// GetTaskCounts returns the cached counts for a user, or (nil, nil)
// on a cache miss. Redis failures are reported as a miss so the
// caller falls back to the database.
func (c *Client) GetTaskCounts(ctx context.Context, userID string) (*TaskCounts, error) {
	data, err := c.rdb.Get(ctx, taskCountsKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}

		c.logger.Warn().
			Err(err).
			Str("user_id", userID).
			Msg("failed to read task counts from redis")
		return nil, nil
	}

	counts := new(TaskCounts)
	err = json.Unmarshal(data, counts)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal task counts: %w", err)
	}
	return counts, nil
}

func (c *Client) SetTaskCounts(ctx context.Context, userID string, counts TaskCounts) {
	data, err := json.Marshal(counts)
	if err != nil {
		return
	}

	err = c.rdb.Set(ctx, taskCountsKey(userID), data, taskCountsTTL).Err()
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("user_id", userID).
			Msg("failed to cache task counts")
	}
}

// InvalidateTaskCounts drops the cached counts after any task write.
func (c *Client) InvalidateTaskCounts(ctx context.Context, userID string) {
	err := c.rdb.Del(ctx, taskCountsKey(userID)).Err()
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("user_id", userID).
			Msg("failed to invalidate task counts")
	}
}

func rateLimitKey(userID string) string {
	return "lumina:chat_rate:" + userID
}

// AllowChat implements a fixed one-minute window per user. The first
// request of a window sets the expiry; requests past the limit are
// rejected. Redis failures fail open so chat keeps working without it.
func (c *Client) AllowChat(ctx context.Context, userID string, limit int) bool {
	if limit <= 0 {
		return true
	}

	key := rateLimitKey(userID)
	count, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("user_id", userID).
			Msg("chat rate limiter unavailable")
		return true
	}

	if count == 1 {
		_ = c.rdb.Expire(ctx, key, time.Minute).Err()
	}

	return count <= int64(limit)
}
