package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/luminahq/lumina/internal/cache"
	"github.com/luminahq/lumina/internal/models"
	"github.com/luminahq/lumina/internal/mq"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

type taskServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
	// events and cache are optional: the MCP binary runs without
	// the broker and the CLI-adjacent tests run without redis.
	events EventPublisher
	cache  *cache.Client
}

func NewTaskService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
	events EventPublisher,
	cacheClient *cache.Client,
) TaskService {
	return &taskServiceImpl{
		logger: logger,
		pgPool: pgPool,
		events: events,
		cache:  cacheClient,
	}
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" || len(title) > models.TaskTitleMaxLen {
		return nil, ErrInvalidTaskTitle
	}
	if len(params.Description) > models.TaskDescriptionMaxLen {
		return nil, ErrInvalidTaskDesc
	}
	if !validDueTime(params.DueTime) {
		return nil, ErrInvalidTaskDueTime
	}

	priority := params.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !models.ValidPriority(priority) {
		return nil, ErrInvalidTaskPriority
	}

	category := params.Category
	if category == "" {
		category = models.CategoryOther
	}
	if !models.ValidCategory(category) {
		return nil, ErrInvalidTaskCategory
	}

	taskUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate task uuid")
		return nil, err
	}

	now := time.Now()
	task := &models.Task{
		ID:          taskUUID.String(),
		UserID:      params.UserID,
		Title:       title,
		Description: params.Description,
		Priority:    priority,
		Category:    category,
		Tags:        models.CleanTags(params.Tags),
		DueDate:     params.DueDate,
		DueTime:     params.DueTime,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	const insertTaskQuery = `
INSERT INTO tasks (id,
                   user_id,
                   title,
                   description,
                   priority,
                   category,
                   tags,
                   due_date,
                   due_time,
                   completed,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CAST($9 AS time), FALSE, $10, $11)
`
	_, err = s.pgPool.Exec(
		ctx,
		insertTaskQuery,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.Priority,
		task.Category,
		task.Tags,
		task.DueDate,
		task.DueTime,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert task")
		return nil, err
	}
	s.logger.Debug().
		Str("task_id", task.ID).
		Msg("inserted task")

	s.invalidateCounts(ctx, task.UserID)
	s.publish(mq.RoutingKeyTaskCreated, mq.TaskCreatedEvent{
		TaskID:    task.ID,
		UserID:    task.UserID,
		Title:     task.Title,
		CreatedAt: task.CreatedAt,
	})

	s.logger.Info().
		Str("task_id", task.ID).
		Str("user_id", task.UserID).
		Msg("created task")
	return task, nil
}

func (s *taskServiceImpl) GetTask(ctx context.Context, userID, taskID string) (*models.Task, error) {
	task := &models.Task{
		ID:     taskID,
		UserID: userID,
	}

	const selectTaskByIDQuery = `
SELECT title,
       description,
       priority,
       category,
       tags,
       due_date,
       to_char(due_time, 'HH24:MI'),
       completed,
       completed_at,
       created_at,
       updated_at
FROM tasks
WHERE id = $1 AND user_id = $2
`
	err := s.pgPool.QueryRow(
		ctx,
		selectTaskByIDQuery,
		task.ID,
		task.UserID,
	).Scan(
		&task.Title,
		&task.Description,
		&task.Priority,
		&task.Category,
		&task.Tags,
		&task.DueDate,
		&task.DueTime,
		&task.Completed,
		&task.CompletedAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn().
				Str("task_id", taskID).
				Str("user_id", userID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to select task by id")
		return nil, err
	}

	return task, nil
}

func (s *taskServiceImpl) GetTasks(ctx context.Context, params ListTasksParams) (*TaskList, error) {
	pageSize := params.PageSize
	if pageSize == 0 {
		pageSize = defaultPageSize
	} else if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	page := params.Page
	if page == 0 {
		page = 1
	}

	var sb strings.Builder
	sb.WriteString(`
SELECT id,
       title,
       description,
       priority,
       category,
       tags,
       due_date,
       to_char(due_time, 'HH24:MI'),
       completed,
       completed_at,
       created_at,
       updated_at
FROM tasks
WHERE user_id = $1`)
	args := []any{params.UserID}

	switch params.Status {
	case "pending":
		sb.WriteString(" AND NOT completed")
	case "completed":
		sb.WriteString(" AND completed")
	}
	if params.Category != "" {
		args = append(args, params.Category)
		fmt.Fprintf(&sb, " AND category = $%d", len(args))
	}
	if params.Priority != "" {
		args = append(args, params.Priority)
		fmt.Fprintf(&sb, " AND priority = $%d", len(args))
	}

	args = append(args, pageSize)
	fmt.Fprintf(&sb, "\nORDER BY created_at DESC\nLIMIT $%d", len(args))
	args = append(args, (page-1)*pageSize)
	fmt.Fprintf(&sb, " OFFSET $%d", len(args))

	rows, err := s.pgPool.Query(ctx, sb.String(), args...)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select tasks by user id")
		return nil, err
	}
	defer rows.Close()

	tasks, err := s.scanTasks(rows, params.UserID)
	if err != nil {
		return nil, err
	}

	counts, err := s.taskCounts(ctx, params.UserID)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().
		Int("count", len(tasks)).
		Str("user_id", params.UserID).
		Msg("selected tasks by user id")

	return &TaskList{
		Tasks:  tasks,
		Counts: counts,
	}, nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error) {
	task, err := s.GetTask(ctx, params.UserID, params.ID)
	if err != nil {
		return nil, err
	}

	if params.Title != nil {
		title := strings.TrimSpace(*params.Title)
		if title == "" || len(title) > models.TaskTitleMaxLen {
			return nil, ErrInvalidTaskTitle
		}
		task.Title = title
	}
	if params.Description != nil {
		if len(*params.Description) > models.TaskDescriptionMaxLen {
			return nil, ErrInvalidTaskDesc
		}
		task.Description = *params.Description
	}
	if params.Priority != nil {
		if !models.ValidPriority(*params.Priority) {
			return nil, ErrInvalidTaskPriority
		}
		task.Priority = *params.Priority
	}
	if params.Category != nil {
		if !models.ValidCategory(*params.Category) {
			return nil, ErrInvalidTaskCategory
		}
		task.Category = *params.Category
	}
	if params.Tags != nil {
		task.Tags = models.CleanTags(*params.Tags)
	}
	if params.DueDate != nil {
		task.DueDate = params.DueDate
	} else if params.ClearDueDate {
		task.DueDate = nil
	}
	if params.DueTime != nil {
		if !validDueTime(params.DueTime) {
			return nil, ErrInvalidTaskDueTime
		}
		task.DueTime = params.DueTime
	} else if params.ClearDueTime {
		task.DueTime = nil
	}
	task.UpdatedAt = time.Now()

	const updateTaskQuery = `
UPDATE tasks
SET title = $1,
    description = $2,
    priority = $3,
    category = $4,
    tags = $5,
    due_date = $6,
    due_time = CAST($7 AS time),
    updated_at = $8
WHERE id = $9 AND user_id = $10
`
	_, err = s.pgPool.Exec(
		ctx,
		updateTaskQuery,
		task.Title,
		task.Description,
		task.Priority,
		task.Category,
		task.Tags,
		task.DueDate,
		task.DueTime,
		task.UpdatedAt,
		task.ID,
		task.UserID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to update task")
		return nil, err
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("user_id", task.UserID).
		Msg("updated task")
	return task, nil
}

func (s *taskServiceImpl) ToggleTaskCompletion(ctx context.Context, userID, taskID string) (*models.Task, error) {
	task := &models.Task{
		ID:        taskID,
		UserID:    userID,
		UpdatedAt: time.Now(),
	}

	// The completed column on the right-hand side is the old value:
	// an open task gets completed_at stamped, a completed one is
	// reopened with the stamp cleared.
	const toggleTaskQuery = `
UPDATE tasks
SET completed = NOT completed,
    completed_at = CASE WHEN completed THEN NULL ELSE $1 END,
    updated_at = $1
WHERE id = $2 AND user_id = $3
RETURNING title,
          description,
          priority,
          category,
          tags,
          due_date,
          to_char(due_time, 'HH24:MI'),
          completed,
          completed_at,
          created_at
`
	err := s.pgPool.QueryRow(
		ctx,
		toggleTaskQuery,
		task.UpdatedAt,
		task.ID,
		task.UserID,
	).Scan(
		&task.Title,
		&task.Description,
		&task.Priority,
		&task.Category,
		&task.Tags,
		&task.DueDate,
		&task.DueTime,
		&task.Completed,
		&task.CompletedAt,
		&task.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn().
				Str("task_id", taskID).
				Str("user_id", userID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to toggle task completion")
		return nil, err
	}

	s.invalidateCounts(ctx, userID)
	if task.Completed && task.CompletedAt != nil {
		s.publish(mq.RoutingKeyTaskCompleted, mq.TaskCompletedEvent{
			TaskID:      task.ID,
			UserID:      task.UserID,
			Title:       task.Title,
			CompletedAt: *task.CompletedAt,
		})
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("user_id", task.UserID).
		Bool("completed", task.Completed).
		Msg("toggled task completion")
	return task, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, userID, taskID string) error {
	const deleteTaskQuery = `
DELETE FROM tasks
WHERE id = $1 AND user_id = $2
`
	tag, err := s.pgPool.Exec(
		ctx,
		deleteTaskQuery,
		taskID,
		userID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to delete task")
		return err
	}
	if tag.RowsAffected() == 0 {
		s.logger.Warn().
			Str("task_id", taskID).
			Str("user_id", userID).
			Msg("task not found")
		return ErrTaskNotFound
	}

	s.invalidateCounts(ctx, userID)

	s.logger.Info().
		Str("task_id", taskID).
		Str("user_id", userID).
		Msg("deleted task")
	return nil
}

func (s *taskServiceImpl) SearchTasks(ctx context.Context, userID, query string) ([]*models.Task, error) {
	const searchTasksQuery = `
SELECT id,
       title,
       description,
       priority,
       category,
       tags,
       due_date,
       to_char(due_time, 'HH24:MI'),
       completed,
       completed_at,
       created_at,
       updated_at
FROM tasks
WHERE user_id = $1 AND
      (title ILIKE '%' || $2 || '%' OR
       description ILIKE '%' || $2 || '%' OR
       category ILIKE '%' || $2 || '%' OR
       EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE '%' || $2 || '%'))
ORDER BY created_at DESC
`
	rows, err := s.pgPool.Query(
		ctx,
		searchTasksQuery,
		userID,
		query,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to search tasks")
		return nil, err
	}
	defer rows.Close()

	tasks, err := s.scanTasks(rows, userID)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().
		Int("count", len(tasks)).
		Str("user_id", userID).
		Msg("searched tasks")

	return tasks, nil
}

func (s *taskServiceImpl) scanTasks(rows pgx.Rows, userID string) ([]*models.Task, error) {
	var tasks []*models.Task
	for rows.Next() {
		task := &models.Task{UserID: userID}
		err := rows.Scan(
			&task.ID,
			&task.Title,
			&task.Description,
			&task.Priority,
			&task.Category,
			&task.Tags,
			&task.DueDate,
			&task.DueTime,
			&task.Completed,
			&task.CompletedAt,
			&task.CreatedAt,
			&task.UpdatedAt,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan task")
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

func (s *taskServiceImpl) taskCounts(ctx context.Context, userID string) (TaskCounts, error) {
	if s.cache != nil {
		cached, _ := s.cache.GetTaskCounts(ctx, userID)
		if cached != nil {
			return TaskCounts{
				All:       cached.All,
				Pending:   cached.Pending,
				Completed: cached.Completed,
			}, nil
		}
	}

	const countTasksQuery = `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE NOT completed),
       COUNT(*) FILTER (WHERE completed)
FROM tasks
WHERE user_id = $1
`
	var counts TaskCounts
	err := s.pgPool.QueryRow(
		ctx,
		countTasksQuery,
		userID,
	).Scan(
		&counts.All,
		&counts.Pending,
		&counts.Completed,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to count tasks")
		return TaskCounts{}, err
	}

	if s.cache != nil {
		s.cache.SetTaskCounts(ctx, userID, cache.TaskCounts{
			All:       counts.All,
			Pending:   counts.Pending,
			Completed: counts.Completed,
		})
	}
	return counts, nil
}

// validDueTime accepts a nil pointer or an HH:MM string. The value is
// cast to a time column in SQL, so anything else has to be rejected
// before it reaches the database.
func validDueTime(value *string) bool {
	if value == nil {
		return true
	}
	_, err := time.Parse("15:04", *value)
	return err == nil
}

func (s *taskServiceImpl) invalidateCounts(ctx context.Context, userID string) {
	if s.cache != nil {
		s.cache.InvalidateTaskCounts(ctx, userID)
	}
}

// publish sends a task event without failing the write path: the
// worker catches up once the broker is back.
func (s *taskServiceImpl) publish(routingKey string, payload any) {
	if s.events == nil {
		return
	}

	err := s.events.Publish(routingKey, payload)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("routing_key", routingKey).
			Msg("failed to publish task event")
	}
}
