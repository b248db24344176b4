package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/luminahq/lumina/internal/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrUserPasswordMismatch = errors.New("user password mismatch")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionExpired       = errors.New("session expired")
	ErrTaskNotFound         = errors.New("task not found")
	ErrInvalidTaskTitle     = errors.New("task title must be 1-200 characters")
	ErrInvalidTaskDesc      = errors.New("task description must be at most 1000 characters")
	ErrInvalidTaskPriority  = errors.New("invalid task priority")
	ErrInvalidTaskCategory  = errors.New("invalid task category")
	ErrInvalidTaskDueTime   = errors.New("due time must be in HH:MM form")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotificationNotFound = errors.New("notification not found")
)

type AuthService interface {
	// Login authenticates the user by email and password.
	//
	// It deletes all sessions with the same user ID and creates
	// a new session and generates a new JWT token pair.
	//
	// It returns ErrUserNotFound if the user with the given
	// email doesn't exist or ErrUserPasswordMismatch if the
	// given password doesn't match the user's password.
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)

	// Refresh updates the session with the given refresh token.
	//
	// It returns ErrSessionNotFound if the session with the
	// given refresh token doesn't exist or ErrSessionExpired
	// if the session is expired.
	Refresh(ctx context.Context, params RefreshParams) (*LoginResult, error)

	// Register a user with the given email and password.
	//
	// It hashes the password, generates a unique ID and creates a
	// session with the given fingerprint and a fresh JWT token pair.
	//
	// It returns ErrUserAlreadyExists if the user
	// with the given email already exists.
	Register(ctx context.Context, params LoginParams) (*LoginResult, error)

	// Logout invalidates all sessions with the given user ID.
	Logout(ctx context.Context, userID string) error

	// ParseJWTToken parses the given JWT token and returns the registered
	// claims or jwt.ErrTokenExpired if the token is expired.
	ParseJWTToken(token string) (*jwt.RegisteredClaims, error)
}

type SessionService interface {
	GetSessionByID(ctx context.Context, sessionID string) (*models.Session, error)
}

// TaskService owns every task mutation in the system. The REST
// handlers, the agent tool executor and the MCP tools all go
// through it, so ownership scoping and validation live in one place.
type TaskService interface {
	CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error)

	// GetTask returns a single task owned by the user, or
	// ErrTaskNotFound (also for tasks owned by someone else).
	GetTask(ctx context.Context, userID, taskID string) (*models.Task, error)

	GetTasks(ctx context.Context, params ListTasksParams) (*TaskList, error)

	// UpdateTask applies the non-nil fields of params. Clearing the
	// due date or time is requested explicitly via the Clear flags.
	UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error)

	// ToggleTaskCompletion flips the completion flag: completing an
	// open task stamps CompletedAt, completing a completed task
	// reopens it and clears the stamp.
	ToggleTaskCompletion(ctx context.Context, userID, taskID string) (*models.Task, error)

	DeleteTask(ctx context.Context, userID, taskID string) error

	// SearchTasks matches the query case-insensitively against
	// title, description, category and tags.
	SearchTasks(ctx context.Context, userID, query string) ([]*models.Task, error)
}

type ConversationService interface {
	// GetOrCreateConversation resumes the requested conversation if
	// it belongs to the user and is still active, otherwise falls
	// back to the user's most recent active conversation, otherwise
	// creates a fresh one. A conversation is active while its last
	// activity is within the configured session timeout.
	GetOrCreateConversation(ctx context.Context, userID, conversationID string) (*models.Conversation, error)

	// ContextMessages returns the most recent messages of the
	// conversation in chronological order, capped at the configured
	// context limit.
	ContextMessages(ctx context.Context, conversationID string) ([]*models.Message, error)

	StoreMessage(ctx context.Context, conversationID, role, content string) (*models.Message, error)

	TouchConversation(ctx context.Context, conversationID string) error

	ListConversations(ctx context.Context, userID string) ([]*models.Conversation, error)

	// GetMessages returns the full history of a conversation owned
	// by the user, oldest first.
	GetMessages(ctx context.Context, userID, conversationID string) ([]*models.Message, error)
}

type NotificationService interface {
	CreateNotification(ctx context.Context, params CreateNotificationParams) (*models.Notification, error)

	GetNotifications(ctx context.Context, userID string, unreadOnly bool) ([]*models.Notification, error)

	MarkNotificationRead(ctx context.Context, userID, notificationID string) error

	MarkAllNotificationsRead(ctx context.Context, userID string) error

	// GenerateDueSoonNotifications creates a TASK_DUE_SOON row for
	// every open task due within the next 24 hours that doesn't
	// already have one. Returns the number of rows created.
	GenerateDueSoonNotifications(ctx context.Context) (int, error)

	// GenerateOverdueNotifications does the same for open tasks
	// whose due date has passed.
	GenerateOverdueNotifications(ctx context.Context) (int, error)

	CleanupOldNotifications(ctx context.Context, olderThan time.Duration) (int, error)
}

// EventPublisher decouples the services from the broker; *mq.Publisher
// satisfies it. Publishing is best-effort on the write path.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

type LoginParams struct {
	Email       string
	Password    string
	Fingerprint string
}

type LoginResult struct {
	UserID                string
	SessionID             string
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

type RefreshParams struct {
	RefreshToken string
	Fingerprint  string
}

type CreateTaskParams struct {
	UserID      string
	Title       string
	Description string
	Priority    string
	Category    string
	Tags        []string
	DueDate     *time.Time
	DueTime     *string
}

type ListTasksParams struct {
	UserID string
	// Status filters by completion: "pending", "completed" or ""
	// for all tasks.
	Status   string
	Category string
	Priority string
	Page     uint32
	PageSize uint32
}

type TaskCounts struct {
	All       int
	Pending   int
	Completed int
}

type TaskList struct {
	Tasks  []*models.Task
	Counts TaskCounts
}

type UpdateTaskParams struct {
	ID           string
	UserID       string
	Title        *string
	Description  *string
	Priority     *string
	Category     *string
	Tags         *[]string
	DueDate      *time.Time
	DueTime      *string
	ClearDueDate bool
	ClearDueTime bool
}

type CreateNotificationParams struct {
	UserID  string
	TaskID  *string
	Type    string
	Message string
}
