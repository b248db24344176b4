package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminahq/lumina/internal/agent"
	"github.com/luminahq/lumina/internal/models"
	"github.com/luminahq/lumina/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	testUserAgent  = "test-agent"
	validToken     = "valid-token"
	expiredToken   = "expired-token"
	malformedToken = "malformed-token"
)

// testFingerprint matches what generateFingerprint produces for a
// request with no remote address and the test user agent.
func testFingerprint(t *testing.T) string {
	t.Helper()
	raw, err := json.Marshal(map[string]string{
		"client_ip":  "",
		"user_agent": testUserAgent,
	})
	require.NoError(t, err)
	return string(raw)
}

type stubAuthService struct {
	loginResult    *services.LoginResult
	loginErr       error
	registerErr    error
	refreshResult  *services.LoginResult
	refreshErr     error
	logoutErr      error
	loggedOut      []string
	refreshedWith  []services.RefreshParams
	registeredWith []services.LoginParams
}

func (s *stubAuthService) Login(_ context.Context, params services.LoginParams) (*services.LoginResult, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	if s.loginResult != nil {
		return s.loginResult, nil
	}
	return defaultLoginResult(), nil
}

func (s *stubAuthService) Refresh(_ context.Context, params services.RefreshParams) (*services.LoginResult, error) {
	s.refreshedWith = append(s.refreshedWith, params)
	if s.refreshErr != nil {
		return nil, s.refreshErr
	}
	if s.refreshResult != nil {
		return s.refreshResult, nil
	}
	return defaultLoginResult(), nil
}

func (s *stubAuthService) Register(_ context.Context, params services.LoginParams) (*services.LoginResult, error) {
	s.registeredWith = append(s.registeredWith, params)
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	return defaultLoginResult(), nil
}

func (s *stubAuthService) Logout(_ context.Context, userID string) error {
	s.loggedOut = append(s.loggedOut, userID)
	return s.logoutErr
}

func (s *stubAuthService) ParseJWTToken(token string) (*jwt.RegisteredClaims, error) {
	switch token {
	case validToken:
		return &jwt.RegisteredClaims{Subject: "session-1"}, nil
	case expiredToken:
		return nil, jwt.ErrTokenExpired
	default:
		return nil, errors.New("token is malformed")
	}
}

func defaultLoginResult() *services.LoginResult {
	now := time.Now()
	return &services.LoginResult{
		UserID:                "user-1",
		SessionID:             "session-1",
		AccessToken:           validToken,
		AccessTokenExpiresAt:  now.Add(15 * time.Minute),
		RefreshToken:          "refresh-1",
		RefreshTokenExpiresAt: now.Add(720 * time.Hour),
	}
}

type stubSessionService struct {
	session *models.Session
	err     error
}

func (s *stubSessionService) GetSessionByID(context.Context, string) (*models.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.session, nil
}

type stubTaskService struct {
	task       *models.Task
	list       *services.TaskList
	searchHits []*models.Task
	err        error
	created    []services.CreateTaskParams
	updated    []services.UpdateTaskParams
	deleted    []string
}

func (s *stubTaskService) CreateTask(_ context.Context, params services.CreateTaskParams) (*models.Task, error) {
	s.created = append(s.created, params)
	if s.err != nil {
		return nil, s.err
	}
	return s.task, nil
}

func (s *stubTaskService) GetTask(context.Context, string, string) (*models.Task, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.task, nil
}

func (s *stubTaskService) GetTasks(context.Context, services.ListTasksParams) (*services.TaskList, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.list == nil {
		return &services.TaskList{}, nil
	}
	return s.list, nil
}

func (s *stubTaskService) UpdateTask(_ context.Context, params services.UpdateTaskParams) (*models.Task, error) {
	s.updated = append(s.updated, params)
	if s.err != nil {
		return nil, s.err
	}
	return s.task, nil
}

func (s *stubTaskService) ToggleTaskCompletion(context.Context, string, string) (*models.Task, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.task, nil
}

func (s *stubTaskService) DeleteTask(_ context.Context, _, taskID string) error {
	s.deleted = append(s.deleted, taskID)
	return s.err
}

func (s *stubTaskService) SearchTasks(context.Context, string, string) ([]*models.Task, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.searchHits, nil
}

type stubNotificationService struct {
	notifications []*models.Notification
	err           error
	marked        []string
	markedAll     []string
}

func (s *stubNotificationService) CreateNotification(context.Context, services.CreateNotificationParams) (*models.Notification, error) {
	return nil, s.err
}

func (s *stubNotificationService) GetNotifications(context.Context, string, bool) ([]*models.Notification, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.notifications, nil
}

func (s *stubNotificationService) MarkNotificationRead(_ context.Context, _, notificationID string) error {
	s.marked = append(s.marked, notificationID)
	return s.err
}

func (s *stubNotificationService) MarkAllNotificationsRead(_ context.Context, userID string) error {
	s.markedAll = append(s.markedAll, userID)
	return s.err
}

func (s *stubNotificationService) GenerateDueSoonNotifications(context.Context) (int, error) {
	return 0, s.err
}

func (s *stubNotificationService) GenerateOverdueNotifications(context.Context) (int, error) {
	return 0, s.err
}

func (s *stubNotificationService) CleanupOldNotifications(context.Context, time.Duration) (int, error) {
	return 0, s.err
}

type stubConversationService struct {
	conversations []*models.Conversation
	messages      []*models.Message
	err           error
}

func (s *stubConversationService) GetOrCreateConversation(context.Context, string, string) (*models.Conversation, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Conversation{ID: "conv-1"}, nil
}

func (s *stubConversationService) ContextMessages(context.Context, string) ([]*models.Message, error) {
	return nil, nil
}

func (s *stubConversationService) StoreMessage(_ context.Context, conversationID, role, content string) (*models.Message, error) {
	return &models.Message{ConversationID: conversationID, Role: role, Content: content}, nil
}

func (s *stubConversationService) TouchConversation(context.Context, string) error {
	return nil
}

func (s *stubConversationService) ListConversations(context.Context, string) ([]*models.Conversation, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.conversations, nil
}

func (s *stubConversationService) GetMessages(context.Context, string, string) ([]*models.Message, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.messages, nil
}

type stubCompletionClient struct {
	content string
}

func (s *stubCompletionClient) CreateChatCompletion(context.Context, []agent.Message, []agent.Tool) (*agent.ChatCompletion, error) {
	return &agent.ChatCompletion{Choices: []agent.Choice{{
		Message: agent.Message{Role: "assistant", Content: s.content},
	}}}, nil
}

type testEnv struct {
	router        *gin.Engine
	auth          *stubAuthService
	sessions      *stubSessionService
	tasks         *stubTaskService
	notifications *stubNotificationService
	conversations *stubConversationService
}

func newTestEnv(t *testing.T) *testEnv {
	env := &testEnv{
		auth:          &stubAuthService{},
		sessions:      &stubSessionService{},
		tasks:         &stubTaskService{},
		notifications: &stubNotificationService{},
		conversations: &stubConversationService{},
	}
	env.sessions.session = &models.Session{
		ID:          "session-1",
		UserID:      "user-1",
		Fingerprint: testFingerprint(t),
	}

	logger := zerolog.Nop()
	chatAgent := agent.New(logger,
		&stubCompletionClient{content: "All done."},
		env.conversations,
		agent.NewExecutor(logger, env.tasks),
		5,
	)

	handler := New(Deps{
		Logger:        logger,
		Auth:          env.auth,
		Sessions:      env.sessions,
		Tasks:         env.tasks,
		Notifications: env.notifications,
		Conversations: env.conversations,
		Agent:         chatAgent,
	})

	router := gin.New()
	authRouter := router.Group("/api/v1/auth")
	authRouter.POST("/login", handler.HandleLogin)
	authRouter.POST("/refresh", handler.HandleRefresh)
	authRouter.POST("/register", handler.HandleRegister)
	authRouter.POST("/logout", handler.HandleAuthMiddleware, handler.HandleLogout)

	api := router.Group("/api/v1", handler.HandleAuthMiddleware)
	api.POST("/tasks", handler.HandleCreateTask)
	api.GET("/tasks", handler.HandleGetTasks)
	api.GET("/tasks/search", handler.HandleSearchTasks)
	api.GET("/tasks/:id", handler.HandleGetTask)
	api.PUT("/tasks/:id", handler.HandleUpdateTask)
	api.PATCH("/tasks/:id/complete", handler.HandleCompleteTask)
	api.DELETE("/tasks/:id", handler.HandleDeleteTask)
	api.GET("/notifications", handler.HandleGetNotifications)
	api.PATCH("/notifications/read-all", handler.HandleMarkAllNotificationsRead)
	api.PATCH("/notifications/:id/read", handler.HandleMarkNotificationRead)
	api.POST("/chat", handler.HandleChat)
	api.GET("/conversations", handler.HandleListConversations)
	api.GET("/conversations/:id/messages", handler.HandleGetConversationMessages)

	env.router = router
	return env
}

func (env *testEnv) request(t *testing.T, method, path, body string, authorized bool) *httptest.ResponseRecorder {
	t.Helper()

	req, err := http.NewRequest(method, path, bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", testUserAgent)
	if authorized {
		req.Header.Set("Authorization", "Bearer "+validToken)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestHandleLogin(t *testing.T) {
	t.Run("success sets cookies and returns tokens", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.request(t, http.MethodPost, "/api/v1/auth/login",
			`{"email":"user@example.com","password":"secret123"}`, false)

		require.Equal(t, http.StatusOK, w.Code)

		var resp tokenResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "user-1", resp.UserID)
		assert.Equal(t, validToken, resp.AccessToken)

		cookies := w.Result().Cookies()
		names := make(map[string]*http.Cookie, len(cookies))
		for _, cookie := range cookies {
			names[cookie.Name] = cookie
		}
		require.Contains(t, names, accessTokenCookie)
		require.Contains(t, names, refreshTokenCookie)
		assert.False(t, names[accessTokenCookie].HttpOnly)
		assert.True(t, names[refreshTokenCookie].HttpOnly)
	})

	t.Run("invalid body", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.request(t, http.MethodPost, "/api/v1/auth/login",
			`{"email":"not-an-email","password":"secret123"}`, false)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		env := newTestEnv(t)
		env.auth.loginErr = services.ErrUserNotFound

		w := env.request(t, http.MethodPost, "/api/v1/auth/login",
			`{"email":"user@example.com","password":"secret123"}`, false)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("password mismatch", func(t *testing.T) {
		env := newTestEnv(t)
		env.auth.loginErr = services.ErrUserPasswordMismatch

		w := env.request(t, http.MethodPost, "/api/v1/auth/login",
			`{"email":"user@example.com","password":"secret123"}`, false)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestHandleRegister(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.request(t, http.MethodPost, "/api/v1/auth/register",
			`{"email":"user@example.com","password":"secret123"}`, false)

		assert.Equal(t, http.StatusCreated, w.Code)
		require.Len(t, env.auth.registeredWith, 1)
		assert.Equal(t, "user@example.com", env.auth.registeredWith[0].Email)
		assert.Equal(t, testFingerprint(t), env.auth.registeredWith[0].Fingerprint)
	})

	t.Run("duplicate email", func(t *testing.T) {
		env := newTestEnv(t)
		env.auth.registerErr = services.ErrUserAlreadyExists

		w := env.request(t, http.MethodPost, "/api/v1/auth/register",
			`{"email":"user@example.com","password":"secret123"}`, false)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("short password", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.request(t, http.MethodPost, "/api/v1/auth/register",
			`{"email":"user@example.com","password":"abc"}`, false)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleRefresh(t *testing.T) {
	t.Run("missing cookie", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.request(t, http.MethodPost, "/api/v1/auth/refresh", "", false)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("expired session", func(t *testing.T) {
		env := newTestEnv(t)
		env.auth.refreshErr = services.ErrSessionExpired

		req, err := http.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
		require.NoError(t, err)
		req.Header.Set("User-Agent", testUserAgent)
		req.AddCookie(&http.Cookie{Name: refreshTokenCookie, Value: "refresh-1"})

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("success rotates the pair", func(t *testing.T) {
		env := newTestEnv(t)

		req, err := http.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
		require.NoError(t, err)
		req.Header.Set("User-Agent", testUserAgent)
		req.AddCookie(&http.Cookie{Name: refreshTokenCookie, Value: "refresh-1"})

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.Len(t, env.auth.refreshedWith, 1)
		assert.Equal(t, "refresh-1", env.auth.refreshedWith[0].RefreshToken)
		assert.Equal(t, testFingerprint(t), env.auth.refreshedWith[0].Fingerprint)
	})
}

func TestAuthMiddleware(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.request(t, http.MethodGet, "/api/v1/tasks", "", false)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		env := newTestEnv(t)

		req, err := http.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		env := newTestEnv(t)

		req, err := http.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
		require.NoError(t, err)
		req.Header.Set("User-Agent", testUserAgent)
		req.Header.Set("Authorization", "Bearer "+malformedToken)

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("session not found", func(t *testing.T) {
		env := newTestEnv(t)
		env.sessions.err = services.ErrSessionNotFound

		w := env.request(t, http.MethodGet, "/api/v1/tasks", "", true)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("fingerprint mismatch", func(t *testing.T) {
		env := newTestEnv(t)
		env.sessions.session.Fingerprint = `{"client_ip":"1.2.3.4","user_agent":"someone else"}`

		w := env.request(t, http.MethodGet, "/api/v1/tasks", "", true)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("cookie fallback", func(t *testing.T) {
		env := newTestEnv(t)

		req, err := http.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
		require.NoError(t, err)
		req.Header.Set("User-Agent", testUserAgent)
		req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: validToken})

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("expired token refreshes transparently", func(t *testing.T) {
		env := newTestEnv(t)

		req, err := http.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
		require.NoError(t, err)
		req.Header.Set("User-Agent", testUserAgent)
		req.Header.Set("Authorization", "Bearer "+expiredToken)
		req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: validToken})
		req.AddCookie(&http.Cookie{Name: refreshTokenCookie, Value: "refresh-1"})

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, env.auth.refreshedWith, 1)
	})

	t.Run("expired token without refresh cookie", func(t *testing.T) {
		env := newTestEnv(t)

		req, err := http.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
		require.NoError(t, err)
		req.Header.Set("User-Agent", testUserAgent)
		req.Header.Set("Authorization", "Bearer "+expiredToken)

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleLogout(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/v1/auth/logout", "", true)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"user-1"}, env.auth.loggedOut)
}

func TestHandleCreateTask(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t)
		env.tasks.task = &models.Task{
			ID:       "tsk-1",
			Title:    "Buy milk",
			Priority: models.PriorityHigh,
			Category: models.CategoryShopping,
		}

		w := env.request(t, http.MethodPost, "/api/v1/tasks",
			`{"title":"Buy milk","priority":"high","category":"shopping","due_date":"2026-09-01"}`, true)

		require.Equal(t, http.StatusCreated, w.Code)

		require.Len(t, env.tasks.created, 1)
		created := env.tasks.created[0]
		assert.Equal(t, "user-1", created.UserID)
		assert.Equal(t, "Buy milk", created.Title)
		require.NotNil(t, created.DueDate)
		assert.Equal(t, "2026-09-01", created.DueDate.Format(dueDateFormat))

		var resp taskResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "tsk-1", resp.ID)
		assert.NotNil(t, resp.Tags)
	})

	t.Run("missing title", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.request(t, http.MethodPost, "/api/v1/tasks", `{"description":"x"}`, true)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad due date", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.request(t, http.MethodPost, "/api/v1/tasks",
			`{"title":"Buy milk","due_date":"soon"}`, true)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, env.tasks.created)
	})

	t.Run("invalid priority from service", func(t *testing.T) {
		env := newTestEnv(t)
		env.tasks.err = services.ErrInvalidTaskPriority

		w := env.request(t, http.MethodPost, "/api/v1/tasks",
			`{"title":"Buy milk","priority":"wat"}`, true)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid title from service", func(t *testing.T) {
		env := newTestEnv(t)
		env.tasks.err = services.ErrInvalidTaskTitle

		w := env.request(t, http.MethodPost, "/api/v1/tasks",
			`{"title":"   "}`, true)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), services.ErrInvalidTaskTitle.Error())
	})

	t.Run("invalid due time from service", func(t *testing.T) {
		env := newTestEnv(t)
		env.tasks.err = services.ErrInvalidTaskDueTime

		w := env.request(t, http.MethodPost, "/api/v1/tasks",
			`{"title":"Buy milk","due_time":"25:99"}`, true)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), services.ErrInvalidTaskDueTime.Error())
	})
}

func TestHandleGetTasks(t *testing.T) {
	t.Run("returns tasks with counts", func(t *testing.T) {
		env := newTestEnv(t)
		env.tasks.list = &services.TaskList{
			Tasks: []*models.Task{
				{ID: "tsk-1", Title: "Buy milk", Priority: models.PriorityHigh, Category: models.CategoryShopping},
			},
			Counts: services.TaskCounts{All: 3, Pending: 2, Completed: 1},
		}

		w := env.request(t, http.MethodGet, "/api/v1/tasks?status=pending", "", true)

		require.Equal(t, http.StatusOK, w.Code)

		var resp taskListResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Tasks, 1)
		assert.Equal(t, "Buy milk", resp.Tasks[0].Title)
		assert.Equal(t, 3, resp.Counts.All)
		assert.Equal(t, 2, resp.Counts.Pending)
	})

	t.Run("bad page param", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.request(t, http.MethodGet, "/api/v1/tasks?page=minus-one", "", true)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleGetTask(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		env := newTestEnv(t)
		env.tasks.err = services.ErrTaskNotFound

		w := env.request(t, http.MethodGet, "/api/v1/tasks/nosuch", "", true)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("formats due date", func(t *testing.T) {
		env := newTestEnv(t)
		dueDate := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
		dueTime := "09:00"
		env.tasks.task = &models.Task{
			ID:       "tsk-1",
			Title:    "Buy milk",
			Priority: models.PriorityHigh,
			Category: models.CategoryShopping,
			DueDate:  &dueDate,
			DueTime:  &dueTime,
		}

		w := env.request(t, http.MethodGet, "/api/v1/tasks/tsk-1", "", true)

		require.Equal(t, http.StatusOK, w.Code)

		var resp taskResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.DueDate)
		assert.Equal(t, "2026-09-01", *resp.DueDate)
		require.NotNil(t, resp.DueTime)
		assert.Equal(t, "09:00", *resp.DueTime)
	})
}

func TestHandleUpdateTask(t *testing.T) {
	env := newTestEnv(t)
	env.tasks.task = &models.Task{ID: "tsk-1", Title: "Buy oat milk"}

	w := env.request(t, http.MethodPut, "/api/v1/tasks/tsk-1",
		`{"title":"Buy oat milk","due_date":""}`, true)

	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, env.tasks.updated, 1)
	updated := env.tasks.updated[0]
	assert.Equal(t, "tsk-1", updated.ID)
	require.NotNil(t, updated.Title)
	assert.Equal(t, "Buy oat milk", *updated.Title)
	assert.True(t, updated.ClearDueDate)
	assert.False(t, updated.ClearDueTime)
	assert.Nil(t, updated.Description)
}

func TestHandleCompleteTask(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now()
	env.tasks.task = &models.Task{ID: "tsk-1", Title: "Buy milk", Completed: true, CompletedAt: &now}

	w := env.request(t, http.MethodPatch, "/api/v1/tasks/tsk-1/complete", "", true)

	require.Equal(t, http.StatusOK, w.Code)

	var resp taskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Completed)
	assert.NotNil(t, resp.CompletedAt)
}

func TestHandleDeleteTask(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.request(t, http.MethodDelete, "/api/v1/tasks/tsk-1", "", true)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, []string{"tsk-1"}, env.tasks.deleted)
	})

	t.Run("not found", func(t *testing.T) {
		env := newTestEnv(t)
		env.tasks.err = services.ErrTaskNotFound

		w := env.request(t, http.MethodDelete, "/api/v1/tasks/nosuch", "", true)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHandleSearchTasks(t *testing.T) {
	t.Run("missing query", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.request(t, http.MethodGet, "/api/v1/tasks/search", "", true)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t)
		env.tasks.searchHits = []*models.Task{
			{ID: "tsk-1", Title: "Buy milk", Priority: models.PriorityHigh, Category: models.CategoryShopping},
		}

		w := env.request(t, http.MethodGet, "/api/v1/tasks/search?q=milk", "", true)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Buy milk")
	})
}

func TestHandleGetNotifications(t *testing.T) {
	env := newTestEnv(t)
	env.notifications.notifications = []*models.Notification{
		{ID: "ntf-1", Type: models.NotificationTaskDueSoon, Message: "Task \"Buy milk\" is due soon"},
	}

	w := env.request(t, http.MethodGet, "/api/v1/notifications?unread=true", "", true)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ntf-1")
	assert.Contains(t, w.Body.String(), models.NotificationTaskDueSoon)
}

func TestHandleMarkNotificationRead(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.request(t, http.MethodPatch, "/api/v1/notifications/ntf-1/read", "", true)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, []string{"ntf-1"}, env.notifications.marked)
	})

	t.Run("not found", func(t *testing.T) {
		env := newTestEnv(t)
		env.notifications.err = services.ErrNotificationNotFound

		w := env.request(t, http.MethodPatch, "/api/v1/notifications/nosuch/read", "", true)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHandleMarkAllNotificationsRead(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPatch, "/api/v1/notifications/read-all", "", true)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"user-1"}, env.notifications.markedAll)
}

func TestHandleChat(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.request(t, http.MethodPost, "/api/v1/chat",
			`{"message":"what is due today?"}`, true)

		require.Equal(t, http.StatusOK, w.Code)

		var resp chatResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "conv-1", resp.ConversationID)
		assert.Equal(t, "All done.", resp.Response)
	})

	t.Run("empty message", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.request(t, http.MethodPost, "/api/v1/chat", `{"message":""}`, true)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("message too long", func(t *testing.T) {
		env := newTestEnv(t)

		body := `{"message":"` + strings.Repeat("a", 2001) + `"}`
		w := env.request(t, http.MethodPost, "/api/v1/chat", body, true)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleListConversations(t *testing.T) {
	env := newTestEnv(t)
	env.conversations.conversations = []*models.Conversation{
		{ID: "conv-1"},
		{ID: "conv-2"},
	}

	w := env.request(t, http.MethodGet, "/api/v1/conversations", "", true)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "conv-1")
	assert.Contains(t, w.Body.String(), "conv-2")
}

func TestHandleGetConversationMessages(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		env := newTestEnv(t)
		env.conversations.err = services.ErrConversationNotFound

		w := env.request(t, http.MethodGet, "/api/v1/conversations/nosuch/messages", "", true)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t)
		env.conversations.messages = []*models.Message{
			{ID: "msg-1", Role: models.RoleUser, Content: "hi"},
			{ID: "msg-2", Role: models.RoleAssistant, Content: "hello"},
		}

		w := env.request(t, http.MethodGet, "/api/v1/conversations/conv-1/messages", "", true)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "msg-1")
		assert.Contains(t, w.Body.String(), "msg-2")
	})
}
