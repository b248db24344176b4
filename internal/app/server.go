package app

import (
	"github.com/gin-gonic/gin"

	"github.com/luminahq/lumina/internal/agent"
	"github.com/luminahq/lumina/internal/config"
	v1 "github.com/luminahq/lumina/internal/delivery/http/v1"
	"github.com/luminahq/lumina/internal/services"
)

func newAuthService() services.AuthService {
	jwtCfg := config.Global().JWT
	return services.NewAuthService(
		globalLogger,
		globalPostgresPool,
		jwtCfg.Issuer,
		jwtCfg.SigningKey,
		jwtCfg.AccessTokenTTL,
		jwtCfg.RefreshTokenTTL,
	)
}

func newTaskService() services.TaskService {
	return services.NewTaskService(
		globalLogger,
		globalPostgresPool,
		globalPublisher,
		globalCache,
	)
}

// MustServeTaskAPI runs the task REST API: auth, tasks and
// notifications. Blocks until shutdown.
func MustServeTaskAPI() {
	handler := v1.New(v1.Deps{
		Logger:        globalLogger,
		Auth:          newAuthService(),
		Sessions:      services.NewSessionService(globalLogger, globalPostgresPool),
		Tasks:         newTaskService(),
		Notifications: services.NewNotificationService(globalLogger, globalPostgresPool, globalPublisher),
	})

	router := newRouter()
	registerAuthRoutes(router, handler)

	api := router.Group("/api/v1", handler.HandleAuthMiddleware)

	taskRouter := api.Group("/tasks")
	taskRouter.POST("", handler.HandleCreateTask)
	taskRouter.GET("", handler.HandleGetTasks)
	taskRouter.GET("/search", handler.HandleSearchTasks)
	taskRouter.GET("/:id", handler.HandleGetTask)
	taskRouter.PUT("/:id", handler.HandleUpdateTask)
	taskRouter.PATCH("/:id/complete", handler.HandleCompleteTask)
	taskRouter.DELETE("/:id", handler.HandleDeleteTask)

	notificationRouter := api.Group("/notifications")
	notificationRouter.GET("", handler.HandleGetNotifications)
	notificationRouter.PATCH("/read-all", handler.HandleMarkAllNotificationsRead)
	notificationRouter.PATCH("/:id/read", handler.HandleMarkNotificationRead)

	mustListenAndServe(router)
}

// MustServeChatAPI runs the chatbot service: the /chat endpoint and
// conversation history. Blocks until shutdown.
func MustServeChatAPI() {
	cfg := config.Global()

	conversations := services.NewConversationService(
		globalLogger,
		globalPostgresPool,
		cfg.Agent.SessionTimeout,
		cfg.Agent.ContextMessageLimit,
	)
	chatAgent := agent.New(
		globalLogger,
		agent.NewCompletionClient(globalLogger, cfg.Agent),
		conversations,
		agent.NewExecutor(globalLogger, newTaskService()),
		cfg.Agent.MaxToolRounds,
	)

	handler := v1.New(v1.Deps{
		Logger:        globalLogger,
		Auth:          newAuthService(),
		Sessions:      services.NewSessionService(globalLogger, globalPostgresPool),
		Conversations: conversations,
		Agent:         chatAgent,
		Cache:         globalCache,
		ChatRateLimit: cfg.Agent.ChatRateLimitPerMin,
	})

	router := newRouter()
	registerAuthRoutes(router, handler)

	api := router.Group("/api/v1", handler.HandleAuthMiddleware)
	api.POST("/chat", handler.HandleChat)
	api.GET("/conversations", handler.HandleListConversations)
	api.GET("/conversations/:id/messages", handler.HandleGetConversationMessages)

	mustListenAndServe(router)
}

func registerAuthRoutes(router gin.IRouter, handler v1.Handler) {
	authRouter := router.Group("/api/v1/auth")
	authRouter.POST("/login", handler.HandleLogin)
	authRouter.POST("/refresh", handler.HandleRefresh)
	authRouter.POST("/register", handler.HandleRegister)
	authRouter.POST("/logout", handler.HandleAuthMiddleware, handler.HandleLogout)
}
