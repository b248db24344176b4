package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/luminahq/lumina/internal/agent"
	"github.com/luminahq/lumina/internal/cache"
	"github.com/luminahq/lumina/internal/services"
)

type Handler interface {
	HandleLogin(c *gin.Context)
	HandleRefresh(c *gin.Context)
	HandleRegister(c *gin.Context)
	HandleLogout(c *gin.Context)
	HandleAuthMiddleware(c *gin.Context)

	HandleCreateTask(c *gin.Context)
	HandleGetTasks(c *gin.Context)
	HandleGetTask(c *gin.Context)
	HandleUpdateTask(c *gin.Context)
	HandleCompleteTask(c *gin.Context)
	HandleDeleteTask(c *gin.Context)
	HandleSearchTasks(c *gin.Context)

	HandleGetNotifications(c *gin.Context)
	HandleMarkNotificationRead(c *gin.Context)
	HandleMarkAllNotificationsRead(c *gin.Context)

	HandleChat(c *gin.Context)
	HandleListConversations(c *gin.Context)
	HandleGetConversationMessages(c *gin.Context)
}

// Deps carries the handler's collaborators. The chat fields stay nil
// in the task API binary, whose router never registers chat routes.
type Deps struct {
	Logger        zerolog.Logger
	Auth          services.AuthService
	Sessions      services.SessionService
	Tasks         services.TaskService
	Notifications services.NotificationService
	Conversations services.ConversationService
	Agent         *agent.Agent
	Cache         *cache.Client
	ChatRateLimit int
}

type handlerImpl struct {
	logger        zerolog.Logger
	auth          services.AuthService
	sessions      services.SessionService
	tasks         services.TaskService
	notifications services.NotificationService
	conversations services.ConversationService
	agent         *agent.Agent
	cache         *cache.Client
	chatRateLimit int
}

func New(deps Deps) Handler {
	return &handlerImpl{
		logger:        deps.Logger,
		auth:          deps.Auth,
		sessions:      deps.Sessions,
		tasks:         deps.Tasks,
		notifications: deps.Notifications,
		conversations: deps.Conversations,
		agent:         deps.Agent,
		cache:         deps.Cache,
		chatRateLimit: deps.ChatRateLimit,
	}
}
