package router

import (
	"github.com/gin-gonic/gin"

	"github.com/Margiorno/todo-app-sub000/internal/config"
	"github.com/Margiorno/todo-app-sub000/internal/handler"
	"github.com/Margiorno/todo-app-sub000/internal/middleware"
	"github.com/Margiorno/todo-app-sub000/pkg/jwt"
)

// Setup wires every route behind the session middleware.
func Setup(
	cfg *config.Config,
	jwtService *jwt.Service,
	sessions middleware.SessionResolver,
	chatHandler *handler.ChatHandler,
	notificationHandler *handler.NotificationHandler,
	socialHandler *handler.SocialHandler,
	wsHandler *handler.WSHandler,
) *gin.Engine {
	gin.SetMode(cfg.App.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowCredentials,
	))

	authenticated := r.Group("")
	authenticated.Use(middleware.Auth(jwtService, sessions))
	{
		chat := authenticated.Group("/chat")
		{
			chat.GET("/conversations", chatHandler.GetConversations)
			chat.GET("/:chatId/messages", chatHandler.GetMessages)
			chat.POST("/new", chatHandler.Create)
			chat.GET("/get-chat/:userId", chatHandler.GetPrivateChat)
		}

		notifications := authenticated.Group("/notifications")
		{
			notifications.GET("/getAll", notificationHandler.GetAll)
		}

		social := authenticated.Group("/social")
		{
			// One param name per segment position: gin's tree rejects
			// sibling wildcards with different names.
			social.POST("/:id/invite", socialHandler.Invite)
			social.POST("/:id/accept", socialHandler.Accept)
			social.POST("/:id/decline", socialHandler.Decline)
			social.POST("/:id/cancel", socialHandler.Cancel)
			social.GET("/:id/status", socialHandler.Status)
			social.GET("/friends", socialHandler.Friends)
			social.POST("/:id/remove", socialHandler.Remove)
		}

		authenticated.GET("/ws", wsHandler.Serve)
	}

	return r
}
