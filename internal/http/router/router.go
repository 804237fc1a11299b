package router

import (
	"github.com/gin-gonic/gin"

	"bartuchat.app/server/internal/http/handler"
	"bartuchat.app/server/internal/http/middleware"
	"bartuchat.app/server/internal/service"
)

type RouterConfig struct {
	IsProduction bool
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	auth := services.Auth()

	authHandler := handler.NewAuthHandler(auth, cfg.IsProduction)
	AuthRouter(router.Group("/auth"), authHandler)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RequireAuth(auth))
	{
		chatHandler := handler.NewChatHandler(services.Chat())
		ChatRouter(v1.Group("/chat"), chatHandler)

		conversationHandler := handler.NewConversationHandler(services.Conversations())
		ConversationRouter(v1.Group("/conversations"), conversationHandler)

		catalogHandler := handler.NewCatalogHandler(services.Catalog())
		CatalogRouter(v1.Group("/models"), catalogHandler)

		attachmentHandler := handler.NewAttachmentHandler(services.Attachments())
		AttachmentRouter(v1.Group("/attachments"), attachmentHandler)
	}
}
