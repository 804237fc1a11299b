package router

import (
	"github.com/gin-gonic/gin"

	"bartuchat.app/server/internal/http/handler"
)

func ConversationRouter(rg *gin.RouterGroup, h *handler.ConversationHandler) {
	rg.GET("", h.List)
	rg.GET("/:url", h.Get)
	rg.PATCH("/:url", h.Rename)
	rg.DELETE("/:url", h.Delete)
}
