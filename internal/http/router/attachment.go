package router

import (
	"github.com/gin-gonic/gin"

	"bartuchat.app/server/internal/http/handler"
)

func AttachmentRouter(rg *gin.RouterGroup, h *handler.AttachmentHandler) {
	rg.GET("", h.List)
	rg.POST("", h.Upload)
	rg.DELETE("/:id", h.Delete)
}
